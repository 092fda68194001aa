// Command server runs the filedock HTTP service: confined per-user
// file storage plus the script execution gateway. Configuration comes
// from environment variables (see internal/infrastructure/config).
package main
