// Package http contains the Gin HTTP handlers for both request
// families: the authenticated file-operation endpoints under /files,
// and the execution-gateway endpoints under /mcp. Gateway payloads are
// validated field-by-field (presence, type, encoding) before any
// filesystem or process activity.
package http
