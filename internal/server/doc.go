// Package server assembles the HTTP server: configuration, logging,
// metrics, the storage engine, the execution sandbox, and the route
// table for both request families.
package server
