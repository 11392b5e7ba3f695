// Package pkgrouter is the HTTP edge of goweave.
//
// Handlers return a value or an error; the router encodes values in the
// {message, data, meta} envelope and maps *pkgerror.Error to a status code.
// Every route gets panic recovery, a correlation ID and an access log.
// Upload bodies (CSV, images, multipart) reach handlers as untouched streams.
package pkgrouter
