// Package pkgerror carries the error model shared by the HTTP edge.
//
// Use cases return *Error values built with the New* helpers; the router
// turns them into a status code and a JSON body. Anything else is reported
// as an internal error without leaking its text.
package pkgerror
