// Package warehouse streams CSV rows into a table.
//
// Every backend speaks the same row-insert contract: a table reference plus
// a list of JSON-like rows in, a list of per-row errors out. An empty list
// means every row landed. A non-nil error means the call itself failed and
// no per-row outcome is known.
//
// Backends: BigQuery streaming inserts, SQLite, Postgres and MongoDB
// document tables, and an in-memory table for tests and dry runs.
package warehouse
