// Package ingest streams CSV rows into a warehouse table.
//
// A Streamer works in one of three modes: batch (fixed-size buffers, one
// insert call per buffer), row (one insert call per row) or async (one insert
// call per row, run on a bounded worker pool). Rejected rows are logged and
// counted; they never abort the run and are never retried inline.
package ingest
