// Package pkgroutine runs background work on a bounded pool.
//
// A Manager caps how many tasks run at once, turns panics into errors, and
// hands every task error back from Wait. Upload jobs and blocking warehouse
// calls are scheduled on it.
package pkgroutine
