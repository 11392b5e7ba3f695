// Package csvrow reads CSV files as a sequence of rows keyed by header.
//
// The first record is the header. Every following record is paired with it
// cell by cell into a Row. Three shapes are provided:
//   - Iterator: one-shot. Opens the file on the first Next and closes it when
//     the records run out, on a read error or on Close.
//   - Source: restartable. Each Iter or All call opens a fresh Iterator.
//   - Stream: asynchronous. Runs an Iterator on its own goroutine and hands
//     rows over a channel until the file ends or the context is canceled.
package csvrow
