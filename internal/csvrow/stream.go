package csvrow

import "context"

// Result carries one streamed row or the error that ended the stream.
type Result struct {
	Row Row
	Err error
}

// Stream reads it on a new goroutine and sends each row on the returned
// channel. The channel is closed, and the iterator with it, once the input is
// exhausted, after a read error (sent as the last Result) or when ctx is done.
func Stream(ctx context.Context, it *Iterator, buffer int) <-chan Result {
	if buffer < 0 {
		buffer = 0
	}
	out := make(chan Result, buffer)

	go func() {
		defer close(out)
		defer it.Close()

		for it.Next() {
			select {
			case out <- Result{Row: it.Row()}:
			case <-ctx.Done():
				return
			}
		}

		if err := it.Err(); err != nil {
			select {
			case out <- Result{Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return out
}
