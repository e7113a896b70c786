// Package chunked splits response bodies into chunks and streams them with
// a delay between writes.
package chunked

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// DefaultChunks is the chunk count used when none is configured.
const DefaultChunks = 2

// ErrStreamingUnsupported is returned when the writer cannot flush.
var ErrStreamingUnsupported = errors.New("response writer does not support flushing")

// Config describes how a body is chunked.
type Config struct {
	Chunks int
	Delay  time.Duration
}

// Split cuts data into n chunks. Every chunk holds len(data)/n bytes and the
// first len(data)%n chunks hold one more, so the chunks concatenate to data.
// n below one is treated as one.
func Split(data []byte, n int) [][]byte {
	if n < 1 {
		n = 1
	}
	size := len(data) / n
	remainder := len(data) % n

	chunks := make([][]byte, 0, n)
	offset := 0
	for i := 0; i < n; i++ {
		end := offset + size
		if i < remainder {
			end++
		}
		chunks = append(chunks, data[offset:end])
		offset = end
	}
	return chunks
}

// Write sends chunks to w, flushing after each one. The first chunk is sent
// at once and each later chunk after delay. It stops early when ctx is done.
func Write(ctx context.Context, w http.ResponseWriter, chunks [][]byte, delay time.Duration) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return ErrStreamingUnsupported
	}

	for i, chunk := range chunks {
		if i > 0 && delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := w.Write(chunk); err != nil {
			return err
		}
		flusher.Flush()
	}
	return nil
}
