// Package netx contains transfer helpers shared by uploads and downloads.
package netx

import (
	"io"
	"sync"
)

// ProgressFunc receives the bytes transferred so far and the expected total.
type ProgressFunc func(done, total int64)

// ProgressReader reports every read against a known total. Reports are
// monotonic and the callback is never invoked concurrently.
type ProgressReader struct {
	r     io.Reader
	total int64
	fn    ProgressFunc

	mu   sync.Mutex
	done int64
}

func NewProgressReader(r io.Reader, total int64, fn ProgressFunc) *ProgressReader {
	return &ProgressReader{r: r, total: total, fn: fn}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.fn != nil {
		p.mu.Lock()
		p.done += int64(n)
		p.fn(p.done, p.total)
		p.mu.Unlock()
	}
	return n, err
}

// Percent maps done/total to 0..100. A zero total counts as complete.
func Percent(done, total int64) int {
	if total <= 0 {
		return 100
	}
	if done >= total {
		return 100
	}
	if done <= 0 {
		return 0
	}
	return int(done * 100 / total)
}
