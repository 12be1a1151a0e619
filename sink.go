package funcache

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Sink collects diagnostic records for cache-layer failures. Implementations
// must be best-effort: a failure inside Record is swallowed, never escalated
// to the caller.
type Sink interface {
	Record(detail string)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(detail string)

// Record implements Sink.
func (f SinkFunc) Record(detail string) {
	if f == nil {
		return
	}
	f(detail)
}

type discardSink struct{}

func (discardSink) Record(string) {}

// FileSink appends one line per failure to a log file:
//
//	[<RFC3339 timestamp>] <detail>
//
// The file is created on first use. Write errors are ignored.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink returns a sink appending to the file at path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Record implements Sink.
func (s *FileSink) Record(detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(f, "[%s] %s\n", timeNow().Format(time.RFC3339), detail)
	_ = f.Close()
}
