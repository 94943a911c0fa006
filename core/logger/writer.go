package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// syncWriter fans each log line out to all sinks under a single lock so
// lines from concurrent chats never interleave.
type syncWriter struct {
	mu    sync.Mutex
	sinks []*bufio.Writer
}

func newSyncWriter(writers ...io.Writer) *syncWriter {
	w := &syncWriter{}
	for _, out := range writers {
		if out == nil {
			continue
		}
		w.sinks = append(w.sinks, bufio.NewWriterSize(out, 16*1024))
	}
	return w
}

// Write copies the line to every sink and flushes it immediately.
func (w *syncWriter) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, sink := range w.sinks {
		if _, err := sink.Write(p); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush pushes any buffered bytes to the sinks.
func (w *syncWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, sink := range w.sinks {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
