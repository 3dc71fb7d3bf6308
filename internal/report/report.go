// Package report carries failures that are swallowed at a boundary (a load
// triggered by a file notification, a callable that will not parse) to
// whoever wants to know about them.
package report

import (
	"sync"

	"go.uber.org/zap"
)

// Failure describes one recoverable failure.
type Failure struct {
	Op       string // load, parse, refresh, ...
	ObjectID string
	File     string
	Err      error
}

// Sink receives failures. Implementations must be safe for concurrent use.
type Sink interface {
	Report(f Failure)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Failure)

// Report calls fn(f).
func (fn SinkFunc) Report(f Failure) { fn(f) }

// Discard drops every failure.
var Discard Sink = SinkFunc(func(Failure) {})

// ZapSink logs failures at warn level.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink returns a Sink that writes to logger.
func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

// Report implements Sink.
func (s *ZapSink) Report(f Failure) {
	fields := []zap.Field{zap.String("op", f.Op), zap.Error(f.Err)}
	if f.ObjectID != "" {
		fields = append(fields, zap.String("objectId", f.ObjectID))
	}
	if f.File != "" {
		fields = append(fields, zap.String("file", f.File))
	}
	s.logger.Warn("operation failed", fields...)
}

// Recorder keeps every failure in memory until stopped.
type Recorder struct {
	mu       sync.Mutex
	failures []Failure
	stopped  bool
}

// Report implements Sink.
func (r *Recorder) Report(f Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.failures = append(r.failures, f)
}

// Failures returns a copy of everything reported so far.
func (r *Recorder) Failures() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Failure, len(r.failures))
	copy(out, r.failures)
	return out
}

// Len returns the number of failures reported.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures)
}

// Reset forgets everything reported so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = nil
}

// Stop forgets everything recorded and drops later failures. Long-running
// callers use it once the failures they wanted are read.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = nil
	r.stopped = true
}

// Tee reports to every sink in order.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(f Failure) {
		for _, s := range sinks {
			if s != nil {
				s.Report(f)
			}
		}
	})
}
