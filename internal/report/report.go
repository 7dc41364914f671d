// Package report is the single place background failures go.
//
// Drag persistence and polling never surface errors to the user; they are
// recorded here instead so the decision is uniform and visible in one place.
package report

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Failure describes one failed background operation.
type Failure struct {
	Op      string
	BoardID string
	CardID  string
	TaskID  string
	Err     error
}

type Sink interface {
	Report(ctx context.Context, f Failure)
}

// LogSink writes failures as structured logrus entries.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.New()
		logger.SetOutput(io.Discard)
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Logger() *log.Logger { return s.logger }

func (s *LogSink) Report(ctx context.Context, f Failure) {
	if s == nil || f.Err == nil {
		return
	}
	entry := s.logger.WithContext(ctx).WithField("op", f.Op)
	if f.BoardID != "" {
		entry = entry.WithField("board", f.BoardID)
	}
	if f.CardID != "" {
		entry = entry.WithField("card", f.CardID)
	}
	if f.TaskID != "" {
		entry = entry.WithField("task", f.TaskID)
	}
	// A cancelled scope is routine (view closed mid-request).
	if errors.Is(f.Err, context.Canceled) {
		entry.WithError(f.Err).Debug("background operation cancelled")
		return
	}
	entry.WithError(f.Err).Warn("background operation failed")
}

// OpenLogger returns a JSON logrus logger appending to path. An empty path
// discards output. The returned closer must be called on shutdown.
func OpenLogger(path string, debug bool) (*log.Logger, io.Closer, error) {
	logger := log.New()
	logger.SetFormatter(&log.JSONFormatter{})
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	if path == "" {
		logger.SetOutput(io.Discard)
		return logger, nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	logger.SetOutput(f)
	return logger, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Recorder keeps failures in memory.
type Recorder struct {
	mu       sync.Mutex
	failures []Failure
}

func (r *Recorder) Report(_ context.Context, f Failure) {
	if f.Err == nil {
		return
	}
	r.mu.Lock()
	r.failures = append(r.failures, f)
	r.mu.Unlock()
}

func (r *Recorder) Failures() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Failure(nil), r.failures...)
}

// Discard drops every failure.
var Discard Sink = discard{}

type discard struct{}

func (discard) Report(context.Context, Failure) {}
