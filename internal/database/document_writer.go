package database

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/example/wordreview/internal/logger"
)

// ErrWriterClosed is returned when scheduling on a closed DocumentWriter
var ErrWriterClosed = errors.New("document writer closed")

// DocumentWriter persists documents on a single background goroutine.
// Scheduling never blocks: only the latest value per key is kept, so a burst
// of updates collapses into one write. Failed writes are logged and reported
// on Errors as *PersistenceError.
type DocumentWriter struct {
	store   DocumentStore
	logger  *logger.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending map[string][]byte
	closed  bool

	notify   chan struct{}
	flushReq chan chan struct{}
	stop     chan struct{}
	done     chan struct{}
	errs     chan error

	errMu    sync.Mutex
	firstErr error
}

// NewDocumentWriter starts a writer on store; timeout bounds every write
func NewDocumentWriter(store DocumentStore, log *logger.Logger, timeout time.Duration) *DocumentWriter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	w := &DocumentWriter{
		store:    store,
		logger:   log.With("component", "document_writer"),
		timeout:  timeout,
		pending:  make(map[string][]byte),
		notify:   make(chan struct{}, 1),
		flushReq: make(chan chan struct{}),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		errs:     make(chan error, 16),
	}
	go w.loop()
	return w
}

// Schedule queues value to be written under key, replacing any value still pending
func (w *DocumentWriter) Schedule(key string, value []byte) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWriterClosed
	}
	w.pending[key] = value
	w.mu.Unlock()

	select {
	case w.notify <- struct{}{}:
	default:
	}
	return nil
}

// Errors delivers write failures. Errors are dropped when nobody reads them.
// The channel is closed once the writer stops.
func (w *DocumentWriter) Errors() <-chan error {
	return w.errs
}

// Flush waits until everything scheduled so far has been written
func (w *DocumentWriter) Flush(ctx context.Context) error {
	reply := make(chan struct{})
	select {
	case w.flushReq <- reply:
	case <-w.done:
		return w.Err()
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes what is still pending and stops the writer.
// It returns the first write error seen during the writer's lifetime.
func (w *DocumentWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.stop)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return w.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the first write error, if any
func (w *DocumentWriter) Err() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.firstErr
}

func (w *DocumentWriter) loop() {
	defer close(w.done)
	defer close(w.errs)

	for {
		select {
		case <-w.notify:
			w.drain()
		case reply := <-w.flushReq:
			w.drain()
			close(reply)
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *DocumentWriter) drain() {
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[string][]byte)
	w.mu.Unlock()

	for key, value := range batch {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := w.store.Set(ctx, key, value)
		cancel()
		if err != nil {
			w.report(&PersistenceError{Key: key, Op: "set", Err: err})
			continue
		}
		w.logger.Debug("document written", "key", key, "bytes", len(value))
	}
}

func (w *DocumentWriter) report(err *PersistenceError) {
	w.logger.Error("failed to persist document", "key", err.Key, "error", err.Err)

	w.errMu.Lock()
	if w.firstErr == nil {
		w.firstErr = err
	}
	w.errMu.Unlock()

	select {
	case w.errs <- err:
	default:
	}
}
