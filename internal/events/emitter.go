package events

import (
	"context"
	"sync"
	"time"

	"github.com/example/wordreview/internal/logger"
)

// InMemoryEmitter fans events out to the handlers registered in this process.
// Delivery is best-effort and unordered: each Emit dispatches on its own
// goroutine and handler errors are only logged.
type InMemoryEmitter struct {
	handlers []Handler
	mu       sync.RWMutex
	wg       sync.WaitGroup
	timeout  time.Duration
	logger   *logger.Logger
}

// NewInMemoryEmitter creates an emitter; timeout bounds each handler call
func NewInMemoryEmitter(log *logger.Logger, timeout time.Duration) *InMemoryEmitter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &InMemoryEmitter{
		handlers: make([]Handler, 0),
		timeout:  timeout,
		logger:   log.With("component", "event_emitter"),
	}
}

// RegisterHandler adds a handler that receives every subsequent event
func (e *InMemoryEmitter) RegisterHandler(handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered event handler", "handler_count", len(e.handlers))
}

// Emit dispatches event in the background and returns immediately
func (e *InMemoryEmitter) Emit(event *Event) {
	e.mu.RLock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		_ = e.dispatch(ctx, handlers, event)
	}()
}

// EmitSync delivers event to every handler before returning.
// All handlers are called even if one fails; the first error is returned.
func (e *InMemoryEmitter) EmitSync(ctx context.Context, event *Event) error {
	e.mu.RLock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	return e.dispatch(ctx, handlers, event)
}

func (e *InMemoryEmitter) dispatch(ctx context.Context, handlers []Handler, event *Event) error {
	var firstErr error
	for i, handler := range handlers {
		if err := handler.HandleEvent(ctx, event); err != nil {
			e.logger.Error("handler failed to process event",
				"error", err,
				"handler_index", i,
				"event_id", event.ID,
				"event_type", event.Type)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Wait blocks until every event emitted so far has been dispatched
func (e *InMemoryEmitter) Wait() {
	e.wg.Wait()
}
