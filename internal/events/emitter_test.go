package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordreview/internal/logger"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []*Event
	err    error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func TestInMemoryEmitter_Emit(t *testing.T) {
	t.Parallel()
	emitter := NewInMemoryEmitter(logger.NewNop(), time.Second)
	first := &recordingHandler{}
	second := &recordingHandler{err: errors.New("boom")}
	emitter.RegisterHandler(first)
	emitter.RegisterHandler(second)

	emitter.Emit(NewEvent(WordAdded, "apple"))
	emitter.Emit(NewEvent(WordRemoved, "pear"))
	emitter.Wait()

	assert.Equal(t, 2, first.count())
	assert.Equal(t, 2, second.count())
}

func TestInMemoryEmitter_NoHandlers(t *testing.T) {
	t.Parallel()
	emitter := NewInMemoryEmitter(logger.NewNop(), 0)

	assert.NotPanics(t, func() {
		emitter.Emit(NewEvent(CollectionChanged, ""))
		emitter.Wait()
	})
	assert.NoError(t, emitter.EmitSync(context.Background(), NewEvent(CollectionChanged, "")))
}

func TestInMemoryEmitter_EmitSyncReturnsFirstError(t *testing.T) {
	t.Parallel()
	emitter := NewInMemoryEmitter(logger.NewNop(), time.Second)
	errFirst := errors.New("first")
	failing := &recordingHandler{err: errFirst}
	other := &recordingHandler{err: errors.New("second")}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(other)

	err := emitter.EmitSync(context.Background(), NewEvent(WordUpdated, "apple"))
	assert.ErrorIs(t, err, errFirst)
	assert.Equal(t, 1, other.count())
}

func TestHandlerFunc(t *testing.T) {
	t.Parallel()
	var got Type
	h := HandlerFunc(func(_ context.Context, e *Event) error {
		got = e.Type
		return nil
	})
	require.NoError(t, h.HandleEvent(context.Background(), NewEvent(WordUpdated, "x")))
	assert.Equal(t, WordUpdated, got)
}

type fakePublisher struct {
	channel string
	payload []byte
	err     error
}

func (p *fakePublisher) Publish(_ context.Context, channel string, message interface{}) *goredis.IntCmd {
	p.channel = channel
	p.payload, _ = message.([]byte)
	return goredis.NewIntResult(1, p.err)
}

func TestRedisHandler(t *testing.T) {
	t.Parallel()
	pub := &fakePublisher{}
	handler := NewRedisHandler(pub, "")

	event := NewEvent(WordAdded, "apple")
	event.Total = 3
	require.NoError(t, handler.HandleEvent(context.Background(), event))
	assert.Equal(t, "wordreview:events", pub.channel)

	var decoded Event
	require.NoError(t, json.Unmarshal(pub.payload, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, WordAdded, decoded.Type)
	assert.Equal(t, 3, decoded.Total)

	pub.err = errors.New("connection refused")
	assert.Error(t, handler.HandleEvent(context.Background(), event))
}
