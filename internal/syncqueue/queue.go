package syncqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/example/wordreview/internal/logger"
	"github.com/example/wordreview/pkg/models"
)

var (
	ErrQueueFull   = errors.New("sync queue is full, try again later")
	ErrQueueClosed = errors.New("sync queue closed")
)

// Item is one reviewed word waiting to be synced to the remote side
type Item struct {
	Word               string                `json:"word"`
	Progress           models.LearningRecord `json:"progress"`
	IsSuccessfulReview bool                  `json:"isSuccessfulReview"`
	Timestamp          time.Time             `json:"timestamp"`
}

// Queue accepts items without blocking the caller
type Queue interface {
	Enqueue(item Item) error
}

// Discard is a Queue that drops every item
type Discard struct{}

func (Discard) Enqueue(Item) error { return nil }

// Pusher is the part of the Redis client used to push items
type Pusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *goredis.IntCmd
}

// Config holds the queue settings
type Config struct {
	Key         string
	QueueSize   int
	PushTimeout time.Duration
}

// DefaultConfig returns a Config with reasonable defaults
func DefaultConfig() Config {
	return Config{
		Key:         "wordreview:sync",
		QueueSize:   256,
		PushTimeout: 5 * time.Second,
	}
}

// RedisQueue buffers items in memory and pushes them to a Redis list from a
// single goroutine.
type RedisQueue struct {
	rdb    Pusher
	config Config
	logger *logger.Logger

	mu     sync.RWMutex
	items  chan Item
	closed bool
	wg     sync.WaitGroup

	errHandler func(item Item, err error)
}

// NewRedisQueue creates a queue; call Start to begin pushing
func NewRedisQueue(rdb Pusher, config Config, log *logger.Logger) *RedisQueue {
	defaults := DefaultConfig()
	if config.Key == "" {
		config.Key = defaults.Key
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.PushTimeout <= 0 {
		config.PushTimeout = defaults.PushTimeout
	}

	q := &RedisQueue{
		rdb:    rdb,
		config: config,
		logger: log.With("component", "sync_queue"),
		items:  make(chan Item, config.QueueSize),
	}
	q.errHandler = func(item Item, err error) {
		q.logger.Error("failed to push sync item", "word", item.Word, "error", err)
	}
	return q
}

// SetErrorHandler replaces the default handler, which only logs
func (q *RedisQueue) SetErrorHandler(handler func(item Item, err error)) {
	q.errHandler = handler
}

// Start launches the pusher goroutine
func (q *RedisQueue) Start() {
	q.wg.Add(1)
	go q.pusher()
}

// Enqueue adds item to the buffer, failing fast when it is full
func (q *RedisQueue) Enqueue(item Item) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop refuses new items and waits until the buffered ones are pushed
func (q *RedisQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.items)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *RedisQueue) pusher() {
	defer q.wg.Done()
	for item := range q.items {
		if err := q.push(item); err != nil {
			q.errHandler(item, err)
		}
	}
}

func (q *RedisQueue) push(item Item) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal sync item: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), q.config.PushTimeout)
	defer cancel()
	if err := q.rdb.RPush(ctx, q.config.Key, raw).Err(); err != nil {
		return fmt.Errorf("redis rpush %s: %w", q.config.Key, err)
	}
	return nil
}

// Connect opens a Redis client and checks it with a ping
func Connect(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
