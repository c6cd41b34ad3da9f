package main

import (
	"context"
	"fmt"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/example/wordreview/internal/config"
	"github.com/example/wordreview/internal/database"
	"github.com/example/wordreview/internal/events"
	"github.com/example/wordreview/internal/logger"
	"github.com/example/wordreview/internal/review"
	"github.com/example/wordreview/internal/spaced_repetition"
	"github.com/example/wordreview/internal/syncqueue"
	"github.com/example/wordreview/internal/wrongwords"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the wired components shared by all commands
type app struct {
	config  *config.Config
	logger  *logger.Logger
	db      interface{ Close() error }
	vocab   *database.VocabularyRepository
	writer  *database.DocumentWriter
	emitter *events.InMemoryEmitter
	redis   *goredis.Client
	sync    *syncqueue.RedisQueue
	tracker *wrongwords.Tracker
	review  *review.Service
}

// bootstrap loads the configuration and wires storage, the wrong-word
// tracker and the review service. Redis is only connected when withRedis is
// set and an address is configured.
func bootstrap(ctx context.Context, envFile string, withRedis bool) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.Connect(cfg.Database.Type, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("connected to database", "driver", cfg.Database.Type)

	a := &app{
		config:  cfg,
		logger:  log,
		db:      db,
		vocab:   database.NewVocabularyRepository(db),
		emitter: events.NewInMemoryEmitter(log, 5*time.Second),
	}
	docs := database.NewDocuments(db)
	a.writer = database.NewDocumentWriter(docs, log, 10*time.Second)

	a.emitter.RegisterHandler(events.HandlerFunc(func(_ context.Context, e *events.Event) error {
		log.Debug("wrong words changed", "type", e.Type, "word", e.Word, "reason", e.Reason, "total", e.Total)
		return nil
	}))

	var syncQueue syncqueue.Queue = syncqueue.Discard{}
	if withRedis && cfg.Redis.Addr != "" {
		rdb, err := syncqueue.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.redis = rdb
		a.emitter.RegisterHandler(events.NewRedisHandler(rdb, cfg.Redis.EventsChannel))

		qcfg := syncqueue.DefaultConfig()
		qcfg.Key = cfg.Redis.SyncKey
		qcfg.QueueSize = cfg.Redis.QueueSize
		a.sync = syncqueue.NewRedisQueue(rdb, qcfg, log)
		a.sync.Start()
		syncQueue = a.sync
		log.Info("connected to redis", "addr", cfg.Redis.Addr)
	}

	a.tracker = wrongwords.New(docs, a.writer, a.emitter, log, wrongwords.Options{
		RemovalThreshold: cfg.Review.WrongWordThreshold,
	})
	if err := a.tracker.Initialize(ctx); err != nil {
		a.close(ctx)
		return nil, err
	}
	snapshot, err := a.vocab.Snapshot(ctx)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}
	if added := a.tracker.Bootstrap(snapshot); added > 0 {
		log.Info("wrong words bootstrapped from vocabulary", "added", added)
	}

	a.review = review.NewService(spaced_repetition.NewEngine(), a.tracker, a.vocab, docs, a.writer, syncQueue, log)
	a.review.SetBatchSize(cfg.Review.BatchSize)
	if err := a.review.Load(ctx); err != nil {
		a.close(ctx)
		return nil, err
	}
	return a, nil
}

// close flushes pending state and releases connections in reverse order
func (a *app) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if a.tracker != nil {
		if err := a.tracker.Dispose(ctx); err != nil {
			a.logger.Warn("failed to flush wrong words", "error", err)
		}
	}
	if err := a.writer.Close(ctx); err != nil {
		a.logger.Error("document writer finished with errors", "error", err)
	}
	a.emitter.Wait()
	if a.sync != nil {
		if err := a.sync.Stop(ctx); err != nil {
			a.logger.Warn("failed to drain sync queue", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", "error", err)
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
	a.logger.Sync()
}
