// Command collector consumes events published to Redis and persists the
// counts to SQLite without serving HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"streamlit-analytics/batcher"
	"streamlit-analytics/cache"
	"streamlit-analytics/config"
	"streamlit-analytics/logger"
	"streamlit-analytics/models"
	"streamlit-analytics/pubsub"
	"streamlit-analytics/store"
	"streamlit-analytics/tracker"
	"streamlit-analytics/utils"
)

func main() {
	settings, err := config.LoadSettings()
	if err != nil {
		logger.Log.Fatalf("Failed to load settings: %v", err)
	}
	if err := logger.Setup(logger.Options{Dir: settings.LogDir, Level: settings.LogLevel, Format: settings.LogFormat}); err != nil {
		logger.Log.Fatalf("Failed to set up logging: %v", err)
	}
	if err := sentry.Init(sentry.ClientOptions{Dsn: settings.SentryDSN}); err != nil {
		logger.Log.Warnf("Sentry initialization failed: %v", err)
	}
	defer sentry.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(settings.DBPath)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize the database: %v", err)
	}
	repo := store.NewRepository(db)

	every := settings.PersistEvery
	if every <= 0 {
		every = 30 * time.Second
	}
	owner := "collector:" + utils.NewSessionID()
	ttl := store.LeaseTTL(every)
	if err := repo.AcquireLease(ctx, owner, ttl); err != nil {
		logger.Log.Fatalf("Refusing to start: %v", err)
	}
	defer func() {
		if err := repo.ReleaseLease(context.Background(), owner); err != nil {
			logger.Log.WithError(err).Warn("could not release the writer lease")
		}
	}()

	counter := tracker.New(tracker.WithSessionTTL(settings.SessionTTL))
	snap, err := repo.Load(ctx)
	if err != nil {
		logger.Log.Fatalf("Failed to load counts: %v", err)
	}
	if err := counter.Load(snap); err != nil {
		logger.Log.Fatalf("Failed to restore counts: %v", err)
	}

	redisStore, err := cache.NewRedisStore(settings.RedisAddr, settings.RedisPassword, settings.RedisDB, 0)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer redisStore.Close()

	save := func(ctx context.Context) {
		err := repo.AcquireLease(ctx, owner, ttl)
		if err == nil {
			snap := counter.Snapshot()
			err = utils.RetryWithExponentialBackoff(ctx, func() error {
				return repo.Save(ctx, snap)
			}, 5, 100*time.Millisecond)
		}
		if err != nil {
			logger.Log.WithError(err).Error("failed to persist counts")
			sentry.CaptureException(err)
		}
	}

	b := batcher.NewTimeBatcher(settings.BatchInterval, func(events []models.Event) {
		if _, err := counter.RecordAll(events); err != nil {
			logger.Log.WithError(err).Warn("dropped events")
		}
	})
	b.Start()

	if err := pubsub.NewPubSub(redisStore).Subscribe(ctx, b.Enqueue); err != nil {
		logger.Log.Fatalf("Failed to subscribe: %v", err)
	}
	logger.Log.Infof("Collecting events from %s on %s", settings.RedisAddr, pubsub.Channel)

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			save(ctx)
		case <-ctx.Done():
			b.Stop()
			save(context.Background())
			logger.Log.Info("Collector stopped")
			return
		}
	}
}
