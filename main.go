package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streamlit-analytics/batcher"
	"streamlit-analytics/cache"
	"streamlit-analytics/config"
	"streamlit-analytics/handlers"
	"streamlit-analytics/logger"
	"streamlit-analytics/metrics"
	middleware "streamlit-analytics/middlewares"
	"streamlit-analytics/models"
	"streamlit-analytics/pubsub"
	"streamlit-analytics/queue"
	"streamlit-analytics/store"
	"streamlit-analytics/tracker"
	"streamlit-analytics/utils"
	"streamlit-analytics/version"
)

type eventBatcher interface {
	Enqueue(evt models.Event)
	Flush()
	Stop()
}

// persister saves counter snapshots to the database and, when configured,
// to the JSON file. With an owner set it only saves while holding the
// database writer lease.
type persister struct {
	counter  *tracker.Counter
	repo     *store.Repository
	jsonPath string
	owner    string
	leaseTTL time.Duration
	dirty    atomic.Bool
}

func (p *persister) renew(ctx context.Context) error {
	if p.owner == "" {
		return nil
	}
	return p.repo.AcquireLease(ctx, p.owner, p.leaseTTL)
}

func (p *persister) save(ctx context.Context) error {
	if err := p.renew(ctx); err != nil {
		metrics.PersistFailed()
		p.dirty.Store(true)
		return err
	}
	snap := p.counter.Snapshot()
	err := utils.RetryWithExponentialBackoff(ctx, func() error {
		return p.repo.Save(ctx, snap)
	}, 5, 100*time.Millisecond)
	if err == nil && p.jsonPath != "" {
		err = store.SaveJSON(p.jsonPath, snap)
	}
	if err != nil {
		metrics.PersistFailed()
		p.dirty.Store(true)
	}
	return err
}

// load restores the counter from the JSON file if it exists, else from the
// database.
func (p *persister) load(ctx context.Context) error {
	if p.jsonPath != "" {
		snap, err := store.LoadJSON(p.jsonPath)
		switch {
		case err == nil:
			logger.Log.WithField("path", p.jsonPath).Info("loaded counts from JSON file")
			return p.counter.Load(snap)
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
	}
	snap, err := p.repo.Load(ctx)
	if err != nil {
		return err
	}
	return p.counter.Load(snap)
}

// flush feeds a batch into the counter and marks the snapshot dirty.
func (p *persister) flush(events []models.Event) {
	n, err := p.counter.RecordAll(events)
	metrics.BatchFlushed(len(events))
	if err != nil {
		metrics.EventsRejected(len(events) - n)
		logger.Log.WithError(err).Warnf("dropped %d of %d events", len(events)-n, len(events))
	}
	if n > 0 {
		p.dirty.Store(true)
	}
}

// run enqueues a save on every tick while there are unsaved changes. flush,
// when set, drains the batcher first so slow count batches still land.
func (p *persister) run(ctx context.Context, worker *queue.Worker, every time.Duration, flush func()) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if flush != nil {
				flush()
			}
			if p.dirty.Swap(false) {
				if err := worker.Enqueue("persist", p.save); err != nil {
					p.dirty.Store(true)
				}
			} else if p.owner != "" {
				worker.Enqueue("lease", p.renew)
			}
		}
	}
}

func newBatcher(settings *config.Settings, flush batcher.FlushFunc) eventBatcher {
	if settings.BatchMode == "count" {
		return batcher.NewCountBatcher(settings.BatchThreshold, flush)
	}
	b := batcher.NewTimeBatcher(settings.BatchInterval, flush)
	b.Start()
	return b
}

func newChartCache(settings *config.Settings, redisStore *cache.RedisStore) (cache.ChartCache, error) {
	switch settings.CacheBackend {
	case "redis":
		if redisStore == nil {
			return nil, errors.New("redis chart cache needs ANALYTICS_REDIS_ADDR")
		}
		return redisStore, nil
	case "bigcache":
		return cache.NewBigCacheStore(settings.ChartCacheTTL)
	default:
		return nil, nil
	}
}

func newRouter(h *handlers.Handlers, limiter *middleware.RateLimiter, trackingKey string) *mux.Router {
	sentryHandler := sentryhttp.New(sentryhttp.Options{Repanic: false})

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)
	r.Use(sentryHandler.Handle)
	r.Use(middleware.SentryAlertMiddleware)
	r.Use(middleware.ResponseTimeMiddleware)

	var track http.Handler = http.HandlerFunc(h.TrackHandler)
	track = middleware.TrackingKeyMiddleware(trackingKey)(track)
	track = limiter.Middleware(track)
	r.Handle("/track", track).Methods("POST")

	r.HandleFunc("/analytics", h.DashboardHandler).Methods("GET", "POST")
	r.HandleFunc("/analytics.json", h.DocumentHandler).Methods("GET", "POST")
	r.HandleFunc("/analytics/chart.svg", h.ChartHandler).Methods("GET", "POST")
	r.HandleFunc("/analytics/reset", h.ResetHandler).Methods("POST")
	r.HandleFunc("/", h.DashboardHandler).Methods("GET", "POST").Queries("analytics", "on")
	r.HandleFunc("/health", h.HealthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	return r
}

func main() {
	settings, err := config.LoadSettings()
	if err != nil {
		logger.Log.Fatalf("Failed to load settings: %v", err)
	}
	if err := logger.Setup(logger.Options{
		Dir:        settings.LogDir,
		Level:      settings.LogLevel,
		Format:     settings.LogFormat,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}); err != nil {
		logger.Log.Fatalf("Failed to set up logging: %v", err)
	}
	logger.Log.Infof("%s", version.String())

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.SentryDSN,
		Release:          version.Name + "@" + version.Version,
		TracesSampleRate: 0.2,
	}); err != nil {
		logger.Log.Warnf("Sentry initialization failed: %v", err)
	}
	defer sentry.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(settings.DBPath)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize the database: %v", err)
	}

	counter := tracker.New(tracker.WithSessionTTL(settings.SessionTTL))
	p := &persister{
		counter:  counter,
		repo:     store.NewRepository(db),
		jsonPath: settings.JSONPath,
		owner:    "server:" + utils.NewSessionID(),
		leaseTTL: store.LeaseTTL(settings.PersistEvery),
	}
	if err := p.renew(ctx); err != nil {
		logger.Log.Fatalf("Refusing to start: %v", err)
	}
	if err := p.load(ctx); err != nil {
		logger.Log.Fatalf("Failed to load persisted counts: %v", err)
	}

	var redisStore *cache.RedisStore
	if settings.RedisAddr != "" {
		redisStore, err = cache.NewRedisStore(settings.RedisAddr, settings.RedisPassword, settings.RedisDB, settings.ChartCacheTTL)
		if err != nil {
			logger.Log.WithError(err).Warn("Redis unavailable, running without pub/sub and rate limiting")
			redisStore = nil
		}
	}
	charts, err := newChartCache(settings, redisStore)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize chart cache: %v", err)
	}

	worker := queue.NewWorker(16)
	worker.Start(context.Background())

	events := newBatcher(settings, p.flush)
	if redisStore != nil {
		ps := pubsub.NewPubSub(redisStore)
		if err := ps.Subscribe(ctx, events.Enqueue); err != nil {
			logger.Log.WithError(err).Warn("not consuming published events")
		}
	}
	go p.run(ctx, worker, settings.PersistEvery, events.Flush)

	h := handlers.New(counter, settings.Password())
	h.Events = events
	h.DB = db
	h.Charts = charts
	h.OnReset = func() { p.dirty.Store(true) }

	limiter := middleware.NewRateLimiter(redisStore, settings.RateLimitMode, settings.RateLimit, settings.RateLimitWindow)
	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           newRouter(h, limiter, settings.TrackingKey),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server is running on http://localhost:%s", settings.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("HTTP shutdown")
	}
	events.Stop()
	worker.Stop()
	if err := p.save(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("final save failed")
		sentry.CaptureException(err)
	}
	if err := p.repo.ReleaseLease(shutdownCtx, p.owner); err != nil {
		logger.Log.WithError(err).Warn("could not release the writer lease")
	}
	if charts != nil {
		charts.Close()
	}
}
