package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/diana-martinez-ship-it/estructura-avanzada/broker"
	"github.com/diana-martinez-ship-it/estructura-avanzada/common/metrics"
	"github.com/diana-martinez-ship-it/estructura-avanzada/delivery"
	"github.com/diana-martinez-ship-it/estructura-avanzada/discovery"
	"github.com/diana-martinez-ship-it/estructura-avanzada/discovery/consul"
	"github.com/diana-martinez-ship-it/estructura-avanzada/dispatch"
	"github.com/diana-martinez-ship-it/estructura-avanzada/health"
	"github.com/diana-martinez-ship-it/estructura-avanzada/inventory"
	"github.com/diana-martinez-ship-it/estructura-avanzada/queue"
)

type Config struct {
	ServiceName  string
	InstanceID   string
	HTTPAddr     string
	DataFile     string
	RabbitMQHost string
	RabbitMQPort string
	RabbitMQUser string
	RabbitMQPass string
	RedisAddr    string
	ConsulAddr   string
	RandomSeed   int64
}

type App struct {
	config       Config
	logger       *zap.Logger
	registry     discovery.Registry
	registration *ServiceRegistration
	httpServer   *http.Server
	httpMetrics  *metrics.HTTPMetrics

	flags      *health.Registry
	store      *inventory.Store
	queue      queue.Backend
	dispatcher dispatch.Dispatcher
}

func NewApp(cfg Config, log *zap.Logger) (*App, error) {
	registry, err := createRegistry(cfg.ConsulAddr, log)
	if err != nil {
		return nil, err
	}

	flags := health.NewRegistry()
	store := inventory.NewStore(cfg.DataFile, log)

	rnd := delivery.SystemRand()
	if cfg.RandomSeed != 0 {
		rnd = delivery.NewRand(cfg.RandomSeed)
		log.Info("strategy outcome draws pinned", zap.Int64("seed", cfg.RandomSeed))
	}
	clock := delivery.NewClock()

	queueBackend, err := createQueueBackend(cfg, flags, rnd, log)
	if err != nil {
		return nil, err
	}

	publisher := broker.NewPublisher(broker.Config{
		User:     cfg.RabbitMQUser,
		Password: cfg.RabbitMQPass,
		Host:     cfg.RabbitMQHost,
		Port:     cfg.RabbitMQPort,
	}, flags, log)

	strategies := []delivery.Strategy{
		delivery.NewDirect(flags, rnd),
		delivery.NewSimpleRetry(flags, clock, rnd),
		delivery.NewExpBackoff(flags, clock, rnd),
		delivery.NewScheduledRetry(flags, clock, rnd),
		delivery.NewQueueStrategy(queueBackend),
		delivery.NewBrokerStrategy(publisher),
	}

	dispatcher := dispatch.NewTelemetryMiddleware(
		dispatch.NewService(store, flags, strategies, metrics.NewPipelineMetrics(cfg.ServiceName), log),
	)

	return &App{
		config:     cfg,
		logger:     log,
		registry:   registry,
		flags:      flags,
		store:      store,
		queue:      queueBackend,
		dispatcher: dispatcher,
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	if a.registry != nil {
		registration, err := RegisterService(
			ctx,
			a.registry,
			a.config.InstanceID,
			a.config.ServiceName,
			a.config.HTTPAddr,
			a.logger,
		)
		if err != nil {
			return err
		}
		a.registration = registration
	}

	a.httpMetrics = metrics.NewHTTPMetrics(a.config.ServiceName)

	mux := http.NewServeMux()
	NewHandler(a.dispatcher, a.flags, a.queue, a.logger).registerRoutes(mux)
	NewProductHandler(a.store, a.config.InstanceID, a.logger).registerRoutes(mux)

	mux.Handle("GET /metrics", promhttp.Handler())

	handler := a.corsMiddleware(a.metricsMiddleware(mux))

	a.httpServer = &http.Server{
		Addr:    a.config.HTTPAddr,
		Handler: handler,
	}

	a.logger.Info("starting http server", zap.String("addr", a.config.HTTPAddr))
	if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down gracefully")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.logger.Error("http server shutdown error", zap.Error(err))
		}
	}
	if a.queue != nil {
		if err := a.queue.Close(); err != nil {
			a.logger.Error("queue close error", zap.Error(err))
		}
	}
	if a.registration != nil {
		return a.registration.Deregister(ctx)
	}
	return nil
}

func createRegistry(addr string, log *zap.Logger) (discovery.Registry, error) {
	if addr == "" {
		log.Info("consul address not provided, service discovery disabled")
		return nil, nil
	}
	return consul.NewRegistry(addr)
}

func createQueueBackend(cfg Config, flags *health.Registry, rnd delivery.Rand, log *zap.Logger) (queue.Backend, error) {
	if cfg.RedisAddr == "" {
		log.Info("redis address not provided, using in-process queue")
		return queue.NewMemory(flags, rnd, log), nil
	}
	return queue.NewRedis(cfg.RedisAddr, flags, log)
}

// metricsMiddleware records request counts and latencies for every route
// except /metrics itself.
func (a *App) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(recorder, r)

		duration := time.Since(start)
		status := strconv.Itoa(recorder.statusCode)
		a.httpMetrics.RecordHTTPRequest(r.Method, r.URL.Path, status, duration)
	})
}

// responseRecorder wraps http.ResponseWriter to capture the status code.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *responseRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}

// corsMiddleware mirrors the original server: any origin may call the API.
func (a *App) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
