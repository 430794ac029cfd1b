package di

import (
	"context"
	"fmt"
	"time"

	"OilPulse/internal/domain/repository"
	"OilPulse/internal/handler/api"
	"OilPulse/internal/handler/ws"
	internalrepo "OilPulse/internal/repository"
	"OilPulse/internal/service/ratelimit"
	"OilPulse/internal/store"
	"OilPulse/internal/usecase"
	"OilPulse/pkg/cache"
	pkgch "OilPulse/pkg/clickhouse"
	"OilPulse/pkg/config"
	xhttp "OilPulse/pkg/http"
	"OilPulse/pkg/http/middleware"
	pkgkafka "OilPulse/pkg/kafka"
	applogger "OilPulse/pkg/logger"
	"OilPulse/pkg/metrics"
	"OilPulse/pkg/server"

	"github.com/sony/gobreaker"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and makes sure the artifact
// tables exist.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.ClickHouseSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideArtifactSource selects where the artifacts are read from.
func ProvideArtifactSource(cfg *config.Config, l *applogger.Logger) (repository.ArtifactSource, func(), error) {
	switch cfg.Data.Source {
	case "clickhouse":
		client, err := ProvideClickHouseClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := client.Close(); err != nil {
				l.Warn("ClickHouse close error", applogger.Error(err))
			}
		}
		return internalrepo.NewCHSource(client, cfg.ClickHouse.Database, l), cleanup, nil
	default:
		return internalrepo.NewFileSource(internalrepo.FileSourceConfig{
			PricesPath:      cfg.Data.PricesPath,
			EventsPath:      cfg.Data.EventsPath,
			ChangepointPath: cfg.Data.ChangepointPath,
		}, l), func() {}, nil
	}
}

// ProvideCache builds the response cache. Redis sits behind a circuit breaker and
// an unreachable Redis at startup falls back to the in-process cache.
func ProvideCache(cfg *config.Config, l *applogger.Logger, m repository.Metrics) (cache.Service, func(), error) {
	memOpts := []cache.MemoryOption{
		cache.WithMemoryMaxSize(cfg.Cache.MaxEntries),
		cache.WithMemoryCleanup(cfg.Cache.Sweep),
	}

	var svc cache.Service
	switch cfg.Cache.Type {
	case "none":
		svc = cache.Nop{}
	case "redis", "layered":
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
			cache.WithRedisPool(cfg.Cache.Redis.PoolSize, cfg.Cache.Redis.MinIdle, 5*time.Second),
		)
		if err != nil {
			l.Warn("Redis unavailable, using memory cache", applogger.Error(err))
			svc = cache.NewMemoryCache(memOpts...)
			break
		}
		remote := cache.NewBreaker(rc, func(name string, from, to gobreaker.State) {
			l.Warn("Cache breaker state changed",
				applogger.String("name", name),
				applogger.String("from", from.String()),
				applogger.String("to", to.String()),
			)
			if to == gobreaker.StateOpen {
				m.RecordError("cache_breaker_open")
			}
		},
			cache.WithBreakerName("redis"),
			cache.WithBreakerThreshold(cfg.Cache.Breaker.Failures),
			cache.WithBreakerTimeout(cfg.Cache.Breaker.Timeout),
		)
		if cfg.Cache.Type == "layered" {
			svc = cache.NewLayeredCache(remote, cfg.Cache.TTL, memOpts...)
		} else {
			svc = remote
		}
	default:
		svc = cache.NewMemoryCache(memOpts...)
	}

	l.Info("Response cache ready", applogger.String("type", cfg.Cache.Type), applogger.Duration("ttl_ms", cfg.Cache.TTL))
	cleanup := func() {
		if err := svc.Close(); err != nil {
			l.Warn("Cache close error", applogger.Error(err))
		}
	}
	return svc, cleanup, nil
}

// ProvideStore creates the snapshot store.
func ProvideStore(src repository.ArtifactSource, m repository.Metrics, l *applogger.Logger) *store.Store {
	return store.New(src, m, l)
}

// ProvideDashboardUseCase creates the dashboard use case.
func ProvideDashboardUseCase(st *store.Store, c cache.Service, m repository.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.DashboardUseCase {
	return usecase.NewDashboardUseCase(st, c, cfg.Cache.TTL, m, l)
}

// ProvideDashboardHandler creates the REST handler.
func ProvideDashboardHandler(l *applogger.Logger, uc *usecase.DashboardUseCase, cfg *config.Config) *api.DashboardHandler {
	return api.NewDashboardHandler(l, uc, cfg.Server.AdminToken)
}

// ProvideHub creates the websocket hub.
func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l, 30*time.Second)
}

// ProvideHTTPServer creates the Echo server with every handler registered.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, dh *api.DashboardHandler, hub *ws.Hub) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(cfg.Metrics.Path))
	} else {
		opts = append(opts, xhttp.WithMetricsPath(""))
	}
	if cfg.CORS.Enabled {
		cors := middleware.DefaultCORSConfig()
		cors.AllowOrigins = cfg.CORS.AllowedOrigins
		opts = append(opts, xhttp.WithCORS(&cors))
	} else {
		opts = append(opts, xhttp.WithCORS(nil))
	}
	if cfg.RateLimit.Enabled {
		opts = append(opts, xhttp.WithRateLimiter(ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)))
	}
	return xhttp.NewServer(l, []xhttp.Handler{dh, hub}, opts...)
}

// ProvideReloadHandler creates the handler for the reload topic, or nil when
// the topic is disabled.
func ProvideReloadHandler(cfg *config.Config, uc *usecase.DashboardUseCase, l *applogger.Logger) pkgkafka.MessageHandler {
	if !cfg.Kafka.Enabled {
		return nil
	}
	return usecase.NewReloadHandler(cfg.Kafka.Topic, uc, l)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML, or nil when
// the reload topic is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	st *store.Store,
	hub *ws.Hub,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
) *server.App {
	return server.New(cfg, l, st, hub, srv, consumer, kh)
}
