package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/metabridge-io/metabridge/libs/config"
	"github.com/metabridge-io/metabridge/libs/db"
	"github.com/metabridge-io/metabridge/libs/httpx"
	"github.com/metabridge-io/metabridge/libs/kafkax"
	otelx "github.com/metabridge-io/metabridge/libs/otel"
	"github.com/metabridge-io/metabridge/libs/runtime"
	"github.com/metabridge-io/metabridge/services/exchange-service/internal/classifier"
	"github.com/metabridge-io/metabridge/services/exchange-service/internal/consumer"
	"github.com/metabridge-io/metabridge/services/exchange-service/internal/contextbuilder"
	"github.com/metabridge-io/metabridge/services/exchange-service/internal/handlers"
	"github.com/metabridge-io/metabridge/services/exchange-service/internal/karma"
	"github.com/metabridge-io/metabridge/services/exchange-service/internal/outbound"
	"github.com/metabridge-io/metabridge/services/exchange-service/internal/repository"
	"github.com/metabridge-io/metabridge/services/exchange-service/internal/typeoracle"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func newOracle(pool *db.Pool, rdb *redis.Client, logger *slog.Logger) typeoracle.Oracle {
	var oracle typeoracle.Oracle = typeoracle.NewRegistry(pool)
	if rdb != nil {
		ttl := time.Duration(config.Int("TYPE_CACHE_TTL_SECONDS", 600)) * time.Second
		oracle = typeoracle.NewCached(oracle, rdb, ttl, logger)
	}
	return oracle
}

func newFacade(pool *db.Pool, logger *slog.Logger) repository.Facade {
	if addr := config.String("COHORT_GRPC_ADDR", ""); addr != "" {
		remote, err := repository.NewCohortFacade(addr)
		if err != nil {
			logger.Error("cohort facade init failed; using local store", "err", err)
		} else if remote != nil {
			return remote
		}
	}
	return repository.NewPostgres(pool)
}

func main() {
	service := config.String("SERVICE_NAME", "exchange-service")
	port, err := config.Port("PORT", "8088")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	var rdb *redis.Client
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
	}

	filter, err := classifier.LoadFilter(config.String("TYPE_FILTER_PATH", ""))
	if err != nil {
		logger.Error("type filter load failed", "err", err)
		panic(err)
	}

	brokers := config.String("KAFKA_BROKERS", "")
	publisher, err := outbound.NewKafkaPublisher(brokers, logger)
	if err != nil {
		logger.Error("outbound publisher init failed", "err", err)
		panic(err)
	}
	defer publisher.Close()

	ledger := karma.NewService(
		karma.NewRepository(pool),
		int64(config.Int("KARMA_INCREMENT", 1)),
		int64(config.Int("KARMA_PLATEAU_THRESHOLD", 500)),
		logger,
	)

	oracle := newOracle(pool, rdb, logger)
	engine := classifier.NewEngine(oracle, ledger, publisher, filter, logger)

	eventConsumer := consumer.New(logger, engine, consumer.Config{
		Brokers: brokers,
		GroupID: config.String("KAFKA_GROUP_ID", "exchange-service"),
		Topic:   config.String("KAFKA_CONSUME_TOPIC", "cohort.repository.instance.v1"),
	})
	go eventConsumer.Run(ctx)

	facade := newFacade(pool, logger)
	builder := contextbuilder.New(facade, logger)
	contextHandler := handlers.NewContextHandler(builder, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	mux.HandleFunc("GET /api/v1/tables/{guid}/context", contextHandler.TableContext)
	mux.HandleFunc("GET /api/v1/tables/{guid}/columns", contextHandler.TableColumns)
	mux.HandleFunc("GET /api/v1/schemas/{guid}/tables", contextHandler.SchemaTables)

	var limit httpx.Middleware
	rateLimit := config.Int("API_RATE_LIMIT_PER_MINUTE", 120)
	if rdb != nil {
		limit = httpx.NewRedisRateLimiter(rdb, rateLimit, time.Minute, service).Middleware(logger, true)
	} else {
		limit = httpx.NewRateLimiter(rateLimit, time.Minute).Middleware()
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		limit,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "exchange")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
