// Package container wires the service graph with samber/do. Each concern
// has its own provider package function so binaries register only what
// they run.
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/quickqr/engine/internal/analytics"
	astore "github.com/quickqr/engine/internal/analytics/store"
	"github.com/quickqr/engine/internal/domains"
	"github.com/quickqr/engine/internal/handlers"
	"github.com/quickqr/engine/internal/health"
	"github.com/quickqr/engine/internal/messaging"
	"github.com/quickqr/engine/internal/middleware"
	"github.com/quickqr/engine/internal/qrcode"
	"github.com/quickqr/engine/internal/ratelimit"
	"github.com/quickqr/engine/internal/registry"
	"github.com/quickqr/engine/internal/resolver"
	"github.com/quickqr/engine/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
)

// Options holds the runtime configuration, bound by humacli from flags and
// environment.
type Options struct {
	Port           int           `default:"8080"           help:"Port to listen on"                               short:"p"`
	BaseHost       string        `default:"localhost:8080" help:"Host serving bare short codes"`
	CodeLength     int           `default:"8"              help:"Length of generated short codes"                 short:"c"`
	RedisAddr      string        `default:"localhost:6379" help:"Redis server address"                            short:"r"`
	PostgresDSN    string        `help:"Postgres connection string; in-memory store when empty"`
	CacheTTL       time.Duration `default:"10m"            help:"TTL for cached static records"`
	LogFormat      string        `default:"console"        enum:"console,json"                                    help:"Log output format"`
	RetryQueueSize int           `default:"256"            help:"Buffered ledger events awaiting republish"`
}

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		options := do.MustInvoke[*Options](i)

		if options.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		options := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{
			Addr: options.RedisAddr,
		}), nil
	})
}

// PostgresPackage provides the pgx pool. The provider is lazy; it is only
// invoked by stores that actually need Postgres.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*pgxpool.Pool, error) {
		options := do.MustInvoke[*Options](i)

		if options.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres DSN not configured")
		}

		return pgxpool.New(context.Background(), options.PostgresDSN)
	})
}

// RepositoryPackage provides the code and domain repositories and the
// analytics read store, backed by Postgres when a DSN is configured and by
// memory otherwise. Static records get a redis read cache in front of
// Postgres.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*store.MemoryStore, error) {
		return store.NewMemoryStore(), nil
	})

	do.Provide(injector, func(i *do.Injector) (qrcode.Repository, error) {
		options := do.MustInvoke[*Options](i)

		if options.PostgresDSN == "" {
			return do.MustInvoke[*store.MemoryStore](i), nil
		}

		pool, err := do.Invoke[*pgxpool.Pool](i)
		if err != nil {
			return nil, err
		}

		pg := store.NewPostgresStore(pool)
		client := do.MustInvoke[*redis.Client](i)

		return store.NewStaticCacheRepository(pg, client, options.CacheTTL), nil
	})

	do.Provide(injector, func(i *do.Injector) (qrcode.DomainRepository, error) {
		options := do.MustInvoke[*Options](i)

		if options.PostgresDSN == "" {
			return do.MustInvoke[*store.MemoryStore](i), nil
		}

		pool, err := do.Invoke[*pgxpool.Pool](i)
		if err != nil {
			return nil, err
		}

		return store.NewPostgresStore(pool), nil
	})

	do.Provide(injector, func(i *do.Injector) (analytics.Store, error) {
		options := do.MustInvoke[*Options](i)

		if options.PostgresDSN == "" {
			return astore.NewMemory(), nil
		}

		pool, err := do.Invoke[*pgxpool.Pool](i)
		if err != nil {
			return nil, err
		}

		return astore.NewPostgres(pool), nil
	})
}

// RateLimitPackage provides the policy limiter backed by redis.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.Store, error) {
		client := do.MustInvoke[*redis.Client](i)

		return store.NewRateLimitRedisStore(client), nil
	})

	do.Provide(injector, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		limitStore := do.MustInvoke[ratelimit.Store](i)

		return ratelimit.NewPolicyLimiter(limitStore, ratelimit.DefaultPolicy()), nil
	})

	do.Provide(injector, func(_ *do.Injector) (ratelimit.ScopeResolver, error) {
		return ratelimit.NewOperationScopeResolver(), nil
	})
}

// PublisherGroupPackage provides the ledger event publisher over redis
// streams, wrapped with background retry, plus the typed publish functions.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		options := do.MustInvoke[*Options](i)
		client := do.MustInvoke[*redis.Client](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: client,
		}, watermill.NopLogger{})
		if err != nil {
			return nil, err
		}

		retrying := messaging.NewRetryPublisher(publisher, logger, options.RetryQueueSize)

		return messaging.NewPublisherGroup(retrying), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.ScanEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[analytics.ScanEvent](group.Publisher(), analytics.TopicCodeScanned), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.DownloadEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[analytics.DownloadEvent](group.Publisher(), analytics.TopicCodeDownloaded), nil
	})
}

// ConsumerGroupPackage provides the aggregator's consumer group. The
// analytics store is Postgres when configured, a logging no-op otherwise.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (message.Subscriber, error) {
		client := do.MustInvoke[*redis.Client](i)

		return redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: "analytics-aggregator",
		}, watermill.NopLogger{})
	})

	do.Provide(injector, func(i *do.Injector) (analytics.Store, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if options.PostgresDSN == "" {
			return astore.NewNoop(logger), nil
		}

		pool, err := do.Invoke[*pgxpool.Pool](i)
		if err != nil {
			return nil, err
		}

		return astore.NewPostgres(pool), nil
	})

	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		subscriber := do.MustInvoke[message.Subscriber](i)
		eventStore := do.MustInvoke[analytics.Store](i)
		logger := do.MustInvoke[*zap.Logger](i)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(analytics.NewConsumer(subscriber, eventStore, logger))

		return group, nil
	})
}

// HTTPPackage provides the router, the huma API, and all handlers.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		options := do.MustInvoke[*Options](i)
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)

		api := humachi.New(router, huma.DefaultConfig("QR Resolution Engine", "1.0.0"))

		limiter := do.MustInvoke[*ratelimit.PolicyLimiter](i)
		scopes := do.MustInvoke[ratelimit.ScopeResolver](i)

		api.UseMiddleware(middleware.RequestMeta(api))
		api.UseMiddleware(middleware.PolicyRateLimiter(api, limiter, scopes, logger))

		codes := do.MustInvoke[qrcode.Repository](i)
		domainRepo := do.MustInvoke[qrcode.DomainRepository](i)
		stats := do.MustInvoke[analytics.Store](i)
		publishScan := do.MustInvoke[messaging.Publish[analytics.ScanEvent]](i)
		publishDownload := do.MustInvoke[messaging.Publish[analytics.DownloadEvent]](i)

		generator, err := nanoid.Standard(options.CodeLength)
		if err != nil {
			return nil, err
		}

		baseURL := fmt.Sprintf("http://%s", options.BaseHost)

		registryService := registry.NewService(codes, generator, logger)
		domainService := domains.NewService(domainRepo, codes, logger)
		resolverService := resolver.NewService(codes, domainService, publishScan, logger)

		resolveHandler := handlers.NewResolveHandler(resolverService)
		codeHandler := handlers.NewCodeHandler(registryService, stats, publishDownload, baseURL, logger)
		domainHandler := handlers.NewDomainHandler(domainService, baseURL)

		handlers.RegisterRoutes(api, resolveHandler, codeHandler, domainHandler)

		redisClient := do.MustInvoke[*redis.Client](i)

		var pgChecker health.Checker
		if options.PostgresDSN != "" {
			pool, err := do.Invoke[*pgxpool.Pool](i)
			if err != nil {
				return nil, err
			}

			pgChecker = health.NewPostgresChecker(pool)
		}

		health.RegisterRoutes(api, health.NewHandler(health.NewRedisChecker(redisClient), pgChecker))

		return api, nil
	})
}
