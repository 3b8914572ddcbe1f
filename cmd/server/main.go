// Command server runs the back-office registration search service.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"regoffice/internal/convictions"
	convictionshandler "regoffice/internal/convictions/handler"
	convictionsmetrics "regoffice/internal/convictions/metrics"
	"regoffice/internal/docstore"
	jwttoken "regoffice/internal/jwt_token"
	"regoffice/internal/platform/config"
	"regoffice/internal/platform/httpserver"
	"regoffice/internal/platform/logger"
	"regoffice/internal/platform/metrics"
	platformredis "regoffice/internal/platform/redis"
	"regoffice/internal/query"
	"regoffice/internal/registration"
	"regoffice/internal/search"
	searchhandler "regoffice/internal/search/handler"
	searchmetrics "regoffice/internal/search/metrics"
	httptransport "regoffice/internal/transport/http"
	"regoffice/pkg/platform/audit"
	auditkafka "regoffice/pkg/platform/audit/kafka"
	auditmemory "regoffice/pkg/platform/audit/store/memory"
	auditworker "regoffice/pkg/platform/audit/worker"
)

const (
	registrationsTable = "registrations"
	entitiesTable      = "conviction_entities"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registrationsCol, entitiesCol, closeStore, err := openCollections(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	g, ctx := errgroup.WithContext(ctx)

	var auditSink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := auditkafka.New(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			return err
		}
		defer publisher.Close(context.Background())
		auditSink = publisher
	} else {
		buffered := audit.NewBuffered(256)
		worker := auditworker.New(auditmemory.New(), buffered.Inbox(), log)
		g.Go(func() error {
			if err := worker.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		auditSink = buffered
	}

	regGateway := registration.NewGateway(registrationsCol)
	searchService, err := search.NewService(regGateway, log, searchmetrics.New(), auditSink)
	if err != nil {
		return err
	}

	entityGateway := convictions.NewGateway(entitiesCol)
	var matchCache convictions.MatchCache
	if redisClient != nil {
		matchCache = convictions.NewRedisCache(redisClient.Client, cfg.MatchCacheTTL)
	}
	convMetrics := convictionsmetrics.New()
	convictionsService, err := convictions.NewService(
		convictions.NewCompanyMatcher(entityGateway, log),
		convictions.NewPersonMatcher(entityGateway, log),
		matchCache,
		auditSink,
		convMetrics,
		log,
	)
	if err != nil {
		return err
	}

	validator, err := jwttoken.NewValidator(cfg.JWTSigningKey)
	if err != nil {
		return err
	}

	checks := []httptransport.HealthCheck{{
		Name: "store",
		Probe: func(ctx context.Context) error {
			_, err := registrationsCol.Count(ctx, query.And())
			return err
		},
	}}
	if redisClient != nil {
		checks = append(checks, httptransport.HealthCheck{Name: "redis", Probe: redisClient.Health})
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Metrics:      metrics.New(),
		JWTValidator: jwttoken.NewAdapter(validator),
		Handlers: []httptransport.Registrar{
			searchhandler.New(searchService, log),
			convictionshandler.New(convictionsService, entityGateway, log),
		},
		HealthChecks: checks,
	})

	srv := httpserver.New(cfg.Addr, router)
	g.Go(func() error {
		log.Info("starting regoffice", "addr", cfg.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("regoffice stopped")
	return nil
}

// openCollections builds the registration and reference-entity collections
// for the configured driver.
func openCollections(ctx context.Context, cfg config.Config) (docstore.Collection, docstore.Collection, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		return docstore.NewMemory(), docstore.NewMemory(), func() {}, nil
	case "postgres":
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		for _, table := range []string{registrationsTable, entitiesTable} {
			if err := docstore.EnsureSchema(ctx, db, table); err != nil {
				db.Close()
				return nil, nil, nil, err
			}
		}
		return docstore.NewPostgres(db, registrationsTable),
			docstore.NewPostgres(db, entitiesTable),
			func() { db.Close() }, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
