package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	authhandler "atelier/internal/auth/handler"
	authmodels "atelier/internal/auth/models"
	authservice "atelier/internal/auth/service"
	userstore "atelier/internal/auth/store/user"
	"atelier/internal/blog/cache"
	bloghandler "atelier/internal/blog/handler"
	blogservice "atelier/internal/blog/service"
	articlestore "atelier/internal/blog/store/article"
	categorystore "atelier/internal/blog/store/category"
	tagstore "atelier/internal/blog/store/tag"
	"atelier/internal/jwttoken"
	"atelier/internal/platform/config"
	"atelier/internal/platform/db"
	"atelier/internal/platform/httpserver"
	"atelier/internal/platform/logger"
	"atelier/internal/platform/metrics"
	"atelier/internal/platform/redis"
	"atelier/internal/transport"
	uploadhandler "atelier/internal/upload/handler"
	uploadservice "atelier/internal/upload/service"
	audit "atelier/pkg/platform/audit"
	auditkafka "atelier/pkg/platform/audit/kafka"
	auditpub "atelier/pkg/platform/audit/publisher"
	auditmemory "atelier/pkg/platform/audit/store/memory"
	auditpostgres "atelier/pkg/platform/audit/store/postgres"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// run wires dependencies and drives the process lifecycle. Postgres, Redis,
// Kafka, and S3 are all optional: without DATABASE_URL the server keeps
// everything in memory, which is enough for local development.
func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var (
		users      authservice.UserStore
		articles   blogservice.ArticleStore
		categories blogservice.CategoryStore
		tags       blogservice.TagStore
		auditStore audit.Store
	)

	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		users = userstore.NewPostgres(conn)
		articles = articlestore.NewPostgres(conn)
		categories = categorystore.NewPostgres(conn)
		tags = tagstore.NewPostgres(conn)
		auditStore = auditpostgres.New(conn)
		log.Info("using postgres storage")
	} else {
		memUsers := userstore.New()
		users = memUsers
		articles = articlestore.NewInMemory()
		categories = categorystore.NewInMemory()
		tags = tagstore.NewInMemory()
		auditStore = auditmemory.NewInMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory storage")

		if err := seedAdmin(ctx, memUsers, log); err != nil {
			return err
		}
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("redis cache enabled")
	}

	auditOpts := []auditpub.Option{
		auditpub.WithLogger(log),
		auditpub.WithAsyncBuffer(256),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := auditkafka.NewSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		auditOpts = append(auditOpts, auditpub.WithSink(sink))
		log.Info("kafka audit sink enabled", "topic", cfg.Kafka.Topic)
	}
	publisher := auditpub.NewPublisher(auditStore, auditOpts...)
	defer publisher.Close()

	jwt := jwttoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer)

	authSvc := authservice.New(users, jwt, publisher, m, log, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	blogCache := cache.New(redisClient, log, m)
	blogSvc := blogservice.New(articles, categories, tags, users, blogCache, publisher, m, log)

	presigner, err := uploadservice.NewPresignerFromConfig(ctx, cfg.S3)
	if err != nil {
		return err
	}
	if presigner != nil {
		log.Info("s3 uploads enabled", "bucket", cfg.S3.Bucket)
	}
	uploadSvc := uploadservice.New(presigner, cfg.S3, publisher, log)

	health := map[string]transport.HealthCheck{}
	if redisClient != nil {
		health["redis"] = func() error { return redisClient.Health(ctx) }
	}

	router := transport.NewRouter(log, m, health,
		authhandler.New(authSvc, log, jwt),
		bloghandler.New(blogSvc, log, jwt),
		uploadhandler.New(uploadSvc, log, jwt),
	)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// seedAdmin creates a bootstrap account for in-memory runs so the admin
// console has someone to log in as.
func seedAdmin(ctx context.Context, users *userstore.InMemoryStore, log *slog.Logger) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	hash, err := authservice.HashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if err := users.Save(ctx, &authmodels.User{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    "Admin",
		Role:         authmodels.RoleAdmin,
		IsActive:     true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		return err
	}
	log.Info("seeded admin account", "email", email)
	return nil
}
