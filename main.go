package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/conformio/conformio-engine/pkg/auth"
	"github.com/conformio/conformio-engine/pkg/cache"
	"github.com/conformio/conformio-engine/pkg/config"
	"github.com/conformio/conformio-engine/pkg/database"
	"github.com/conformio/conformio-engine/pkg/handlers"
	"github.com/conformio/conformio-engine/pkg/logging"
	"github.com/conformio/conformio-engine/pkg/middleware"
	"github.com/conformio/conformio-engine/pkg/repositories"
	"github.com/conformio/conformio-engine/pkg/services"
	"github.com/conformio/conformio-engine/pkg/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

// subscriptionSweepInterval is how often overdue subscriptions are expired.
const subscriptionSweepInterval = time.Hour

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting conformio-engine",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.Bool("cache", cfg.Redis.Host != ""))

	// Migrations run on a plain database/sql handle; the pgx pool is only
	// opened once the schema is current.
	migrationDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	matrixCache := cache.New(redisClient, logger)

	store, err := storage.NewMinioStore(ctx, &cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to connect to object storage", zap.Error(err))
	}

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSURL:            cfg.Auth.JWKSURL,
		Issuer:             cfg.Auth.Issuer,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()

	authService := auth.NewAuthService(jwksClient, logger)
	authMW := auth.NewMiddleware(authService, logger)
	tenantMW := middleware.NewTenantMiddleware(db, logger)

	// Repositories
	textRepo := repositories.NewTextRepository()
	articleRepo := repositories.NewArticleRepository()
	versionRepo := repositories.NewVersionRepository()
	effectRepo := repositories.NewEffectRepository()
	domainRepo := repositories.NewDomainRepository()
	evaluationRepo := repositories.NewEvaluationRepository()
	clientRepo := repositories.NewClientRepository()
	siteRepo := repositories.NewSiteRepository()
	subscriptionRepo := repositories.NewSubscriptionRepository()
	incidentRepo := repositories.NewIncidentRepository()
	trainingRepo := repositories.NewTrainingRepository()
	equipmentRepo := repositories.NewEquipmentRepository()
	auditRepo := repositories.NewAuditRepository()

	// Services
	auditService := services.NewAuditService(auditRepo, logger)
	textService := services.NewTextService(textRepo, store, cfg.Storage.DocumentsBucket, auditService, logger)
	articleService := services.NewArticleService(articleRepo, textRepo, auditService, logger)
	versionService := services.NewVersionService(versionRepo)
	effectService := services.NewEffectService(effectRepo, textRepo, articleRepo, store, cfg.Storage.AnnexesBucket, matrixCache, auditService, logger)
	domainService := services.NewDomainService(domainRepo, auditService)
	evaluationService := services.NewEvaluationService(evaluationRepo, articleRepo, textRepo, store, cfg.Storage.EvidenceBucket, matrixCache, auditService, logger)
	clientService := services.NewClientService(clientRepo, auditService, logger)
	siteService := services.NewSiteService(siteRepo, auditService, logger)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, siteRepo, auditService, logger)
	incidentService := services.NewIncidentService(incidentRepo, auditService, logger)
	trainingService := services.NewTrainingService(trainingRepo, auditService, logger)
	equipmentService := services.NewEquipmentService(equipmentRepo, auditService, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(db, cfg.Version).RegisterRoutes(mux)
	handlers.NewLibraryHandler(textService, articleService, domainService, logger).RegisterRoutes(mux, authMW, tenantMW)
	handlers.NewEffectHandler(effectService, versionService, logger).RegisterRoutes(mux, authMW, tenantMW)
	handlers.NewEvaluationHandler(evaluationService, logger).RegisterRoutes(mux, authMW, tenantMW)
	handlers.NewHSEHandler(siteService, incidentService, trainingService, equipmentService, logger).RegisterRoutes(mux, authMW, tenantMW)
	handlers.NewAdminHandler(clientService, siteService, subscriptionService, auditService, logger).RegisterRoutes(mux, authMW, tenantMW)

	var handler http.Handler = mux
	handler = middleware.RequestLogger(logger)(handler)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.RequestID(handler)

	go expireSubscriptionsLoop(ctx, db, subscriptionService, logger)

	srv := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		logger.Fatal("Server failed", zap.Error(err))
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown failed", zap.Error(err))
		}
	}
}

// expireSubscriptionsLoop periodically marks overdue subscriptions expired.
// The sweep runs outside any tenant scope; RLS does not apply to it.
func expireSubscriptionsLoop(ctx context.Context, db *database.DB, subs services.SubscriptionService, logger *zap.Logger) {
	ticker := time.NewTicker(subscriptionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		scope, err := db.WithoutTenant(ctx)
		if err != nil {
			logger.Warn("Subscription sweep could not acquire connection", zap.Error(err))
			continue
		}
		sweepCtx := database.SetTenantScope(ctx, scope)
		if _, err := subs.ExpireOverdue(sweepCtx); err != nil {
			logger.Warn("Subscription sweep failed", zap.Error(err))
		}
		scope.Close()
	}
}
