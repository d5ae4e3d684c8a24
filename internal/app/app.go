package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"shareplace_backend/database"
	"shareplace_backend/internal/assets"
	"shareplace_backend/internal/auth"
	"shareplace_backend/internal/cache"
	"shareplace_backend/internal/config"
	"shareplace_backend/internal/handlers"
	"shareplace_backend/internal/imageprocessor"
	"shareplace_backend/internal/logger"
	"shareplace_backend/internal/middleware"
	"shareplace_backend/internal/repositories"
	"shareplace_backend/internal/repositories/memory"
	"shareplace_backend/internal/routes"
	"shareplace_backend/internal/services"
	"shareplace_backend/internal/storage"
	"shareplace_backend/internal/validator"
	"shareplace_backend/internal/workers"
)

// App is a fully wired application.
type App struct {
	Router   *gin.Engine
	Services *services.ServiceContainer
	Store    repositories.RecordStore
	Storage  storage.Storage
	Worker   *workers.AssetWorker

	closers []func() error
}

func Run() {
	cfg := config.MustLoad()
	logger.Init(cfg.Server.Env, cfg.Server.LogLevel)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize application", "error", err)
	}
	defer application.Close()

	application.Worker.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(fmt.Sprintf("Server starting on %s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
}

// New builds every component from cfg. The caller owns Close.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	store, dbCheck, err := a.initializeStore(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store

	storageInstance, err := storage.NewStorage(storage.Config{
		Type:       cfg.Storage.Type,
		BasePath:   cfg.Storage.BasePath,
		BaseURL:    cfg.Storage.BaseURL,
		Bucket:     cfg.Storage.Bucket,
		Region:     cfg.Storage.Region,
		AccessKey:  cfg.Storage.AccessKey,
		SecretKey:  cfg.Storage.SecretKey,
		Endpoint:   cfg.Storage.Endpoint,
		PublicRead: cfg.Storage.PublicRead,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.Storage = storageInstance
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	assetStore := assets.NewStore(storageInstance, assets.Config{
		Timeout:      cfg.Storage.Timeout,
		MaxSize:      cfg.Upload.MaxSize,
		AllowedTypes: cfg.Upload.AllowedTypes,
	})

	checks := map[string]handlers.HealthCheck{}
	if dbCheck != nil {
		checks["database"] = dbCheck
	}

	placeCache, err := a.initializeCache(ctx, cfg, checks)
	if err != nil {
		a.Close()
		return nil, err
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.TokenTTL())

	deps := services.Dependencies{
		Store:     store,
		Assets:    assetStore,
		Validator: validator.New(),
		Cache:     placeCache,
		Tokens:    tokens,
	}
	if cfg.Upload.MaxDimension > 0 {
		deps.Images = imageprocessor.NewProcessor(cfg.Upload.ImageQuality, cfg.Upload.MaxDimension)
	}
	a.Services = services.NewServiceContainer(deps)

	a.Router = SetupRouter(cfg, a.Services, storageInstance, tokens, checks)
	a.Worker = workers.NewAssetWorker(store, assetStore, cfg.Worker.SweepInterval, cfg.Worker.BatchSize)

	return a, nil
}

// Close releases connections opened by New.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("Failed to close resource", "error", err)
		}
	}
	a.closers = nil
}

func (a *App) initializeStore(cfg *config.Config) (repositories.RecordStore, handlers.HealthCheck, error) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory record store, data is lost on restart")
		return memory.NewStore(), nil, nil
	}

	logger.Info("Connecting to database...")
	gormDB, err := database.Connect(cfg.Database.DSN, cfg.Server.Env)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get *sql.DB from GORM: %w", err)
	}
	a.closers = append(a.closers, sqlDB.Close)

	if err := sqlDB.Ping(); err != nil {
		return nil, nil, fmt.Errorf("database unavailable: %w", err)
	}
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(gormDB); err != nil {
			return nil, nil, err
		}
		logger.Info("Database schema migrated")
	}

	return repositories.NewGormStore(gormDB, cfg.Database.MaxTxRetries), sqlDB.PingContext, nil
}

func (a *App) initializeCache(ctx context.Context, cfg *config.Config, checks map[string]handlers.HealthCheck) (cache.PlaceCache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	if cfg.Cache.Driver == "memory" {
		logger.Info("Place cache enabled", "driver", "memory")
		return cache.NewMemoryPlaceCache(cfg.Cache.TTL), nil
	}

	client, err := cache.NewRedisClient(ctx, cache.Config{
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
		TTL:      cfg.Cache.TTL,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	checks["cache"] = func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
	logger.Info("Place cache enabled", "addr", cfg.Cache.Addr)

	return cache.NewRedisPlaceCache(client, cfg.Cache.TTL), nil
}

// SetupRouter builds the gin engine with middleware and all routes.
func SetupRouter(
	cfg *config.Config,
	serviceContainer *services.ServiceContainer,
	storageInstance storage.Storage,
	verifier auth.IdentityVerifier,
	checks map[string]handlers.HealthCheck,
) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	appHandlers := initializeHandlers(cfg, serviceContainer, storageInstance, checks)

	ginRouter := initializeGinRouter(cfg)
	routes.RegisterRoutes(ginRouter, appHandlers, middleware.AuthMiddleware(verifier), filesPrefix(cfg))

	return ginRouter
}

func initializeHandlers(
	cfg *config.Config,
	serviceContainer *services.ServiceContainer,
	storageInstance storage.Storage,
	checks map[string]handlers.HealthCheck,
) *handlers.AppHandlers {
	baseHandler := handlers.NewBaseHandler(cfg.Upload.MaxSize)

	return &handlers.AppHandlers{
		PlaceHandler:  handlers.NewPlaceHandler(baseHandler, serviceContainer.PlaceService, serviceContainer.PlaceQueryService),
		UserHandler:   handlers.NewUserHandler(baseHandler, serviceContainer.UserService),
		FileHandler:   handlers.NewFileHandler(baseHandler, storageInstance),
		HealthHandler: handlers.NewHealthHandler(checks),
	}
}

func initializeGinRouter(cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORS.AllowOrigins)))
	// multipart parts above this are spooled to disk
	router.MaxMultipartMemory = cfg.Upload.MaxSize + 1<<20
	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = origins
	return c
}

// filesPrefix is the route under which locally held assets are served, or ""
// when the backend publishes its own URLs.
func filesPrefix(cfg *config.Config) string {
	switch cfg.Storage.Type {
	case "local", "memory":
	default:
		return ""
	}
	if !strings.HasPrefix(cfg.Storage.BaseURL, "/") {
		return ""
	}
	return strings.TrimSuffix(cfg.Storage.BaseURL, "/")
}
