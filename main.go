package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/shrutimovaliya24/softcool/internal/api"
	"github.com/shrutimovaliya24/softcool/internal/db"
	"github.com/shrutimovaliya24/softcool/internal/metrics"
	"github.com/shrutimovaliya24/softcool/internal/middleware"
	"github.com/shrutimovaliya24/softcool/internal/oauth"
	"github.com/shrutimovaliya24/softcool/internal/services"
	"github.com/shrutimovaliya24/softcool/internal/store"
	"github.com/shrutimovaliya24/softcool/pkg/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	for _, warning := range cfg.Warnings {
		logger.Warn("Configuration problem", zap.String("detail", warning))
	}

	ctx := context.Background()

	// Initialize OpenTelemetry metrics
	appMetrics := metrics.NewNoop()
	if cfg.MetricsEnabled {
		m, meterProvider, err := metrics.InitMetrics(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize metrics", zap.Error(err))
		}
		appMetrics = m
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := meterProvider.Shutdown(shutdownCtx); err != nil {
				logger.Error("Error shutting down meter provider", zap.Error(err))
			}
		}()
	}

	backend, closeBackend, err := openStore(ctx, cfg, logger, appMetrics)
	if err != nil {
		logger.Fatal("Failed to open store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer closeBackend()

	// Initialize services
	registry := services.NewSessionRegistry(backend, logger, appMetrics)
	productService := services.NewProductService(services.DefaultProducts(), logger, appMetrics)
	checkoutService := services.NewCheckoutService(logger, appMetrics)
	verifiedEmails := services.NewVerifiedEmails(
		store.NewJSON(store.Scoped(backend, "server"), logger, appMetrics), appMetrics)

	oauthClient := oauth.NewClient(cfg, logger)
	if !oauthClient.Configured() {
		logger.Warn("GOOGLE_CLIENT_ID is not set; Google sign-in is disabled")
	}

	cookies := middleware.NewDeviceCookieStore(cfg.SessionSecret, false)

	// Initialize app
	app := api.NewApp(cfg, logger, appMetrics, cookies, registry, productService, checkoutService, verifiedEmails, oauthClient)

	router := mux.NewRouter()
	app.SetupRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.GetAppPortInt()),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.Int("port", cfg.GetAppPortInt()),
			zap.String("store_backend", cfg.StoreBackend),
			zap.String("redirect_uri", cfg.RedirectURI()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := registry.Close(shutdownCtx); err != nil {
		logger.Error("Failed to flush sessions", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	zcfg.Level = lvl
	return zcfg.Build()
}

// openStore connects the configured key-value backend
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.AppMetrics) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		logger.Warn("Using in-memory store; state is lost on restart")
		return store.NewMemoryStore(m), func() {}, nil

	case config.StoreBackendMySQL:
		database, err := db.NewDB(cfg.GetDSN(), cfg.OTELServiceName, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := database.InitSchema(ctx, db.Schema); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		return store.NewSQLStore(database, m), func() { database.Close() }, nil

	case config.StoreBackendMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
		}
		coll := client.Database(cfg.MongoDatabase).Collection(store.MongoCollection)
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				logger.Error("Failed to disconnect mongo", zap.Error(err))
			}
		}
		return store.NewMongoStore(coll, m), closeFn, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
