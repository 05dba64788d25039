package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/orderdesk/pkg/config"
	"github.com/ekaya-inc/orderdesk/pkg/database"
	"github.com/ekaya-inc/orderdesk/pkg/handlers"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/logging"
	"github.com/ekaya-inc/orderdesk/pkg/mcp"
	"github.com/ekaya-inc/orderdesk/pkg/mcp/tools"
	"github.com/ekaya-inc/orderdesk/pkg/middleware"
	"github.com/ekaya-inc/orderdesk/pkg/repositories"
	"github.com/ekaya-inc/orderdesk/pkg/retry"
	"github.com/ekaya-inc/orderdesk/pkg/seed"
	"github.com/ekaya-inc/orderdesk/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Configuration loaded",
		zap.String("version", cfg.Version),
		zap.String("listen_addr", cfg.ListenAddr()),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL(nil))),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Bool("mcp_enabled", cfg.MCP.Enabled))

	db, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(cfg.Database.URL(nil), cfg.MigrationsPath, database.MigrationStatementTimeout, logger); err != nil {
		return err
	}

	cache, closeCache, err := selectionCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	enforcer, err := integrity.NewEnforcer(integrity.Default(), repositories.NewIntegrityStore(), logger)
	if err != nil {
		return err
	}

	countryRepo := repositories.NewCountryRepository()
	cityRepo := repositories.NewCityRepository()
	customerRepo := repositories.NewCustomerRepository()
	supplierRepo := repositories.NewSupplierRepository()
	productRepo := repositories.NewProductRepository()
	orderRepo := repositories.NewOrderRepository()
	itemRepo := repositories.NewOrderItemRepository()
	selectionRepo := repositories.NewSelectionRepository()

	countryService := services.NewCountryService(db, countryRepo, enforcer, cache, logger)
	cityService := services.NewCityService(db, cityRepo, enforcer, cache, logger)
	customerService := services.NewCustomerService(db, customerRepo, enforcer, logger)
	supplierService := services.NewSupplierService(db, supplierRepo, enforcer, logger)
	productService := services.NewProductService(db, productRepo, enforcer, logger)
	orderService := services.NewOrderService(db, orderRepo, itemRepo, selectionRepo, enforcer, logger)
	itemService := services.NewOrderItemService(db, orderRepo, itemRepo, selectionRepo, enforcer, logger)
	selectionService := services.NewSelectionService(db, selectionRepo, cache, logger)
	integrityService := services.NewIntegrityService(db, enforcer, logger)

	if cfg.SeedFile != "" {
		seeder := seed.NewSeeder(db, seed.Services{
			Countries: countryService,
			Cities:    cityService,
			Customers: customerService,
			Suppliers: supplierService,
			Products:  productService,
			Orders:    orderService,
		}, logger)
		if _, err := seeder.ApplyFile(ctx, cfg.SeedFile); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}
	}

	mux := http.NewServeMux()
	scope := handlers.ScopeMiddleware(database.WithScope(db, logger))

	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewCountryHandler(countryService, logger).RegisterRoutes(mux, scope)
	handlers.NewCityHandler(cityService, logger).RegisterRoutes(mux, scope)
	handlers.NewCustomerHandler(customerService, logger).RegisterRoutes(mux, scope)
	handlers.NewSupplierHandler(supplierService, logger).RegisterRoutes(mux, scope)
	handlers.NewProductHandler(productService, logger).RegisterRoutes(mux, scope)
	handlers.NewOrdersHandler(orderService, logger).RegisterRoutes(mux, scope)
	handlers.NewOrderItemsHandler(itemService, logger).RegisterRoutes(mux, scope)
	handlers.NewSelectionHandler(selectionService, logger).RegisterRoutes(mux, scope)
	handlers.NewGraphHandler(integrityService, logger).RegisterRoutes(mux, scope)

	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer("orderdesk", cfg.Version, logger)
		mcpServer.RegisterTools(&mcp.ToolDeps{
			Health:    &tools.HealthToolDeps{Version: cfg.Version, DB: db, Logger: logger},
			Selection: &tools.SelectionToolDeps{SelectionService: selectionService, Logger: logger},
			Orders: &tools.OrderToolDeps{
				OrderService:     orderService,
				IntegrityService: integrityService,
				Logger:           logger,
			},
		})
		handlers.NewMCPHandler(mcpServer, logger).RegisterRoutes(mux)
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting orderdesk", zap.String("addr", server.Addr), zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// connectDatabase retries while the database is still starting up.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.DB, error) {
	retryCfg := retry.DefaultConfig()
	retryCfg.OnRetry = func(attempt int, err error) {
		logger.Warn("Database not ready, retrying", zap.Int("attempt", attempt), logging.SafeError(err))
	}

	db, err := retry.DoWithResult(ctx, retryCfg, func() (*database.DB, error) {
		return database.NewConnection(ctx, cfg.Database.URL(nil), &cfg.Database)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("Connected to database")
	return db, nil
}

// selectionCache returns the Redis cache when configured, otherwise a cache
// that always reads through.
func selectionCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.SelectionCache, func(), error) {
	client, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		logger.Info("Redis not configured, selection lists are not cached")
		return services.NewNoopSelectionCache(), func() {}, nil
	}

	logger.Info("Selection cache enabled", zap.Duration("ttl", cfg.Redis.SelectionTTL()))
	closeFn := func() {
		if err := client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			logger.Warn("Failed to close Redis client", zap.Error(err))
		}
	}
	return services.NewRedisSelectionCache(client, cfg.Redis.SelectionTTL(), logger), closeFn, nil
}
