package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"markethub-integration-layer/internal/application"
	"markethub-integration-layer/internal/application/listeners"
	"markethub-integration-layer/internal/config"
	apiinfra "markethub-integration-layer/internal/infrastructure/api"
	erpinfra "markethub-integration-layer/internal/infrastructure/erp"
	hubinfra "markethub-integration-layer/internal/infrastructure/hub"
	"markethub-integration-layer/internal/infrastructure/mail"
	"markethub-integration-layer/internal/infrastructure/metrics"
	"markethub-integration-layer/internal/infrastructure/pubsub"
	"markethub-integration-layer/internal/infrastructure/redisx"
	"markethub-integration-layer/internal/infrastructure/repository"

	"markethub-integration-layer/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to MongoDB
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.MongoDatabase)

	// Redis backs the webhook idempotency guard
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	guard := redisx.NewIdempotencyGuard(redisClient, cfg.WebhookDedupTTL)

	metricSet := metrics.NewSet(prometheus.DefaultRegisterer)

	// Repositories
	orderRepo := repository.NewMongoOrderRepository(db)
	productRepo := repository.NewMongoProductRepository(db)
	credentialRepo := repository.NewMongoCredentialRepository(db)
	integrationRepo := repository.NewMongoIntegrationRepository(db)

	// Credential manager sits between the gateways: it uses a token-less
	// hub client for grants, and every other hub call goes through it.
	authClient := hubinfra.NewClient(cfg.HubBaseURL, nil, nil, logger)
	logins := &application.LoginDirectory{
		Global: domain.LoginCredentials{
			Username:   cfg.HubUsername,
			Password:   cfg.HubPassword,
			OAuthScope: cfg.HubOAuthScope,
		},
		Agency: domain.LoginCredentials{
			Username: cfg.AgencyUsername,
			Password: cfg.AgencyPassword,
		},
		Tenants: integrationRepo,
	}
	credentialManager := application.NewCredentialManager(credentialRepo, authClient, logins, metricSet, logger)

	hubClient := hubinfra.NewClient(cfg.HubBaseURL, nil, credentialManager, logger)
	erpClient := erpinfra.NewClient(cfg.ERPBaseURL, nil, logger)

	// Event bus and application services
	bus := pubsub.NewEventBus(logger)

	reconciler := application.NewReconciler(orderRepo, productRepo, integrationRepo, hubClient, erpClient, bus, metricSet, logger)
	catalogSyncer := application.NewCatalogSyncer(productRepo, integrationRepo, hubClient, bus, metricSet, logger)
	erpSyncer := application.NewERPSyncer(productRepo, integrationRepo, erpClient, bus, metricSet, logger)
	integrationService := application.NewIntegrationService(integrationRepo, erpClient, logger)
	poller := application.NewOrderPoller(orderRepo, hubClient, reconciler, logger)

	// Event wiring, all in one place
	orderListeners := listeners.NewOrderListeners(orderRepo, integrationRepo, integrationRepo, hubClient, erpClient, mail.NewLogMailer(logger), logger)
	productListeners := listeners.NewProductListeners(hubClient, logger)

	bus.Subscribe(domain.EventOrderNew, orderListeners.OnOrderNew)
	bus.Subscribe(domain.EventOrderUpdated, orderListeners.OnOrderUpdated)
	bus.Subscribe(domain.EventOrderApproved, orderListeners.OnOrderApproved)
	bus.Subscribe(domain.EventProductCreated, productListeners.OnProductCreated)
	bus.Subscribe(domain.EventProductDeleted, productListeners.OnProductDeleted)
	bus.Subscribe(domain.EventStockUpdated, productListeners.OnStockUpdated)
	bus.Subscribe(domain.EventPriceUpdated, productListeners.OnPriceUpdated)

	// Background loops
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runOrderPolling(ctx, poller, cfg.OrderPollInterval, logger)
	go runCatalogSync(ctx, catalogSyncer, cfg.CatalogSyncInterval, logger)
	go runStockSync(ctx, catalogSyncer, cfg.StockSyncInterval, logger)
	go runCredentialSweep(ctx, credentialManager, cfg.CredentialSweepInterval, logger)

	// HTTP surface
	handlers := apiinfra.NewHandlers(reconciler, catalogSyncer, erpSyncer, integrationService, integrationRepo, guard, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	r.Post("/integration/order", handlers.HandleOrderWebhook)
	r.Post("/integration/erp/product", handlers.HandleERPProductWebhook)
	r.Post("/integration/erp/stock", handlers.HandleERPStockWebhook)
	r.Post("/integration/erp/stock/refresh/{shopId}", handlers.HandleERPStockRefresh)
	r.Post("/integration/catalog/{tenantId}/import", handlers.HandleCatalogImport)
	r.Post("/integration/system", handlers.HandleSaveIntegration)
	r.Get("/integration/system/{shopId}", handlers.HandleGetIntegration)

	logger.Info().Str("port", cfg.Port).Msg("Starting integration layer")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

func runOrderPolling(ctx context.Context, poller *application.OrderPoller, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := poller.PollOnce(ctx); err != nil {
				logger.Error().Err(err).Msg("Order poll failed")
			}
		}
	}
}

func runCatalogSync(ctx context.Context, syncer *application.CatalogSyncer, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// import offsets live here: each tenant resumes where its last full
	// page ended and restarts from zero after a short page
	offsets := map[string]int{}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			next, err := syncer.SyncAllCatalogs(ctx, offsets)
			if err != nil {
				logger.Error().Err(err).Msg("Catalog sync failed")
				continue
			}
			offsets = next
		}
	}
}

func runStockSync(ctx context.Context, syncer *application.CatalogSyncer, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := syncer.SyncAllStock(ctx); err != nil {
				logger.Error().Err(err).Msg("Stock sync failed")
			}
		}
	}
}

func runCredentialSweep(ctx context.Context, manager *application.CredentialManager, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := manager.SweepExpired(ctx); err != nil {
				logger.Error().Err(err).Msg("Credential sweep failed")
			}
		}
	}
}
