package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/retailgrid/backoffice/api/routes"
	"github.com/retailgrid/backoffice/internal/bulkupload"
	"github.com/retailgrid/backoffice/internal/clients"
	"github.com/retailgrid/backoffice/internal/invoicing"
	"github.com/retailgrid/backoffice/internal/orderitems"
	"github.com/retailgrid/backoffice/internal/orders"
	"github.com/retailgrid/backoffice/internal/products"
	"github.com/retailgrid/backoffice/internal/reports"
	"github.com/retailgrid/backoffice/internal/stock"
	"github.com/retailgrid/backoffice/pkg/config"
	"github.com/retailgrid/backoffice/pkg/db"
	"github.com/retailgrid/backoffice/pkg/instance"
	"github.com/retailgrid/backoffice/pkg/logger"
	"github.com/retailgrid/backoffice/pkg/metrics"
	"github.com/retailgrid/backoffice/pkg/migrate"
	"github.com/retailgrid/backoffice/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	importMetrics := metrics.NewBulkImportMetrics(registry)

	conn := dbClient.DB()
	clientsRepo := clients.NewRepository(conn)
	productsRepo := products.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	itemsRepo := orderitems.NewRepository(conn)
	ledger := stock.NewLedger(conn)

	invoiceClient, err := invoicing.NewClient(cfg.Invoice, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoicing client", err)
		os.Exit(1)
	}

	productsService, err := products.NewService(productsRepo, clientsRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	itemsService, err := orderitems.NewService(itemsRepo, ordersRepo, productsRepo, ledger, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create order items service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, itemsService, ledger, invoiceClient, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	uploadsService, err := bulkupload.NewService(productsRepo, clientsRepo, ledger, dbClient, importMetrics, cfg.Upload)
	if err != nil {
		logg.Error(context.Background(), "failed to create bulk upload service", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(conn, redisClient, cfg.Reports.CacheTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			httpMetrics,
			ordersService,
			itemsService,
			productsService,
			clientsRepo,
			ledger,
			uploadsService,
			reportsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
