package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gasindo/gastrack-backend/api/routes"
	"github.com/gasindo/gastrack-backend/internal/assignments"
	"github.com/gasindo/gastrack-backend/internal/cylinders"
	"github.com/gasindo/gastrack-backend/internal/deliveries"
	"github.com/gasindo/gastrack-backend/internal/ledger"
	"github.com/gasindo/gastrack-backend/internal/numbering"
	"github.com/gasindo/gastrack-backend/internal/orders"
	"github.com/gasindo/gastrack-backend/internal/returns"
	"github.com/gasindo/gastrack-backend/pkg/config"
	"github.com/gasindo/gastrack-backend/pkg/db"
	"github.com/gasindo/gastrack-backend/pkg/logger"
	"github.com/gasindo/gastrack-backend/pkg/metrics"
	"github.com/gasindo/gastrack-backend/pkg/migrate"
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

	coreMetrics := metrics.NewCoreMetrics(prometheus.DefaultRegisterer)
	conn := dbClient.DB()

	numberingService := numbering.NewService()
	ledgerService := ledger.NewService(ledger.NewRepository(conn), coreMetrics)
	cylinderService := cylinders.NewService(cylinders.NewRepository(conn), ledgerService, dbClient)
	assignmentService := assignments.NewService(assignments.NewRepository(conn), ledgerService, coreMetrics, dbClient)
	orderService := orders.NewService(orders.NewRepository(conn), numberingService, assignmentService, coreMetrics, dbClient)
	deliveryService := deliveries.NewService(deliveries.NewRepository(conn), orderService, assignmentService, numberingService, cfg.Rental, dbClient)
	returnService := returns.NewService(returns.NewRepository(conn), ledgerService, assignmentService, dbClient)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			ledgerService,
			cylinderService,
			assignmentService,
			orderService,
			deliveryService,
			returnService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
