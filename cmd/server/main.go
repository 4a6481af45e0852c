package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-backend/internal/config"
	"pos-backend/internal/domain/customers"
	"pos-backend/internal/domain/orders"
	"pos-backend/internal/domain/products"
	"pos-backend/internal/domain/stock"
	"pos-backend/internal/infra/db"
	httpx "pos-backend/internal/infra/http"
	"pos-backend/internal/infra/logger"
	"pos-backend/internal/infra/notify"
	"pos-backend/internal/report"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/example.yaml"
}

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	alerts, err := notify.NewLowStock(log, cfg.Telegram.Token, cfg.Telegram.AdminChatID)
	if err != nil {
		// без оповещений жить можно
		log.Error("telegram init failed", "err", err)
		alerts = nil
	}

	var alerter stock.Alerter
	if alerts != nil {
		alerter = alerts
	}

	custRepo := customers.NewRepo(pool)
	prodRepo := products.NewRepo(pool)
	orderRepo := orders.NewRepo(pool, log, custRepo, cfg.Orders.NumberPrefix)
	stockRepo := stock.NewRepo(pool, log, prodRepo, alerter)

	reports := report.NewHandler(log, stockRepo, orderRepo)

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, reports)
	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete", slog.String("env", cfg.App.Env))
}
