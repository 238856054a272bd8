package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"absensi/internal/attendance"
	"absensi/internal/auth"
	"absensi/internal/config"
	"absensi/internal/dates"
	"absensi/internal/handler"
	"absensi/internal/logger"
	"absensi/internal/metrics"
	"absensi/internal/realtime"
	"absensi/internal/roster"
	"absensi/internal/store"
	"absensi/internal/store/memory"
)

func main() {
	cfg := config.Load()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	if err := run(cfg, logg); err != nil {
		logg.Fatal("http server failed", zap.Error(err))
	}
}

// stores bundles the three persistence ports of one backend.
type stores struct {
	operators auth.OperatorStore
	students  roster.Store
	records   attendance.Store
}

func run(cfg config.App, logg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	checks := map[string]handler.HealthCheck{}

	var st stores
	switch cfg.StoreBackend {
	case "memory":
		mem := memory.New()
		st = stores{operators: mem, students: mem, records: mem}
		logg.Warn("using in-memory store, data is lost on restart")
	default:
		db, err := store.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
		st = stores{
			operators: auth.NewRepository(db.Client),
			students:  roster.NewRepository(db.Client),
			records:   attendance.NewRepository(db.Client),
		}
		checks["db"] = db.Healthy
	}

	clock := dates.SystemClock{Loc: cfg.Location()}
	hub := realtime.NewHub(realtime.DefaultBuffer, logg.Named("realtime"), m)

	var notifier roster.Notifier = hub
	if cfg.RedisAddr != "" {
		rdb := store.NewRedis(cfg.RedisAddr, "", 0)
		defer func() { _ = rdb.Close() }()
		checks["redis"] = rdb.Healthy

		relay := realtime.NewRedisRelay(rdb.Client, cfg.RedisChannel, hub, logg.Named("relay"))
		notifier = relay
		go relay.Run(ctx)
	}

	authSvc := auth.NewService(st.operators, clock, cfg.TokenPrefix)
	rosterSvc := roster.NewService(st.students, notifier)
	ledger := attendance.NewLedger(st.records, authSvc, rosterSvc, notifier, clock)

	if cfg.BootstrapNickname != "" && cfg.BootstrapPassword != "" {
		if _, err := authSvc.CreateOperator(ctx, cfg.BootstrapNickname, cfg.BootstrapPassword); err != nil {
			return err
		}
		logg.Info("bootstrap operator ready", zap.String("nickname", cfg.BootstrapNickname))
	}

	r := handler.NewRouter(handler.Deps{
		Auth:     authSvc,
		Roster:   rosterSvc,
		Ledger:   ledger,
		Hub:      hub,
		Log:      logg,
		Metrics:  m,
		Gatherer: reg,
		Checks:   checks,
		Config:   cfg,
	})

	srv := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: /api/events streams for as long as the viewer stays.
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("starting server",
			zap.String("port", cfg.HTTPPort),
			zap.String("store", cfg.StoreBackend),
			zap.String("timezone", clock.Loc.String()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	logg.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Warn("server forced shutdown", zap.Error(err))
	}

	logg.Info("server exited")
	return nil
}
