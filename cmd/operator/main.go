// Command operator creates an operator account or resets its password.
//
//	operator -nickname bu_sari -password rahasia
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"absensi/internal/auth"
	"absensi/internal/config"
	"absensi/internal/logger"
	"absensi/internal/store"
)

var errMemoryBackend = errors.New("operator provisioning needs STORE_BACKEND=postgres; seed memory stores with BOOTSTRAP_OPERATOR_NICKNAME/PASSWORD")

func main() {
	nickname := flag.String("nickname", "", "operator login name")
	password := flag.String("password", "", "operator password (bcrypt-hashed before storing)")
	flag.Parse()

	if *nickname == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: operator -nickname NAME -password SECRET")
		os.Exit(2)
	}

	cfg := config.Load()
	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logg, *nickname, *password)
	cancel()
	if err != nil {
		logg.Error("save operator failed", zap.Error(err))
		_ = logg.Sync()
		os.Exit(1)
	}
	_ = logg.Sync()
}

func run(ctx context.Context, cfg config.App, logg *zap.Logger, nickname, password string) error {
	if cfg.StoreBackend == "memory" {
		return errMemoryBackend
	}

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("schema init: %w", err)
	}

	svc := auth.NewService(auth.NewRepository(db.Client), nil, cfg.TokenPrefix)
	op, err := svc.CreateOperator(ctx, nickname, password)
	if err != nil {
		return err
	}
	logg.Info("operator saved", zap.String("id", op.ID), zap.String("nickname", op.Nickname))
	return nil
}
