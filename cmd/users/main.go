// cmd/users/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"

	"bookreview/internal/app"
	"bookreview/internal/config"
	"bookreview/internal/user"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "users: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg config.Users
	if err := config.Load(&cfg, 8082); err != nil {
		return err
	}

	rt, err := app.Start(ctx, "users", cfg.Common)
	if err != nil {
		return err
	}

	db, err := rt.OpenDB(ctx, cfg.Store, user.Schema...)
	if err != nil {
		return err
	}
	var store user.Store = user.NewMemoryStore()
	if db != nil {
		defer db.Close()
		store = user.NewPostgresStore(db)
	}

	limiter := rate.NewLimiter(rate.Every(cfg.RegisterEvery), cfg.RegisterBurst)
	handler := user.NewHandler(user.NewService(store, limiter, rt.Logger), rt.Logger)
	rt.Server.Routes(handler.Routes, rt.Chaos(cfg.Chaos)...)

	return rt.Run(ctx)
}
