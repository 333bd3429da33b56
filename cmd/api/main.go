// cmd/api/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"bookreview/internal/app"
	"bookreview/internal/config"
	"bookreview/internal/gateway"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg config.Gateway
	if err := config.Load(&cfg, 8080); err != nil {
		return err
	}

	rt, err := app.Start(ctx, "gateway", cfg.Common)
	if err != nil {
		return err
	}

	resolver := rt.Resolver(map[string][]string{
		"books":   cfg.BooksURLs,
		"users":   cfg.UsersURLs,
		"reviews": cfg.ReviewsURLs,
	})
	proxy := gateway.NewProxy(resolver, nil, rt.Logger)
	limiter := gateway.NewRateLimiter(cfg.RatePerSecond, cfg.RateBurst, rt.Logger)
	rt.Server.Routes(func(r chi.Router) {
		proxy.Routes(r, gateway.DefaultRoutes)
	}, limiter.Middleware)

	return rt.Run(ctx)
}
