// cmd/reviews/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bookreview/internal/app"
	"bookreview/internal/clients"
	"bookreview/internal/config"
	"bookreview/internal/journal"
	"bookreview/internal/review"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "reviews: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg config.Reviews
	if err := config.Load(&cfg, 8083); err != nil {
		return err
	}

	rt, err := app.Start(ctx, "reviews", cfg.Common)
	if err != nil {
		return err
	}

	db, err := rt.OpenDB(ctx, cfg.Store, append(review.Schema, journal.Schema)...)
	if err != nil {
		return err
	}
	var (
		store        review.Store = review.NewMemoryStore()
		journalStore journal.Store = journal.NewMemoryStore()
	)
	if db != nil {
		defer db.Close()
		store = review.NewPostgresStore(db)
		journalStore = journal.NewPostgresStore(db)
	}
	j, err := journal.New(journalStore)
	if err != nil {
		return err
	}

	resolver := rt.Resolver(map[string][]string{
		clients.BooksTarget.Service: cfg.BooksURLs,
		clients.UsersTarget.Service: cfg.UsersURLs,
	})
	checkerOpts := func(service string) []clients.Option {
		opts := []clients.Option{
			clients.WithTimeout(cfg.CheckTimeout),
			clients.WithLogger(rt.Logger),
		}
		if cfg.BreakerEnabled {
			bc := clients.DefaultBreakerConfig(service)
			bc.Timeout = cfg.BreakerTimeout
			opts = append(opts, clients.WithBreaker(bc))
		}
		return opts
	}

	svc := review.NewService(store,
		clients.NewBookChecker(resolver, checkerOpts(clients.BooksTarget.Service)...),
		clients.NewUserChecker(resolver, checkerOpts(clients.UsersTarget.Service)...),
		rt.Logger,
		review.WithJournal(j),
		review.WithWriteTimeout(cfg.WriteTimeout),
	)
	rt.Server.Routes(review.NewHandler(svc, rt.Logger).Routes)

	rt.Logger.Info().
		Dur("check_timeout", cfg.CheckTimeout).
		Bool("breaker", cfg.BreakerEnabled).
		Msg("review service configured")
	return rt.Run(ctx)
}
