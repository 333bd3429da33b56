// cmd/books/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bookreview/internal/app"
	"bookreview/internal/book"
	"bookreview/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "books: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg config.Books
	if err := config.Load(&cfg, 8081); err != nil {
		return err
	}

	rt, err := app.Start(ctx, "books", cfg.Common)
	if err != nil {
		return err
	}

	db, err := rt.OpenDB(ctx, cfg.Store, book.Schema)
	if err != nil {
		return err
	}
	var store book.Store = book.NewMemoryStore()
	if db != nil {
		defer db.Close()
		store = book.NewPostgresStore(db)
	}

	handler := book.NewHandler(book.NewService(store, rt.Logger), rt.Logger)
	rt.Server.Routes(handler.Routes, rt.Chaos(cfg.Chaos)...)

	return rt.Run(ctx)
}
