// cmd/registry/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"bookreview/internal/app"
	"bookreview/internal/config"
	"bookreview/internal/discovery"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "registry: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg config.Registry
	if err := config.Load(&cfg, 8761); err != nil {
		return err
	}
	// the registry never registers with itself
	cfg.RegistryURL = ""

	rt, err := app.Start(ctx, "registry", cfg.Common)
	if err != nil {
		return err
	}

	var reg discovery.Registry
	switch cfg.Backend {
	case "redis":
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		reg = discovery.NewRedisRegistry(client, cfg.TTL)
	default:
		reg = discovery.NewMemoryRegistry(cfg.TTL)
	}
	rt.Server.Health().Register("registry", reg.Ping)
	rt.Server.Routes(discovery.NewHandler(reg, rt.Logger).Routes)

	rt.Logger.Info().Str("backend", cfg.Backend).Dur("ttl", cfg.TTL).Msg("registry configured")
	return rt.Run(ctx)
}
