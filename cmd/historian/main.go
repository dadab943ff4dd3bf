// cmd/historian is an asynchronous historian service that pops game actions from a Redis queue and
// persists them to a PostgreSQL database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/yellowcard/yellowcard/internal/cache"
	"github.com/yellowcard/yellowcard/internal/config"
	"github.com/yellowcard/yellowcard/internal/database"
	"github.com/yellowcard/yellowcard/internal/historian"
)

var CLI config.Historian

func main() {
	kong.Parse(&CLI,
		kong.Name("yellowcard-historian"),
		kong.Description("drains the game action queue into Postgres"),
		kong.UsageOnError())

	logger := CLI.Log.Setup(logrus.StandardLogger())
	if err := run(); err != nil {
		logger.Fatalf("historian exited: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, CLI.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	if CLI.Migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
	}

	addr := CLI.Redis.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb, err := cache.Connect(ctx, addr, CLI.Redis.DB)
	if err != nil {
		return err
	}
	queue := cache.NewQueue(rdb, CLI.Redis.Queue)
	defer queue.Close()

	svc := historian.New(queue, database.NewActionStore(pool), historian.Options{
		BatchSize:  CLI.BatchSize,
		FlushDelay: time.Duration(CLI.FlushMs) * time.Millisecond,
		Inactivity: time.Duration(CLI.InactivitySec) * time.Second,
	})
	svc.Run(ctx)
	return nil
}
