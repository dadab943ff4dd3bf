// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/yellowcard/yellowcard/internal/auth"
	"github.com/yellowcard/yellowcard/internal/cache"
	"github.com/yellowcard/yellowcard/internal/catalogue"
	"github.com/yellowcard/yellowcard/internal/config"
	"github.com/yellowcard/yellowcard/internal/game"
	"github.com/yellowcard/yellowcard/internal/handlers"
	"github.com/yellowcard/yellowcard/internal/middleware"
)

var CLI config.Server

func main() {
	kong.Parse(&CLI,
		kong.Name("yellowcard-server"),
		kong.Description("room server for the demand/response elimination card game"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	logger := CLI.Log.Setup(logrus.StandardLogger())
	if err := run(logger); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}

func run(logger *logrus.Logger) error {
	if err := auth.Init(CLI.TokenTTL); err != nil {
		return err
	}
	rules, err := CLI.Rules()
	if err != nil {
		return err
	}

	var cat *catalogue.Catalogue
	if CLI.Catalogue != "" {
		if cat, err = catalogue.Load(CLI.Catalogue); err != nil {
			return err
		}
	} else {
		logger.Warn("no catalogue file given, using a synthetic deck")
		cat = catalogue.Synthetic(120, 480, 3)
	}
	nDemand, nResponse := cat.Size()
	logger.Infof("Catalogue: %d demand cards, %d response cards", nDemand, nResponse)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var record func(cache.GameActionRecord)
	if CLI.Redis.Addr != "" {
		rdb, err := cache.Connect(ctx, CLI.Redis.Addr, CLI.Redis.DB)
		if err != nil {
			return err
		}
		queue := cache.NewQueue(rdb, CLI.Redis.Queue)
		defer queue.Close()
		record = queue.Record
		logger.Infof("Recording game actions to %s/%s", CLI.Redis.Addr, queue.Name())
	}

	store := game.NewStore(cat, rules)
	srv := handlers.NewGameServer(store, logger, record)

	mux := http.NewServeMux()
	logged := middleware.LogMiddleware(logger)
	mux.Handle("/auth/guest", logged(handlers.GuestHandler()))
	mux.Handle("/room/create", logged(handlers.CreateRoomHandler(srv)))
	mux.Handle("/room/list", logged(handlers.ListRoomsHandler(srv)))
	mux.Handle("/room/ws/", logged(handlers.RoomWSHandler(logger, srv)))

	httpServer := &http.Server{
		Addr:              CLI.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Infof("Running on %s", CLI.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
