package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mama165/sdk-go/logs"

	"github.com/Tyrowin/lanchat/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := server.NewConfigFromEnv()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := server.NewApp(log, config)
	log.Info("Starting LAN Chat relay",
		"port", config.Port,
		"history_capacity", config.HistoryCapacity,
		"clear_broadcast", config.ClearBroadcast)

	if err := app.Run(ctx); err != nil {
		return err
	}
	log.Info("Relay stopped cleanly")
	return nil
}
