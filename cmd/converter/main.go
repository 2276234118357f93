package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lanl-future-campaign/c2-parquet-writer/cli"
	"github.com/lanl-future-campaign/c2-parquet-writer/config"
)

func main() {
	// The convert command reloads config when --config is given and rebuilds
	// its logger from it; the bootstrap logger covers everything else.
	logger, err := config.SetupLogger(config.LoadDefaultConfig())
	if err != nil {
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = context.WithValue(ctx, cli.LoggerKey, logger)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info().Msg("Interrupt received, winding down...")
		cancel()
	}()

	if err := cli.ExecuteWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("Conversion failed")
		os.Exit(1)
	}
}
