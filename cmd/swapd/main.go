package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uhyunpark/swapchecker/params"
	"github.com/uhyunpark/swapchecker/pkg/api"
	"github.com/uhyunpark/swapchecker/pkg/app/simulator"
	"github.com/uhyunpark/swapchecker/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg, err := params.LoadFromEnv("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := util.NewLoggerWithFile(cfg.Node.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Node.LogFile)

	app, err := simulator.NewApp(cfg, sugar)
	if err != nil {
		sugar.Fatalw("app_init_failed", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- API Server ----
	apiServer := api.NewServer(app, cfg.Node.CORSOrigins, sugar)
	apiErr := make(chan error, 1)
	go func() {
		apiErr <- apiServer.Start(ctx, cfg.Node.APIAddr)
	}()

	// ---- Swap Feeder (optional) ----
	// Enable with: ENABLE_SWAPGEN=true SWAPGEN_INTERVAL_MS=500 SWAPGEN_USERS=10
	var (
		cancelFeeder context.CancelFunc
		feederDone   <-chan simulator.FeederStats
	)
	if cfg.SwapGen.Enabled {
		cancelFeeder, feederDone = simulator.StartSwapFeeder(ctx, app, simulator.FeederConfig{
			Interval: cfg.SwapGen.Interval,
			Users:    cfg.SwapGen.Users,
			Seed:     cfg.Engine.MockSeed,
		})
	} else {
		sugar.Info("swapgen_disabled")
	}

	sugar.Infow("node_starting",
		"api_addr", cfg.Node.APIAddr,
		"supported_network", cfg.Engine.SupportedNetwork.String(),
		"sources", app.Books.Count(),
		"slippage", cfg.Engine.Slippage)

	// Progress logging loop
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

loop:
	for {
		select {
		case err := <-apiErr:
			// Start returns once in-flight requests have drained
			if err != nil {
				sugar.Errorw("api_server_failed", "err", err)
			}
			break loop
		case <-ticker.C:
			sugar.Infow("node_progress",
				"users", app.Users.Count(),
				"sources", app.Books.Count())
		}
	}

	// Shutdown order: no swap may still be committing when the journal closes
	stop()
	if cancelFeeder != nil {
		cancelFeeder()
		<-feederDone
	}
	if err := app.Close(); err != nil {
		sugar.Warnw("journal_close_failed", "err", err)
	}
	sugar.Info("node_stopped")
}
