package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fraudguard/internal/api"
	"fraudguard/internal/config"
	"fraudguard/internal/decisions"
	"fraudguard/internal/engine"
	"fraudguard/internal/ingest"
	"fraudguard/internal/logging"
	"fraudguard/internal/metrics"
	"fraudguard/internal/normalize"
	"fraudguard/internal/notify"
	"fraudguard/internal/state"
	"fraudguard/internal/storage"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (yaml or json)")
	flag.Parse()

	// .env is optional, local development only.
	_ = godotenv.Load()

	var manager *config.Manager
	if *configPath != "" {
		m, err := config.NewManager(config.ResolvePath(*configPath))
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		manager = m
	} else {
		cfg, err := config.FromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		manager = config.NewStatic(cfg)
	}
	cfg := manager.Get()

	logger := logging.NewLogger(cfg.LogLevel)
	logger.Info("fraudguard starting", "version", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	states, err := state.NewStore(cfg.State)
	if err != nil {
		logger.Error("state store init failed", "err", err)
		os.Exit(1)
	}
	if err := states.Init(ctx); err != nil {
		logger.Error("state store init failed", "err", err)
		os.Exit(1)
	}
	defer states.Close()

	archive, err := storage.NewArchive(cfg.Storage)
	if err != nil {
		logger.Error("archive init failed", "err", err)
		os.Exit(1)
	}
	if archive != nil {
		if err := archive.Init(ctx); err != nil {
			logger.Error("archive init failed", "err", err)
			os.Exit(1)
		}
		defer archive.Close()
	}

	publisher := notify.NewPublisher(cfg.Alerts, logger)
	defer publisher.Close()

	metrics.Register()

	decisionStore := decisions.NewStore(cfg.Decisions.StoreLimit)
	caseStore := decisions.NewCaseStore(cfg.Alerts.StoreLimit)

	proc := engine.NewProcessor(cfg, logger, states)
	svc := ingest.NewService(proc, archive, publisher, decisionStore, caseStore, logger)

	events := make(chan normalize.RawTransaction, cfg.Ingest.ChannelBuffer)
	svc.Start(ctx, events)

	ingest.StartREST(ctx, manager, svc, logger)
	ingest.StartKafka(ctx, manager, events, logger)
	ingest.StartFileReplay(ctx, manager, events, logger)
	ingest.StartTCPStream(ctx, manager, events, logger)
	api.Start(ctx, manager, decisionStore, caseStore, proc, logger, version)

	go manager.Watch(3*time.Second, func(next *config.Config) {
		proc.UpdateConfig(next)
		logger.Info("config reloaded")
	}, func(err error) {
		logger.Warn("config reload failed", "err", err)
	}, ctx.Done())

	<-ctx.Done()
	logger.Info("fraudguard shutting down")
}
