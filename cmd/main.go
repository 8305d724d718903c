package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/shasu1pm/VoxText-AI/internal/config"
	"github.com/shasu1pm/VoxText-AI/internal/httpapi"
	"github.com/shasu1pm/VoxText-AI/internal/service"
	"github.com/shasu1pm/VoxText-AI/internal/session"
	"github.com/shasu1pm/VoxText-AI/internal/transcript"
	"github.com/shasu1pm/VoxText-AI/internal/translate"
	"github.com/shasu1pm/VoxText-AI/internal/ytdlp"
	"github.com/shasu1pm/VoxText-AI/pkg/log"
)

func main() {
	// Optional .env overrides, useful outside of containers
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	log.InitLogger(log.ParseLevel(cfg.Server.LogLevel))

	store, err := session.New(cfg.Extract.CookieFile)
	if err != nil {
		log.Fatal("Failed to initialize session store: %v", err)
	}

	extractor := ytdlp.NewExtractor(store,
		ytdlp.WithBinary(cfg.Extract.Binary),
		ytdlp.WithPlayerClients(cfg.Extract.PlayerClients),
		ytdlp.WithTimeout(cfg.Extract.TimeoutDuration()),
	)

	fetchClient := store.Client(cfg.Pipeline.FetchTimeoutDuration())
	transcripts := transcript.New(nil)
	translator := translate.New(fetchClient, translate.WithEndpoint(cfg.Translate.Endpoint))

	svc := service.New(
		extractor,
		service.NewFetcher(fetchClient, transcripts),
		transcripts,
		translator,
		cfg.Pipeline.MetadataTTLDuration(),
		cfg.Pipeline.ResultTTLDuration(),
	)

	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.Pipeline.SweepCron, func() {
		if removed := svc.SweepCaches(); removed > 0 {
			log.Debug("Cache sweep removed %d expired entries", removed)
		}
	}); err != nil {
		log.Fatal("Invalid sweep cron expression %q: %v", cfg.Pipeline.SweepCron, err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	server := httpapi.NewServer(svc)

	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening on %s", cfg.Server.Addr)
		errCh <- server.ListenAndServe(cfg.Server.Addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed: %v", err)
		}
	case sig := <-stop:
		log.Info("Received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("Shutdown failed: %v", err)
		}
	}
}
