package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/omgcreativity/laojia/internal/browser"
	"github.com/omgcreativity/laojia/internal/config"
	"github.com/omgcreativity/laojia/internal/relay"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load worker configuration")
	}

	log.Info().
		Str("bridge_url", cfg.BridgeURL).
		Str("bridge_user", cfg.BridgeUser).
		Str("target_chat_url", cfg.TargetChatURL).
		Dur("poll_interval", cfg.PollInterval).
		Msg("starting relay worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stopChan
		log.Info().Msg("shutdown signal received")
		cancel()
	}()

	bridge := relay.NewClient(cfg.BridgeURL, cfg.BridgeUser)

	page := browser.NewChatPage(browser.Config{
		TargetURL: cfg.TargetChatURL,
		Image:     cfg.BrowserImage,
		ReplyWait: cfg.ReplyWait,
	})
	if err := page.Open(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to open target chat page")
	}

	// Close explicitly on every exit path; os.Exit would skip a defer and
	// leak the browser container.
	closePage := func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer closeCancel()
		if err := page.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("failed to close chat page")
		}
	}

	worker := relay.NewWorker(bridge, page, relay.WorkerConfig{
		PollInterval: cfg.PollInterval,
		FaultLimit:   cfg.FaultLimit,
	})

	if err := worker.Run(ctx); err != nil {
		closePage()
		// Non-zero exit so a supervisor (systemd, docker restart policy)
		// brings up a fresh browser session.
		log.Error().Err(err).Msg("relay worker stopped on error")
		os.Exit(1)
	}

	closePage()
	log.Info().Msg("relay worker stopped")
}
