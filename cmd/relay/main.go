package main

import (
	"context"
	"errors"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/candree7-rgb/zeiiforward/internal/channel"
	"github.com/candree7-rgb/zeiiforward/internal/config"
	"github.com/candree7-rgb/zeiiforward/internal/forward"
	"github.com/candree7-rgb/zeiiforward/internal/metrics"
	"github.com/candree7-rgb/zeiiforward/internal/relay"
	"github.com/candree7-rgb/zeiiforward/internal/schedule"
	"github.com/candree7-rgb/zeiiforward/internal/state"
	"github.com/candree7-rgb/zeiiforward/internal/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := util.NewLogger("info")
		fallback.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.LogLevel)

	if cfg.MetricsAddr != "" {
		_ = metrics.Serve(cfg.MetricsAddr)
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := channel.NewClient(cfg.Token, cfg.ChannelID, log, channel.WithLimit(cfg.PollLimit))
	fwd := forward.NewForwarder(cfg.Endpoints(), cfg.Notional, log)
	store := state.NewStore(cfg.StateFile)
	aligner := schedule.Aligner{Base: cfg.PollBase(), Offset: cfg.PollOffset()}

	log.Info().
		Int("base_seconds", cfg.PollBaseSeconds).
		Int("offset_seconds", cfg.PollOffsetSeconds).
		Float64("notional", cfg.Notional).
		Int("endpoints", len(cfg.Endpoints())).
		Msg("relay starting")

	runner := relay.NewRunner(client, fwd, store, aligner, log)
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("relay stopped")
	}
	log.Info().Msg("shutting down")
}
