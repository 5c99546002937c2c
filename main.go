package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/dnldd/candleview/render"
	"github.com/dnldd/candleview/service"
	"github.com/dnldd/candleview/viewport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Error().Msgf("loading config: %v", err)
		os.Exit(1)
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Both parse without error once the config validates.
	format, _ := render.ParseFormat(cfg.Format)
	anchor, _ := viewport.ParseAnchor(cfg.Anchor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	viewerCfg := service.ViewerConfig{
		DataFile:         cfg.DataFile,
		Strict:           cfg.Strict,
		SyntheticCandles: cfg.Candles,
		Output:           cfg.Output,
		Format:           format,
		Width:            cfg.Width,
		Height:           cfg.Height,
		CandleWidth:      cfg.CandleWidth,
		Visible:          cfg.Visible,
		Anchor:           anchor,
		ThemePath:        cfg.Theme,
		ShowGrid:         cfg.Grid,
		Frames:           cfg.Frames,
		Realtime:         cfg.Realtime,
		StatsInterval:    time.Duration(cfg.StatsInterval) * time.Second,
	}
	viewer, err := service.NewViewer(&viewerCfg)
	if err != nil {
		log.Error().Msgf("creating viewer service: %v", err)
		os.Exit(1)
	}

	go handleTermination(ctx, cancel)

	if err := viewer.Run(ctx); err != nil {
		log.Error().Msgf("running viewer: %v", err)
		os.Exit(1)
	}
}
