package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	tommekalender "github.com/renovasjonsdata/tommekalender-ics"
	"github.com/renovasjonsdata/tommekalender-ics/config"
	"github.com/renovasjonsdata/tommekalender-ics/internal"
)

func main() {
	mode := flag.String("mode", "serve", "serve|oneshot")
	configPath := flag.String("config", "", "path to config.yml (overrides the default search path)")
	id := flag.String("id", "", "address identifier for oneshot mode")
	file := flag.String("file", "", "render a saved schedule page instead of fetching (oneshot mode)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := internal.NewLogger(cfg.LogLevel)

	switch *mode {
	case "oneshot":
		runOneshot(cfg, logger, *id, *file)
	case "serve":
		runServer(cfg, logger)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(1)
	}
}

func runOneshot(cfg config.AppConfig, logger zerolog.Logger, id, file string) {
	feeds, err := tommekalender.NewFeedService(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build feed pipeline")
	}

	var text string
	switch {
	case file != "":
		page, err := os.ReadFile(file)
		if err != nil {
			logger.Fatal().Err(err).Str("file", file).Msg("failed to read schedule page")
		}
		text, err = feeds.RenderHTML(string(page))
		if err != nil {
			logger.Fatal().Err(err).Str("file", file).Msg("failed to render feed")
		}
	case id != "":
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Source.TimeoutSeconds+5)*time.Second)
		defer cancel()
		text, err = feeds.RenderFeed(ctx, id)
		if err != nil {
			logger.Fatal().Err(err).Str("id", id).Msg("failed to render feed")
		}
	default:
		fmt.Fprintln(os.Stderr, "oneshot mode requires -id or -file")
		os.Exit(1)
	}
	fmt.Println(text)
}

func runServer(cfg config.AppConfig, logger zerolog.Logger) {
	srv, err := tommekalender.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("starting server")
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	logger.Info().Msg("server stopped")
}
