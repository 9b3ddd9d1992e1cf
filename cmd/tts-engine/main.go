package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/snarg/tts-engine/internal/api"
	"github.com/snarg/tts-engine/internal/azure"
	"github.com/snarg/tts-engine/internal/broker"
	"github.com/snarg/tts-engine/internal/config"
	"github.com/snarg/tts-engine/internal/metrics"
)

var version = "dev"

type repeatedFlag []string

func (f *repeatedFlag) String() string { return fmt.Sprint([]string(*f)) }

func (f *repeatedFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func parseFlags() config.Overrides {
	var o config.Overrides
	var keys repeatedFlag
	flag.StringVar(&o.EnvFile, "env-file", "", "path to .env file (default .env)")
	flag.StringVar(&o.HTTPAddr, "listen", "", "http listen address, host:port")
	flag.StringVar(&o.ServerArea, "server-area", "", "upstream area for the free edge endpoint (default|china|china-hk|china-tw)")
	flag.StringVar(&o.LogLevel, "log-level", "", "log level (trace|debug|info|warn|error)")
	flag.StringVar(&o.LogPath, "log-path", "", "log file path when --log-to-file is set")
	flag.BoolVar(&o.LogToFile, "log-to-file", false, "also write logs to a file")
	flag.BoolVar(&o.DisableEdgeAPI, "close-edge-free-api", false, "disable the free edge backend")
	flag.BoolVar(&o.DisableSubAPI, "close-official-subscribe-api", false, "disable the subscription backend")
	flag.Var(&keys, "subscribe-key", "subscription credential as \"key,region\" (repeatable)")
	flag.StringVar(&o.SubscribeAuthToken, "subscribe-api-auth-token", "", "shared secret gating the subscription route")
	flag.BoolVar(&o.NoVoiceListUpdate, "do-not-update-speakers-list", false, "skip the online voice-list fetch")
	flag.Parse()
	o.SubscribeKeys = keys
	return o
}

func newLogger(cfg *config.Config) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var w io.Writer = os.Stdout
	cleanup := func() {}
	if cfg.LogToFile {
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, cleanup, fmt.Errorf("open log file: %w", err)
		}
		w = zerolog.MultiLevelWriter(os.Stdout, f)
		cleanup = func() { f.Close() }
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(level), cleanup, nil
}

func main() {
	startTime := time.Now()

	cfg, err := config.Load(parseFlags())
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	log, logCleanup, err := newLogger(cfg)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to set up logging")
	}
	defer logCleanup()
	log.Info().Str("version", version).Msg("tts-engine starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: 15 * time.Second}
	opts := broker.Options{
		Timeout: cfg.SynthesisTimeout,
		Log:     log,
	}
	if !cfg.DisableEdgeAPI {
		opts.Edge = azure.NewEdgeFree(azure.Area(cfg.ServerArea), httpClient, cfg.NoVoiceListUpdate, log)
	}
	if !cfg.DisablePreviewAPI {
		opts.Preview = azure.NewPreviewFree(httpClient, cfg.NoVoiceListUpdate, log)
	}
	if !cfg.DisableSubscribeAPI {
		creds, errs := azure.ParseCredentials(cfg.SubscribeKeys)
		for _, e := range errs {
			log.Warn().Err(e).Msg("skipping subscription credential")
		}
		if len(creds) == 0 {
			log.Fatal().Msg("subscription backend enabled but no valid credentials configured")
		}
		opts.Subscriptions = creds
		opts.SubscriptionFactory = func(c azure.Credential) *azure.Subscription {
			return azure.NewSubscription(c, httpClient, cfg.NoVoiceListUpdate, log)
		}
	}

	b := broker.New(opts)
	if err := b.WarmUp(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load voice catalogs")
	}
	prometheus.MustRegister(metrics.NewCollector(b))

	// HTTP server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, b, version, startTime, httpLog)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("tts-engine stopped")
}
