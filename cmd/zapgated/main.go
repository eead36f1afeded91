// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zapgate/zapgate/internal/api"
	"github.com/zapgate/zapgate/internal/channels"
	"github.com/zapgate/zapgate/internal/config"
	"github.com/zapgate/zapgate/internal/discovery"
	"github.com/zapgate/zapgate/internal/dvr"
	"github.com/zapgate/zapgate/internal/log"
	"github.com/zapgate/zapgate/internal/store"
	"github.com/zapgate/zapgate/internal/transcode"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	port := flag.Int("port", 3000, "HTTP listen port")
	dataDir := flag.String("data", "", "data directory (default $ZAPGATE_DATA or /var/lib/zapgate)")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	level := "info"
	if *verbose {
		level = "debug"
	}
	log.Configure(log.Config{
		Level:   level,
		Service: "zapgate",
		Version: version,
	})
	logger := log.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dir := *dataDir
	if dir == "" {
		dir = config.ParseString("ZAPGATE_DATA", "/var/lib/zapgate")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Fatal().Err(err).Str("dir", dir).Msg("failed to create data directory")
	}

	ffmpegPath := config.ParseString("ZAPGATE_FFMPEG", "ffmpeg")
	publicDir := config.ParseString("ZAPGATE_PUBLIC", filepath.Join(dir, "public"))
	channelsPath := config.ParseString("ZAPGATE_CHANNELS", filepath.Join(dir, "channels.conf"))
	recDir := config.ParseString("ZAPGATE_RECORDINGS", filepath.Join(dir, "recordings"))
	maxRecordings := config.ParseInt("ZAPGATE_MAX_RECORDINGS", 16)
	dvrPoll := config.ParseDuration("ZAPGATE_DVR_POLL", 10*time.Second)

	logger.Info().
		Str("version", version).
		Int("port", *port).
		Str("data_dir", dir).
		Str("ffmpeg", ffmpegPath).
		Msg("zapgate starting")

	st, err := store.Open(filepath.Join(dir, "zapgate.db"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open recording database")
	}
	defer func() { _ = st.Close() }()

	settings := config.LoadSettings(filepath.Join(dir, "settings.conf"))

	chMgr := channels.NewManager(channelsPath)
	if err := chMgr.Watch(ctx.Done()); err != nil {
		logger.Warn().Err(err).Str("path", channelsPath).Msg("channel list watch unavailable")
	}

	disc := discovery.New(discovery.DefaultConfig(*port))
	if err := disc.Start(ctx); err != nil {
		// The gateway still serves recordings and the API without a tuner.
		logger.Warn().Err(err).Msg("service discovery unavailable")
	}
	defer disc.Shutdown()

	registry := dvr.NewRegistry(maxRecordings)
	selfBaseURL := fmt.Sprintf("http://127.0.0.1:%d", *port)
	startCapture := func(ctx context.Context, streamURL, outPath string) (dvr.Capture, error) {
		return transcode.StartCapture(ctx, ffmpegPath, streamURL, outPath)
	}
	scheduler := dvr.NewScheduler(st, registry, startCapture, selfBaseURL, recDir)
	scheduler.Interval = dvrPoll

	server := api.New(api.Config{
		Addr:       fmt.Sprintf(":%d", *port),
		PublicDir:  publicDir,
		FFmpegPath: ffmpegPath,
		Version:    version,
	}, st, settings, chMgr, disc, scheduler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		scheduler.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("daemon exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("zapgate stopped")
}
