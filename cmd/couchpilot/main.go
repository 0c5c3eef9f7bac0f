// Command couchpilot is a headless media-server playback daemon. It resolves
// streams from a Jellyfin-compatible server, renders them through mpv, and
// exposes a local HTTP/WebSocket control surface for a remote UI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/couchpilot/internal/api"
	"github.com/mantonx/couchpilot/internal/clock"
	"github.com/mantonx/couchpilot/internal/config"
	"github.com/mantonx/couchpilot/internal/deviceprofile"
	"github.com/mantonx/couchpilot/internal/mediaserver"
	"github.com/mantonx/couchpilot/internal/playback"
	"github.com/mantonx/couchpilot/internal/player/mpv"
	"github.com/mantonx/couchpilot/internal/prefs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "couchpilot:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/couchpilot/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "couchpilot",
		Level: hclog.LevelFromString(cfg.Logging.Level),
	})
	logger.Info("starting", "server", cfg.Server.URL, "listen", cfg.API.Listen)

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	store, err := prefs.Open(filepath.Join(cfg.Data.Dir, "couchpilot.db"), logger)
	if err != nil {
		return fmt.Errorf("open prefs store: %w", err)
	}

	maxBitrate := cfg.Playback.MaxBitrate
	if pref := store.PreferredBitrate(); pref > 0 {
		maxBitrate = pref
	}
	profile := deviceprofile.Build(maxBitrate)

	server := mediaserver.New(mediaserver.Options{
		BaseURL:  cfg.Server.URL,
		Token:    cfg.Server.Token,
		UserID:   cfg.Server.UserID,
		DeviceID: cfg.Server.DeviceID,
		Timeout:  cfg.Server.Timeout,
	}, logger)

	factory := mpv.NewFactory(mpv.Config{
		BinaryPath: cfg.Playback.MPVPath,
		SocketDir:  cfg.Data.Dir,
	}, logger)

	hub := api.NewHub(logger)

	orch := playback.New(playback.Deps{
		Logger:            logger,
		Clock:             clock.New(),
		Server:            server,
		Prefs:             store,
		Adapters:          factory,
		Profile:           profile,
		Notifier:          hub,
		PreferBasicPlayer: cfg.Playback.PreferBasicPlayer,
	})
	defer orch.Destroy()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Hot reload covers playback tunables only; server identity and the
	// listen address need a restart.
	go func() {
		err := config.Watch(ctx, *configPath, logger, func(next *config.Config) {
			if next.Playback.MaxBitrate > 0 {
				orch.SetMaxBitrate(next.Playback.MaxBitrate)
			}
		})
		if err != nil && ctx.Err() == nil {
			logger.Warn("config watch stopped", "error", err)
		}
	}()

	srv := api.NewServer(cfg.API.Listen, logger, orch, store, hub)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("api server: %w", err)
	}

	logger.Info("shutting down")
	return nil
}
