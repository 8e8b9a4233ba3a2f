/* main.go
 * The "main" method for running the bot. Wires the store, directory and
 * background loops together and runs the gateway plus the HTTP server
 * until interrupted.
 * Usage: go run main.go -config="config.yaml"
 */

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"tourney-bot/bot"
	"tourney-bot/config"
	"tourney-bot/tourney/confirm"
	"tourney-bot/tourney/coordinator"
	"tourney-bot/tourney/reconcile"
	"tourney-bot/tourney/registry"
	"tourney-bot/tourney/store"
	"tourney-bot/tourney/updates"
	"tourney-bot/web"
)

func main() {
	configPtr := flag.String("config", "config.yaml", "Path to the YAML config file")
	flag.Parse()

	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(*configPtr)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	st, err := store.New(cfg.Data.Dir)
	if err != nil {
		logger.Error("failed to open store", slog.Any("error", err))
		os.Exit(1)
	}
	settings, err := bot.NewSettingsManager(st)
	if err != nil {
		logger.Error("failed to load settings", slog.Any("error", err))
		os.Exit(1)
	}

	dir := registry.NewDirectory()
	confirms := confirm.NewRegistry()
	upd := updates.NewChannel(logger)
	defer upd.Close()

	b, err := bot.New(cfg.Discord.Token, bot.Deps{
		Dir:      dir,
		Confirms: confirms,
		Updates:  upd,
		Store:    st,
		Settings: settings,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to create bot", slog.Any("error", err))
		os.Exit(1)
	}

	// Restore live tournaments from the last snapshot.
	deps := coordinator.Deps{
		Client:   b.Client(),
		Updates:  upd,
		Confirms: confirms,
		Logger:   logger,
		Settings: settings.Get,
	}
	snaps, err := st.LoadLive()
	if err != nil {
		logger.Error("failed to load tournament snapshots", slog.Any("error", err))
		os.Exit(1)
	}
	for _, snap := range snaps {
		if err := dir.Insert(coordinator.FromSnapshot(snap, deps)); err != nil {
			logger.Warn("skipping snapshot",
				slog.String("tournament", snap.Tournament.Name), slog.Any("error", err))
		}
	}
	logger.Info("restored tournaments", slog.Int("count", len(snaps)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshotter := store.NewSnapshotter(st, cfg.Data.SnapshotInterval, func() []coordinator.Snapshot {
		var out []coordinator.Snapshot
		dir.ForEach(func(g *coordinator.GuildTournament) {
			out = append(out, g.Snapshot())
		})
		return out
	}, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.Run(ctx) })
	g.Go(func() error { return reconcile.New(dir, upd, logger).Run(ctx) })
	g.Go(func() error { return snapshotter.Run(ctx) })
	g.Go(func() error {
		return web.Run(ctx, web.Config{Addr: cfg.HTTP.Addr, Dir: dir, Logger: logger})
	})

	if err := g.Wait(); err != nil {
		logger.Error("shutting down with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shut down cleanly")
}
