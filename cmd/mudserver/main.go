// Command mudserver runs the MechMUD game server.
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/rgenet/mechmud/internal/api"
	"github.com/rgenet/mechmud/internal/catalog"
	"github.com/rgenet/mechmud/internal/config"
	"github.com/rgenet/mechmud/internal/game"
	"github.com/rgenet/mechmud/internal/persistence"
	"github.com/rgenet/mechmud/internal/world"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(".")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// ── Mech catalog ──────────────────────────────────────────────────
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		slog.Error("failed to load mech catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}
	slog.Info("mech catalog loaded", "path", cfg.CatalogPath, "mechs", cat.Len())

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll("data", 0755)
	store, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	if err := store.SeedMechTemplates(cat.List()); err != nil {
		slog.Error("failed to seed mech templates", "error", err)
		os.Exit(1)
	}

	// ── World map (deterministic from seed, never stored) ─────────────
	genCfg := world.DefaultGenConfig()
	genCfg.Seed = cfg.MapSeed
	genCfg.Width = cfg.MapWidth
	genCfg.Height = cfg.MapHeight
	gen := world.NewGenerator(genCfg)

	for t, count := range gen.TerrainCounts() {
		slog.Info("terrain", "type", world.TerrainName(t), "count", count)
	}

	// ── Game services ─────────────────────────────────────────────────
	resolver := game.NewResolver(cfg.Balance)
	board := game.NewMissionBoard(cfg.Balance)
	shop := game.NewShop(cat)

	rng := rand.New(rand.NewSource(cfg.MapSeed))

	server := api.NewServer(store, gen, cat, resolver, board, shop, cfg.Addr, rng)
	server.Start()

	fmt.Printf("MechMUD is live: %dx%d map, %d mechs in the shop.\n",
		cfg.MapWidth, cfg.MapHeight, cat.Len())
	fmt.Printf("API: http://localhost%s/api/v1/map\n", cfg.Addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)
}
