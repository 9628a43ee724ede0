// Command seedmechs loads the mech catalog into the game database.
// Run once after install or whenever data/mechs.json changes.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/rgenet/mechmud/internal/catalog"
	"github.com/rgenet/mechmud/internal/persistence"
)

func main() {
	catalogPath := flag.String("catalog", "data/mechs.json", "path to the mech catalog file")
	dbPath := flag.String("db", "data/mechmud.db", "path to the game database")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cat, err := catalog.Load(*catalogPath)
	if err != nil {
		slog.Error("failed to load mech catalog", "path", *catalogPath, "error", err)
		os.Exit(1)
	}

	store, err := persistence.Open(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.SeedMechTemplates(cat.List()); err != nil {
		slog.Error("failed to seed mech templates", "error", err)
		os.Exit(1)
	}

	seeded, err := store.ListMechTemplates()
	if err != nil {
		slog.Error("failed to verify seeded templates", "error", err)
		os.Exit(1)
	}

	for _, m := range seeded {
		fmt.Printf("%-24s %3dt  BV %4d  %d credits\n", m.ID, m.Tonnage, m.BattleValue, m.Cost)
	}
	fmt.Printf("Seeded %d mech templates into %s.\n", len(seeded), *dbPath)
}
