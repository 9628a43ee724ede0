package config

import (
	"os"
	"path/filepath"
	"testing"
)

// Viper keys accumulate globally, so defaults and file overrides are
// exercised against the same directory in one pass.
func TestLoadDefaultsThenFileOverrides(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("default addr = %q, want :8080", cfg.Addr)
	}
	if cfg.MapWidth != 64 || cfg.MapHeight != 64 {
		t.Errorf("default map = %dx%d, want 64x64", cfg.MapWidth, cfg.MapHeight)
	}
	if cfg.Balance != DefaultBalance() {
		t.Errorf("file-less balance differs from DefaultBalance:\n%+v\n%+v", cfg.Balance, DefaultBalance())
	}

	file := filepath.Join(dir, "mechmud.cfg.json")
	body := `{
	  "addr": ":9999",
	  "map": {"seed": 7, "width": 32, "height": 16},
	  "balance": {"maxChance": 0.99}
	}`
	if err := os.WriteFile(file, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err = Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("addr = %q, want :9999", cfg.Addr)
	}
	if cfg.MapSeed != 7 || cfg.MapWidth != 32 || cfg.MapHeight != 16 {
		t.Errorf("map overrides lost: seed=%d %dx%d", cfg.MapSeed, cfg.MapWidth, cfg.MapHeight)
	}
	if cfg.Balance.MaxChance != 0.99 {
		t.Errorf("balance override lost: maxChance=%f", cfg.Balance.MaxChance)
	}
	// Keys the file omits keep their defaults.
	if cfg.Balance.GunneryBonus != 0.05 {
		t.Errorf("untouched balance key changed: gunneryBonus=%f", cfg.Balance.GunneryBonus)
	}
}
