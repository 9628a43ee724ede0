// Package config loads server settings and game-balance tunables.
// Every balance constant (skill bonuses, encounter weighting, clamps)
// is configurable; the defaults reproduce the standard campaign rules.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Balance holds the tunable game-balance constants consumed by the
// encounter resolver and mission board.
type Balance struct {
	// Success-chance bonus per skill point below 8. Skill values are
	// inverted: 0 is best, so a Gunnery 0 pilot gets 8*GunneryBonus.
	GunneryBonus  float64
	PilotingBonus float64
	GutsBonus     float64
	TacticsBonus  float64

	// Experience bonus: ExperienceBonusPerLevel per level, capped at
	// ExperienceBonusCap.
	ExperienceBonusPerLevel float64
	ExperienceBonusCap      float64

	// Bonus for fielding at least one operational mech.
	MechBonus float64

	// Success chance is clamped to [MinChance, MaxChance].
	MinChance float64
	MaxChance float64

	// Encounter type weighting: per level above 1, this much weight
	// shifts from Pirate Patrol toward Mercenary Contract.
	LevelWeightShift float64

	// Mission auto-resolution: base + level*LevelStep + mechs*MechStep,
	// capped at Cap.
	MissionBaseChance float64
	MissionLevelStep  float64
	MissionMechStep   float64
	MissionChanceCap  float64
}

// Config is the full server configuration.
type Config struct {
	Addr        string
	DBPath      string
	CatalogPath string
	MapSeed     int64
	MapWidth    int
	MapHeight   int
	Balance     Balance
}

// Load reads configuration from mechmud.cfg.json in configDir, applying
// defaults for any key the file omits. A missing file is not an error —
// the defaults form a complete configuration.
func Load(configDir string) (*Config, error) {
	viper.SetDefault("addr", ":8080")
	viper.SetDefault("db.path", "data/mechmud.db")
	viper.SetDefault("catalog.path", "data/mechs.json")

	viper.SetDefault("map.seed", 1)
	viper.SetDefault("map.width", 64)
	viper.SetDefault("map.height", 64)

	viper.SetDefault("balance.gunneryBonus", 0.05)
	viper.SetDefault("balance.pilotingBonus", 0.03)
	viper.SetDefault("balance.gutsBonus", 0.02)
	viper.SetDefault("balance.tacticsBonus", 0.03)
	viper.SetDefault("balance.experienceBonusPerLevel", 0.02)
	viper.SetDefault("balance.experienceBonusCap", 0.10)
	viper.SetDefault("balance.mechBonus", 0.10)
	viper.SetDefault("balance.minChance", 0.10)
	viper.SetDefault("balance.maxChance", 0.95)
	viper.SetDefault("balance.levelWeightShift", 0.05)
	viper.SetDefault("balance.missionBaseChance", 0.60)
	viper.SetDefault("balance.missionLevelStep", 0.05)
	viper.SetDefault("balance.missionMechStep", 0.10)
	viper.SetDefault("balance.missionChanceCap", 0.90)

	viper.SetConfigName("mechmud.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return &Config{
		Addr:        viper.GetString("addr"),
		DBPath:      viper.GetString("db.path"),
		CatalogPath: viper.GetString("catalog.path"),
		MapSeed:     viper.GetInt64("map.seed"),
		MapWidth:    viper.GetInt("map.width"),
		MapHeight:   viper.GetInt("map.height"),
		Balance:     loadBalance(),
	}, nil
}

func loadBalance() Balance {
	return Balance{
		GunneryBonus:            viper.GetFloat64("balance.gunneryBonus"),
		PilotingBonus:           viper.GetFloat64("balance.pilotingBonus"),
		GutsBonus:               viper.GetFloat64("balance.gutsBonus"),
		TacticsBonus:            viper.GetFloat64("balance.tacticsBonus"),
		ExperienceBonusPerLevel: viper.GetFloat64("balance.experienceBonusPerLevel"),
		ExperienceBonusCap:      viper.GetFloat64("balance.experienceBonusCap"),
		MechBonus:               viper.GetFloat64("balance.mechBonus"),
		MinChance:               viper.GetFloat64("balance.minChance"),
		MaxChance:               viper.GetFloat64("balance.maxChance"),
		LevelWeightShift:        viper.GetFloat64("balance.levelWeightShift"),
		MissionBaseChance:       viper.GetFloat64("balance.missionBaseChance"),
		MissionLevelStep:        viper.GetFloat64("balance.missionLevelStep"),
		MissionMechStep:         viper.GetFloat64("balance.missionMechStep"),
		MissionChanceCap:        viper.GetFloat64("balance.missionChanceCap"),
	}
}

// DefaultBalance returns the standard campaign balance constants without
// touching viper state. Used by tests and as a library default.
func DefaultBalance() Balance {
	return Balance{
		GunneryBonus:            0.05,
		PilotingBonus:           0.03,
		GutsBonus:               0.02,
		TacticsBonus:            0.03,
		ExperienceBonusPerLevel: 0.02,
		ExperienceBonusCap:      0.10,
		MechBonus:               0.10,
		MinChance:               0.10,
		MaxChance:               0.95,
		LevelWeightShift:        0.05,
		MissionBaseChance:       0.60,
		MissionLevelStep:        0.05,
		MissionMechStep:         0.10,
		MissionChanceCap:        0.90,
	}
}
