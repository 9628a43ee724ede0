package game

import (
	"fmt"
	"math/rand"

	"github.com/dustin/go-humanize"

	"github.com/rgenet/mechmud/internal/config"
	"github.com/rgenet/mechmud/internal/world"
)

// EncounterType tags the three ambient encounter categories.
type EncounterType string

const (
	EncounterPiratePatrol EncounterType = "pirate_patrol"
	EncounterSalvage      EncounterType = "salvage_opportunity"
	EncounterMercContract EncounterType = "mercenary_contract"
)

// CreditRange is an inclusive [Min, Max] credit span.
type CreditRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// roll draws a uniform value from the range.
func (r CreditRange) roll(rng *rand.Rand) int64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Int63n(r.Max-r.Min+1)
}

// Encounter is a transient event instantiated per resolution call.
type Encounter struct {
	Type        EncounterType `json:"type"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	BaseChance  float64       `json:"base_chance"`
	Credits     CreditRange   `json:"reward_credits"`
	Experience  CreditRange   `json:"reward_experience"`
	// Risk: credits lost on failure.
	Penalty CreditRange `json:"penalty_credits"`
}

// encounterTable is the fixed roster of ambient encounters.
var encounterTable = map[EncounterType]Encounter{
	EncounterPiratePatrol: {
		Type:        EncounterPiratePatrol,
		Name:        "Pirate Patrol",
		Description: "A small pirate patrol blocks your path.",
		BaseChance:  0.70,
		Credits:     CreditRange{Min: 500, Max: 1000},
		Experience:  CreditRange{Min: 50, Max: 150},
		Penalty:     CreditRange{Min: 50, Max: 200},
	},
	EncounterSalvage: {
		Type:        EncounterSalvage,
		Name:        "Salvage Opportunity",
		Description: "You discover abandoned military equipment.",
		BaseChance:  0.80,
		Credits:     CreditRange{Min: 1500, Max: 4000},
		Experience:  CreditRange{Min: 25, Max: 75},
		Penalty:     CreditRange{Min: 50, Max: 200},
	},
	EncounterMercContract: {
		Type:        EncounterMercContract,
		Name:        "Mercenary Contract",
		Description: "A local faction offers you a contract.",
		BaseChance:  0.60,
		Credits:     CreditRange{Min: 2500, Max: 10000},
		Experience:  CreditRange{Min: 100, Max: 300},
		Penalty:     CreditRange{Min: 50, Max: 200},
	},
}

// Outcome describes one resolved encounter or mission: the state delta
// plus a human-readable line for the client log.
type Outcome struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Credits    int64  `json:"credits"` // signed delta actually applied
	Experience int64  `json:"experience"`
	LeveledUp  bool   `json:"leveled_up"`
}

// Resolver rolls for, selects, and resolves encounters. All stochastic
// choices come from the caller-supplied rand.Rand, so a fixed seed
// replays a fixed outcome.
type Resolver struct {
	bal config.Balance
}

// NewResolver creates a resolver with the given balance constants.
func NewResolver(bal config.Balance) *Resolver {
	return &Resolver{bal: bal}
}

// Encounter returns the table entry for a type tag.
func (r *Resolver) Encounter(t EncounterType) (Encounter, bool) {
	enc, ok := encounterTable[t]
	return enc, ok
}

// Roll draws against the cell's encounter weight and reports whether an
// encounter triggers at all.
func (r *Resolver) Roll(rng *rand.Rand, cell world.HexCell) bool {
	return rng.Float64() < cell.EncounterWeight()
}

// Generate selects an encounter type by weighted random choice. Each
// level above 1 shifts weight from Pirate Patrol toward Mercenary
// Contract, so veterans see more contracts and fewer patrol skirmishes.
func (r *Resolver) Generate(rng *rand.Rand, level int) Encounter {
	shift := r.bal.LevelWeightShift * float64(level-1)

	pirate := 1.0 - shift
	if pirate < 0.2 {
		pirate = 0.2
	}
	salvage := 1.0
	merc := 1.0 + shift

	draw := rng.Float64() * (pirate + salvage + merc)
	switch {
	case draw < pirate:
		return encounterTable[EncounterPiratePatrol]
	case draw < pirate+salvage:
		return encounterTable[EncounterSalvage]
	default:
		return encounterTable[EncounterMercContract]
	}
}

// SuccessChance computes the skill-modified success probability.
// Skills are inverted (0 is best), so each point below 8 adds its
// configured bonus. Experience contributes a capped linear bonus, and
// fielding an operational mech adds a flat edge. Clamped to the
// configured band.
func (r *Resolver) SuccessChance(c *Character, enc Encounter) float64 {
	chance := enc.BaseChance
	chance += float64(skillBaseline-c.Gunnery) * r.bal.GunneryBonus
	chance += float64(skillBaseline-c.Piloting) * r.bal.PilotingBonus
	chance += float64(skillBaseline-c.Guts) * r.bal.GutsBonus
	chance += float64(skillBaseline-c.Tactics) * r.bal.TacticsBonus

	expBonus := float64(c.Level()) * r.bal.ExperienceBonusPerLevel
	if expBonus > r.bal.ExperienceBonusCap {
		expBonus = r.bal.ExperienceBonusCap
	}
	chance += expBonus

	if c.OperationalMechs() > 0 {
		chance += r.bal.MechBonus
	}

	if chance < r.bal.MinChance {
		chance = r.bal.MinChance
	}
	if chance > r.bal.MaxChance {
		chance = r.bal.MaxChance
	}
	return chance
}

// Resolve runs the success roll and applies the result to the character
// as a single atomic mutation: reward credits and experience on
// success, a clamped credit loss on failure. Mechs take light wear on
// victory and heavier damage on defeat.
func (r *Resolver) Resolve(rng *rand.Rand, c *Character, enc Encounter) Outcome {
	chance := r.SuccessChance(c, enc)

	if rng.Float64() <= chance {
		credits := enc.Credits.roll(rng)
		experience := enc.Experience.roll(rng)

		c.EarnCredits(credits)
		leveledUp := c.GainExperience(experience)

		for _, m := range c.Mechs {
			if m.Operational() {
				m.TakeDamage(0.01+rng.Float64()*0.04, 0)
			}
		}

		msg := fmt.Sprintf("Victory! You defeated the %s and earned %s credits and %s XP.",
			enc.Name, humanize.Comma(credits), humanize.Comma(experience))
		if leveledUp {
			msg += fmt.Sprintf(" You reached level %d!", c.Level())
		}

		return Outcome{
			Success:    true,
			Message:    msg,
			Credits:    credits,
			Experience: experience,
			LeveledUp:  leveledUp,
		}
	}

	lost := c.SpendCredits(enc.Penalty.roll(rng))

	for _, m := range c.Mechs {
		if m.Operational() {
			m.TakeDamage(0.05+rng.Float64()*0.10, 0.01+rng.Float64()*0.04)
		}
	}

	return Outcome{
		Success: false,
		Message: fmt.Sprintf("Defeat! The %s got the better of you. You lost %s credits.",
			enc.Name, humanize.Comma(lost)),
		Credits: -lost,
	}
}
