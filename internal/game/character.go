// Package game implements the MechWarrior progression model, encounter
// resolver, mission board, and mech shop.
package game

import (
	"time"

	"github.com/rgenet/mechmud/internal/catalog"
	"github.com/rgenet/mechmud/internal/world"
)

// ExperiencePerLevel is the flat progression curve: one level per
// thousand experience points.
const ExperiencePerLevel = 1000

// StartingCredits is the bankroll of a freshly mustered MechWarrior.
const StartingCredits = 1000

// skillBaseline is the untrained value of each skill; creation spends
// skillPointBudget points below it across the four skills.
const (
	skillBaseline    = 8
	skillPointBudget = 10
)

// Character holds a MechWarrior's skills, progression, position, and
// hangar. Mutated by every resolved encounter, mission, and purchase.
type Character struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`

	// MechWarrior skills, 0-8 with lower being better.
	Gunnery  int `json:"gunnery"`
	Piloting int `json:"piloting"`
	Guts     int `json:"guts"`
	Tactics  int `json:"tactics"`

	Credits    int64 `json:"credits"`
	Experience int64 `json:"experience"`

	Position world.Coord `json:"position"`

	// Turn-based movement state.
	MovementPoints float64 `json:"movement_points"`
	TurnNumber     int     `json:"turn_number"`

	// Hangar: owned mech instances plus the active one. ActiveMechID
	// zero means no mech is fielded (fresh characters cannot move).
	Mechs        []*MechInstance `json:"mechs"`
	ActiveMechID int64           `json:"active_mech_id"`
	NextMechID   int64           `json:"next_mech_id"`

	// Missions declined this turn; cleared on movement or turn end.
	DeclinedMissions []string `json:"declined_missions"`
}

// NewCharacter validates skills and creates a character at the map
// center with starting credits and no mechs.
func NewCharacter(name string, gunnery, piloting, guts, tactics int, start world.Coord) (*Character, error) {
	for _, s := range []int{gunnery, piloting, guts, tactics} {
		if s < 0 || s > skillBaseline {
			return nil, ErrInvalidSkill
		}
	}
	spent := 4*skillBaseline - (gunnery + piloting + guts + tactics)
	if spent != skillPointBudget {
		return nil, ErrInvalidAllocation
	}

	return &Character{
		Name:       name,
		Gunnery:    gunnery,
		Piloting:   piloting,
		Guts:       guts,
		Tactics:    tactics,
		Credits:    StartingCredits,
		Position:   start,
		TurnNumber: 1,
		NextMechID: 1,
	}, nil
}

// Level is derived from experience: one level per ExperiencePerLevel.
func (c *Character) Level() int {
	return int(c.Experience/ExperiencePerLevel) + 1
}

// EarnCredits adds credits.
func (c *Character) EarnCredits(amount int64) {
	c.Credits += amount
}

// SpendCredits deducts up to amount, clamping the balance at zero.
// Returns the amount actually deducted.
func (c *Character) SpendCredits(amount int64) int64 {
	if amount > c.Credits {
		amount = c.Credits
	}
	c.Credits -= amount
	return amount
}

// CanAfford reports whether the character holds at least cost credits.
func (c *Character) CanAfford(cost int64) bool {
	return c.Credits >= cost
}

// GainExperience adds experience and reports whether the character
// crossed a level boundary.
func (c *Character) GainExperience(amount int64) bool {
	before := c.Level()
	c.Experience += amount
	return c.Level() > before
}

// ActiveMech returns the fielded mech, falling back to the first
// operational mech in the hangar. Nil when nothing can be fielded.
func (c *Character) ActiveMech() *MechInstance {
	if c.ActiveMechID != 0 {
		for _, m := range c.Mechs {
			if m.ID == c.ActiveMechID {
				return m
			}
		}
	}
	for _, m := range c.Mechs {
		if m.Operational() {
			return m
		}
	}
	return nil
}

// Mech returns the hangar instance with the given ID.
func (c *Character) Mech(id int64) (*MechInstance, error) {
	for _, m := range c.Mechs {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, ErrMechInstanceNotFound
}

// Owns reports whether the character already holds a mech built from
// the given catalog template.
func (c *Character) Owns(templateID string) bool {
	for _, m := range c.Mechs {
		if m.TemplateID == templateID {
			return true
		}
	}
	return false
}

// OperationalMechs counts hangar mechs able to take the field.
func (c *Character) OperationalMechs() int {
	n := 0
	for _, m := range c.Mechs {
		if m.Operational() {
			n++
		}
	}
	return n
}

// MovementPointsTotal returns the walking speed of the active mech, or
// zero when the character has nothing to pilot.
func (c *Character) MovementPointsTotal(cat *catalog.Catalog) float64 {
	active := c.ActiveMech()
	if active == nil {
		return 0
	}
	tpl, err := cat.Get(active.TemplateID)
	if err != nil {
		return 0
	}
	return tpl.WalkingMP
}

// StartTurn advances the turn counter, refreshes movement points, and
// re-opens any missions declined last turn.
func (c *Character) StartTurn(cat *catalog.Catalog) {
	c.TurnNumber++
	c.MovementPoints = c.MovementPointsTotal(cat)
	c.DeclinedMissions = nil
}

// DeclineMission adds a mission to the character's suppression set.
func (c *Character) DeclineMission(missionID string) {
	if c.HasDeclined(missionID) {
		return
	}
	c.DeclinedMissions = append(c.DeclinedMissions, missionID)
}

// HasDeclined reports whether the mission is suppressed for this
// character.
func (c *Character) HasDeclined(missionID string) bool {
	for _, id := range c.DeclinedMissions {
		if id == missionID {
			return true
		}
	}
	return false
}

// Move relocates the character to target, debiting movement points by
// hex distance times the terrain cost of the destination. The declined
// mission set clears on every move.
func (c *Character) Move(target world.Coord, cell world.HexCell) (float64, error) {
	if !cell.Passable() {
		return 0, ErrImpassableTerrain
	}
	if c.ActiveMech() == nil {
		return 0, ErrNoOperationalMech
	}

	cost := float64(world.Distance(c.Position, target)) * cell.MovementCost()
	if cost > c.MovementPoints {
		return 0, ErrNoMovementPoints
	}

	c.Position = target
	c.MovementPoints -= cost
	c.DeclinedMissions = nil
	return cost, nil
}

// MechInstance is a mech owned by a character: a catalog template
// reference plus its current condition.
type MechInstance struct {
	ID         int64  `json:"id"`
	TemplateID string `json:"template_id"`
	CustomName string `json:"custom_name,omitempty"`

	// Condition fractions in [0, 1]. A mech with zero internal
	// structure is out of the fight until repaired.
	ArmorCondition    float64 `json:"armor_condition"`
	InternalCondition float64 `json:"internal_condition"`

	PurchasedAt time.Time `json:"purchased_at"`
}

// Operational reports whether the mech can take the field.
func (m *MechInstance) Operational() bool {
	return m.InternalCondition > 0
}

// TakeDamage reduces condition, clamping at zero.
func (m *MechInstance) TakeDamage(armor, internal float64) {
	m.ArmorCondition -= armor
	if m.ArmorCondition < 0 {
		m.ArmorCondition = 0
	}
	m.InternalCondition -= internal
	if m.InternalCondition < 0 {
		m.InternalCondition = 0
	}
}

// Repair restores condition by amount, clamping at fully repaired.
func (m *MechInstance) Repair(amount float64) {
	m.ArmorCondition += amount
	if m.ArmorCondition > 1 {
		m.ArmorCondition = 1
	}
	m.InternalCondition += amount
	if m.InternalCondition > 1 {
		m.InternalCondition = 1
	}
}

// RepairCost prices a full repair at 10% of the purchase price, with
// internal damage weighted double.
func (m *MechInstance) RepairCost(tpl catalog.Mech) int64 {
	armorDamage := 1.0 - m.ArmorCondition
	internalDamage := 1.0 - m.InternalCondition
	base := float64(tpl.Cost) * 0.1
	return int64(base * (armorDamage + internalDamage*2))
}

// DisplayName returns the pilot-assigned name when set, otherwise the
// template's name.
func (m *MechInstance) DisplayName(tpl catalog.Mech) string {
	if m.CustomName != "" {
		return m.CustomName
	}
	return tpl.Name
}
