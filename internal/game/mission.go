package game

import (
	"fmt"
	"math/rand"

	"github.com/dustin/go-humanize"

	"github.com/rgenet/mechmud/internal/config"
)

// MissionRequirements gates which characters see a mission on the board.
type MissionRequirements struct {
	MinLevel      int `json:"min_level"`
	MechsRequired int `json:"mechs_required"`
}

// MissionTemplate is a static board entry. Rewards scale with the
// character's level at display and resolution time.
type MissionTemplate struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	BaseCredits        int64               `json:"base_reward_credits"`
	BaseExperience     int64               `json:"base_reward_experience"`
	CreditsPerLevel    int64               `json:"credits_per_level"`
	ExperiencePerLevel int64               `json:"experience_per_level"`
	Requirements       MissionRequirements `json:"requirements"`
}

// MissionOffer is a template with rewards scaled for a specific
// character, as shown on the board.
type MissionOffer struct {
	MissionTemplate
	ScaledCredits    int64 `json:"scaled_reward_credits"`
	ScaledExperience int64 `json:"scaled_reward_experience"`
}

var missionTemplates = []MissionTemplate{
	{
		ID:                 "escort_convoy",
		Name:               "Escort Mission",
		Description:        "Escort a convoy through dangerous territory.",
		BaseCredits:        1500,
		BaseExperience:     300,
		CreditsPerLevel:    500,
		ExperiencePerLevel: 100,
		Requirements:       MissionRequirements{MinLevel: 2, MechsRequired: 1},
	},
	{
		ID:                 "recon_sweep",
		Name:               "Reconnaissance",
		Description:        "Scout enemy positions beyond the ridge line and report back.",
		BaseCredits:        1000,
		BaseExperience:     200,
		CreditsPerLevel:    300,
		ExperiencePerLevel: 75,
		Requirements:       MissionRequirements{MinLevel: 1, MechsRequired: 1},
	},
	{
		ID:                 "assault_outpost",
		Name:               "Assault",
		Description:        "Lead the strike on a fortified pirate outpost.",
		BaseCredits:        4000,
		BaseExperience:     600,
		CreditsPerLevel:    800,
		ExperiencePerLevel: 150,
		Requirements:       MissionRequirements{MinLevel: 3, MechsRequired: 2},
	},
	{
		ID:                 "patrol_route",
		Name:               "Patrol",
		Description:        "Walk a garrison patrol route along the settlement perimeter.",
		BaseCredits:        800,
		BaseExperience:     150,
		CreditsPerLevel:    200,
		ExperiencePerLevel: 50,
		Requirements:       MissionRequirements{MinLevel: 1, MechsRequired: 0},
	},
}

// MissionBoard offers, resolves, and suppresses missions.
type MissionBoard struct {
	bal config.Balance
}

// NewMissionBoard creates a board with the given balance constants.
func NewMissionBoard(bal config.Balance) *MissionBoard {
	return &MissionBoard{bal: bal}
}

// Template looks up a mission template by ID.
func (b *MissionBoard) Template(id string) (MissionTemplate, bool) {
	for _, t := range missionTemplates {
		if t.ID == id {
			return t, true
		}
	}
	return MissionTemplate{}, false
}

// scaledRewards applies the per-level scaling. Level 1 characters get
// base rewards.
func (t MissionTemplate) scaledRewards(level int) (credits, experience int64) {
	bonus := int64(level - 1)
	if bonus < 0 {
		bonus = 0
	}
	return t.BaseCredits + t.CreditsPerLevel*bonus,
		t.BaseExperience + t.ExperiencePerLevel*bonus
}

// meets reports whether the character satisfies the template's gates.
func (t MissionTemplate) meets(c *Character) bool {
	return c.Level() >= t.Requirements.MinLevel &&
		c.OperationalMechs() >= t.Requirements.MechsRequired
}

// Offer lists the missions currently available to the character:
// templates whose requirements it meets, minus anything it has declined
// since its last move or turn-end.
func (b *MissionBoard) Offer(c *Character) []MissionOffer {
	offers := make([]MissionOffer, 0, len(missionTemplates))
	for _, t := range missionTemplates {
		if !t.meets(c) || c.HasDeclined(t.ID) {
			continue
		}
		credits, experience := t.scaledRewards(c.Level())
		offers = append(offers, MissionOffer{
			MissionTemplate:  t,
			ScaledCredits:    credits,
			ScaledExperience: experience,
		})
	}
	return offers
}

// Accept resolves a mission immediately. Requirements are re-checked
// even when the client took the offer from a fresh board, since the
// character may have changed in between.
func (b *MissionBoard) Accept(rng *rand.Rand, c *Character, missionID string) (Outcome, error) {
	t, ok := b.Template(missionID)
	if !ok {
		return Outcome{}, fmt.Errorf("mission %q: %w", missionID, ErrMissionUnavailable)
	}
	if !t.meets(c) || c.HasDeclined(t.ID) {
		return Outcome{}, fmt.Errorf("mission %q: %w", missionID, ErrMissionUnavailable)
	}

	chance := b.bal.MissionBaseChance +
		float64(c.Level())*b.bal.MissionLevelStep +
		float64(c.OperationalMechs())*b.bal.MissionMechStep
	if chance > b.bal.MissionChanceCap {
		chance = b.bal.MissionChanceCap
	}

	if rng.Float64() <= chance {
		credits, experience := t.scaledRewards(c.Level())
		c.EarnCredits(credits)
		leveledUp := c.GainExperience(experience)

		for _, m := range c.Mechs {
			if m.Operational() {
				m.TakeDamage(0.02+rng.Float64()*0.06, 0)
			}
		}

		msg := fmt.Sprintf("Mission '%s' completed successfully! Earned %s credits and %s XP.",
			t.Name, humanize.Comma(credits), humanize.Comma(experience))
		if leveledUp {
			msg += fmt.Sprintf(" You leveled up to level %d!", c.Level())
		}

		return Outcome{
			Success:    true,
			Message:    msg,
			Credits:    credits,
			Experience: experience,
			LeveledUp:  leveledUp,
		}, nil
	}

	lost := c.SpendCredits(100 + rng.Int63n(201))

	for _, m := range c.Mechs {
		if m.Operational() {
			m.TakeDamage(0.10+rng.Float64()*0.10, 0.02+rng.Float64()*0.06)
		}
	}

	return Outcome{
		Success: false,
		Message: fmt.Sprintf("Mission '%s' failed. You lost %s credits and your mechs took heavy damage.",
			t.Name, humanize.Comma(lost)),
		Credits: -lost,
	}, nil
}

// Decline suppresses a mission on the character's board until the
// character next moves or ends its turn.
func (b *MissionBoard) Decline(c *Character, missionID string) error {
	if _, ok := b.Template(missionID); !ok {
		return fmt.Errorf("mission %q: %w", missionID, ErrMissionUnavailable)
	}
	c.DeclineMission(missionID)
	return nil
}
