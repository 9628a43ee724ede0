// Package catalog provides the read-only BattleMech reference data.
// Templates are loaded from a JSON data file; characters hold template
// IDs, never copies of the data.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/exp/slices"
)

// ErrMechNotFound is returned when a template ID has no catalog entry.
var ErrMechNotFound = errors.New("mech not found in catalog")

// Weapon is one entry of a mech's loadout.
type Weapon struct {
	Type     string `json:"type"`
	Location string `json:"location"`
	Quantity int    `json:"quantity"`
}

// Mech is a static catalog entry. Read-only reference data.
type Mech struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Model       string   `json:"model"`
	Tonnage     int      `json:"tonnage"`
	BattleValue int      `json:"battle_value"`
	Cost        int64    `json:"cost"`
	WalkingMP   float64  `json:"walking_mp"`
	RunningMP   float64  `json:"running_mp"`
	Weapons     []Weapon `json:"weapons"`
}

// Catalog holds the mech templates keyed by ID.
type Catalog struct {
	byID  map[string]Mech
	order []Mech // sorted by cost for listing
}

type catalogFile struct {
	Mechs []struct {
		Mech
		Value int64 `json:"value"` // explicit price override in source data
	} `json:"mechs"`
}

// Load reads the mech catalog from a JSON data file. Entries without an
// explicit value get the derived price: tonnage*50 + battle_value*2.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	return build(file)
}

func build(file catalogFile) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Mech, len(file.Mechs))}
	for _, entry := range file.Mechs {
		m := entry.Mech
		if m.ID == "" {
			return nil, fmt.Errorf("catalog entry %q missing id", m.Name)
		}
		if entry.Value > 0 {
			m.Cost = entry.Value
		} else if m.Cost == 0 {
			m.Cost = int64(m.Tonnage)*50 + int64(m.BattleValue)*2
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog id %q", m.ID)
		}
		c.byID[m.ID] = m
		c.order = append(c.order, m)
	}

	slices.SortFunc(c.order, func(a, b Mech) int {
		switch {
		case a.Cost < b.Cost:
			return -1
		case a.Cost > b.Cost:
			return 1
		default:
			return 0
		}
	})
	return c, nil
}

// Get returns the template with the given ID.
func (c *Catalog) Get(id string) (Mech, error) {
	m, ok := c.byID[id]
	if !ok {
		return Mech{}, ErrMechNotFound
	}
	return m, nil
}

// List returns all templates sorted by cost ascending.
func (c *Catalog) List() []Mech {
	out := make([]Mech, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of templates.
func (c *Catalog) Len() int { return len(c.byID) }
