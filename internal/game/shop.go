package game

import (
	"fmt"
	"time"

	"github.com/rgenet/mechmud/internal/catalog"
)

// Shop sells catalog mechs and services owned ones.
type Shop struct {
	cat *catalog.Catalog
}

// NewShop creates a shop backed by the mech catalog.
func NewShop(cat *catalog.Catalog) *Shop {
	return &Shop{cat: cat}
}

// List returns the full catalog, cheapest first.
func (s *Shop) List() []catalog.Mech {
	return s.cat.List()
}

// Purchase buys a catalog mech for the character. A character can own
// at most one instance of each template. On success exactly the listed
// cost is debited and a pristine instance is appended; the character's
// first mech becomes active immediately and grants its movement points.
func (s *Shop) Purchase(c *Character, templateID string) (*MechInstance, error) {
	tpl, err := s.cat.Get(templateID)
	if err != nil {
		return nil, err
	}
	if c.Owns(templateID) {
		return nil, fmt.Errorf("mech %q: %w", templateID, ErrAlreadyOwned)
	}
	if !c.CanAfford(tpl.Cost) {
		return nil, fmt.Errorf("mech %q costs %d: %w", templateID, tpl.Cost, ErrInsufficientFunds)
	}

	c.SpendCredits(tpl.Cost)

	m := &MechInstance{
		ID:                c.NextMechID,
		TemplateID:        tpl.ID,
		ArmorCondition:    1.0,
		InternalCondition: 1.0,
		PurchasedAt:       time.Now().UTC(),
	}
	c.NextMechID++
	c.Mechs = append(c.Mechs, m)

	if len(c.Mechs) == 1 {
		c.ActiveMechID = m.ID
		c.MovementPoints = c.MovementPointsTotal(s.cat)
	}
	return m, nil
}

// Repair restores a mech instance to full condition at 10% of list
// price per point of armor damage and double for internal damage.
func (s *Shop) Repair(c *Character, instanceID int64) (int64, error) {
	m, err := c.Mech(instanceID)
	if err != nil {
		return 0, err
	}
	tpl, err := s.cat.Get(m.TemplateID)
	if err != nil {
		return 0, err
	}

	cost := m.RepairCost(tpl)
	if cost == 0 {
		return 0, nil
	}
	if !c.CanAfford(cost) {
		return 0, fmt.Errorf("repair costs %d: %w", cost, ErrInsufficientFunds)
	}

	c.SpendCredits(cost)
	m.ArmorCondition = 1.0
	m.InternalCondition = 1.0
	return cost, nil
}

// Rename sets a custom callsign on an owned mech. An empty name reverts
// to the catalog designation.
func (s *Shop) Rename(c *Character, instanceID int64, name string) error {
	m, err := c.Mech(instanceID)
	if err != nil {
		return err
	}
	m.CustomName = name
	return nil
}
