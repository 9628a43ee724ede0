package persistence

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rgenet/mechmud/internal/catalog"
	"github.com/rgenet/mechmud/internal/game"
	"github.com/rgenet/mechmud/internal/world"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func storedCharacter(t *testing.T, s *Store, name string) *game.Character {
	t.Helper()
	c, err := game.NewCharacter(name, 5, 6, 6, 5, world.Coord{X: 32, Y: 32})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CreateCharacter(c); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCharacterRoundTrip(t *testing.T) {
	s := testStore(t)
	c := storedCharacter(t, s, "Kerensky")

	c.Credits = 2500
	c.Experience = 1200
	c.Position = world.Coord{X: 10, Y: 20}
	c.MovementPoints = 3.5
	c.TurnNumber = 7
	c.Mechs = []*game.MechInstance{
		{ID: 1, TemplateID: "scout-mech", CustomName: "Scout One", ArmorCondition: 0.8, InternalCondition: 0.9},
	}
	c.ActiveMechID = 1
	c.NextMechID = 2
	c.DeclinedMissions = []string{"escort_convoy"}

	if err := s.SaveCharacter(c); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetCharacter(c.ID)
	if err != nil {
		t.Fatal(err)
	}

	if got.Name != "Kerensky" || got.Credits != 2500 || got.Experience != 1200 {
		t.Errorf("scalars lost: %+v", got)
	}
	if got.Position != (world.Coord{X: 10, Y: 20}) || got.MovementPoints != 3.5 || got.TurnNumber != 7 {
		t.Errorf("position state lost: %+v", got)
	}
	if len(got.Mechs) != 1 || got.Mechs[0].CustomName != "Scout One" || got.Mechs[0].ArmorCondition != 0.8 {
		t.Errorf("hangar lost: %+v", got.Mechs)
	}
	if got.ActiveMechID != 1 || got.NextMechID != 2 {
		t.Errorf("mech IDs lost: active=%d next=%d", got.ActiveMechID, got.NextMechID)
	}
	if len(got.DeclinedMissions) != 1 || got.DeclinedMissions[0] != "escort_convoy" {
		t.Errorf("declined set lost: %v", got.DeclinedMissions)
	}
}

func TestCreateCharacterNameConflict(t *testing.T) {
	s := testStore(t)
	storedCharacter(t, s, "Kerensky")

	dup, err := game.NewCharacter("Kerensky", 5, 6, 6, 5, world.Coord{})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CreateCharacter(dup); !errors.Is(err, game.ErrNameTaken) {
		t.Fatalf("got %v, want ErrNameTaken", err)
	}
}

func TestGetCharacterNotFound(t *testing.T) {
	s := testStore(t)
	if _, err := s.GetCharacter(9999); !errors.Is(err, game.ErrCharacterNotFound) {
		t.Fatalf("got %v, want ErrCharacterNotFound", err)
	}
	if _, err := s.GetCharacterByName("Nobody"); !errors.Is(err, game.ErrCharacterNotFound) {
		t.Fatalf("got %v, want ErrCharacterNotFound", err)
	}
}

func TestGetCharacterByName(t *testing.T) {
	s := testStore(t)
	c := storedCharacter(t, s, "Kerensky")

	got, err := s.GetCharacterByName("Kerensky")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != c.ID {
		t.Errorf("loaded ID %d, want %d", got.ID, c.ID)
	}
}

func TestMutateAppliesExactlyOnce(t *testing.T) {
	s := testStore(t)
	c := storedCharacter(t, s, "Kerensky")

	got, err := s.Mutate(c.ID, func(c *game.Character) error {
		c.EarnCredits(500)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Credits != game.StartingCredits+500 {
		t.Errorf("returned credits = %d, want %d", got.Credits, game.StartingCredits+500)
	}

	stored, err := s.GetCharacter(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Credits != game.StartingCredits+500 {
		t.Errorf("stored credits = %d, want %d", stored.Credits, game.StartingCredits+500)
	}
}

func TestMutateRollsBackOnError(t *testing.T) {
	s := testStore(t)
	c := storedCharacter(t, s, "Kerensky")

	wantErr := errors.New("boom")
	_, err := s.Mutate(c.ID, func(c *game.Character) error {
		c.EarnCredits(1000000)
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want the callback error", err)
	}

	stored, err := s.GetCharacter(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Credits != game.StartingCredits {
		t.Errorf("rolled-back mutation leaked: credits = %d", stored.Credits)
	}
}

func TestMutateUnknownCharacter(t *testing.T) {
	s := testStore(t)
	_, err := s.Mutate(9999, func(c *game.Character) error { return nil })
	if !errors.Is(err, game.ErrCharacterNotFound) {
		t.Fatalf("got %v, want ErrCharacterNotFound", err)
	}
}

// TestMutateSerializesConcurrentWriters runs many concurrent increments
// and checks none are lost.
func TestMutateSerializesConcurrentWriters(t *testing.T) {
	s := testStore(t)
	c := storedCharacter(t, s, "Kerensky")

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Mutate(c.ID, func(c *game.Character) error {
				c.EarnCredits(10)
				return nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}

	stored, err := s.GetCharacter(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := int64(game.StartingCredits + writers*10)
	if stored.Credits != want {
		t.Errorf("credits = %d, want %d (lost updates)", stored.Credits, want)
	}
}

func TestSeedAndListMechTemplates(t *testing.T) {
	s := testStore(t)

	mechs := []catalog.Mech{
		{ID: "heavy", Name: "Heavy", Model: "H-1", Tonnage: 100, BattleValue: 1900, Cost: 8800, WalkingMP: 3, RunningMP: 5},
		{ID: "light", Name: "Light", Model: "L-1", Tonnage: 20, BattleValue: 400, Cost: 800, WalkingMP: 8, RunningMP: 12,
			Weapons: []catalog.Weapon{{Type: "Medium Laser", Location: "center torso", Quantity: 1}}},
	}
	if err := s.SeedMechTemplates(mechs); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListMechTemplates()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("listed %d templates, want 2", len(got))
	}
	if got[0].ID != "light" || got[1].ID != "heavy" {
		t.Errorf("templates not sorted by cost: %s, %s", got[0].ID, got[1].ID)
	}
	if len(got[0].Weapons) != 1 || got[0].Weapons[0].Type != "Medium Laser" {
		t.Errorf("weapons lost in round trip: %+v", got[0].Weapons)
	}

	// Reseeding replaces rather than appends.
	if err := s.SeedMechTemplates(mechs[:1]); err != nil {
		t.Fatal(err)
	}
	got, err = s.ListMechTemplates()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("reseed left %d templates, want 1", len(got))
	}
}
