// Package persistence provides SQLite-based character and catalog
// storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/rgenet/mechmud/internal/catalog"
	"github.com/rgenet/mechmud/internal/game"
)

// Store wraps a SQLite connection for game state persistence.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path. Write
// transactions take the lock up front (_txlock=immediate) so Mutate
// serializes concurrent writers instead of failing at commit.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS characters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		gunnery INTEGER NOT NULL,
		piloting INTEGER NOT NULL,
		guts INTEGER NOT NULL,
		tactics INTEGER NOT NULL,
		credits INTEGER NOT NULL,
		experience INTEGER NOT NULL,
		pos_x INTEGER NOT NULL,
		pos_y INTEGER NOT NULL,
		movement_points REAL NOT NULL,
		turn_number INTEGER NOT NULL,
		active_mech_id INTEGER NOT NULL,
		next_mech_id INTEGER NOT NULL,
		mechs_json TEXT NOT NULL,
		declined_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS mech_templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		model TEXT NOT NULL,
		tonnage INTEGER NOT NULL,
		battle_value INTEGER NOT NULL,
		cost INTEGER NOT NULL,
		walking_mp REAL NOT NULL,
		running_mp REAL NOT NULL,
		weapons_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_characters_name ON characters(name);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// characterRow is the flat SQL shape of a character.
type characterRow struct {
	ID             int64   `db:"id"`
	Name           string  `db:"name"`
	Gunnery        int     `db:"gunnery"`
	Piloting       int     `db:"piloting"`
	Guts           int     `db:"guts"`
	Tactics        int     `db:"tactics"`
	Credits        int64   `db:"credits"`
	Experience     int64   `db:"experience"`
	PosX           int     `db:"pos_x"`
	PosY           int     `db:"pos_y"`
	MovementPoints float64 `db:"movement_points"`
	TurnNumber     int     `db:"turn_number"`
	ActiveMechID   int64   `db:"active_mech_id"`
	NextMechID     int64   `db:"next_mech_id"`
	MechsJSON      string  `db:"mechs_json"`
	DeclinedJSON   string  `db:"declined_json"`
}

func (r *characterRow) decode() (*game.Character, error) {
	c := &game.Character{
		ID:             r.ID,
		Name:           r.Name,
		Gunnery:        r.Gunnery,
		Piloting:       r.Piloting,
		Guts:           r.Guts,
		Tactics:        r.Tactics,
		Credits:        r.Credits,
		Experience:     r.Experience,
		MovementPoints: r.MovementPoints,
		TurnNumber:     r.TurnNumber,
		ActiveMechID:   r.ActiveMechID,
		NextMechID:     r.NextMechID,
	}
	c.Position.X = r.PosX
	c.Position.Y = r.PosY

	if err := json.Unmarshal([]byte(r.MechsJSON), &c.Mechs); err != nil {
		return nil, fmt.Errorf("decode mechs for character %d: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.DeclinedJSON), &c.DeclinedMissions); err != nil {
		return nil, fmt.Errorf("decode declined missions for character %d: %w", r.ID, err)
	}
	return c, nil
}

func encodeCharacter(c *game.Character) (mechsJSON, declinedJSON string, err error) {
	mechs := c.Mechs
	if mechs == nil {
		mechs = []*game.MechInstance{}
	}
	declined := c.DeclinedMissions
	if declined == nil {
		declined = []string{}
	}

	mb, err := json.Marshal(mechs)
	if err != nil {
		return "", "", fmt.Errorf("encode mechs: %w", err)
	}
	db, err := json.Marshal(declined)
	if err != nil {
		return "", "", fmt.Errorf("encode declined missions: %w", err)
	}
	return string(mb), string(db), nil
}

// CreateCharacter inserts a new character and fills in its assigned ID.
func (s *Store) CreateCharacter(c *game.Character) error {
	mechsJSON, declinedJSON, err := encodeCharacter(c)
	if err != nil {
		return err
	}

	res, err := s.conn.Exec(`INSERT INTO characters
		(name, gunnery, piloting, guts, tactics, credits, experience,
		 pos_x, pos_y, movement_points, turn_number, active_mech_id,
		 next_mech_id, mechs_json, declined_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Gunnery, c.Piloting, c.Guts, c.Tactics,
		c.Credits, c.Experience, c.Position.X, c.Position.Y,
		c.MovementPoints, c.TurnNumber, c.ActiveMechID, c.NextMechID,
		mechsJSON, declinedJSON,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("character %q: %w", c.Name, game.ErrNameTaken)
		}
		return fmt.Errorf("insert character: %w", err)
	}

	c.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert character id: %w", err)
	}
	return nil
}

// GetCharacter loads a character by ID.
func (s *Store) GetCharacter(id int64) (*game.Character, error) {
	var row characterRow
	err := s.conn.Get(&row, "SELECT * FROM characters WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("character %d: %w", id, game.ErrCharacterNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get character %d: %w", id, err)
	}
	return row.decode()
}

// GetCharacterByName loads a character by its unique name.
func (s *Store) GetCharacterByName(name string) (*game.Character, error) {
	var row characterRow
	err := s.conn.Get(&row, "SELECT * FROM characters WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("character %q: %w", name, game.ErrCharacterNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get character %q: %w", name, err)
	}
	return row.decode()
}

func saveCharacterTx(q sqlx.Ext, c *game.Character) error {
	mechsJSON, declinedJSON, err := encodeCharacter(c)
	if err != nil {
		return err
	}

	res, err := q.Exec(`UPDATE characters SET
		gunnery = ?, piloting = ?, guts = ?, tactics = ?,
		credits = ?, experience = ?, pos_x = ?, pos_y = ?,
		movement_points = ?, turn_number = ?, active_mech_id = ?,
		next_mech_id = ?, mechs_json = ?, declined_json = ?
		WHERE id = ?`,
		c.Gunnery, c.Piloting, c.Guts, c.Tactics,
		c.Credits, c.Experience, c.Position.X, c.Position.Y,
		c.MovementPoints, c.TurnNumber, c.ActiveMechID, c.NextMechID,
		mechsJSON, declinedJSON, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update character %d: %w", c.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("character %d: %w", c.ID, game.ErrCharacterNotFound)
	}
	return nil
}

// SaveCharacter writes the character's current state back.
func (s *Store) SaveCharacter(c *game.Character) error {
	return saveCharacterTx(s.conn, c)
}

// Mutate runs a read-modify-write cycle on one character inside a
// single write transaction. Concurrent mutations of the same character
// serialize on the database write lock, so a mutation observed by fn is
// always the latest committed state. If fn returns an error the
// transaction rolls back and nothing is applied.
func (s *Store) Mutate(id int64, fn func(c *game.Character) error) (*game.Character, error) {
	tx, err := s.conn.Beginx()
	if err != nil {
		return nil, fmt.Errorf("begin mutate: %w", err)
	}
	defer tx.Rollback()

	var row characterRow
	err = tx.Get(&row, "SELECT * FROM characters WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("character %d: %w", id, game.ErrCharacterNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get character %d: %w", id, err)
	}

	c, err := row.decode()
	if err != nil {
		return nil, err
	}

	if err := fn(c); err != nil {
		return nil, err
	}

	if err := saveCharacterTx(tx, c); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit mutate: %w", err)
	}
	return c, nil
}

// SeedMechTemplates replaces the mech_templates table with the catalog
// contents (full replace, same as a fresh install).
func (s *Store) SeedMechTemplates(mechs []catalog.Mech) error {
	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM mech_templates"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO mech_templates
		(id, name, model, tonnage, battle_value, cost, walking_mp, running_mp, weapons_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range mechs {
		weaponsJSON, err := json.Marshal(m.Weapons)
		if err != nil {
			return fmt.Errorf("encode weapons for %s: %w", m.ID, err)
		}
		if _, err := stmt.Exec(
			m.ID, m.Name, m.Model, m.Tonnage, m.BattleValue,
			m.Cost, m.WalkingMP, m.RunningMP, string(weaponsJSON),
		); err != nil {
			return fmt.Errorf("insert mech template %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// ListMechTemplates returns the seeded catalog, cheapest first.
func (s *Store) ListMechTemplates() ([]catalog.Mech, error) {
	rows, err := s.conn.Queryx("SELECT * FROM mech_templates ORDER BY cost ASC")
	if err != nil {
		return nil, fmt.Errorf("list mech templates: %w", err)
	}
	defer rows.Close()

	var mechs []catalog.Mech
	for rows.Next() {
		var r struct {
			ID          string `db:"id"`
			Name        string `db:"name"`
			Model       string `db:"model"`
			Tonnage     int    `db:"tonnage"`
			BattleValue int    `db:"battle_value"`
			Cost        int64  `db:"cost"`
			WalkingMP   float64 `db:"walking_mp"`
			RunningMP   float64 `db:"running_mp"`
			WeaponsJSON string `db:"weapons_json"`
		}
		if err := rows.StructScan(&r); err != nil {
			return nil, fmt.Errorf("scan mech template: %w", err)
		}

		m := catalog.Mech{
			ID:          r.ID,
			Name:        r.Name,
			Model:       r.Model,
			Tonnage:     r.Tonnage,
			BattleValue: r.BattleValue,
			Cost:        r.Cost,
			WalkingMP:   r.WalkingMP,
			RunningMP:   r.RunningMP,
		}
		if err := json.Unmarshal([]byte(r.WeaponsJSON), &m.Weapons); err != nil {
			return nil, fmt.Errorf("decode weapons for %s: %w", r.ID, err)
		}
		mechs = append(mechs, m)
	}
	return mechs, rows.Err()
}
