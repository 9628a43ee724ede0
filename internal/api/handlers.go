package api

import (
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"

	"github.com/rgenet/mechmud/internal/game"
	"github.com/rgenet/mechmud/internal/world"
)

// characterView decorates the persisted character with derived fields
// the client renders.
type characterView struct {
	*game.Character
	Level int `json:"level"`
}

func view(c *game.Character) characterView {
	return characterView{Character: c, Level: c.Level()}
}

// handleMapRoutes dispatches between bulk map (GET /api/v1/map) and
// cell detail (GET /api/v1/map/:x/:y).
func (s *Server) handleMapRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/map")
	if path == "" || path == "/" {
		s.handleBulkMap(w, r)
		return
	}
	s.handleCellDetail(w, r)
}

// handleBulkMap returns the full grid for the hex map renderer.
func (s *Server) handleBulkMap(w http.ResponseWriter, r *http.Request) {
	type cellEntry struct {
		X         int     `json:"x"`
		Y         int     `json:"y"`
		Terrain   string  `json:"terrain"`
		Elevation float64 `json:"elevation"`
	}

	grid := s.Gen.BulkMap()
	cells := make([]cellEntry, 0, s.Gen.Width()*s.Gen.Height())
	for _, row := range grid {
		for _, c := range row {
			cells = append(cells, cellEntry{
				X:         c.Coord.X,
				Y:         c.Coord.Y,
				Terrain:   world.TerrainName(c.Terrain),
				Elevation: c.Elevation,
			})
		}
	}

	writeJSON(w, map[string]any{
		"width":  s.Gen.Width(),
		"height": s.Gen.Height(),
		"cells":  cells,
	})
}

// handleCellDetail returns one cell with its movement and encounter
// numbers.
func (s *Server) handleCellDetail(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// api / v1 / map / x / y
	if len(parts) != 5 {
		http.Error(w, "expected /api/v1/map/:x/:y", http.StatusBadRequest)
		return
	}
	x, errX := strconv.Atoi(parts[3])
	y, errY := strconv.Atoi(parts[4])
	if errX != nil || errY != nil {
		http.Error(w, "coordinates must be integers", http.StatusBadRequest)
		return
	}

	cell, err := s.Gen.CellAt(x, y)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{
		"x":                cell.Coord.X,
		"y":                cell.Coord.Y,
		"terrain":          world.TerrainName(cell.Terrain),
		"elevation":        cell.Elevation,
		"climate":          cell.Climate,
		"movement_cost":    cell.MovementCost(),
		"encounter_chance": cell.EncounterWeight(),
		"passable":         cell.Passable(),
	})
}

func (s *Server) handleShopList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"mechs": s.Shop.List()})
}

// spawnPoint picks the first passable cell scanning out from the map
// center, so fresh characters never start in the ocean.
func (s *Server) spawnPoint() world.Coord {
	cx, cy := s.Gen.Width()/2, s.Gen.Height()/2
	for radius := 0; radius < s.Gen.Width(); radius++ {
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				cell, err := s.Gen.CellAt(cx+dx, cy+dy)
				if err == nil && cell.Passable() {
					return cell.Coord
				}
			}
		}
	}
	return world.Coord{X: cx, Y: cy}
}

func (s *Server) handleCreateCharacter(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req struct {
		Name     string `json:"name"`
		Gunnery  int    `json:"gunnery"`
		Piloting int    `json:"piloting"`
		Guts     int    `json:"guts"`
		Tactics  int    `json:"tactics"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	c, err := game.NewCharacter(req.Name, req.Gunnery, req.Piloting, req.Guts, req.Tactics, s.spawnPoint())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.Store.CreateCharacter(c); err != nil {
		writeError(w, r, err)
		return
	}

	token := s.openSession(c.ID)
	slog.Info("character created", "id", c.ID, "name", c.Name)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]any{"token": token, "character": view(c)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := s.Store.GetCharacterByName(strings.TrimSpace(req.Name))
	if err != nil {
		writeError(w, r, err)
		return
	}

	token := s.openSession(c.ID)
	slog.Info("character logged in", "id", c.ID, "name", c.Name)
	writeJSON(w, map[string]any{"token": token, "character": view(c)})
}

func (s *Server) handleCharacter(w http.ResponseWriter, r *http.Request, sess *session) {
	c, err := s.Store.GetCharacter(sess.characterID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"character": view(c)})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request, sess *session) {
	if !requirePost(w, r) {
		return
	}

	var req struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	cell, err := s.Gen.CellAt(req.X, req.Y)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var cost float64
	c, err := s.Store.Mutate(sess.characterID, func(c *game.Character) error {
		var err error
		cost, err = c.Move(cell.Coord, cell)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	// The move itself is committed; the encounter roll only decides
	// whether a fight is now pending on this session.
	var pending *game.Encounter
	s.roll(func(rng *rand.Rand) {
		if s.Resolver.Roll(rng, cell) {
			enc := s.Resolver.Generate(rng, c.Level())
			pending = &enc
		}
	})
	sess.setPending(pending)

	resp := map[string]any{
		"character": view(c),
		"cost":      cost,
		"terrain":   world.TerrainName(cell.Terrain),
	}
	if pending != nil {
		resp["encounter"] = pending
	}
	writeJSON(w, resp)
}

func (s *Server) handleResolveEncounter(w http.ResponseWriter, r *http.Request, sess *session) {
	if !requirePost(w, r) {
		return
	}
	pending := sess.takePending()
	if pending == nil {
		http.Error(w, "no pending encounter", http.StatusConflict)
		return
	}
	enc := *pending

	var outcome game.Outcome
	var c *game.Character
	var err error
	s.roll(func(rng *rand.Rand) {
		c, err = s.Store.Mutate(sess.characterID, func(c *game.Character) error {
			outcome = s.Resolver.Resolve(rng, c, enc)
			return nil
		})
	})
	if err != nil {
		// The encounter was never applied; put it back.
		sess.setPending(pending)
		writeError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{"outcome": outcome, "character": view(c)})
}

func (s *Server) handleEndTurn(w http.ResponseWriter, r *http.Request, sess *session) {
	if !requirePost(w, r) {
		return
	}

	c, err := s.Store.Mutate(sess.characterID, func(c *game.Character) error {
		c.StartTurn(s.Catalog)
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"character": view(c)})
}

func (s *Server) handleMissions(w http.ResponseWriter, r *http.Request, sess *session) {
	c, err := s.Store.GetCharacter(sess.characterID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"missions": s.Board.Offer(c)})
}

func (s *Server) handleAcceptMission(w http.ResponseWriter, r *http.Request, sess *session) {
	if !requirePost(w, r) {
		return
	}

	var req struct {
		MissionID string `json:"mission_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	var outcome game.Outcome
	var c *game.Character
	var err error
	s.roll(func(rng *rand.Rand) {
		c, err = s.Store.Mutate(sess.characterID, func(c *game.Character) error {
			var err error
			outcome, err = s.Board.Accept(rng, c, req.MissionID)
			return err
		})
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"outcome": outcome, "character": view(c)})
}

func (s *Server) handleDeclineMission(w http.ResponseWriter, r *http.Request, sess *session) {
	if !requirePost(w, r) {
		return
	}

	var req struct {
		MissionID string `json:"mission_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := s.Store.Mutate(sess.characterID, func(c *game.Character) error {
		return s.Board.Decline(c, req.MissionID)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"character": view(c)})
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request, sess *session) {
	if !requirePost(w, r) {
		return
	}

	var req struct {
		MechID string `json:"mech_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	var bought *game.MechInstance
	c, err := s.Store.Mutate(sess.characterID, func(c *game.Character) error {
		var err error
		bought, err = s.Shop.Purchase(c, req.MechID)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("mech purchased", "character", c.ID, "mech", req.MechID)
	writeJSON(w, map[string]any{"mech": bought, "character": view(c)})
}

// handleHangar lists owned mechs joined with their catalog templates
// and current repair quotes.
func (s *Server) handleHangar(w http.ResponseWriter, r *http.Request, sess *session) {
	c, err := s.Store.GetCharacter(sess.characterID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	type hangarEntry struct {
		*game.MechInstance
		Name        string `json:"name"`
		Model       string `json:"model"`
		Tonnage     int    `json:"tonnage"`
		RepairCost  int64  `json:"repair_cost"`
		Operational bool   `json:"operational"`
		Active      bool   `json:"active"`
	}

	entries := make([]hangarEntry, 0, len(c.Mechs))
	for _, m := range c.Mechs {
		tpl, err := s.Catalog.Get(m.TemplateID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		entries = append(entries, hangarEntry{
			MechInstance: m,
			Name:         m.DisplayName(tpl),
			Model:        tpl.Model,
			Tonnage:      tpl.Tonnage,
			RepairCost:   m.RepairCost(tpl),
			Operational:  m.Operational(),
			Active:       m.ID == c.ActiveMechID,
		})
	}
	writeJSON(w, map[string]any{"mechs": entries})
}

func (s *Server) handleRepair(w http.ResponseWriter, r *http.Request, sess *session) {
	if !requirePost(w, r) {
		return
	}

	var req struct {
		MechID int64 `json:"mech_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	var cost int64
	c, err := s.Store.Mutate(sess.characterID, func(c *game.Character) error {
		var err error
		cost, err = s.Shop.Repair(c, req.MechID)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"cost": cost, "character": view(c)})
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request, sess *session) {
	if !requirePost(w, r) {
		return
	}

	var req struct {
		MechID int64  `json:"mech_id"`
		Name   string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := s.Store.Mutate(sess.characterID, func(c *game.Character) error {
		return s.Shop.Rename(c, req.MechID, strings.TrimSpace(req.Name))
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"character": view(c)})
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request, sess *session) {
	if !requirePost(w, r) {
		return
	}

	var req struct {
		MechID int64 `json:"mech_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := s.Store.Mutate(sess.characterID, func(c *game.Character) error {
		m, err := c.Mech(req.MechID)
		if err != nil {
			return err
		}
		if !m.Operational() {
			return game.ErrNotOperational
		}
		c.ActiveMechID = m.ID
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"character": view(c)})
}
