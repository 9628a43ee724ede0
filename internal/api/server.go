// Package api provides the HTTP API for the browser client. Character
// creation and login issue a session token; all play routes require it
// as a bearer token.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rgenet/mechmud/internal/catalog"
	"github.com/rgenet/mechmud/internal/game"
	"github.com/rgenet/mechmud/internal/persistence"
	"github.com/rgenet/mechmud/internal/world"
)

// Server serves the game over HTTP.
type Server struct {
	Store    *persistence.Store
	Gen      *world.Generator
	Catalog  *catalog.Catalog
	Resolver *game.Resolver
	Board    *game.MissionBoard
	Shop     *game.Shop
	Addr     string

	// Dice. rand.Rand is not safe for concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand

	sessMu   sync.Mutex
	sessions map[string]*session
}

// session is the in-memory per-token state: which character the token
// plays, and any encounter rolled on a move that the client has not
// resolved yet. Handlers for the same token can run concurrently, so
// the pending slot is guarded by its own lock.
type session struct {
	characterID int64

	mu      sync.Mutex
	pending *game.Encounter
}

func (s *session) setPending(enc *game.Encounter) {
	s.mu.Lock()
	s.pending = enc
	s.mu.Unlock()
}

// takePending claims and clears the pending encounter in one step.
// Of two concurrent resolvers, exactly one gets the encounter; the
// other sees nil.
func (s *session) takePending() *game.Encounter {
	s.mu.Lock()
	defer s.mu.Unlock()
	enc := s.pending
	s.pending = nil
	return enc
}

// NewServer wires the game services behind the HTTP surface.
func NewServer(store *persistence.Store, gen *world.Generator, cat *catalog.Catalog,
	resolver *game.Resolver, board *game.MissionBoard, shop *game.Shop,
	addr string, rng *rand.Rand) *Server {
	return &Server{
		Store:    store,
		Gen:      gen,
		Catalog:  cat,
		Resolver: resolver,
		Board:    board,
		Shop:     shop,
		Addr:     addr,
		rng:      rng,
		sessions: make(map[string]*session),
	}
}

// Handler builds the route table. Split out from Start so tests can
// drive it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/api/v1/map", s.handleMapRoutes)
	mux.HandleFunc("/api/v1/map/", s.handleMapRoutes)
	mux.HandleFunc("/api/v1/shop/mechs", s.handleShopList)
	mux.HandleFunc("/api/v1/characters", s.handleCreateCharacter)
	mux.HandleFunc("/api/v1/login", s.handleLogin)

	// Play endpoints (require a session token).
	mux.HandleFunc("/api/v1/character", s.withSession(s.handleCharacter))
	mux.HandleFunc("/api/v1/move", s.withSession(s.handleMove))
	mux.HandleFunc("/api/v1/encounter/resolve", s.withSession(s.handleResolveEncounter))
	mux.HandleFunc("/api/v1/turn/end", s.withSession(s.handleEndTurn))
	mux.HandleFunc("/api/v1/missions", s.withSession(s.handleMissions))
	mux.HandleFunc("/api/v1/missions/accept", s.withSession(s.handleAcceptMission))
	mux.HandleFunc("/api/v1/missions/decline", s.withSession(s.handleDeclineMission))
	mux.HandleFunc("/api/v1/shop/purchase", s.withSession(s.handlePurchase))
	mux.HandleFunc("/api/v1/hangar", s.withSession(s.handleHangar))
	mux.HandleFunc("/api/v1/hangar/repair", s.withSession(s.handleRepair))
	mux.HandleFunc("/api/v1/hangar/rename", s.withSession(s.handleRename))
	mux.HandleFunc("/api/v1/hangar/activate", s.withSession(s.handleActivate))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	slog.Info("HTTP API starting", "addr", s.Addr)
	go func() {
		if err := http.ListenAndServe(s.Addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins. Set
// CORS_ORIGINS to a comma-separated list of extra origins; localhost
// dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// openSession issues a fresh token bound to a character.
func (s *Server) openSession(characterID int64) string {
	token := uuid.NewString()
	s.sessMu.Lock()
	s.sessions[token] = &session{characterID: characterID}
	s.sessMu.Unlock()
	return token
}

// sessionFor resolves the bearer token on a request.
func (s *Server) sessionFor(r *http.Request) (*session, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil, false
	}
	token := strings.TrimPrefix(auth, "Bearer ")

	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	sess, ok := s.sessions[token]
	return sess, ok
}

// withSession wraps a handler to require a valid session token.
func (s *Server) withSession(next func(w http.ResponseWriter, r *http.Request, sess *session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessionFor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r, sess)
	}
}

// roll runs fn while holding the dice lock.
func (s *Server) roll(fn func(rng *rand.Rand)) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	fn(s.rng)
}

// errStatus maps game error kinds to HTTP status codes. Anything
// unrecognized is an internal error.
func errStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidSkill),
		errors.Is(err, game.ErrInvalidAllocation),
		errors.Is(err, world.ErrInvalidCoordinate):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrCharacterNotFound),
		errors.Is(err, catalog.ErrMechNotFound),
		errors.Is(err, game.ErrMechInstanceNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrNameTaken),
		errors.Is(err, game.ErrInsufficientFunds),
		errors.Is(err, game.ErrAlreadyOwned),
		errors.Is(err, game.ErrImpassableTerrain),
		errors.Is(err, game.ErrNoMovementPoints),
		errors.Is(err, game.ErrNoOperationalMech),
		errors.Is(err, game.ErrMissionUnavailable),
		errors.Is(err, game.ErrNotOperational):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports a failed operation with its mapped status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		slog.Info("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

// decodeBody parses a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// requirePost rejects non-POST methods on mutating routes.
func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
