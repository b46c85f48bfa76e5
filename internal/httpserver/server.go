// internal/httpserver/server.go
//
// HTTP server wiring for the arbiter.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/pieces", "/colors".
//   - Game endpoints: create a table, read it, and (with its token) select
//     pieces, play rounds, end/restart sessions and clear history.
//   - Live feed: websocket stream of table events.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Mutating game routes require the game token issued by POST /games.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/arbiter/internal/arbiter"
	"github.com/robalobadob/arbiter/internal/game"
	"github.com/robalobadob/arbiter/internal/ledger"
)

// Options carries the HTTP-facing configuration.
type Options struct {
	JWTSecret      string
	TokenTTL       time.Duration
	ClientOrigin   string
	RequestTimeout time.Duration
	Production     bool
}

// Server bundles the router and the arbiter.
type Server struct {
	r    *chi.Mux
	arb  *arbiter.Arbiter
	opts Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(arb *arbiter.Arbiter, opts Options) *Server {
	if opts.JWTSecret == "" {
		opts.JWTSecret = "dev_secret_change_me"
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = "http://localhost:5173"
	}
	s := &Server{r: chi.NewRouter(), arb: arb, opts: opts}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(s.cors)

	// The feed is long-lived; keep it outside the timeout and JSON middleware.
	s.r.Get("/games/{id}/feed", s.handleFeed)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(opts.RequestTimeout))
		r.Use(jsonContentType)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"arbiter","endpoints":["/health","/pieces","/colors","POST /games","/games/{id}/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/pieces", s.handlePieces)
		r.Get("/colors", s.handleColors)

		s.mountGames(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.opts.ClientOrigin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ catalog ------------------------------------

type pieceRes struct {
	Piece        game.PieceKind `json:"piece"`
	Label        string         `json:"label"`
	Emoji        string         `json:"emoji"`
	Rank         int            `json:"rank"`
	InitialCount int            `json:"initialCount"`
	Description  string         `json:"description"`
}

func (s *Server) handlePieces(w http.ResponseWriter, r *http.Request) {
	out := make([]pieceRes, 0, 15)
	for _, k := range game.AllPieces() {
		out = append(out, pieceRes{
			Piece:        k,
			Label:        k.Label(),
			Emoji:        k.Emoji(),
			Rank:         k.Rank(),
			InitialCount: k.InitialCount(),
			Description:  k.Description(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleColors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, game.Palette())
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeDomainError maps engine errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, arbiter.ErrGameNotFound):
		writeError(w, http.StatusNotFound, "game_not_found")
	case errors.Is(err, arbiter.ErrNoActiveSession):
		writeError(w, http.StatusConflict, "no_active_session")
	case errors.Is(err, game.ErrPieceUnavailable):
		writeError(w, http.StatusConflict, "piece_unavailable")
	case errors.Is(err, game.ErrAlreadySelected):
		writeError(w, http.StatusConflict, "already_selected")
	case errors.Is(err, game.ErrRoundNotReady):
		writeError(w, http.StatusConflict, "round_not_ready")
	case errors.Is(err, game.ErrEmptyName), errors.Is(err, ledger.ErrEmptyName):
		writeError(w, http.StatusBadRequest, "name_required")
	case errors.Is(err, game.ErrInvalidSide):
		writeError(w, http.StatusBadRequest, "invalid_side")
	case errors.Is(err, game.ErrUnknownPiece):
		writeError(w, http.StatusBadRequest, "unknown_piece")
	default:
		log.Error().Err(err).Msg("unhandled error")
		writeError(w, http.StatusInternalServerError, "internal")
	}
}
