// internal/httpserver/routes_games.go
//
// HTTP routes for hosted games.
//   - POST   /games                          → seat two players, start a session, issue a game token
//   - GET    /games/{id}                     → public table snapshot (selections hidden)
//   - POST   /games/{id}/select              → record one side's pick          (token)
//   - POST   /games/{id}/rounds              → resolve the pending round       (token)
//   - GET    /games/{id}/session             → active session with battles
//   - POST   /games/{id}/session/end         → end the session into history    (token)
//   - POST   /games/{id}/session/restart     → new session, fresh inventories  (token)
//   - GET    /games/{id}/sessions            → ended sessions, most recent first
//   - DELETE /games/{id}/sessions            → clear active session + history  (token)
//
// A store write failure does not fail the request: the in-memory game has
// already moved on, so the response carries warning="persist_failed".

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/arbiter/internal/arbiter"
	"github.com/robalobadob/arbiter/internal/game"
	"github.com/robalobadob/arbiter/internal/ledger"
)

const warnPersistFailed = "persist_failed"

func (s *Server) mountGames(r chi.Router) {
	r.Post("/games", s.handleCreateGame)
	r.Get("/games/{id}", s.handleGetGame)
	r.Get("/games/{id}/session", s.handleCurrentSession)
	r.Get("/games/{id}/sessions", s.handleSessions)

	r.Group(func(r chi.Router) {
		r.Use(s.requireGameToken)
		r.Post("/games/{id}/select", s.handleSelect)
		r.Post("/games/{id}/rounds", s.handleRound)
		r.Post("/games/{id}/session/end", s.handleEndSession)
		r.Post("/games/{id}/session/restart", s.handleRestartSession)
		r.Delete("/games/{id}/sessions", s.handleClearSessions)
	})
}

// persistWarning splits a persistence failure (reported as a warning) from
// a real error. ok is false when the caller should write err instead.
func persistWarning(gameID string, err error) (warning string, ok bool) {
	if err == nil {
		return "", true
	}
	if errors.Is(err, ledger.ErrPersist) {
		log.Warn().Err(err).Str("gameId", gameID).Msg("ledger not persisted")
		return warnPersistFailed, true
	}
	return "", false
}

// -----------------------------------------------------------------------------
// POST /games

type playerReq struct {
	Name  string `json:"name"`
	Color string `json:"color"` // "#RRGGBB"; empty picks the seat default
}

type createGameReq struct {
	Player1 playerReq `json:"player1"`
	Player2 playerReq `json:"player2"`
}

type createGameRes struct {
	GameID  string            `json:"gameId"`
	Token   string            `json:"token"`
	Game    *arbiter.Snapshot `json:"game"`
	Warning string            `json:"warning,omitempty"`
}

func parsePlayer(p playerReq, def game.Color) (arbiter.PlayerSpec, bool) {
	ps := arbiter.PlayerSpec{Name: p.Name, Color: def}
	if p.Color == "" {
		return ps, true
	}
	c, ok := game.ParseColor(p.Color)
	if !ok {
		return ps, false
	}
	ps.Color = c
	return ps, true
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	p1, ok1 := parsePlayer(req.Player1, game.DefaultPlayer1Color)
	p2, ok2 := parsePlayer(req.Player2, game.DefaultPlayer2Color)
	if !ok1 || !ok2 {
		writeError(w, http.StatusBadRequest, "invalid_color")
		return
	}

	snap, err := s.arb.CreateGame(r.Context(), p1, p2)
	if snap == nil {
		writeDomainError(w, err)
		return
	}
	warning, _ := persistWarning(snap.GameID, err)

	tok, exp, err := s.signGameToken(snap.GameID)
	if err != nil {
		log.Error().Err(err).Str("gameId", snap.GameID).Msg("sign game token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.setGameCookie(w, tok, exp)
	writeJSON(w, http.StatusCreated, createGameRes{GameID: snap.GameID, Token: tok, Game: snap, Warning: warning})
}

// -----------------------------------------------------------------------------
// GET /games/{id}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	snap, err := s.arb.Game(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// -----------------------------------------------------------------------------
// POST /games/{id}/select

type selectReq struct {
	Side  game.Side      `json:"side"`
	Piece game.PieceKind `json:"piece"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, game.ErrUnknownPiece) {
			writeDomainError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if !req.Side.Valid() {
		writeDomainError(w, game.ErrInvalidSide)
		return
	}
	if !req.Piece.Valid() {
		writeDomainError(w, game.ErrUnknownPiece)
		return
	}
	snap, err := s.arb.Select(r.Context(), chi.URLParam(r, "id"), req.Side, req.Piece)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// -----------------------------------------------------------------------------
// POST /games/{id}/rounds

type roundReq struct {
	Player1Piece *game.PieceKind `json:"player1Piece"`
	Player2Piece *game.PieceKind `json:"player2Piece"`
}

type roundRes struct {
	*arbiter.RoundReport
	WinnerName string `json:"winnerName"`
	Warning    string `json:"warning,omitempty"`
}

func (s *Server) handleRound(w http.ResponseWriter, r *http.Request) {
	// An empty body plays the pending selections.
	var req roundReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		if errors.Is(err, game.ErrUnknownPiece) {
			writeDomainError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	id := chi.URLParam(r, "id")
	rep, err := s.arb.PlayRound(r.Context(), id, req.Player1Piece, req.Player2Piece)
	if rep == nil {
		writeDomainError(w, err)
		return
	}
	warning, _ := persistWarning(id, err)
	writeJSON(w, http.StatusOK, roundRes{RoundReport: rep, WinnerName: rep.Result.WinnerName(), Warning: warning})
}

// -----------------------------------------------------------------------------
// sessions

type sessionRes struct {
	*ledger.Session
	Summary ledger.Summary `json:"summary"`
	Warning string         `json:"warning,omitempty"`
}

func (s *Server) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.arb.CurrentSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionRes{Session: sess, Summary: sess.Summary()})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.arb.EndSession(r.Context(), id)
	if sess == nil {
		writeDomainError(w, err)
		return
	}
	warning, _ := persistWarning(id, err)
	writeJSON(w, http.StatusOK, sessionRes{Session: sess, Summary: sess.Summary(), Warning: warning})
}

type restartRes struct {
	Game    *arbiter.Snapshot `json:"game"`
	Warning string            `json:"warning,omitempty"`
}

func (s *Server) handleRestartSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := s.arb.RestartSession(r.Context(), id)
	if snap == nil {
		writeDomainError(w, err)
		return
	}
	warning, ok := persistWarning(id, err)
	if !ok {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, restartRes{Game: snap, Warning: warning})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	all, err := s.arb.Sessions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]sessionRes, 0, len(all))
	for _, sess := range all {
		out = append(out, sessionRes{Session: sess, Summary: sess.Summary()})
	}
	writeJSON(w, http.StatusOK, out)
}

type clearRes struct {
	OK      bool   `json:"ok"`
	Warning string `json:"warning,omitempty"`
}

func (s *Server) handleClearSessions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.arb.ClearHistory(r.Context(), id)
	warning, ok := persistWarning(id, err)
	if !ok {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clearRes{OK: true, Warning: warning})
}
