package ledger

import (
	"time"

	"github.com/robalobadob/arbiter/internal/game"
)

// Session is one battle series between two named players. Battles are kept
// in the order they were recorded. A session with an EndTime is read-only.
type Session struct {
	SessionID   string              `json:"sessionId"`
	Player1Name string              `json:"player1Name"`
	Player2Name string              `json:"player2Name"`
	StartTime   time.Time           `json:"startTime"`
	Battles     []game.BattleResult `json:"battles"`
	EndTime     *time.Time          `json:"endTime,omitempty"`
}

func (s *Session) count(o game.Outcome) int {
	n := 0
	for _, b := range s.Battles {
		if b.Winner == o {
			n++
		}
	}
	return n
}

func (s *Session) Player1Wins() int  { return s.count(game.Player1Wins) }
func (s *Session) Player2Wins() int  { return s.count(game.Player2Wins) }
func (s *Session) Ties() int         { return s.count(game.Tie) }
func (s *Session) TotalBattles() int { return len(s.Battles) }

// Ended reports whether the session has been closed.
func (s *Session) Ended() bool { return s.EndTime != nil }

// valid reports whether a decoded session carries its identity. A JSON null
// decodes to a nil *Session, which is never valid.
func (s *Session) valid() bool {
	return s != nil && s.SessionID != "" && s.Player1Name != "" && s.Player2Name != ""
}

// Winner compares the win counts: the player with more round wins leads the
// session, equal counts are a tie.
func (s *Session) Winner() game.Outcome {
	p1, p2 := s.Player1Wins(), s.Player2Wins()
	switch {
	case p1 > p2:
		return game.Player1Wins
	case p2 > p1:
		return game.Player2Wins
	default:
		return game.Tie
	}
}

// WinnerName returns the leading player's name, or "Tie".
func (s *Session) WinnerName() string {
	switch s.Winner() {
	case game.Player1Wins:
		return s.Player1Name
	case game.Player2Wins:
		return s.Player2Name
	default:
		return "Tie"
	}
}

// Summary is the aggregate view of a session.
type Summary struct {
	SessionID    string       `json:"sessionId"`
	Player1Name  string       `json:"player1Name"`
	Player2Name  string       `json:"player2Name"`
	StartTime    time.Time    `json:"startTime"`
	EndTime      *time.Time   `json:"endTime,omitempty"`
	Player1Wins  int          `json:"player1Wins"`
	Player2Wins  int          `json:"player2Wins"`
	Ties         int          `json:"ties"`
	TotalBattles int          `json:"totalBattles"`
	Winner       game.Outcome `json:"winner"`
	WinnerName   string       `json:"winnerName"`
}

func (s *Session) Summary() Summary {
	return Summary{
		SessionID:    s.SessionID,
		Player1Name:  s.Player1Name,
		Player2Name:  s.Player2Name,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		Player1Wins:  s.Player1Wins(),
		Player2Wins:  s.Player2Wins(),
		Ties:         s.Ties(),
		TotalBattles: s.TotalBattles(),
		Winner:       s.Winner(),
		WinnerName:   s.WinnerName(),
	}
}

// clone deep-copies s so callers cannot mutate ledger state.
func (s *Session) clone() *Session {
	c := *s
	c.Battles = make([]game.BattleResult, len(s.Battles))
	copy(c.Battles, s.Battles)
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	return &c
}
