// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start a daily game (creates or reuses session)
//   - POST /daily/guess       → submit a guess for today's daily game
//   - GET  /daily/leaderboard → fetch top 20 results for today (or a given date)
//
// Each user can play once per day (enforced by DB + in-memory session).
// Sessions are held in memory for active play and persisted to DB on win.
// Everyone solves the same secret: the session is seeded with the date's
// deterministic byte stream (date + salt).

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ljoubert/mastermind-server/internal/daily"
	"github.com/ljoubert/mastermind-server/internal/game"
	"github.com/ljoubert/mastermind-server/internal/palette"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	sessions map[string]*dailySession // active sessions keyed by userID|date
	mu       sync.Mutex               // guards sessions
}

// dailySession holds transient in-memory state for an in-progress daily game.
type dailySession struct {
	GameID string
	UserID string
	Date   string
	Sess   *game.Session
	Start  time.Time
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		salt:     getEnv("DAILY_SALT", "local_dev_salt"),
		sessions: make(map[string]*dailySession),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/guess", dd.handleGuess)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// pruneLocked evicts sessions left over from earlier dates.
// Caller holds d.mu.
func (d *dailyServer) pruneLocked(today string) {
	for key, sess := range d.sessions {
		if sess.Date != today {
			delete(d.sessions, key)
		}
	}
}

// userIDWithAnon returns the authenticated user ID if logged in,
// otherwise ensures an anonymous ID via Server.ensureAnonID.
func (d *dailyServer) userIDWithAnon(w http.ResponseWriter, r *http.Request) (string, bool) {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return me.ID, true
	}
	return d.srv.ensureAnonID(w, r), true
}

// -----------------------------------------------------------------------------
// /daily/new

// dailyNewRes is returned by /daily/new.
type dailyNewRes struct {
	GameID      string `json:"gameId"`
	Date        string `json:"date"`
	Played      bool   `json:"played"`
	CodeLength  int    `json:"codeLength,omitempty"`
	MaxAttempts int    `json:"maxAttempts,omitempty"`
}

// handleNew creates or reuses a daily session for the current date.
// - If user already has a DB row for today → return Played=true.
// - Otherwise create/reuse an in-memory session and return GameID.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid, ok := d.userIDWithAnon(w, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	now := time.Now()
	date := daily.DateKey(now)

	// Check if already played (persisted in DB).
	if played, err := d.store.AlreadyPlayed(r.Context(), uid, date); err == nil && played {
		_ = json.NewEncoder(w).Encode(dailyNewRes{GameID: "", Date: date, Played: true})
		return
	}

	// Reuse or create session in memory.
	key := uid + "|" + date
	d.mu.Lock()
	d.pruneLocked(date)
	if sess, ok := d.sessions[key]; ok {
		d.mu.Unlock()
		_ = json.NewEncoder(w).Encode(dailyNewRes{
			GameID:      sess.GameID,
			Date:        date,
			Played:      false,
			CodeLength:  sess.Sess.CodeLength(),
			MaxAttempts: sess.Sess.MaxAttempts(),
		})
		return
	}

	g, err := game.NewSession(game.Config{
		Palette: palette.Colors(),
		Rand:    daily.NewSource(now, d.salt),
	})
	if err != nil {
		d.mu.Unlock()
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	sess := &dailySession{
		GameID: genID(),
		UserID: uid,
		Date:   date,
		Sess:   g,
		Start:  time.Now(),
	}
	d.sessions[key] = sess
	d.mu.Unlock()

	_ = json.NewEncoder(w).Encode(dailyNewRes{
		GameID:      sess.GameID,
		Date:        date,
		Played:      false,
		CodeLength:  g.CodeLength(),
		MaxAttempts: g.MaxAttempts(),
	})
}

// -----------------------------------------------------------------------------
// /daily/guess

// dailyGuessReq is the request payload for /daily/guess.
type dailyGuessReq struct {
	GameID string   `json:"gameId"`
	Guess  []string `json:"guess"` // color names, one per slot
}

// dailyGuessRes is the response payload for /daily/guess.
type dailyGuessRes struct {
	Feedback game.Feedback `json:"feedback"`
	State    game.State    `json:"state"`
	Attempts int           `json:"attempts"`
	Secret   []game.Color  `json:"secret,omitempty"`
}

// handleGuess validates and applies a guess for today's daily session.
// - Ensures a matching in-memory session for user+date.
// - Delegates validation and scoring to the engine.
// - Persists the result to DB on a win.
func (d *dailyServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	uid, ok := d.userIDWithAnon(w, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var p dailyGuessReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if p.GameID == "" || len(p.Guess) == 0 {
		http.Error(w, "invalid", http.StatusBadRequest)
		return
	}

	date := daily.DateKey(time.Now())

	// Find session.
	key := uid + "|" + date
	d.mu.Lock()
	sess, ok := d.sessions[key]
	d.mu.Unlock()
	if !ok || sess.GameID != p.GameID {
		http.Error(w, "no session", http.StatusConflict)
		return
	}

	// The daily session has a single owner, but requests may race; keep
	// engine calls under the map lock.
	d.mu.Lock()
	res, err := sess.Sess.SubmitGuess(toColors(p.Guess))
	attempts := len(sess.Sess.History())
	d.mu.Unlock()
	if err != nil {
		http.Error(w, err.Error(), engineErrStatus(err))
		return
	}

	// Persist and return. Both outcomes lock the day: the DB row makes
	// /daily/new answer Played=true, and the dead session is evicted so a
	// loser is not handed its gameId back for the rest of the day.
	if res.State.Terminal() {
		elapsed := int(time.Since(sess.Start).Milliseconds())
		_ = d.store.InsertResult(r.Context(), daily.Result{
			UserID:    uid,
			Date:      date,
			Attempts:  attempts,
			ElapsedMs: elapsed,
			Solved:    res.State == game.StateWon,
		})
		d.mu.Lock()
		delete(d.sessions, key)
		d.mu.Unlock()
	}
	_ = json.NewEncoder(w).Encode(dailyGuessRes{
		Feedback: res.Feedback,
		State:    res.State,
		Attempts: attempts,
		Secret:   res.Secret,
	})
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(time.Now())
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
