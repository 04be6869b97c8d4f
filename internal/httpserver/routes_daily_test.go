package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ljoubert/mastermind-server/internal/daily"
	"github.com/ljoubert/mastermind-server/internal/game"
	"github.com/ljoubert/mastermind-server/internal/palette"
)

// wireClient carries cookies between requests, so one anonymous player
// stays the same player across /daily calls.
type wireClient struct {
	t       *testing.T
	h       http.Handler
	cookies []*http.Cookie
}

func (c *wireClient) do(method, path string, body, out any) *httptest.ResponseRecorder {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	if cs := rec.Result().Cookies(); len(cs) > 0 {
		c.cookies = append(c.cookies, cs...)
	}
	if out != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			c.t.Fatalf("decode %s response: %v (%s)", path, err, rec.Body.String())
		}
	}
	return rec
}

// todaysCode reproduces the daily secret the server derives for salt.
func todaysCode(t *testing.T, salt string) []game.Color {
	t.Helper()
	code, err := daily.CodeForDate(time.Now(), salt, palette.Colors(), game.DefaultCodeLength)
	if err != nil {
		t.Fatalf("CodeForDate: %v", err)
	}
	return code
}

// missesBy returns code with one slot swapped to a different palette color,
// guaranteeing a non-winning guess.
func missesBy(code []game.Color) []string {
	out := make([]string, len(code))
	for i, c := range code {
		out[i] = string(c)
	}
	for _, c := range palette.Colors() {
		if c != code[0] {
			out[0] = string(c)
			break
		}
	}
	return out
}

// A loss must lock the day like a win does: the result row flips
// /daily/new to Played=true and the dead session is evicted rather than
// handed back to the loser.
func TestDaily_LossLocksDay(t *testing.T) {
	t.Setenv("DAILY_SALT", "test_salt_loss")
	s := newTestServer(t)
	cl := &wireClient{t: t, h: s.Router()}

	var created dailyNewRes
	rec := cl.do(http.MethodPost, "/daily/new", nil, &created)
	if rec.Code != http.StatusOK || created.Played || created.GameID == "" {
		t.Fatalf("POST /daily/new = %d: %+v", rec.Code, created)
	}

	wrong := missesBy(todaysCode(t, "test_salt_loss"))
	var res dailyGuessRes
	for i := 0; i < created.MaxAttempts; i++ {
		rec = cl.do(http.MethodPost, "/daily/guess",
			dailyGuessReq{GameID: created.GameID, Guess: wrong}, &res)
		if rec.Code != http.StatusOK {
			t.Fatalf("guess %d = %d: %s", i, rec.Code, rec.Body.String())
		}
	}
	if res.State != game.StateLost {
		t.Fatalf("state after %d misses = %q, want lost", created.MaxAttempts, res.State)
	}
	if len(res.Secret) != game.DefaultCodeLength {
		t.Fatalf("loss must reveal the secret: %+v", res)
	}

	// The day is spent: no fresh session, no replaying the dead one.
	var again dailyNewRes
	rec = cl.do(http.MethodPost, "/daily/new", nil, &again)
	if rec.Code != http.StatusOK || !again.Played || again.GameID != "" {
		t.Fatalf("loser got a session back: %d %+v", rec.Code, again)
	}
	rec = cl.do(http.MethodPost, "/daily/guess",
		dailyGuessReq{GameID: created.GameID, Guess: wrong}, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("guess on evicted session = %d, want 409", rec.Code)
	}

	// Losses never reach the leaderboard.
	var lb lbRes
	rec = cl.do(http.MethodGet, "/daily/leaderboard", nil, &lb)
	if rec.Code != http.StatusOK || len(lb.Top) != 0 {
		t.Fatalf("leaderboard after loss = %d: %+v", rec.Code, lb)
	}
}

func TestDaily_WinRecordsLeaderboard(t *testing.T) {
	t.Setenv("DAILY_SALT", "test_salt_win")
	s := newTestServer(t)
	cl := &wireClient{t: t, h: s.Router()}

	var created dailyNewRes
	rec := cl.do(http.MethodPost, "/daily/new", nil, &created)
	if rec.Code != http.StatusOK || created.Played {
		t.Fatalf("POST /daily/new = %d: %+v", rec.Code, created)
	}

	code := todaysCode(t, "test_salt_win")
	guess := make([]string, len(code))
	for i, c := range code {
		guess[i] = string(c)
	}

	var res dailyGuessRes
	rec = cl.do(http.MethodPost, "/daily/guess",
		dailyGuessReq{GameID: created.GameID, Guess: guess}, &res)
	if rec.Code != http.StatusOK || res.State != game.StateWon {
		t.Fatalf("winning guess = %d: %+v", rec.Code, res)
	}
	if res.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", res.Attempts)
	}

	var again dailyNewRes
	rec = cl.do(http.MethodPost, "/daily/new", nil, &again)
	if rec.Code != http.StatusOK || !again.Played {
		t.Fatalf("winner can start over: %d %+v", rec.Code, again)
	}

	var lb lbRes
	rec = cl.do(http.MethodGet, "/daily/leaderboard", nil, &lb)
	if rec.Code != http.StatusOK || len(lb.Top) != 1 {
		t.Fatalf("leaderboard after win = %d: %+v", rec.Code, lb)
	}
	if lb.Top[0].Attempts != 1 {
		t.Fatalf("leaderboard attempts = %d, want 1", lb.Top[0].Attempts)
	}
}
