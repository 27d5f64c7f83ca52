package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/ghoulgame/internal/api/apierr"
	"github.com/mcoot/ghoulgame/internal/api/response"
	"github.com/mcoot/ghoulgame/internal/factory"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close(t.Context()) })

	return &testServer{
		handler: app.Router("https://ghoul.example"),
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) connect(t *testing.T) response.Connection {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/connections", nil, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var conn response.Connection
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &conn))
	return conn
}

// createSession opens session ABCDE owned by the given connection
func (ts *testServer) createSession(t *testing.T, owner response.Connection, password string) response.Membership {
	t.Helper()
	ts.app.MockRandom.QueueString("ABCDE")
	rr := ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{
		"name":     "Friday",
		"nickname": "Owner",
		"password": password,
	}, owner.Token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var m response.Membership
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	return m
}

func (ts *testServer) join(t *testing.T, conn response.Connection, nickname string) *httptest.ResponseRecorder {
	t.Helper()
	return ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/join", map[string]string{"nickname": nickname}, conn.Token)
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return resp.Error.Code
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestOpenConnection(t *testing.T) {
	ts := newTestServer(t)

	conn := ts.connect(t)

	assert.NotEmpty(t, conn.ConnectionID)
	assert.NotEmpty(t, conn.Token)
	assert.True(t, conn.ExpiresAt.After(ts.app.MockClock.Now()))
	assert.Equal(t, 1, ts.app.Gateway.Count())
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{"nickname": "A"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeUnauthorized, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{"nickname": "A"}, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDisconnectInvalidatesToken(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.connect(t)

	rr := ts.request(http.MethodDelete, "/api/v1/connections/me", nil, conn.Token)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 0, ts.app.Gateway.Count())

	rr = ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{"nickname": "A"}, conn.Token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestReapedConnectionIsRejected(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.connect(t)

	ts.app.MockClock.Advance(10 * time.Minute)
	ts.app.Gateway.ReapIdle(t.Context(), 5*time.Minute)

	rr := ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{"nickname": "A"}, conn.Token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeConnectionNotFound, errorCode(t, rr))
}

func TestCreateAndListSessions(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/sessions", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"sessions":[]}`, rr.Body.String())

	owner := ts.connect(t)
	m := ts.createSession(t, owner, "")

	assert.Equal(t, "ABCDE", m.Session.ID)
	assert.Equal(t, "Friday", m.Session.Name)
	assert.Equal(t, "waiting", m.Session.Phase)
	assert.Equal(t, owner.ConnectionID, m.Player.ID)
	require.Len(t, m.Session.Roster, 1)
	assert.True(t, m.Session.Roster[0].Owner)

	rr = ts.request(http.MethodGet, "/api/v1/sessions", nil, "")
	var list response.SessionList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, "ABCDE", list.Sessions[0].ID)
	assert.Equal(t, 1, list.Sessions[0].PlayerCount)
}

func TestCreateSessionValidation(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.connect(t)

	rr := ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{"nickname": "  "}, owner.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidNickname, errorCode(t, rr))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+owner.Token)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rec))
}

func TestGetSession(t *testing.T) {
	ts := newTestServer(t)
	ts.createSession(t, ts.connect(t), "")

	rr := ts.request(http.MethodGet, "/api/v1/sessions/abcde", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var s response.Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &s))
	assert.Equal(t, "ABCDE", s.ID)
	assert.Equal(t, 20, s.Capacity)

	rr = ts.request(http.MethodGet, "/api/v1/sessions/ZZZZZ", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeSessionNotFound, errorCode(t, rr))
}

func TestJoinPrivateSession(t *testing.T) {
	ts := newTestServer(t)
	ts.createSession(t, ts.connect(t), "hunter2")
	guest := ts.connect(t)

	rr := ts.join(t, guest, "Guest")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeWrongPassword, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/join", map[string]string{
		"nickname": "Guest",
		"password": "hunter2",
	}, guest.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	var m response.Membership
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	assert.True(t, m.Session.Private)
	assert.Len(t, m.Session.Roster, 2)
	assert.Equal(t, "Guest", m.Player.Nickname)
}

func TestStartRules(t *testing.T) {
	ts := newTestServer(t)
	ts.createSession(t, ts.connect(t), "")
	guest := ts.connect(t)
	require.Equal(t, http.StatusOK, ts.join(t, guest, "Guest").Code)

	rr := ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/start", nil, guest.Token)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeNotOwner, errorCode(t, rr))

	outsider := ts.connect(t)
	rr = ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/start", nil, outsider.Token)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeNotInSession, errorCode(t, rr))
}

func TestInsufficientPlayers(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.connect(t)
	ts.createSession(t, owner, "")

	rr := ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/start", nil, owner.Token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeInsufficientPlayers, errorCode(t, rr))
}

func TestCommandBodyValidation(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.connect(t)
	ts.createSession(t, owner, "")

	rr := ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/kill", map[string]string{}, owner.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/verdict", map[string]string{}, owner.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/vote", map[string]string{"target_id": "nobody"}, owner.Token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeWrongPhase, errorCode(t, rr))
}

func TestLeaveLastPlayerDestroysSession(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.connect(t)
	ts.createSession(t, owner, "")

	rr := ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/leave", nil, owner.Token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/sessions/ABCDE", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFullGameOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	players := []response.Connection{ts.connect(t)}
	ts.createSession(t, players[0], "")
	for i := 1; i < 5; i++ {
		c := ts.connect(t)
		require.Equal(t, http.StatusOK, ts.join(t, c, fmt.Sprintf("Player%d", i)).Code)
		players = append(players, c)
	}
	ts.app.QueueIdentityShuffle(5)
	ghoul := players[0]

	rr := ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/start", nil, ghoul.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	var s response.Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &s))
	assert.Equal(t, "night", s.Phase)
	assert.Equal(t, 1, s.Round)

	rr = ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/kill", map[string]string{"target_id": players[2].ConnectionID}, players[1].Token)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeNotGhoul, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/kill", map[string]string{"target_id": players[1].ConnectionID}, ghoul.Token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	for _, p := range players[2:] {
		rr = ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/vote", map[string]string{"target_id": ghoul.ConnectionID}, p.Token)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &s))
	assert.Equal(t, "defense", s.Phase)
	assert.Equal(t, ghoul.ConnectionID, s.Accused)

	ts.app.MockClock.Advance(10 * time.Second)

	rr = ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/verdict", map[string]bool{"guilty": false}, ghoul.Token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/verdict", map[string]bool{"guilty": true}, ghoul.Token)
	assert.Equal(t, apierr.CodeAlreadyVoted, errorCode(t, rr))

	for _, p := range players[2:] {
		rr = ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/verdict", map[string]bool{"guilty": true}, p.Token)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &s))
	assert.Equal(t, "game_over", s.Phase)
	assert.Equal(t, "villagers", s.Winner)

	rr = ts.request(http.MethodGet, "/api/v1/games", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var games response.GameList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &games))
	require.Len(t, games.Games, 1)
	assert.Equal(t, "villagers", games.Games[0].Winner)
	assert.Len(t, games.Games[0].Players, 5)

	rr = ts.request(http.MethodGet, "/api/v1/games/"+games.Games[0].ID, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var game response.Game
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &game))
	assert.Equal(t, "ABCDE", game.SessionID)
	require.Len(t, game.Eliminations, 2)
	assert.Equal(t, "killed", game.Eliminations[0].Cause)
	assert.Equal(t, "executed", game.Eliminations[1].Cause)
}

func TestPauseAndEndPhase(t *testing.T) {
	ts := newTestServer(t)
	players := []response.Connection{ts.connect(t)}
	ts.createSession(t, players[0], "")
	for i := 1; i < 5; i++ {
		c := ts.connect(t)
		require.Equal(t, http.StatusOK, ts.join(t, c, fmt.Sprintf("Player%d", i)).Code)
		players = append(players, c)
	}
	owner := players[0]
	require.Equal(t, http.StatusOK, ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/start", nil, owner.Token).Code)

	rr := ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/pause", nil, owner.Token)
	assert.Equal(t, http.StatusConflict, rr.Code, "pause only applies during the day")

	rr = ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/end-phase", nil, players[1].Token)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/end-phase", nil, owner.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	var s response.Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &s))
	assert.Equal(t, "day", s.Phase)
	require.NotNil(t, s.Deadline)

	rr = ts.request(http.MethodPost, "/api/v1/sessions/ABCDE/pause", nil, owner.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	var paused response.Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &paused))
	assert.Equal(t, "day", paused.Phase)
	assert.Nil(t, paused.Deadline)

	ts.app.MockClock.Advance(time.Hour)
	rr = ts.request(http.MethodGet, "/api/v1/sessions/ABCDE", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var current response.Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &current))
	assert.Equal(t, "day", current.Phase)
	assert.Nil(t, current.Deadline)
}

func TestSessionQRCode(t *testing.T) {
	ts := newTestServer(t)
	ts.createSession(t, ts.connect(t), "")

	rr := ts.request(http.MethodGet, "/api/v1/sessions/ABCDE/qr", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")))

	rr = ts.request(http.MethodGet, "/api/v1/sessions/ABCDE/qr?size=5", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/sessions/ZZZZZ/qr", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGameArchiveErrors(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/games?limit=0", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/games/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeGameNotFound, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/games", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"games":[]}`, rr.Body.String())
}
