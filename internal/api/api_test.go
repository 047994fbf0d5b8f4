package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/arcade/internal/api"
	"github.com/mcoot/arcade/internal/api/response"
	"github.com/mcoot/arcade/internal/factory"
	"github.com/mcoot/arcade/internal/model"
	"github.com/mcoot/arcade/internal/testutil"
)

// testServer wires the API router over a test app
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:   testutil.NopLogger(),
		Resolver: app.AuthService,
		Game:     app.GameController,
		Sessions: app.WSHandler.Registry(),
	})

	return &testServer{handler: router, app: app}
}

// login registers a player and returns a bearer credential for them
func (ts *testServer) login(t *testing.T, id string) string {
	t.Helper()
	ctx := context.Background()

	_, err := ts.app.AuthService.RegisterUser(ctx, &model.User{ID: model.PlayerID(id), Email: id + "@example.com"})
	require.NoError(t, err)
	// Distinct token bytes per player
	ts.app.MockRandom.QueueBytes([]byte(fmt.Sprintf("%-16s", id))[:16])
	token, err := ts.app.AuthService.Issue(ctx, model.PlayerID(id))
	require.NoError(t, err)
	return token
}

func (ts *testServer) request(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body.Error.Code
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp response.Health
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Sessions)
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", "")
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}

func TestMeRequiresCredential(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/me", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rr))
}

func TestMeRejectsUnknownCredential(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/me", "00112233445566778899aabbccddeeff")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMe(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "alice")

	rr := ts.request(http.MethodGet, "/api/v1/me", token)
	require.Equal(t, http.StatusOK, rr.Code)

	var player response.Player
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&player))
	assert.Equal(t, "alice", player.ID)
	assert.Equal(t, "alice@example.com", player.Email)
}

func TestHandBeforeJoin(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "alice")

	rr := ts.request(http.MethodGet, "/api/v1/hand", token)
	require.Equal(t, http.StatusOK, rr.Code)

	var hand response.Hand
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&hand))
	assert.Equal(t, "alice", hand.PlayerID)
	assert.Equal(t, 0, hand.Score)
	assert.Equal(t, "waiting", hand.Status)
	assert.Empty(t, hand.Draws)
}

func TestHandAfterHits(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "alice")
	ctx := context.Background()

	require.NoError(t, ts.app.GameController.Join(ctx, "alice"))
	ts.app.MockRandom.QueueCard(3, 12) // SK
	ts.app.MockRandom.QueueCard(2, 0)  // HA
	_, err := ts.app.GameController.Hit(ctx, "alice")
	require.NoError(t, err)
	_, err = ts.app.GameController.Hit(ctx, "alice")
	require.NoError(t, err)

	rr := ts.request(http.MethodGet, "/api/v1/hand", token)
	require.Equal(t, http.StatusOK, rr.Code)

	var hand response.Hand
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&hand))
	assert.Equal(t, 21, hand.Score)
	require.Len(t, hand.Draws, 2)
	assert.Equal(t, "SK", hand.Draws[0].Card)
	assert.Equal(t, "HA", hand.Draws[1].Card)
	assert.NotEqual(t, hand.Draws[0].ID, hand.Draws[1].ID)
}

func TestHandIsPerPlayer(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "alice")
	bobToken := ts.login(t, "bob")
	ctx := context.Background()

	require.NoError(t, ts.app.GameController.Join(ctx, "alice"))
	ts.app.MockRandom.QueueCard(3, 12)
	_, err := ts.app.GameController.Hit(ctx, "alice")
	require.NoError(t, err)

	rr := ts.request(http.MethodGet, "/api/v1/hand", bobToken)
	require.Equal(t, http.StatusOK, rr.Code)

	var hand response.Hand
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&hand))
	assert.Equal(t, "bob", hand.PlayerID)
	assert.Equal(t, 0, hand.Score)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
