package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/paradox/internal/api"
	"github.com/mcoot/paradox/internal/api/apierr"
	"github.com/mcoot/paradox/internal/api/response"
	"github.com/mcoot/paradox/internal/factory"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// API tests are integration tests - use production factory with real random/clock
	app, err := factory.New(t.Context(), factory.Config{
		Logger:      logger,
		CatalogPath: "../../data/catalog.json",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Engine:      app.Engine,
		Catalog:     app.Catalog,
		Leaderboard: app.Leaderboard,
		Hub:         app.Hub,
	})

	return &testServer{
		handler: router,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[apierr.ErrorResponse](t, rr).Error.Code
}

func registerUser(t *testing.T, ts *testServer, id, name string) response.User {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/user", map[string]string{
		"identity_id":  id,
		"display_name": name,
		"email":        id + "@example.com",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeBody[response.User](t, rr)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestRegisterUser(t *testing.T) {
	ts := newTestServer(t)

	user := registerUser(t, ts, "alice", "Alice")

	assert.Equal(t, "alice", user.IdentityID)
	assert.Equal(t, "Alice", user.DisplayName)
	assert.True(t, strings.HasPrefix(user.ReferralCode, "Ali"))
	assert.Len(t, user.ReferralCode, 9)
	assert.Equal(t, 1, user.Profile.Level)
	assert.Equal(t, 100, user.Profile.Coins)
	assert.Equal(t, 100, user.Profile.BonusCoins)
}

func TestRegisterConflicts(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice", "Alice")

	rr := ts.request(http.MethodPost, "/api/v1/user", map[string]string{
		"identity_id": "alice", "display_name": "Alice Again", "email": "other@example.com",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeIdentityExists, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/user", map[string]string{
		"identity_id": "alice2", "display_name": "Alice Two", "email": "ALICE@example.com",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeEmailTaken, errorCode(t, rr))
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/user", map[string]string{
		"identity_id": "x", "display_name": "Al", "email": "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	body := decodeBody[apierr.ErrorResponse](t, rr)
	assert.Equal(t, apierr.CodeValidationFailed, body.Error.Code)
	assert.Contains(t, body.Error.Fields, "display_name")
	assert.Contains(t, body.Error.Fields, "email")

	rr = ts.request(http.MethodPost, "/api/v1/user", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))
}

func TestGetUserAndPresence(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice", "Alice")

	rr := ts.request(http.MethodGet, "/api/v1/user/alice", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alice@example.com", decodeBody[response.User](t, rr).Email)

	rr = ts.request(http.MethodGet, "/api/v1/user/nobody", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeIdentityNotFound, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/user/alice/present", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decodeBody[response.Presence](t, rr).UserPresent)

	rr = ts.request(http.MethodGet, "/api/v1/user/nobody/present", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, decodeBody[response.Presence](t, rr).UserPresent)
}

func TestHintPurchase(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice", "Alice")

	rr := ts.request(http.MethodPost, "/api/v1/hint", map[string]any{
		"identity_id": "alice", "level": 1, "requested_tier": 2,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	purchase := decodeBody[response.HintPurchase](t, rr)
	assert.Equal(t, 30, purchase.Cost)
	assert.Equal(t, 70, purchase.Profile.Coins)
	assert.Len(t, purchase.Hints, 2)

	rr = ts.request(http.MethodPost, "/api/v1/hint", map[string]any{
		"identity_id": "alice", "level": 1, "requested_tier": 1,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeHintAlreadyUnlocked, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/hint", map[string]any{
		"identity_id": "alice", "level": 3, "requested_tier": 3,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeLevelMismatch, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/hint", map[string]any{
		"identity_id": "alice", "level": 1, "requested_tier": 4,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeValidationFailed, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/user/alice/hints", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	hints := decodeBody[response.Hints](t, rr)
	assert.Equal(t, 2, hints.Tier)
	assert.Equal(t, []string{"One side only", "A strip with a twist"}, hints.Hints)
}

func TestAnswer(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice", "Alice")

	rr := ts.request(http.MethodPost, "/api/v1/answer", map[string]any{
		"identity_id": "alice", "level": 1, "answer": "klein",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeIncorrectAnswer, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/answer", map[string]any{
		"identity_id": "alice", "level": 2, "answer": "escher",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeLevelMismatch, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/answer", map[string]any{
		"identity_id": "alice", "level": 1, "answer": "mobius",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	outcome := decodeBody[response.Outcome](t, rr)
	assert.Equal(t, "correct", outcome.Message)
	assert.Equal(t, 2, outcome.Profile.Level)
	assert.Equal(t, 200, outcome.Profile.Coins)
	assert.Equal(t, 10, outcome.Profile.Score)

	rr = ts.request(http.MethodPost, "/api/v1/answer", map[string]any{
		"identity_id": "ghost", "level": 1, "answer": "mobius",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeUnknownIdentity, errorCode(t, rr))
}

func TestCoins(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice", "Alice")

	rr := ts.request(http.MethodPut, "/api/v1/coins", map[string]any{"identity_id": "alice", "amount": 40})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 140, decodeBody[response.Outcome](t, rr).Profile.Coins)

	rr = ts.request(http.MethodPut, "/api/v1/coins", map[string]any{"identity_id": "ghost", "amount": 40})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeUnknownIdentity, errorCode(t, rr))

	rr = ts.request(http.MethodPut, "/api/v1/coins", map[string]any{"identity_id": "alice", "amount": 101})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeValidationFailed, errorCode(t, rr))

	rr = ts.request(http.MethodPut, "/api/v1/coins", map[string]any{"identity_id": "alice"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeBody[apierr.ErrorResponse](t, rr).Error.Fields, "amount")
}

func TestReferral(t *testing.T) {
	ts := newTestServer(t)
	alice := registerUser(t, ts, "alice", "Alice")
	bob := registerUser(t, ts, "bob", "Bob")

	rr := ts.request(http.MethodPost, "/api/v1/referral", map[string]string{"identity_id": "bob", "ref_code": "nope"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeReferralCodeNotFound, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/referral", map[string]string{"identity_id": "bob", "ref_code": bob.ReferralCode})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeSelfReferral, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/referral", map[string]string{"identity_id": "bob", "ref_code": alice.ReferralCode})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	referral := decodeBody[response.Referral](t, rr)
	assert.Equal(t, "alice", referral.IssuerID)
	assert.Equal(t, 200, referral.Profile.Coins)
	assert.True(t, referral.Profile.ReferralRedeemed)

	rr = ts.request(http.MethodPost, "/api/v1/referral", map[string]string{"identity_id": "bob", "ref_code": alice.ReferralCode})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeReferralAlreadyRedeemed, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/user/alice", nil)
	issuer := decodeBody[response.User](t, rr)
	assert.Equal(t, 200, issuer.Profile.Coins)
	assert.Equal(t, 1, issuer.ReferralSuccesses)
}

func TestLeaderboard(t *testing.T) {
	ts := newTestServer(t)
	alice := registerUser(t, ts, "alice", "Alice")
	registerUser(t, ts, "bob", "Bob")

	rr := ts.request(http.MethodPost, "/api/v1/referral", map[string]string{"identity_id": "bob", "ref_code": alice.ReferralCode})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.request(http.MethodPost, "/api/v1/answer", map[string]any{
		"identity_id": "bob", "level": 1, "answer": "mobius",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/leaderboard", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"referral_redeemed":true`)
	entries := decodeBody[[]response.LeaderboardEntry](t, rr)
	require.Len(t, entries, 2)
	assert.Equal(t, "bob", entries[0].IdentityID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.True(t, entries[0].ReferralRedeemed)
	assert.Equal(t, "alice", entries[1].IdentityID)
	assert.False(t, entries[1].ReferralRedeemed)

	rr = ts.request(http.MethodGet, "/api/v1/leaderboard?page=2&page_size=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	entries = decodeBody[[]response.LeaderboardEntry](t, rr)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].IdentityID)
	assert.Equal(t, 2, entries[0].Rank)

	rr = ts.request(http.MethodGet, "/api/v1/leaderboard?page_size=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/questions", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "mobius")
	questions := decodeBody[[]response.Question](t, rr)
	assert.Len(t, questions, 5)
	assert.Equal(t, 1, questions[0].Level)

	rr = ts.request(http.MethodGet, "/api/v1/hints", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody[[]response.HintSet](t, rr), 5)

	rr = ts.request(http.MethodGet, "/api/v1/members/positions", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, decodeBody[[]string](t, rr), "Developer")

	rr = ts.request(http.MethodPost, "/api/v1/members", map[string]string{
		"name": "Noor", "position": "Volunteer", "linkedin_url": "https://linkedin.com/in/noor",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.NotEmpty(t, decodeBody[response.Member](t, rr).ID)

	rr = ts.request(http.MethodPost, "/api/v1/members", map[string]string{"name": "Noor", "position": "Wizard"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeBody[apierr.ErrorResponse](t, rr).Error.Fields, "position")

	rr = ts.request(http.MethodGet, "/api/v1/members", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	members := decodeBody[[]response.Member](t, rr)
	assert.Len(t, members, 4)
	assert.Equal(t, "Noor", members[3].Name)
}

func TestDeleteUser(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice", "Alice")

	rr := ts.request(http.MethodDelete, "/api/v1/user/alice", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/user/alice", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.request(http.MethodDelete, "/api/v1/user/alice", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// The identity id and email are free again
	registerUser(t, ts, "alice", "Alice")
}

func TestEventStream(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events?identity_id=alice", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "event: connected\n", line)

	require.Eventually(t, func() bool { return ts.app.Hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	registerUser(t, ts, "alice", "Alice")

	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line == "event: player_registered\n" {
			data, err := reader.ReadString('\n')
			require.NoError(t, err)
			assert.Contains(t, data, `"identity_id":"alice"`)
			return
		}
	}
}
