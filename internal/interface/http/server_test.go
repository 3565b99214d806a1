package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumae-app/tumae-match-engine/internal/application/command"
	"github.com/tumae-app/tumae-match-engine/internal/application/query"
	"github.com/tumae-app/tumae-match-engine/internal/domain/community"
	"github.com/tumae-app/tumae-match-engine/internal/domain/matching"
	"github.com/tumae-app/tumae-match-engine/internal/domain/shared"
	"github.com/tumae-app/tumae-match-engine/internal/infrastructure/persistence/memory"
)

// newTestServer builds a server over a seeded in-memory store. Metrics are
// disabled to keep the default Prometheus registry clean across tests.
func newTestServer(t *testing.T, configure func(*Config)) (*Server, *memory.Store) {
	t.Helper()

	store := memory.NewStore()

	q, err := community.NewQuestion(100, 1)
	require.NoError(t, err)
	store.PutQuestion(q)

	a, err := community.NewAnswer(200, 100, 2)
	require.NoError(t, err)
	store.PutAnswer(a)

	store.PutTutor(matching.TutorProfile{
		TutorID:    2,
		Subjects:   []shared.SubjectID{1},
		Region:     10,
		HourlyRate: 30000,
	})
	store.PutTutor(matching.TutorProfile{
		TutorID:    3,
		Subjects:   []shared.SubjectID{2},
		Region:     10,
		HourlyRate: 30000,
	})

	config := DefaultConfig()
	config.EnableMetrics = false
	config.RateLimitPerMinute = 0
	if configure != nil {
		configure(&config)
	}

	deps := Dependencies{
		AcceptAnswerHandler:   command.NewAcceptAnswerHandler(store, nil, nil),
		ComputeMatchesHandler: query.NewComputeMatchesHandler(store, nil),
		GetRankingHandler:     query.NewGetRankingHandler(store, nil, nil),
		Counters:              store,
	}

	return NewServer(config, deps), store
}

func doRequest(s *Server, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()

	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestServer_AcceptAnswer(t *testing.T) {
	s, store := newTestServer(t, nil)

	body := []byte(`{"answer_id": 200}`)
	rec := doRequest(s, http.MethodPost, "/api/v1/questions/100/accept", body,
		map[string]string{"X-User-ID": "1"})

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	q, err := store.GetQuestion(context.Background(), 100)
	require.NoError(t, err)
	assert.True(t, q.IsAccepted())
}

func TestServer_AcceptAnswer_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		target     string
		body       string
		userID     string
		wantStatus int
		wantCode   string
	}{
		{"missing caller header", "/api/v1/questions/100/accept", `{"answer_id":200}`, "", http.StatusUnauthorized, "unauthorized"},
		{"bad question id", "/api/v1/questions/abc/accept", `{"answer_id":200}`, "1", http.StatusBadRequest, "invalid_request"},
		{"malformed body", "/api/v1/questions/100/accept", `{`, "1", http.StatusBadRequest, "invalid_request"},
		{"invalid answer id", "/api/v1/questions/100/accept", `{"answer_id":0}`, "1", http.StatusBadRequest, "validation_error"},
		{"question not found", "/api/v1/questions/999/accept", `{"answer_id":200}`, "1", http.StatusNotFound, "not_found"},
		{"answer not found", "/api/v1/questions/100/accept", `{"answer_id":999}`, "1", http.StatusNotFound, "not_found"},
		{"not the owner", "/api/v1/questions/100/accept", `{"answer_id":200}`, "42", http.StatusForbidden, "forbidden"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestServer(t, nil)

			headers := map[string]string{}
			if tc.userID != "" {
				headers["X-User-ID"] = tc.userID
			}

			rec := doRequest(s, http.MethodPost, tc.target, []byte(tc.body), headers)

			assert.Equal(t, tc.wantStatus, rec.Code)
			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
		})
	}
}

func TestServer_AcceptAnswer_ReacceptConflicts(t *testing.T) {
	s, _ := newTestServer(t, nil)
	headers := map[string]string{"X-User-ID": "1"}
	body := []byte(`{"answer_id": 200}`)

	rec := doRequest(s, http.MethodPost, "/api/v1/questions/100/accept", body, headers)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/questions/100/accept", body, headers)
	assert.Equal(t, http.StatusConflict, rec.Code)

	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "conflict", resp.Error.Code)
}

func TestServer_ComputeMatches(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/api/v1/matches?subject=1&region=10&slot=0:600:720", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 1, resp.Meta.TotalCount)
	assert.False(t, resp.Meta.HasMore)

	var result query.ComputeMatchesResult
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &result))

	require.Len(t, result.Matches, 1)
	assert.EqualValues(t, 2, result.Matches[0].TutorID, "only the subject-1 tutor qualifies")
}

func TestServer_ComputeMatches_MissingSubject(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/api/v1/matches", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "validation_error", resp.Error.Code)
}

func TestServer_ComputeMatches_MalformedSlot(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/api/v1/matches?subject=1&slot=bogus", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_GetRanking(t *testing.T) {
	s, store := newTestServer(t, nil)
	ctx := context.Background()

	_, err := store.Increment(ctx, 2, 5)
	require.NoError(t, err)
	_, err = store.Increment(ctx, 3, 9)
	require.NoError(t, err)

	rec := doRequest(s, http.MethodGet, "/api/v1/ranking", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	var result query.GetRankingResult
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &result))

	require.Len(t, result.Entries, 2)
	assert.EqualValues(t, 3, result.Entries[0].TutorID)
	assert.Equal(t, 1, result.Entries[0].Rank)
	assert.EqualValues(t, 2, result.Entries[1].TutorID)

	// Subject filter narrows the board.
	rec = doRequest(s, http.MethodGet, "/api/v1/ranking?subject=1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp = decodeResponse(t, rec)
	raw, err = json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &result))
	require.Len(t, result.Entries, 1)
	assert.EqualValues(t, 2, result.Entries[0].TutorID)
}

func TestServer_GetReputation(t *testing.T) {
	s, store := newTestServer(t, nil)

	_, err := store.Increment(context.Background(), 2, 7)
	require.NoError(t, err)

	rec := doRequest(s, http.MethodGet, "/api/v1/tutors/2/reputation", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 7, data["reputation"])

	// Unknown tutors read as zero, not as an error.
	rec = doRequest(s, http.MethodGet, "/api/v1/tutors/99/reputation", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Malformed ids are rejected.
	rec = doRequest(s, http.MethodGet, "/api/v1/tutors/abc/reputation", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_HealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t, nil)

	for _, target := range []string{"/health", "/healthz", "/ready", "/live", "/"} {
		rec := doRequest(s, http.MethodGet, target, nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code, target)
	}
}

func TestServer_APIKeyProtectsWriteEndpoint(t *testing.T) {
	s, _ := newTestServer(t, func(c *Config) {
		c.APIKeys = []string{"secret"}
	})

	body := []byte(`{"answer_id": 200}`)

	rec := doRequest(s, http.MethodPost, "/api/v1/questions/100/accept", body,
		map[string]string{"X-User-ID": "1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/questions/100/accept", body,
		map[string]string{"X-User-ID": "1", "X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/questions/100/accept", body,
		map[string]string{"X-User-ID": "1", "X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Read endpoints stay open.
	rec = doRequest(s, http.MethodGet, "/api/v1/ranking", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_RateLimit(t *testing.T) {
	s, _ := newTestServer(t, func(c *Config) {
		c.RateLimitPerMinute = 3
	})

	for i := 0; i < 3; i++ {
		rec := doRequest(s, http.MethodGet, "/live", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec := doRequest(s, http.MethodGet, "/live", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestServer_SecurityHeadersAndRequestID(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/live", nil, nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	// A caller-supplied request id is echoed back.
	rec = doRequest(s, http.MethodGet, "/live", nil, map[string]string{"X-Request-ID": "req-42"})
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestServer_OversizedBodyRejected(t *testing.T) {
	s, _ := newTestServer(t, func(c *Config) {
		c.MaxBodyBytes = 16
	})

	body := []byte(fmt.Sprintf(`{"answer_id": 200, "padding": %q}`, make([]byte, 64)))
	rec := doRequest(s, http.MethodPost, "/api/v1/questions/100/accept", body,
		map[string]string{"X-User-ID": "1"})

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestParseWindows(t *testing.T) {
	windows, err := parseWindows([]string{"0:600:720", "2:540:660"})
	require.NoError(t, err)
	assert.Equal(t, []matching.Window{
		{Day: 0, Start: 600, End: 720},
		{Day: 2, Start: 540, End: 660},
	}, windows)

	windows, err = parseWindows(nil)
	require.NoError(t, err)
	assert.Nil(t, windows)

	_, err = parseWindows([]string{"0:600"})
	assert.Error(t, err)

	_, err = parseWindows([]string{"a:b:c"})
	assert.Error(t, err)
}
