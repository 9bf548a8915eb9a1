package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omriShneor/meeting_agent/internal/database"
	"github.com/omriShneor/meeting_agent/internal/dialogue"
	"github.com/omriShneor/meeting_agent/internal/extract"
	"github.com/omriShneor/meeting_agent/internal/gcal"
	"github.com/omriShneor/meeting_agent/internal/mocks"
	"github.com/omriShneor/meeting_agent/internal/session"
	"github.com/omriShneor/meeting_agent/internal/sse"
	"github.com/omriShneor/meeting_agent/internal/timeutil"
)

var clockNow = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

type fakeConnector struct {
	authenticated bool
	exchanged     string
	exchangeErr   error
	calendars     []gcal.CalendarInfo
}

func (f *fakeConnector) IsAuthenticated() bool { return f.authenticated }

func (f *fakeConnector) AuthURL(state string) (string, error) {
	return "https://accounts.google.com/o/oauth2/auth?state=" + url.QueryEscape(state), nil
}

func (f *fakeConnector) ExchangeCode(_ context.Context, code string) error {
	f.exchanged = code
	if f.exchangeErr == nil {
		f.authenticated = true
	}
	return f.exchangeErr
}

func (f *fakeConnector) ListCalendars(context.Context) ([]gcal.CalendarInfo, error) {
	return f.calendars, nil
}

type testEnv struct {
	server    *Server
	handler   http.Handler
	db        *database.DB
	store     *session.Store
	extractor *mocks.MockExtractor
	gateway   *mocks.MockCalendarGateway
	connector *fakeConnector
	events    *sse.Hub
}

func newTestEnv(t *testing.T, rateLimit int) *testEnv {
	t.Helper()

	env := &testEnv{
		db:        database.NewTestDB(t),
		store:     session.NewStore(nil),
		extractor: &mocks.MockExtractor{},
		gateway:   &mocks.MockCalendarGateway{},
		connector: &fakeConnector{},
		events:    sse.NewHub(),
	}

	engine := dialogue.NewEngine(env.store, env.extractor, timeutil.NewParser(true), env.gateway,
		dialogue.Config{},
		dialogue.WithRecorder(env.db),
		dialogue.WithNotifier(env.events),
		dialogue.WithClock(func() time.Time { return clockNow }),
	)

	env.server = New(Config{
		Engine:             engine,
		Bookings:           env.db,
		GCal:               env.connector,
		Sessions:           env.store,
		Events:             env.events,
		RateLimitPerMinute: rateLimit,
	})
	env.handler = env.server.Handler()
	return env
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func str(s string) *string {
	return &s
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHandleChatBooksMeeting(t *testing.T) {
	env := newTestEnv(t, 0)

	at := time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC)
	env.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(extract.Result{
		Title:            str("Budget review"),
		Person:           str("Sarah"),
		DateTimeText:     str("tomorrow 3pm"),
		ResolvedDateTime: &at,
		Success:          true,
	})
	env.gateway.On("CreateEvent", mock.Anything, mock.Anything).Return("https://calendar.google.com/event?eid=1", nil)

	w := env.do("POST", "/api/chat", map[string]string{"userId": "u1", "text": "Budget review with Sarah tomorrow 3pm"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "CONFIRM", resp["stage"])
	assert.NotContains(t, resp, "eventData")

	w = env.do("GET", "/api/chat/u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CONFIRM", decode(t, w)["stage"])

	w = env.do("POST", "/api/chat", map[string]string{"userId": "u1", "text": "yes"})
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode(t, w)
	assert.Equal(t, "DONE", resp["stage"])
	assert.Equal(t, map[string]interface{}{
		"title":    "Budget review",
		"person":   "Sarah",
		"dateTime": "2026-10-16T15:00:00Z",
		"eventRef": "https://calendar.google.com/event?eid=1",
	}, resp["eventData"])

	// the booking was recorded
	w = env.do("GET", "/api/bookings?userId=u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bookings []database.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bookings))
	require.Len(t, bookings, 1)
	assert.Equal(t, "Budget review", bookings[0].Title)

	w = env.do("GET", "/api/chat/u1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleChatErrors(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		env := newTestEnv(t, 0)
		req := httptest.NewRequest("POST", "/api/chat", strings.NewReader("{not json"))
		w := httptest.NewRecorder()
		env.handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		env := newTestEnv(t, 0)
		w := env.do("POST", "/api/chat", map[string]string{"userId": "u1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "userId and text are required", decode(t, w)["error"])
	})

	t.Run("extraction failure", func(t *testing.T) {
		env := newTestEnv(t, 0)
		env.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).
			Return(extract.Result{Success: false, ErrorMessage: "AI service error: boom"})

		w := env.do("POST", "/api/chat", map[string]string{"userId": "u1", "text": "hi"})
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, decode(t, w)["error"], "try again")
		assert.Equal(t, 0, env.store.Len())
	})

	t.Run("booking failure is a normal reply", func(t *testing.T) {
		env := newTestEnv(t, 0)
		at := time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC)
		env.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(extract.Result{
			Title: str("Sync"), Person: str("Dan"), DateTimeText: str("x"), ResolvedDateTime: &at, Success: true,
		})
		env.gateway.On("CreateEvent", mock.Anything, mock.Anything).Return("", gcal.ErrNotAuthenticated)

		env.do("POST", "/api/chat", map[string]string{"userId": "u1", "text": "sync with Dan"})
		w := env.do("POST", "/api/chat", map[string]string{"userId": "u1", "text": "yes"})

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		assert.Equal(t, "INIT", resp["stage"])
		assert.Contains(t, resp["reply"], "not connected")
	})
}

func TestHandleResetConversation(t *testing.T) {
	env := newTestEnv(t, 0)
	env.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).
		Return(extract.Result{Title: str("Sync"), Success: true})

	env.do("POST", "/api/chat", map[string]string{"userId": "u1", "text": "sync"})
	require.Equal(t, 1, env.store.Len())

	w := env.do("DELETE", "/api/chat/u1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, env.store.Len())

	w = env.do("DELETE", "/api/chat/u1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHandleListBookings(t *testing.T) {
	env := newTestEnv(t, 0)

	w := env.do("GET", "/api/bookings", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("GET", "/api/bookings?userId=u1&limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("GET", "/api/bookings?userId=u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestHandleHealthCheck(t *testing.T) {
	env := newTestEnv(t, 0)

	w := env.do("GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "ok", resp["database"])
	assert.Equal(t, "disconnected", resp["gcal"])
	assert.Equal(t, float64(0), resp["sessions"])

	t.Run("without optional collaborators", func(t *testing.T) {
		s := New(Config{})
		w := httptest.NewRecorder()
		s.handleHealthCheck(w, httptest.NewRequest("GET", "/health", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "disabled", decode(t, w)["database"])
	})
}

func TestHandleRoot(t *testing.T) {
	env := newTestEnv(t, 0)

	w := env.do("GET", "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "running")

	w = env.do("GET", "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGCalOAuthFlow(t *testing.T) {
	env := newTestEnv(t, 0)

	w := env.do("GET", "/api/gcal/status", nil)
	assert.Equal(t, false, decode(t, w)["connected"])

	w = env.do("GET", "/api/gcal/calendars", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = env.do("GET", "/api/gcal/connect", nil)
	require.Equal(t, http.StatusOK, w.Code)
	authURL, err := url.Parse(decode(t, w)["auth_url"].(string))
	require.NoError(t, err)
	state := authURL.Query().Get("state")
	require.NotEmpty(t, state)

	w = env.do("GET", "/oauth/callback?code=abc&state=forged", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.connector.exchanged)

	w = env.do("GET", "/oauth/callback?code=abc&state="+state, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", env.connector.exchanged)
	assert.Equal(t, sse.GCalConnected, env.events.Status().GCal)

	// states are single use
	w = env.do("GET", "/oauth/callback?code=abc&state="+state, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.connector.calendars = []gcal.CalendarInfo{{ID: "primary", Primary: true}}
	w = env.do("GET", "/api/gcal/calendars", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"primary"`)

	w = env.do("GET", "/api/gcal/status", nil)
	assert.Equal(t, true, decode(t, w)["connected"])
}

func TestOAuthCallbackExchangeFailure(t *testing.T) {
	env := newTestEnv(t, 0)
	env.connector.exchangeErr = errors.New("bad code")

	state := env.server.newOAuthState()
	w := env.do("GET", "/oauth/callback?code=abc&state="+state, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, sse.StatusResponse{GCal: sse.GCalError, GCalError: "bad code"}, env.events.Status())
}

func TestEventStream(t *testing.T) {
	env := newTestEnv(t, 0)
	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/api/events?userId=alice", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	next := func() string {
		t.Helper()
		for {
			select {
			case line, ok := <-lines:
				require.True(t, ok, "stream closed")
				if line != "" {
					return line
				}
			case <-time.After(2 * time.Second):
				t.Fatal("timeout waiting for event")
			}
		}
	}

	assert.Equal(t, "event: status", next())
	assert.Contains(t, next(), `"subscribers":1`)

	at := time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC)
	env.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(extract.Result{
		Title:            str("Budget review"),
		Person:           str("Sarah"),
		DateTimeText:     str("tomorrow 3pm"),
		ResolvedDateTime: &at,
		Success:          true,
	})
	env.gateway.On("CreateEvent", mock.Anything, mock.Anything).Return("evt-1", nil)

	// another user's booking is filtered out
	for _, user := range []string{"bob", "alice"} {
		require.Equal(t, http.StatusOK, env.do("POST", "/api/chat", map[string]string{"userId": user, "text": "book it"}).Code)
		require.Equal(t, http.StatusOK, env.do("POST", "/api/chat", map[string]string{"userId": user, "text": "yes"}).Code)
	}

	assert.Equal(t, "event: booking", next())
	data := next()
	assert.Contains(t, data, `"title":"Budget review"`)
	assert.Contains(t, data, `"event_ref":"evt-1"`)
}

func TestEventStreamDisabled(t *testing.T) {
	srv := New(Config{Engine: newTestEnv(t, 0).server.engine})
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/events", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMiddleware(t *testing.T) {
	t.Run("cors preflight", func(t *testing.T) {
		env := newTestEnv(t, 0)
		w := env.do("OPTIONS", "/api/chat", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("request id is generated or echoed", func(t *testing.T) {
		env := newTestEnv(t, 0)

		w := env.do("GET", "/health", nil)
		assert.Len(t, w.Header().Get(requestIDHeader), 36)

		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set(requestIDHeader, "abc-123")
		w = httptest.NewRecorder()
		env.handler.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
	})

	t.Run("rate limit per client", func(t *testing.T) {
		env := newTestEnv(t, 2)

		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, env.do("GET", "/health", nil).Code)
		}
		assert.Equal(t, http.StatusTooManyRequests, env.do("GET", "/health", nil).Code)

		// a forged header does not buy a fresh bucket
		for _, fwd := range []string{"10.0.0.9", "10.0.0.10, 10.0.0.1"} {
			req := httptest.NewRequest("GET", "/health", nil)
			req.Header.Set("X-Forwarded-For", fwd)
			w := httptest.NewRecorder()
			env.handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusTooManyRequests, w.Code)
		}
	})

	t.Run("forwarded client behind trusted proxy", func(t *testing.T) {
		rl := newRateLimiter(1, true, zap.NewNop())
		handler := rl.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		send := func(fwd string) int {
			req := httptest.NewRequest("GET", "/health", nil)
			req.Header.Set("X-Forwarded-For", fwd)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			return w.Code
		}

		assert.Equal(t, http.StatusOK, send("10.0.0.9"))
		assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.9"))
		assert.Equal(t, http.StatusOK, send("10.0.0.10, 10.0.0.1"))
	})
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	rl := newRateLimiter(60, false, zap.NewNop())
	clock := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	for i := 0; i < 100; i++ {
		rl.getLimiter(fmt.Sprintf("198.51.100.%d", i))
	}
	assert.Equal(t, 100, rl.size())

	clock = clock.Add(limiterIdleTTL / 2)
	rl.getLimiter("198.51.100.1")

	clock = clock.Add(limiterIdleTTL / 2)
	rl.getLimiter("203.0.113.7")

	// only the client seen within the window and the new one remain
	assert.Equal(t, 2, rl.size())
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", clientIP(req, false))
	assert.Equal(t, "192.0.2.1", clientIP(req, true))

	req.Header.Set("X-Forwarded-For", " 203.0.113.5 , 10.0.0.1")
	assert.Equal(t, "192.0.2.1", clientIP(req, false))
	assert.Equal(t, "203.0.113.5", clientIP(req, true))
}
