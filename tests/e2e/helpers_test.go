//go:build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/undojournal/internal/adapter/postgres"
	taskrepo "github.com/heartmarshall/undojournal/internal/adapter/postgres/task"
	"github.com/heartmarshall/undojournal/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/undojournal/internal/adapter/postgres/undorecord"
	"github.com/heartmarshall/undojournal/internal/adapter/redis/recentcache"
	redistesthelper "github.com/heartmarshall/undojournal/internal/adapter/redis/testhelper"
	"github.com/heartmarshall/undojournal/internal/auth"
	"github.com/heartmarshall/undojournal/internal/service/journal"
	"github.com/heartmarshall/undojournal/internal/service/task"
	"github.com/heartmarshall/undojournal/internal/transport/middleware"
	"github.com/heartmarshall/undojournal/internal/transport/rest"
	"github.com/heartmarshall/undojournal/pkg/ctxutil"
)

const testSecret = "e2e-secret-that-is-at-least-32-chars-long"

// testServer wraps the full HTTP stack backed by real PostgreSQL and Redis.
type testServer struct {
	URL    string
	Client *http.Client
	jwt    *auth.JWTManager
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)
	rdb := redistesthelper.SetupTestRedis(t)
	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cache := recentcache.New(rdb, recentcache.Options{
		KeyPrefix:          "e2e-" + uuid.NewString(),
		Size:               10,
		TTL:                time.Hour,
		OpTimeout:          time.Second,
		BreakerMaxFailures: 5,
		BreakerTimeout:     time.Second,
	}, logger)

	tx := postgres.NewTxManager(pool)
	reg := journal.NewRegistry()
	journalSvc := journal.NewService(logger, undorecord.New(pool), cache, tx, postgres.NewAdvisoryLocker(), reg, journal.Config{
		Retention:        7 * 24 * time.Hour,
		CacheSize:        10,
		OperationTimeout: 5 * time.Second,
		SweepBatchSize:   100,
	})
	taskSvc := task.NewService(logger, taskrepo.New(pool), journalSvc, tx)
	require.NoError(t, taskSvc.RegisterHandlers(reg))
	reg.Freeze()

	jwt := auth.NewJWTManager(testSecret, "undojournal-e2e")
	limiter := middleware.NewRateLimiter(600, 100, time.Minute)
	t.Cleanup(limiter.Stop)

	router := rest.NewRouter(rest.Handlers{
		Health:  rest.NewHealthHandler(pool, cache, "e2e"),
		Journal: rest.NewJournalHandler(journalSvc, logger),
		Tasks:   rest.NewTaskHandler(taskSvc, logger),
		Admin:   rest.NewAdminHandler(journalSvc, logger),
	}, limiter, middleware.Standard(logger, jwt))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{URL: srv.URL, Client: srv.Client(), jwt: jwt}
}

// tokenFor mints a bearer token for a fresh or given user.
func (ts *testServer) tokenFor(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token, err := ts.jwt.IssueToken(userID, role, time.Hour)
	require.NoError(t, err)
	return token
}

func (ts *testServer) userToken(t *testing.T) string {
	t.Helper()
	return ts.tokenFor(t, uuid.New(), "user")
}

func (ts *testServer) adminToken(t *testing.T) string {
	t.Helper()
	return ts.tokenFor(t, uuid.New(), ctxutil.RoleAdmin)
}

// do sends a JSON request and decodes the JSON response into out (if non-nil).
func (ts *testServer) do(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type taskJSON struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"isCompleted"`
}

type recordJSON struct {
	ID          int64  `json:"id"`
	ActionType  string `json:"actionType"`
	Description string `json:"description"`
	IsUndone    bool   `json:"isUndone"`
}

type toggleJSON struct {
	ActionID   int64  `json:"actionId"`
	ActionType string `json:"actionType"`
	IsUndone   bool   `json:"isUndone"`
}
