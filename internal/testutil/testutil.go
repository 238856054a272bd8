// Package testutil builds fully wired test applications and HTTP helpers.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"absensi/internal/attendance"
	"absensi/internal/auth"
	"absensi/internal/config"
	"absensi/internal/handler"
	"absensi/internal/metrics"
	"absensi/internal/realtime"
	"absensi/internal/roster"
	"absensi/internal/store"
	"absensi/internal/store/memory"
)

// TestDBEnv names the variable holding the Postgres URL for integration tests.
const TestDBEnv = "ABSENSI_TEST_DATABASE_URL"

// Jakarta is the zone the tests run the calendar in.
var Jakarta = time.FixedZone("WIB", 7*60*60)

// Clock is a settable dates.Clock.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock starts a clock at t.
func NewClock(t time.Time) *Clock { return &Clock{t: t} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// App is a wired service stack on the memory store.
type App struct {
	Store   *memory.Store
	Hub     *realtime.Hub
	Auth    *auth.Service
	Roster  *roster.Service
	Ledger  *attendance.Ledger
	Metrics *metrics.Metrics
	Clock   *Clock
	Config  config.App
	Router  *gin.Engine
}

// TestConfig returns the configuration used by NewApp.
func TestConfig() config.App {
	return config.App{
		Env:                "test",
		HTTPPort:           "5000",
		StoreBackend:       "memory",
		TokenPrefix:        auth.DefaultTokenPrefix,
		JWTIssuer:          "absensi-test",
		JWTSigningKey:      "test-signing-key",
		SessionTTL:         time.Hour,
		CORSAllowedOrigins: []string{"*"},
	}
}

// NewApp wires every service on a fresh memory store. The clock starts at
// 2026-10-18 08:00 in Jakarta; mutate cfg to enable optional features.
func NewApp(t *testing.T, mutate ...func(*config.App)) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := TestConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	clock := NewClock(time.Date(2026, 10, 18, 8, 0, 0, 0, Jakarta))
	st := memory.New()
	hub := realtime.NewHub(realtime.DefaultBuffer, nil, m)

	authSvc := auth.NewService(st, clock, cfg.TokenPrefix)
	rosterSvc := roster.NewService(st, hub)
	ledger := attendance.NewLedger(st, authSvc, rosterSvc, hub, clock)

	router := handler.NewRouter(handler.Deps{
		Auth:      authSvc,
		Roster:    rosterSvc,
		Ledger:    ledger,
		Hub:       hub,
		Metrics:   m,
		Gatherer:  reg,
		Config:    cfg,
		Heartbeat: time.Hour,
	})

	return &App{
		Store:   st,
		Hub:     hub,
		Auth:    authSvc,
		Roster:  rosterSvc,
		Ledger:  ledger,
		Metrics: m,
		Clock:   clock,
		Config:  cfg,
		Router:  router,
	}
}

// SeedOperator creates an operator with password.
func (a *App) SeedOperator(t *testing.T, nickname, password string) auth.Operator {
	t.Helper()
	op, err := a.Auth.CreateOperator(context.Background(), nickname, password)
	if err != nil {
		t.Fatalf("Failed to create operator: %v", err)
	}
	return op
}

// Token returns today's token, minting it when needed.
func (a *App) Token(t *testing.T) string {
	t.Helper()
	token, _, err := a.Auth.CurrentToken(context.Background())
	if err != nil {
		t.Fatalf("Failed to get token: %v", err)
	}
	return token
}

// AddStudent registers a student.
func (a *App) AddStudent(t *testing.T, name, number string) roster.Student {
	t.Helper()
	s, err := a.Roster.Add(context.Background(), name, number)
	if err != nil {
		t.Fatalf("Failed to add student %s: %v", number, err)
	}
	return s
}

// Do serves req on the app router.
func (a *App) Do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// SetupTestDB connects to the integration database and resets its tables. The
// test is skipped when TestDBEnv is unset.
func SetupTestDB(t *testing.T) *store.DB {
	t.Helper()

	url := os.Getenv(TestDBEnv)
	if url == "" {
		t.Skipf("%s not set", TestDBEnv)
	}
	ctx := context.Background()
	db, err := store.NewDB(ctx, url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	if _, err := db.Client.ExecContext(ctx, `TRUNCATE attendance_records, students, operators`); err != nil {
		t.Fatalf("Failed to clean database: %v", err)
	}
	return db
}
