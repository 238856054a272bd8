package handler_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"absensi/internal/config"
	"absensi/internal/handler"
	"absensi/internal/testutil"
)

type errorBody struct {
	Error string `json:"error"`
}

type loginBody struct {
	Success  bool `json:"success"`
	Operator struct {
		ID       string `json:"id"`
		Nickname string `json:"nickname"`
		Token    string `json:"token"`
	} `json:"operator"`
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

type recordBody struct {
	Success       bool   `json:"success"`
	ID            string `json:"id"`
	StudentNumber string `json:"student_number"`
	Date          string `json:"date"`
	Status        string `json:"status"`
}

func login(t *testing.T, app *testutil.App) loginBody {
	t.Helper()
	w := app.Do(testutil.MakeRequest(http.MethodPost, "/api/auth/login",
		map[string]string{"nickname": "bu_sari", "password": "rahasia"}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var body loginBody
	testutil.AssertJSON(t, w, &body)
	return body
}

func seeded(t *testing.T, mutate ...func(*config.App)) (*testutil.App, string) {
	t.Helper()
	app := testutil.NewApp(t, mutate...)
	app.SeedOperator(t, "bu_sari", "rahasia")
	app.AddStudent(t, "Adi", "1001")
	app.AddStudent(t, "Budi", "1002")
	app.AddStudent(t, "Citra", "1003")
	return app, app.Token(t)
}

func TestLogin(t *testing.T) {
	app, _ := seeded(t)

	body := login(t, app)
	if !body.Success || body.Operator.Nickname != "bu_sari" || body.Operator.Token == "" {
		t.Fatalf("login body = %+v", body)
	}
	if body.AccessToken == "" || body.ExpiresAt <= time.Now().Unix() {
		t.Fatalf("session missing: %+v", body)
	}

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"missing password", map[string]string{"nickname": "bu_sari"}, http.StatusBadRequest},
		{"empty body", map[string]string{}, http.StatusBadRequest},
		{"wrong password", map[string]string{"nickname": "bu_sari", "password": "salah"}, http.StatusUnauthorized},
		{"unknown operator", map[string]string{"nickname": "pak_budi", "password": "rahasia"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.Do(testutil.MakeRequest(http.MethodPost, "/api/auth/login", tt.body, nil))
			testutil.AssertStatus(t, w, tt.want)
			var eb errorBody
			testutil.AssertJSON(t, w, &eb)
			if eb.Error == "" {
				t.Fatal("missing error message")
			}
		})
	}
}

func TestCurrentTokenAndValidate(t *testing.T) {
	empty := testutil.NewApp(t)
	w := empty.Do(testutil.MakeRequest(http.MethodGet, "/api/auth/token", nil, nil))
	testutil.AssertStatus(t, w, http.StatusNotFound)

	app, token := seeded(t)
	w = app.Do(testutil.MakeRequest(http.MethodGet, "/api/auth/token", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var tb struct {
		Token string `json:"token"`
		Date  string `json:"date"`
	}
	testutil.AssertJSON(t, w, &tb)
	if tb.Token != token || tb.Date != "2026-10-18" {
		t.Fatalf("token body = %+v, want %s", tb, token)
	}

	for _, tt := range []struct {
		token string
		want  bool
	}{{token, true}, {"F1000000", false}, {"", false}} {
		w := app.Do(testutil.MakeRequest(http.MethodPost, "/api/auth/validate-token", map[string]string{"token": tt.token}, nil))
		testutil.AssertStatus(t, w, http.StatusOK)
		var vb struct {
			Valid bool `json:"valid"`
		}
		testutil.AssertJSON(t, w, &vb)
		if vb.Valid != tt.want {
			t.Fatalf("validate(%q) = %v, want %v", tt.token, vb.Valid, tt.want)
		}
	}
}

func TestValidateTokenAlwaysAnswersValid(t *testing.T) {
	app := testutil.NewApp(t)

	for _, body := range []string{"", "{}", `{"token":"F1000000"}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/validate-token", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := app.Do(req)
		testutil.AssertStatus(t, w, http.StatusOK)
		var vb struct {
			Valid *bool `json:"valid"`
		}
		testutil.AssertJSON(t, w, &vb)
		if vb.Valid == nil || *vb.Valid {
			t.Fatalf("body %q: valid = %v, want false", body, vb.Valid)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/validate-token", strings.NewReader("{not json"))
	testutil.AssertStatus(t, app.Do(req), http.StatusBadRequest)
}

func TestStudentsEndpoints(t *testing.T) {
	app := testutil.NewApp(t)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"created", map[string]string{"name": "Budi", "student_number": "1002"}, http.StatusCreated},
		{"created second", map[string]string{"name": "Adi", "student_number": "1001"}, http.StatusCreated},
		{"duplicate", map[string]string{"name": "Budi Lagi", "student_number": "1002"}, http.StatusConflict},
		{"non numeric", map[string]string{"name": "Eka", "student_number": "12ab"}, http.StatusBadRequest},
		{"missing name", map[string]string{"student_number": "1005"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.Do(testutil.MakeRequest(http.MethodPost, "/api/students", tt.body, nil))
			testutil.AssertStatus(t, w, tt.want)
		})
	}

	w := app.Do(testutil.MakeRequest(http.MethodGet, "/api/students", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var list []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		StudentNumber string `json:"student_number"`
	}
	testutil.AssertJSON(t, w, &list)
	if len(list) != 2 || list[0].Name != "Adi" || list[1].Name != "Budi" {
		t.Fatalf("list = %+v", list)
	}

	for i := 0; i < 2; i++ {
		w = app.Do(testutil.MakeRequest(http.MethodDelete, "/api/students/"+list[0].ID, nil, nil))
		testutil.AssertStatus(t, w, http.StatusOK)
	}
	w = app.Do(testutil.MakeRequest(http.MethodGet, "/api/students", nil, nil))
	testutil.AssertJSON(t, w, &list)
	if len(list) != 1 {
		t.Fatalf("after delete list = %+v", list)
	}
}

func TestRecordAttendanceEndpoint(t *testing.T) {
	app, token := seeded(t)

	w := app.Do(testutil.MakeRequest(http.MethodPost, "/api/attendance",
		map[string]string{"student_number": "1001", "token": token}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var rb recordBody
	testutil.AssertJSON(t, w, &rb)
	if !rb.Success || rb.StudentNumber != "1001" || rb.Status != "Hadir" || rb.Date != "2026-10-18" {
		t.Fatalf("record body = %+v", rb)
	}

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"again today", map[string]string{"student_number": "1001", "token": token}, http.StatusConflict},
		{"bad token", map[string]string{"student_number": "1002", "token": "F1000000"}, http.StatusUnauthorized},
		{"unknown student", map[string]string{"student_number": "9999", "token": token}, http.StatusNotFound},
		{"missing token", map[string]string{"student_number": "1002"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.Do(testutil.MakeRequest(http.MethodPost, "/api/attendance", tt.body, nil))
			testutil.AssertStatus(t, w, tt.want)
		})
	}

	w = app.Do(testutil.MakeRequest(http.MethodGet, "/api/attendance/statistics", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var stats map[string]int
	testutil.AssertJSON(t, w, &stats)
	want := map[string]int{"present": 1, "excused": 0, "sick": 0, "absent": 0, "not_yet_marked": 2, "total": 3}
	for k, v := range want {
		got, ok := stats[k]
		if !ok || got != v {
			t.Fatalf("stats[%s] = %d (present=%v), want %d", k, got, ok, v)
		}
	}
}

func TestYesterdayTokenRejectedOverHTTP(t *testing.T) {
	app, token := seeded(t)
	app.Clock.Advance(24 * time.Hour)

	w := app.Do(testutil.MakeRequest(http.MethodPost, "/api/attendance",
		map[string]string{"student_number": "1001", "token": token}, nil))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	w = app.Do(testutil.MakeRequest(http.MethodGet, "/api/attendance", nil, nil))
	var recs []recordBody
	testutil.AssertJSON(t, w, &recs)
	if len(recs) != 0 {
		t.Fatalf("records = %+v", recs)
	}
}

func TestUpdateStatusEndpoint(t *testing.T) {
	app, token := seeded(t)
	w := app.Do(testutil.MakeRequest(http.MethodPost, "/api/attendance",
		map[string]string{"student_number": "1002", "token": token}, nil))
	var rb recordBody
	testutil.AssertJSON(t, w, &rb)

	tests := []struct {
		name, id, status string
		want             int
	}{
		{"invalid status", rb.ID, "Bolos", http.StatusBadRequest},
		{"missing status", rb.ID, "", http.StatusBadRequest},
		{"unknown id", "nope", "Izin", http.StatusNotFound},
		{"sick", rb.ID, "Sakit", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.Do(testutil.MakeRequest(http.MethodPatch, "/api/attendance/"+tt.id, map[string]string{"status": tt.status}, nil))
			testutil.AssertStatus(t, w, tt.want)
		})
	}

	w = app.Do(testutil.MakeRequest(http.MethodGet, "/api/attendance/by-date?date=2026-10-18", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var recs []recordBody
	testutil.AssertJSON(t, w, &recs)
	if len(recs) != 1 || recs[0].Status != "Sakit" {
		t.Fatalf("records = %+v", recs)
	}
}

func TestAttendanceQueries(t *testing.T) {
	app, token := seeded(t)
	app.Do(testutil.MakeRequest(http.MethodPost, "/api/attendance",
		map[string]string{"student_number": "1003", "token": token}, nil))

	tests := []struct {
		path  string
		want  int
		count int
	}{
		{"/api/attendance?filter=day", http.StatusOK, 1},
		{"/api/attendance?filter=minggu", http.StatusOK, 1},
		{"/api/attendance?filter=bulan", http.StatusOK, 1},
		{"/api/attendance?startDate=2026-10-01&endDate=2026-10-17", http.StatusOK, 0},
		{"/api/attendance?startDate=2026-10-18&endDate=2026-10-01", http.StatusBadRequest, -1},
		{"/api/attendance?filter=decade", http.StatusBadRequest, -1},
		{"/api/attendance/by-date", http.StatusBadRequest, -1},
		{"/api/attendance/by-date?date=yesterday", http.StatusBadRequest, -1},
		{"/api/attendance/unmarked", http.StatusOK, 2},
		{"/api/attendance/unmarked?date=2026-10-17", http.StatusOK, 3},
		{"/api/attendance/statistics?dates=2026-10-18,bad", http.StatusBadRequest, -1},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := app.Do(testutil.MakeRequest(http.MethodGet, tt.path, nil, nil))
			testutil.AssertStatus(t, w, tt.want)
			if tt.count < 0 {
				return
			}
			var items []map[string]any
			testutil.AssertJSON(t, w, &items)
			if len(items) != tt.count {
				t.Fatalf("items = %d, want %d", len(items), tt.count)
			}
		})
	}
}

func TestOperatorSessionGuard(t *testing.T) {
	app, _ := seeded(t, func(c *config.App) { c.RequireOperatorSession = true })

	add := map[string]string{"name": "Dewi", "student_number": "1004"}
	w := app.Do(testutil.MakeRequest(http.MethodPost, "/api/students", add, nil))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
	w = app.Do(testutil.MakeRequest(http.MethodGet, "/api/auth/token", nil, nil))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	session := login(t, app)
	bearer := map[string]string{"Authorization": "Bearer " + session.AccessToken}
	w = app.Do(testutil.MakeRequest(http.MethodPost, "/api/students", add, bearer))
	testutil.AssertStatus(t, w, http.StatusCreated)
	w = app.Do(testutil.MakeRequest(http.MethodGet, "/api/auth/token", nil, bearer))
	testutil.AssertStatus(t, w, http.StatusOK)

	// Students mark themselves without a session.
	w = app.Do(testutil.MakeRequest(http.MethodPost, "/api/attendance",
		map[string]string{"student_number": "1004", "token": session.Operator.Token}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)
}

func TestSystemEndpoints(t *testing.T) {
	app := testutil.NewApp(t, func(c *config.App) { c.PublicURL = "https://absensi.example.test" })

	w := app.Do(testutil.MakeRequest(http.MethodGet, "/health", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = app.Do(testutil.MakeRequest(http.MethodGet, "/api/tunnel-url", nil, nil))
	var tb struct {
		TunnelURL string `json:"tunnelUrl"`
	}
	testutil.AssertJSON(t, w, &tb)
	if tb.TunnelURL != "https://absensi.example.test" {
		t.Fatalf("tunnel url = %q", tb.TunnelURL)
	}

	app.SeedOperator(t, "bu_sari", "rahasia")
	login(t, app)
	w = app.Do(testutil.MakeRequest(http.MethodGet, "/metrics", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `absensi_operator_logins_total{result="ok"} 1`) {
		t.Fatalf("metrics missing login counter:\n%s", w.Body.String())
	}
}

func TestHealthzReportsChecks(t *testing.T) {
	app := testutil.NewApp(t)
	router := handler.NewRouter(handler.Deps{
		Auth:   app.Auth,
		Roster: app.Roster,
		Ledger: app.Ledger,
		Hub:    app.Hub,
		Config: app.Config,
		Checks: map[string]handler.HealthCheck{
			"db":    func(context.Context) bool { return true },
			"redis": func(context.Context) bool { return false },
		},
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.MakeRequest(http.MethodGet, "/healthz", nil, nil))
	testutil.AssertStatus(t, w, http.StatusServiceUnavailable)
	var body map[string]any
	testutil.AssertJSON(t, w, &body)
	if body["db"] != true || body["redis"] != false {
		t.Fatalf("healthz = %v", body)
	}
}

func TestEventsStream(t *testing.T) {
	app, token := seeded(t)
	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type = %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	waitFor := func(event string) string {
		t.Helper()
		for lines.Scan() {
			if lines.Text() != "event:"+event {
				continue
			}
			lines.Scan()
			return strings.TrimPrefix(lines.Text(), "data:")
		}
		t.Fatalf("stream ended before %q: %v", event, lines.Err())
		return ""
	}

	waitFor("ready")

	w := app.Do(testutil.MakeRequest(http.MethodPost, "/api/attendance",
		map[string]string{"student_number": "1001", "token": token}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)

	data := waitFor("attendance-added")
	if !strings.Contains(data, `"student_number":"1001"`) {
		t.Fatalf("event data = %s", data)
	}
}
