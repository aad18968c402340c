package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/tidwall/gjson"

	"raffle/internal/auth"
	"raffle/internal/draw"
	"raffle/internal/drawdates"
	"raffle/internal/ledger"
	"raffle/internal/models"
	"raffle/internal/raffle"
	"raffle/internal/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	l := logger.Init("handlers_test", false, false, io.Discard)
	code := m.Run()
	l.Close()
	os.Exit(code)
}

// newTestRouter wires a full stack over in-memory storage with compressed
// draw timings.
func newTestRouter(t *testing.T) (*gin.Engine, *ledger.Ledger, *draw.Engine) {
	t.Helper()

	st := store.NewMemStore()
	if err := st.Put(store.KeyWinners, []models.Winner{
		{Name: "Bea", Supervisor: "Sup", Department: "Dept", Week: 2, PrizeAmount: 300},
	}); err != nil {
		t.Fatal(err)
	}
	l, err := ledger.Open(st)
	if err != nil {
		t.Fatal(err)
	}

	engine := draw.New(draw.Timings{
		DrawDuration:        30 * time.Millisecond,
		CycleStartDelay:     time.Millisecond,
		CycleStepDelay:      time.Millisecond,
		CycleMaxDelay:       4 * time.Millisecond,
		CountdownInterval:   5 * time.Millisecond,
		CelebrationDuration: 10 * time.Millisecond,
		CelebrationInterval: 2 * time.Millisecond,
	})

	pools := map[int][]models.Contestant{
		1: {
			{Name: "A", Supervisor: "Sup", Department: "Dept"},
			{Name: "B", Supervisor: "Sup", Department: "Dept"},
			{Name: "C", Supervisor: "Sup", Department: "Dept"},
		},
		5: {},
	}

	dates := drawdates.New("", "")
	gate := auth.NewGate(st)
	service := raffle.NewService(pools, l, dates, engine, gate)

	r := gin.New()
	r.Use(CORSMiddleware())
	NewHTTPHandler(service, gate, dates).RegisterRoutes(r)
	return r, l, engine
}

func doJSON(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetState(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := doJSON(r, http.MethodGet, "/api/state", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !gjson.Get(body, "weeks").IsArray() {
		t.Errorf("Expected projected weeks in state, got %s", body)
	}
	if gjson.Get(body, "winners.#").Int() != 1 {
		t.Errorf("Expected one stored winner in state, got %s", body)
	}
}

func TestDrawLifecycleOverHTTP(t *testing.T) {
	r, l, engine := newTestRouter(t)
	engine.SetRand(func(n int) int { return 1 })

	w := doJSON(r, http.MethodPost, "/api/draw/1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 starting draw, got %d: %s", w.Code, w.Body.String())
	}
	session := gjson.Get(w.Body.String(), "session").String()
	if session == "" {
		t.Fatal("Expected a session id in the start response")
	}

	// A second start while one is running conflicts.
	if w := doJSON(r, http.MethodPost, "/api/draw/1", "", nil); w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for a concurrent draw, got %d", w.Code)
	}

	// Confirming before the deadline conflicts and commits nothing.
	if w := doJSON(r, http.MethodPost, "/api/sessions/"+session+"/confirm", "", nil); w.Code != http.StatusConflict {
		t.Errorf("Expected 409 confirming early, got %d", w.Code)
	}

	// Wait out the compressed draw window.
	deadline := time.Now().Add(2 * time.Second)
	var confirmed *httptest.ResponseRecorder
	for time.Now().Before(deadline) {
		confirmed = doJSON(r, http.MethodPost, "/api/sessions/"+session+"/confirm", "", nil)
		if confirmed.Code == http.StatusOK {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if confirmed == nil || confirmed.Code != http.StatusOK {
		t.Fatalf("Expected draw to confirm, last response: %+v", confirmed)
	}
	body := confirmed.Body.String()
	if gjson.Get(body, "name").String() != "B" || gjson.Get(body, "prizeAmount").Int() != 300 {
		t.Errorf("Unexpected winner payload: %s", body)
	}
	if _, ok := l.Winner(1); !ok {
		t.Error("Expected the ledger to hold the confirmed winner")
	}

	// The session is spent.
	if w := doJSON(r, http.MethodPost, "/api/sessions/"+session+"/confirm", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 confirming a spent session, got %d", w.Code)
	}
}

func TestStartDrawRejections(t *testing.T) {
	r, _, _ := newTestRouter(t)

	if w := doJSON(r, http.MethodPost, "/api/draw/abc", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a bad week, got %d", w.Code)
	}
	// Week 2 is completed, week 5 has an empty pool.
	if w := doJSON(r, http.MethodPost, "/api/draw/2", "", nil); w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for a completed week, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPost, "/api/draw/5", "", nil); w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for an empty pool, got %d", w.Code)
	}
}

func TestCancelDraw(t *testing.T) {
	r, l, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/draw/1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatal(w.Body.String())
	}
	session := gjson.Get(w.Body.String(), "session").String()

	if w := doJSON(r, http.MethodPost, "/api/sessions/"+session+"/cancel", "", nil); w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 cancelling, got %d", w.Code)
	}
	// Cancelling again stays quiet.
	if w := doJSON(r, http.MethodPost, "/api/sessions/"+session+"/cancel", "", nil); w.Code != http.StatusNoContent {
		t.Errorf("Expected idempotent cancel, got %d", w.Code)
	}
	if _, ok := l.Winner(1); ok {
		t.Error("Expected no winner after cancel")
	}
}

func TestDeleteWinner(t *testing.T) {
	r, l, _ := newTestRouter(t)

	w := doJSON(r, http.MethodDelete, "/api/winners/2", `{"password":"wrong"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for a wrong password, got %d", w.Code)
	}
	if _, ok := l.Winner(2); !ok {
		t.Fatal("Expected winner untouched after wrong password")
	}

	w = doJSON(r, http.MethodDelete, "/api/winners/2", `{"password":"`+auth.DefaultPassword+`"}`, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 deleting, got %d: %s", w.Code, w.Body.String())
	}
	if _, ok := l.Winner(2); ok {
		t.Error("Expected winner removed")
	}

	w = doJSON(r, http.MethodDelete, "/api/winners/2", `{"password":"`+auth.DefaultPassword+`"}`, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for a missing winner, got %d", w.Code)
	}
}

func TestAdminGate(t *testing.T) {
	r, _, _ := newTestRouter(t)

	if w := doJSON(r, http.MethodGet, "/api/admin/config", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a token, got %d", w.Code)
	}

	w := doJSON(r, http.MethodPost, "/api/auth/login", `{"password":"nope"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for a wrong password, got %d", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/api/auth/login", `{"password":"`+auth.DefaultPassword+`"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 logging in, got %d", w.Code)
	}
	token := gjson.Get(w.Body.String(), "token").String()

	headers := map[string]string{"Authorization": "Bearer " + token}
	w = doJSON(r, http.MethodGet, "/api/admin/config", "", headers)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 with a token, got %d", w.Code)
	}
	// No remote table configured: the panel gets a notice, not a failure.
	if gjson.Get(w.Body.String(), "notice").String() == "" {
		t.Errorf("Expected a fallback notice, got %s", w.Body.String())
	}

	// Updating a date without a remote table conflicts.
	w = doJSON(r, http.MethodPut, "/api/admin/config/4", `{"drawDate":"2025-12-10T18:00:00Z"}`, headers)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 without a remote table, got %d", w.Code)
	}
}
