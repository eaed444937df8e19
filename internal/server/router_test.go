package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"cubetimer/internal/record"
	"cubetimer/internal/server"
	"cubetimer/internal/storage/sqlite"
)

type recordEnvelope struct {
	Status  string        `json:"status"`
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Record  record.Record `json:"record"`
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSaveListAndDelete(t *testing.T) {
	engine, _ := setupTestEngine(t)

	first := saveTime(t, engine, "00:12:345")
	second := saveTime(t, engine, "00:10:001")
	if first.ID == second.ID {
		t.Fatal("expected distinct record ids")
	}

	status, raw := requestJSON(t, engine, http.MethodGet, "/times", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for times, got %d", status)
	}
	var times []string
	if err := json.Unmarshal(raw, &times); err != nil {
		t.Fatalf("unmarshal times: %v", err)
	}
	if len(times) != 2 || times[0] != "00:12:345" || times[1] != "00:10:001" {
		t.Fatalf("unexpected times: %v", times)
	}

	status, raw = requestJSON(t, engine, http.MethodPost, "/delete", map[string]string{"id": first.ID})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", status)
	}
	var deleted recordEnvelope
	if err := json.Unmarshal(raw, &deleted); err != nil {
		t.Fatalf("unmarshal delete response: %v", err)
	}
	if deleted.Status != "success" || deleted.Record.ID != first.ID {
		t.Fatalf("unexpected delete response: %+v", deleted)
	}

	// A second delete for the same record changes nothing.
	status, raw = requestJSON(t, engine, http.MethodPost, "/delete", map[string]string{"id": first.ID})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 on duplicate delete, got %d", status)
	}
	var notFound recordEnvelope
	if err := json.Unmarshal(raw, &notFound); err != nil {
		t.Fatalf("unmarshal not found response: %v", err)
	}
	if notFound.Status != "error" || notFound.Message != "Time not found" {
		t.Fatalf("unexpected not found response: %+v", notFound)
	}

	status, raw = requestJSON(t, engine, http.MethodGet, "/records", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for records, got %d", status)
	}
	var records []record.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		t.Fatalf("unmarshal records: %v", err)
	}
	if len(records) != 1 || records[0].ID != second.ID {
		t.Fatalf("expected only %s to remain, got %+v", second.ID, records)
	}
}

func TestDeleteByTimeRemovesOldestMatch(t *testing.T) {
	engine, _ := setupTestEngine(t)

	oldest := saveTime(t, engine, "00:05:000")
	newest := saveTime(t, engine, "00:05:000")

	status, raw := requestJSON(t, engine, http.MethodPost, "/delete", map[string]string{"time": "00:05:000"})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", status)
	}
	var deleted recordEnvelope
	if err := json.Unmarshal(raw, &deleted); err != nil {
		t.Fatalf("unmarshal delete response: %v", err)
	}
	if deleted.Record.ID != oldest.ID {
		t.Fatalf("expected oldest %s to be deleted, got %s", oldest.ID, deleted.Record.ID)
	}

	_, raw = requestJSON(t, engine, http.MethodGet, "/records", nil)
	var records []record.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		t.Fatalf("unmarshal records: %v", err)
	}
	if len(records) != 1 || records[0].ID != newest.ID {
		t.Fatalf("expected %s to remain, got %+v", newest.ID, records)
	}
}

func TestSaveValidation(t *testing.T) {
	engine, _ := setupTestEngine(t)

	status, raw := requestJSON(t, engine, http.MethodPost, "/save", map[string]string{"time": "  "})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty time, got %d", status)
	}
	var resp recordEnvelope
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != "error" || resp.Message != "No time provided" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	req := httptest.NewRequest(http.MethodPost, "/save", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid json, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "invalid_json") {
		t.Fatalf("expected invalid_json code, got %s", recorder.Body.String())
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/delete", map[string]string{})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for delete without key, got %d", status)
	}
}

func TestSaveRejectsControlCharacters(t *testing.T) {
	engine, _ := setupTestEngine(t)

	for _, tm := range []string{"00:01:000\n00:02:000", "00:03:000\tbogus", "00:04\x00:000"} {
		status, raw := requestJSON(t, engine, http.MethodPost, "/save", map[string]string{"time": tm})
		if status != http.StatusBadRequest {
			t.Fatalf("expected 400 for %q, got %d", tm, status)
		}
		var resp recordEnvelope
		if err := json.Unmarshal(raw, &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if resp.Status != "error" || resp.Code != "invalid_time" {
			t.Fatalf("unexpected response for %q: %+v", tm, resp)
		}
	}

	status, _ := requestJSON(t, engine, http.MethodPost, "/delete", map[string]string{"time": "00:01:000\n00:02:000"})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for delete with control characters, got %d", status)
	}

	_, raw := requestJSON(t, engine, http.MethodGet, "/records", nil)
	var records []record.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		t.Fatalf("unmarshal records: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected nothing stored, got %+v", records)
	}
}

func TestTimesEmptyIsArray(t *testing.T) {
	engine, _ := setupTestEngine(t)

	status, raw := requestJSON(t, engine, http.MethodGet, "/times", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Fatalf("expected empty array, got %s", raw)
	}
}

func TestIndexListsNewestFirst(t *testing.T) {
	engine, _ := setupTestEngine(t)
	saveTime(t, engine, "00:01:111")
	saveTime(t, engine, "00:02:222")

	status, raw := requestJSON(t, engine, http.MethodGet, "/", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for index, got %d", status)
	}
	body := string(raw)
	newer := strings.Index(body, "00:02:222")
	older := strings.Index(body, "00:01:111")
	if newer < 0 || older < 0 {
		t.Fatalf("expected both times in page, got %s", body)
	}
	if newer > older {
		t.Fatal("expected newest record to be rendered first")
	}
	if !strings.Contains(body, "chart.umd.min.js") {
		t.Fatal("expected the page to load Chart.js")
	}

	status, _ = requestJSON(t, engine, http.MethodGet, "/static/script.js", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for script, got %d", status)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	engine, _ := setupTestEngine(t)
	saveTime(t, engine, "00:03:000")

	status, _ := requestJSON(t, engine, http.MethodGet, "/health", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for health, got %d", status)
	}

	status, raw := requestJSON(t, engine, http.MethodGet, "/metrics", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for metrics, got %d", status)
	}
	if !strings.Contains(string(raw), "cubetimer_records_saved_total") {
		t.Fatal("expected saved counter in metrics output")
	}
}

func TestCORSPreflight(t *testing.T) {
	engine, _ := setupTestEngine(t)
	req := httptest.NewRequest(http.MethodOptions, "/save", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestEventsStreamSavedAndDeleted(t *testing.T) {
	engine, hub := setupTestEngine(t)
	srv := httptest.NewServer(engine)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/events", nil)
	if err != nil {
		t.Fatalf("dial events: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	waitForSubscribers(t, hub, 1)

	saved := saveTime(t, engine, "00:07:700")
	ev := readEvent(t, ctx, conn)
	if ev.Type != record.EventSaved || ev.Record.ID != saved.ID {
		t.Fatalf("unexpected saved event: %+v", ev)
	}

	requestJSON(t, engine, http.MethodPost, "/delete", map[string]string{"id": saved.ID})
	ev = readEvent(t, ctx, conn)
	if ev.Type != record.EventDeleted || ev.Record.ID != saved.ID {
		t.Fatalf("unexpected deleted event: %+v", ev)
	}
}

func TestHubDropsEventsForSlowSubscribers(t *testing.T) {
	hub := server.NewHub(zerolog.Nop())
	events, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	for i := 0; i < 100; i++ {
		hub.Publish(record.Event{Type: record.EventSaved})
	}

	count := 0
	for len(events) > 0 {
		<-events
		count++
	}
	if count == 0 || count >= 100 {
		t.Fatalf("expected buffered subset of events, got %d", count)
	}

	unsubscribe()
	if hub.Len() != 0 {
		t.Fatalf("expected no subscribers, got %d", hub.Len())
	}
}

func setupTestEngine(t *testing.T) (http.Handler, *server.Hub) {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), sqlite.DriverModernc)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	hub := server.NewHub(zerolog.Nop())
	return server.New(store, hub, zerolog.Nop(), []string{"http://localhost:5173"}), hub
}

func saveTime(t *testing.T, engine http.Handler, formatted string) record.Record {
	t.Helper()

	status, raw := requestJSON(t, engine, http.MethodPost, "/save", map[string]string{"time": formatted})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on save, got %d: %s", status, raw)
	}
	var resp recordEnvelope
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("unmarshal save response: %v", err)
	}
	if resp.Status != "success" || resp.Record.Time != formatted {
		t.Fatalf("unexpected save response: %+v", resp)
	}
	return resp.Record
}

func requestJSON(t *testing.T, engine http.Handler, method, path string, body interface{}) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}

func waitForSubscribers(t *testing.T, hub *server.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d subscribers", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn) record.Event {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var ev record.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	return ev
}
