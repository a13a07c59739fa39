package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/repo-auditor/repo-auditor/internal/rpc"
)

func TestHandlerStreamsEvents(t *testing.T) {
	handler := NewHandler(&AgentRunner{Agent: newScanAgent(t, scanRoot(t))}, nil)
	body := bytes.NewBufferString(`{"prompt":"scan it"}`)
	req := httptest.NewRequest(http.MethodPost, "/audit/run", body)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	resp := rr.Result()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("unexpected content type %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	var events []rpc.AuditEvent
	for scanner.Scan() {
		var evt rpc.AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
			t.Fatalf("invalid json event: %v", err)
		}
		events = append(events, evt)
	}

	if len(events) == 0 {
		t.Fatalf("expected events, got none")
	}
	if events[0].RunID == "" {
		t.Fatalf("expected generated run id")
	}
	if last := events[len(events)-1]; last.Type != rpc.EventDone {
		t.Fatalf("expected done event last, got %q", last.Type)
	}
}

func TestHandlerRejectsBadRequests(t *testing.T) {
	handler := NewHandler(&AgentRunner{Agent: newScanAgent(t, t.TempDir())}, nil)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/audit/run", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/audit/run", bytes.NewBufferString("{")))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/audit/run", bytes.NewBufferString(`{"prompt":""}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty prompt, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	NewHandler(nil, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/audit/run", bytes.NewBufferString(`{"prompt":"x"}`)))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without runner, got %d", rr.Code)
	}
}
