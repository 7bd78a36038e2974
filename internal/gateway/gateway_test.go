package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/five82/archiver/internal/bridge"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubBackend struct {
	err      error
	lastGUID string
}

func (s *stubBackend) RecentChats(_ context.Context, search string) (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(`{"chats":[],"search":"` + search + `"}`), nil
}

func (s *stubBackend) Messages(_ context.Context, guid string) (json.RawMessage, error) {
	s.lastGUID = guid
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(`{"messages":[{"text":"hi"}]}`), nil
}

func (s *stubBackend) ArchiveChat(_ context.Context, guid, format string) (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(`{"status":"archived","format":"` + format + `"}`), nil
}

func newTestServer(t *testing.T, backend *stubBackend) (*Server, *bridge.Bridge) {
	t.Helper()
	b := bridge.New()
	if err := bridge.RegisterBackend(b, backend); err != nil {
		t.Fatalf("RegisterBackend returned error: %v", err)
	}
	return New(b), b
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestInvoke_StatusCodes(t *testing.T) {
	cases := []struct {
		name       string
		backendErr error
		path       string
		body       string
		wantCode   int
		wantBody   string
	}{
		{"get-chats no args", nil, "/ipc/invoke/get-chats", "", http.StatusOK, `{"chats":[],"search":""}`},
		{"get-chats search", nil, "/ipc/invoke/get-chats", `["mom"]`, http.StatusOK, `{"chats":[],"search":"mom"}`},
		{"archive", nil, "/ipc/invoke/archive-chat", `["c1","txt"]`, http.StatusOK, `{"status":"archived","format":"txt"}`},
		{"unknown channel", nil, "/ipc/invoke/rm-rf", `[]`, http.StatusForbidden, ""},
		{"event channel", nil, "/ipc/invoke/splash-progress", `[]`, http.StatusForbidden, ""},
		{"object body", nil, "/ipc/invoke/get-messages", `{"guid":"x"}`, http.StatusBadRequest, ""},
		{"missing guid", nil, "/ipc/invoke/get-messages", `[]`, http.StatusBadRequest, ""},
		{"backend down", errors.New("connection refused"), "/ipc/invoke/get-messages", `["c1"]`, http.StatusBadGateway, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestServer(t, &stubBackend{err: tc.backendErr})
			rec := do(t, s, http.MethodPost, tc.path, tc.body)
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.wantCode, rec.Body.String())
			}
			if tc.wantBody != "" && rec.Body.String() != tc.wantBody {
				t.Fatalf("body = %s, want %s", rec.Body.String(), tc.wantBody)
			}
			if tc.wantCode != http.StatusOK && !strings.Contains(rec.Body.String(), `"error"`) {
				t.Fatalf("error body = %s, want error field", rec.Body.String())
			}
			if rec.Header().Get(requestIDHeader) == "" {
				t.Fatalf("missing %s header", requestIDHeader)
			}
		})
	}
}

func TestInvoke_GUIDPassedThrough(t *testing.T) {
	backend := &stubBackend{}
	s, _ := newTestServer(t, backend)
	rec := do(t, s, http.MethodPost, "/ipc/invoke/get-messages", `["iMessage;-;+15551234567"]`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if backend.lastGUID != "iMessage;-;+15551234567" {
		t.Fatalf("backend guid = %q", backend.lastGUID)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("request id = %q, want abc-123", got)
	}
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{})
	rec := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status   string   `json:"status"`
		Channels []string `json:"channels"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || len(body.Channels) != 3 {
		t.Fatalf("health = %#v", body)
	}
}

func TestSend(t *testing.T) {
	s, b := newTestServer(t, &stubBackend{})
	got := make(chan string, 1)
	if err := b.OnMessage(bridge.ChannelToMain, func(p json.RawMessage) { got <- string(p) }); err != nil {
		t.Fatalf("OnMessage: %v", err)
	}

	rec := do(t, s, http.MethodPost, "/ipc/send/toMain", `{"action":"refresh"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	select {
	case payload := <-got:
		if payload != `{"action":"refresh"}` {
			t.Fatalf("payload = %s", payload)
		}
	default:
		t.Fatalf("listener not called")
	}

	if rec := do(t, s, http.MethodPost, "/ipc/send/fromMain", `1`); rec.Code != http.StatusForbidden {
		t.Fatalf("send on event channel status = %d, want 403", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/ipc/send/toMain", `{bad`); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid JSON status = %d, want 400", rec.Code)
	}
}

func TestEvents_RejectsUnknownChannel(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{})
	if rec := do(t, s, http.MethodGet, "/ipc/events/toMain", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestEvents_StreamsEmittedPayloads(t *testing.T) {
	s, b := newTestServer(t, &stubBackend{})
	server := httptest.NewServer(s.Handler())
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Keep emitting until the stream is observed; the subscription races the first emit.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = b.Emit(bridge.ChannelSplashProgress, map[string]any{"message": "Ready!", "percent": 100})
			}
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/ipc/events/splash-progress", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("Content-Type = %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	var sawEvent bool
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event:") && strings.Contains(line, "splash-progress") {
			sawEvent = true
		}
		if strings.HasPrefix(line, "data:") {
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data != `{"message":"Ready!","percent":100}` {
				t.Fatalf("data = %q", data)
			}
			if !sawEvent {
				t.Fatalf("data line without event name")
			}
			return
		}
	}
	t.Fatalf("stream ended without data: %v", scanner.Err())
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t, &stubBackend{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ListenAndServe returned %v, want nil", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("ListenAndServe did not return after cancel")
	}
}
