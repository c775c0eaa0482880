package activity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/edumeal/edumeal-api/internal/middleware"
	"github.com/edumeal/edumeal-api/internal/pkg/jwt"
)

func waitForConnections(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ConnectionCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d connections, got %d", n, hub.ConnectionCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestFeedDeliversRecordedEntries(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Shutdown()

	svc := NewService(&repoStub{}, hub)
	jwtSvc := jwt.NewService("secret", time.Minute)
	token, _ := jwtSvc.GenerateAccessToken("user-1", "", jwt.RoleScanner)

	r := chi.NewRouter()
	r.Mount("/api/activity", NewHandler(svc, hub, nil).Routes(middleware.Auth(jwtSvc)))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/activity/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitForConnections(t, hub, 1)

	svc.Record(context.Background(), TypeScan, ScanOutcome{TicketID: "T-1", Result: ScanSuccess}, "user-1")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var got Entry
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	scan, ok := got.Details.(ScanOutcome)
	if got.Type != TypeScan || !ok || scan.TicketID != "T-1" {
		t.Fatalf("unexpected entry %+v", got)
	}

	conn.Close()
	waitForConnections(t, hub, 0)
}

func TestFeedRequiresToken(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Shutdown()

	jwtSvc := jwt.NewService("secret", time.Minute)
	r := chi.NewRouter()
	r.Mount("/api/activity", NewHandler(NewService(&repoStub{}, hub), hub, nil).Routes(middleware.Auth(jwtSvc)))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/activity/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", resp)
	}
}

func TestListFiltersByType(t *testing.T) {
	repo := &repoStub{}
	svc := NewService(repo, nil)
	svc.Record(context.Background(), TypeScan, ScanOutcome{TicketID: "a"}, "")
	svc.Record(context.Background(), TypeWebhook, WebhookResult{Source: "quickbooks"}, "")
	svc.Record(context.Background(), TypeSync, SyncEvent{Integration: "zapier"}, "")

	h := NewHandler(svc, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/?type=webhook,sync", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var entries []Entry
	if err := json.Unmarshal(rr.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}
