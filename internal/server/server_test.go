package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/oisee/emergent-adventure/internal/config"
	"github.com/oisee/emergent-adventure/internal/world"
)

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	srv := New(cfg, world.NewGenerator(), nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestWorldsWithoutArchive(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/worlds")
	if err != nil {
		t.Fatalf("GET /api/worlds failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when archive is disabled", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	hash, err := HashToken("secret-token")
	if err != nil {
		t.Fatalf("HashToken() failed: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.Server.APITokenHash = hash
	_, ts := newTestServer(t, cfg)

	// No token.
	resp, err := http.Get(ts.URL + "/api/worlds")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status without token = %d, want 401", resp.StatusCode)
	}

	// Wrong token.
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/worlds", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status with wrong token = %d, want 401", resp.StatusCode)
	}

	// Correct token; archive is nil so 404 proves auth passed.
	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/api/worlds", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status with good token = %d, want 404", resp.StatusCode)
	}
}

func dialGenerate(t *testing.T, ts *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/generate"
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

func TestGenerateStreamsWorld(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.WebSocket.AllowedOrigins = []string{"*"}
	_, ts := newTestServer(t, cfg)

	conn, _, err := dialGenerate(t, ts, "")
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	req := GenerateRequest{Seed: 42, Width: 8, Height: 8, Genre: "standard", Goal: "VICTORY"}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("write request: %v", err)
	}

	for i := 0; i < 64; i++ {
		var event Event
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("read event: %v", err)
		}
		switch event.Type {
		case "attempt_failed":
			continue
		case "world":
			if event.World == nil {
				t.Fatal("world event carries no payload")
			}
			if event.World.Seed != 42 {
				t.Errorf("world seed = %d, want 42", event.World.Seed)
			}
			rows := strings.Split(strings.TrimRight(event.World.Map, "\n"), "\n")
			if len(rows) != 8 {
				t.Errorf("map has %d rows, want 8", len(rows))
			}
			return
		case "error":
			t.Fatalf("generation failed: %s", event.Error)
		default:
			t.Fatalf("unexpected event type %q", event.Type)
		}
	}
	t.Fatal("no terminal event received")
}

func TestGenerateRejectsBadGoal(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.WebSocket.AllowedOrigins = []string{"*"}
	_, ts := newTestServer(t, cfg)

	conn, _, err := dialGenerate(t, ts, "")
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(GenerateRequest{Seed: 1, Goal: "EPIPHANY"}); err != nil {
		t.Fatalf("write request: %v", err)
	}

	var event Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Type != "error" {
		t.Errorf("event type = %q, want error", event.Type)
	}
}

func TestGenerateRejectsDisallowedOrigin(t *testing.T) {
	// Default config enforces same-origin.
	_, ts := newTestServer(t, nil)

	_, resp, err := dialGenerate(t, ts, "http://evil.example")
	if err == nil {
		t.Fatal("dial succeeded for disallowed origin")
	}
	if resp != nil && resp.StatusCode == http.StatusSwitchingProtocols {
		t.Error("handshake completed for disallowed origin")
	}
}
