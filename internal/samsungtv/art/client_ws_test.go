package art

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-frameart/internal/samsungtv"
)

// frameTV serves the art channel: connect, ready, then answers art
// requests from a fixed state.
func frameTV(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/"+samsungtv.ArtAppName) {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close() //nolint:errcheck // test server

		write := func(v any) {
			b, _ := json.Marshal(v)
			_ = conn.WriteMessage(websocket.TextMessage, b)
		}
		write(map[string]any{"event": samsungtv.EventChannelConnect, "data": map[string]any{"token": "ART-TOKEN"}})
		write(map[string]any{"event": samsungtv.EventChannelReady})

		state := map[string]any{
			RequestGetArtMode:          "on",
			RequestGetBrightness:       "4",
			RequestGetColorTemperature: "1",
		}

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg struct {
				Params struct {
					Data string `json:"data"`
				} `json:"params"`
			}
			if json.Unmarshal(data, &msg) != nil {
				continue
			}
			var req map[string]any
			if json.Unmarshal([]byte(msg.Params.Data), &req) != nil {
				continue
			}
			name, _ := req["request"].(string)
			if name == RequestSetArtMode {
				state[RequestGetArtMode] = req["value"]
				inner, _ := json.Marshal(map[string]any{"event": SubEventArtModeChanged, "status": req["value"]})
				write(map[string]any{"event": samsungtv.EventD2DServiceMessage, "data": string(inner)})
				continue
			}
			inner, _ := json.Marshal(map[string]any{
				"event":      strings.TrimPrefix(name, "get_"),
				"request_id": req["request_id"],
				"id":         req["id"],
				"value":      state[name],
			})
			write(map[string]any{"event": samsungtv.EventD2DServiceMessage, "data": string(inner)})
		}
	}))
}

func TestClient_OverWebSocket(t *testing.T) {
	srv := frameTV(t)
	defer srv.Close()

	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "https://"))
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	port, _ := strconv.Atoi(portStr)

	store := samsungtv.NewMemoryTokenStore("")
	conn := samsungtv.NewConnection(samsungtv.Endpoint{
		Host:         host,
		Port:         port,
		Secure:       true,
		Name:         "FrameArt",
		AppName:      samsungtv.ArtAppName,
		Timeout:      2 * time.Second,
		CommandDelay: 5 * time.Millisecond,
		WaitForReady: true,
	}, store)

	changed := make(chan Event, 1)
	client := New(conn, Options{
		RequestTimeout: 2 * time.Second,
		OnEvent:        func(e Event) { changed <- e },
	})
	defer client.Close() //nolint:errcheck // test cleanup

	ctx := context.Background()
	if err := client.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !client.IsAlive() {
		t.Fatal("IsAlive() = false after Start()")
	}
	if tok, _ := store.Load(ctx); tok != "ART-TOKEN" {
		t.Errorf("token = %q, want ART-TOKEN", tok)
	}

	if on, ok := client.GetArtMode(ctx); !ok || !on {
		t.Errorf("GetArtMode() = %v, %v, want true, true", on, ok)
	}
	if b, ok := client.GetBrightness(ctx); !ok || b != 40 {
		t.Errorf("GetBrightness() = %d, %v, want 40, true", b, ok)
	}
	if ct, ok := client.GetColorTemperature(ctx); !ok || ct != 1 {
		t.Errorf("GetColorTemperature() = %d, %v, want 1, true", ct, ok)
	}

	if !client.SetArtMode(ctx, false) {
		t.Fatal("SetArtMode(false) = false")
	}
	select {
	case e := <-changed:
		if e.Name != SubEventArtModeChanged || e.Data["status"] != "off" {
			t.Errorf("event = %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no art_mode_changed event")
	}
	if on, ok := client.GetArtMode(ctx); !ok || on {
		t.Errorf("GetArtMode() after off = %v, %v, want false, true", on, ok)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if client.IsAlive() {
		t.Error("IsAlive() = true after Close()")
	}
}
