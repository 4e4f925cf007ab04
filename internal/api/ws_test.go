package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/miradorstack/mirador-clusterview/internal/models"
	"github.com/miradorstack/mirador-clusterview/internal/projection"
)

func readMessage(t *testing.T, conn *websocket.Conn) StreamMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg StreamMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestHubStreamsUpdates(t *testing.T) {
	st, _ := newRouter(t)
	builder := projection.NewBuilder(st, projection.DefaultPalette())
	hub := NewHub(nil, builder)
	router := NewRouter(nil, builder, st, WithStream(hub))

	srv := httptest.NewServer(router)
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	initial := readMessage(t, conn)
	if initial.Type != MessageInitial {
		t.Fatalf("expected initial message, got %q", initial.Type)
	}
	if initial.Data.Metrics.Raw.CPUUsage != 42 {
		t.Fatalf("expected seeded cpu 42, got %v", initial.Data.Metrics.Raw.CPUUsage)
	}
	if hub.Clients() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.Clients())
	}

	st.ApplySample(models.Sample{
		CPUDelta:    5,
		CPURange:    models.Range{Min: 5, Max: 95},
		MemoryRange: models.Range{Min: 10, Max: 90},
	})
	hub.OnTick(st.CurrentMetrics())

	update := readMessage(t, conn)
	if update.Type != MessageUpdate {
		t.Fatalf("expected update message, got %q", update.Type)
	}
	if update.Data.Metrics.Raw.CPUUsage != 47 {
		t.Fatalf("expected cpu 47 after tick, got %v", update.Data.Metrics.Raw.CPUUsage)
	}
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	st, _ := newRouter(t)
	hub := NewHub(nil, projection.NewBuilder(st, projection.DefaultPalette()))

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readMessage(t, conn)

	hub.Close()
	if hub.Clients() != 0 {
		t.Fatalf("expected no clients after close")
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal closure, got %v", err)
	}
}
