package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast-server/internal/auth"
	"github.com/roomcast/roomcast-server/internal/config"
	"github.com/roomcast/roomcast-server/internal/core"
	"github.com/roomcast/roomcast-server/internal/proto"
	"github.com/roomcast/roomcast-server/internal/store/sqlite"
	"github.com/roomcast/roomcast-server/internal/upload"
)

// outboundEnvelope mirrors proto.Outbound with the payload kept raw so
// tests can decode it per type.
type outboundEnvelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error,omitempty"`
}

func newTestAuthService(t *testing.T) *auth.Service {
	t.Helper()

	st, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "roomcast",
		Audience: "roomcast-clients",
		TTL:      time.Hour,
	})
}

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()

	authService := newTestAuthService(t)

	uploads, err := upload.NewService(t.TempDir(), 1<<20, &logger)
	if err != nil {
		t.Fatalf("create upload service: %v", err)
	}

	hub := core.NewHub(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second

	server := NewServer(hub, authService, uploads, cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts
}

// readUntil reads envelopes until one of wantType arrives, failing the
// test if the connection yields anything unreadable first.
func readUntil(ctx context.Context, t *testing.T, conn *websocket.Conn, wantType string) outboundEnvelope {
	t.Helper()

	for {
		var envelope outboundEnvelope
		if err := wsjson.Read(ctx, conn, &envelope); err != nil {
			t.Fatalf("read waiting for %q: %v", wantType, err)
		}
		if envelope.Type == wantType {
			return envelope
		}
	}
}

func sendInbound(ctx context.Context, t *testing.T, conn *websocket.Conn, msgType string, data any) {
	t.Helper()

	var raw json.RawMessage
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("marshal %s payload: %v", msgType, err)
		}
		raw = payload
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: raw}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}
