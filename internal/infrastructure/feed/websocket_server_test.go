package feed

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"twitchbridge/internal/core/domain"
	"twitchbridge/internal/core/ports"
	"twitchbridge/internal/core/services"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type wsFrame struct {
	Type  string                 `json:"type"`
	Event *domain.CanonicalEvent `json:"event"`
}

func streamTestServer(t *testing.T, tenantID domain.TenantID) (*httptest.Server, ports.FeedService) {
	t.Helper()

	logger := zaptest.NewLogger(t).Sugar()
	feedService := services.NewFeedService(services.FeedConfig{}, nil, logger)
	streamer := NewStreamServer(feedService, Config{}, logger)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		streamer.HandleStream(w, r, tenantID)
	}))
	t.Cleanup(srv.Close)
	return srv, feedService
}

func dialStream(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f wsFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestStreamServer_ConnectionAck(t *testing.T) {
	srv, _ := streamTestServer(t, "tenant-1")
	conn := dialStream(t, srv)

	f := readFrame(t, conn)
	assert.Equal(t, "connected", f.Type)
	assert.Nil(t, f.Event)
}

func TestStreamServer_PushesAppendedEvents(t *testing.T) {
	srv, feedService := streamTestServer(t, "tenant-1")
	conn := dialStream(t, srv)

	require.Equal(t, "connected", readFrame(t, conn).Type)

	feedService.Append("tenant-1", domain.CanonicalEvent{
		ID:          "evt-1",
		EventType:   domain.EventCheer,
		Timestamp:   time.Now().UTC(),
		Data:        map[string]interface{}{"bits": 100, "userName": "Gamer"},
		DisplayName: "Gamer",
	})

	f := readFrame(t, conn)
	assert.Equal(t, "event", f.Type)
	require.NotNil(t, f.Event)
	assert.Equal(t, "evt-1", f.Event.ID)
	assert.Equal(t, domain.EventCheer, f.Event.EventType)
	assert.Equal(t, "Gamer", f.Event.DisplayName)
}

func TestStreamServer_MultipleListeners(t *testing.T) {
	srv, feedService := streamTestServer(t, "tenant-1")

	connA := dialStream(t, srv)
	connB := dialStream(t, srv)
	require.Equal(t, "connected", readFrame(t, connA).Type)
	require.Equal(t, "connected", readFrame(t, connB).Type)

	feedService.Append("tenant-1", domain.CanonicalEvent{ID: "evt-1", EventType: domain.EventFollow})

	assert.Equal(t, "evt-1", readFrame(t, connA).Event.ID)
	assert.Equal(t, "evt-1", readFrame(t, connB).Event.ID)
}

func TestStreamServer_DisconnectDeregistersListener(t *testing.T) {
	srv, feedService := streamTestServer(t, "tenant-1")

	conn := dialStream(t, srv)
	require.Equal(t, "connected", readFrame(t, conn).Type)
	conn.Close()

	// Appending after disconnect must not block or panic even though the
	// listener teardown races with the append.
	deadline := time.After(2 * time.Second)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			feedService.Append("tenant-1", domain.CanonicalEvent{ID: "evt", EventType: domain.EventFollow})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-deadline:
		t.Fatal("append blocked after listener disconnect")
	}
}
