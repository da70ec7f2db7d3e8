package feed

import (
	"net/http"
	"time"

	"twitchbridge/internal/core/domain"
	"twitchbridge/internal/core/ports"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard origins vary per deployment
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Config controls connection keepalive behavior.
type Config struct {
	PingInterval time.Duration
	PongTimeout  time.Duration
	WriteTimeout time.Duration
}

// frame is the wire format pushed to dashboard clients.
type frame struct {
	Type  string                 `json:"type"`
	Event *domain.CanonicalEvent `json:"event,omitempty"`
}

// StreamServer pushes live canonical events to dashboard WebSocket clients.
// Each connection gets its own feed listener; a disconnect deregisters it.
type StreamServer struct {
	feed   ports.FeedService
	cfg    Config
	logger *zap.SugaredLogger
}

func NewStreamServer(feed ports.FeedService, cfg Config, logger *zap.SugaredLogger) *StreamServer {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 60 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &StreamServer{feed: feed, cfg: cfg, logger: logger}
}

// HandleStream upgrades the request and streams the tenant's events until the
// client disconnects. Authentication happens before this is called.
func (s *StreamServer) HandleStream(w http.ResponseWriter, r *http.Request, tenantID domain.TenantID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "tenant_id", tenantID, "error", err)
		return
	}
	defer conn.Close()

	listener := s.feed.Subscribe(tenantID)
	defer s.feed.Unsubscribe(listener)

	s.logger.Infow("feed listener connected", "tenant_id", tenantID, "listener_id", listener.ID)

	conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
		return nil
	})

	if err := s.write(conn, frame{Type: "connected"}); err != nil {
		s.logger.Infow("failed to send connection ack", "tenant_id", tenantID, "error", err)
		return
	}

	// Clients send nothing meaningful; the read pump only surfaces
	// disconnects and keeps pong handling alive.
	errorChan := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				errorChan <- err
				return
			}
		}
	}()

	pingTicker := time.NewTicker(s.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case event := <-listener.C:
			if err := s.write(conn, frame{Type: "event", Event: &event}); err != nil {
				s.logger.Infow("failed to push event, dropping listener",
					"tenant_id", tenantID, "listener_id", listener.ID, "error", err)
				return
			}

		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Infow("ping failed", "tenant_id", tenantID, "listener_id", listener.ID, "error", err)
				return
			}

		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Infow("feed connection error", "tenant_id", tenantID, "error", err)
			}
			s.logger.Infow("feed listener disconnected", "tenant_id", tenantID, "listener_id", listener.ID)
			return
		}
	}
}

func (s *StreamServer) write(conn *websocket.Conn, f frame) error {
	conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	return conn.WriteJSON(f)
}
