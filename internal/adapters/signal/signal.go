package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const sendBuffer = 32

// Shutdowner is the HTTP listener the gateway closes last.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

type Settings struct {
	ReadLimit    int64
	PingPeriod   time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
	RateLimit    int
	RateInterval time.Duration
}

func (s *Settings) withDefaults() {
	if s.ReadLimit <= 0 {
		s.ReadLimit = 4096
	}
	if s.PingPeriod <= 0 {
		s.PingPeriod = 54 * time.Second
	}
	if s.PongWait <= 0 {
		s.PongWait = s.PingPeriod * 10 / 9
	}
	if s.WriteWait <= 0 {
		s.WriteWait = 5 * time.Second
	}
	if s.RateLimit <= 0 {
		s.RateLimit = 10
	}
	if s.RateInterval <= 0 {
		s.RateInterval = time.Second
	}
}

// Gateway binds WebSocket connections to the chat room. It has no business
// logic: every inbound event becomes one room call.
type Gateway struct {
	Room     core.ChatRoom
	Registry *app.Registry
	Limiter  *RoomRateLimiter
	Server   Shutdowner

	settings Settings
	stopping atomic.Bool
}

func NewGateway(room core.ChatRoom, reg *app.Registry, settings Settings) *Gateway {
	settings.withDefaults()
	return &Gateway{
		Room:     room,
		Registry: reg,
		Limiter:  NewRoomRateLimiter(settings.RateLimit, settings.RateInterval),
		settings: settings,
	}
}

type frame struct {
	data []byte
	// closeAfter ends the connection once the frame is written.
	closeAfter bool
}

type outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// WsSignalConn is the WebSocket endpoint of one participant.
// It implements core.Connection.
type WsSignalConn struct {
	id   domain.ConnectionID
	conn *websocket.Conn
	send chan frame

	mu     sync.RWMutex
	closed bool
}

var _ core.Connection = (*WsSignalConn)(nil)

func (c *WsSignalConn) ID() domain.ConnectionID { return c.id }

// Emit never blocks; a full buffer reports domain.ErrBackpressure.
// A kick is the last frame the connection gets.
func (c *WsSignalConn) Emit(event string, payload any) error {
	b, err := json.Marshal(outbound{Type: event, Data: payload})
	if err != nil {
		return err
	}
	return c.trySend(frame{data: b, closeAfter: event == domain.EventKick})
}

func (c *WsSignalConn) trySend(f frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return domain.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return domain.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (g *Gateway) HandleSignal(ctx context.Context, c *gin.Context) {
	if g.stopping.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "shutting down"})
		return
	}
	client := c.GetString("client_token")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		id:   domain.ConnectionID(uuid.NewString()),
		conn: ws,
		send: make(chan frame, sendBuffer),
	}
	log.Info().Str("module", "signal").Str("id", string(conn.id)).Str("client", client).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	g.Registry.Bind(conn, client, cancel)
	if g.stopping.Load() {
		// lost the race with Stop
		g.Registry.Unbind(conn.id)
		cancel()
		conn.Close()
		return
	}

	go g.writePump(ctx, conn)
	go g.readPump(ctx, conn)
}

// Stop stops the room, closes every remaining connection and then the listener.
func (g *Gateway) Stop(ctx context.Context) error {
	if !g.stopping.CompareAndSwap(false, true) {
		return nil
	}
	g.Room.Stop()
	closed := g.Registry.CloseAll()
	log.Info().Str("module", "signal").Int("closed", closed).Msg("gateway stopped")
	if g.Server == nil {
		return nil
	}
	return g.Server.Shutdown(ctx)
}
