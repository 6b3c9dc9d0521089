package signal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var errBadPayload = errors.New("bad payload")

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func (g *Gateway) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(g.settings.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("id", string(c.id)).Msg("writePump ctx done")
			return
		case f, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("id", string(c.id)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(g.settings.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				c.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, f.data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("id", string(c.id)).Msg("writePump write error")
				c.Close()
				return
			}
			if f.closeAfter {
				msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "kicked")
				_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(g.settings.WriteWait))
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(g.settings.WriteWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("id", string(c.id)).Msg("writePump ping error")
				c.Close()
				return
			}
		}
	}
}

// readPump owns the connection lifetime: when it returns the room hears
// about the disconnect and the connection is forgotten.
func (g *Gateway) readPump(ctx context.Context, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("id", string(c.id)).Msg("readPump closing")
		g.Room.Disconnect(c.id)
		g.Registry.Unbind(c.id)
		g.Limiter.Forget(c.id)
		c.Close()
	}()

	c.conn.SetReadLimit(g.settings.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(g.settings.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(g.settings.PongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("id", string(c.id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
					log.Error().Err(err).Str("module", "signal").Str("id", string(c.id)).Msg("readPump read error")
				} else {
					log.Debug().Err(err).Str("module", "signal").Str("id", string(c.id)).Msg("readPump closed")
				}
				return
			}
			_ = c.conn.SetReadDeadline(time.Now().Add(g.settings.PongWait))
			g.handleSignal(c, data)
		}
	}
}

func (g *Gateway) handleSignal(c *WsSignalConn, data []byte) {
	var env inbound
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("id", string(c.id)).Msg("bad json")
		g.sendError(c, "bad_payload")
		return
	}

	switch env.Type {
	case domain.EventJoin:
		g.handleJoin(c, env.Data)
	case domain.EventMessage:
		g.handleMessage(c, env.Data)
	case domain.EventLeave:
		g.handleLeave(c)
	case domain.EventPing:
		g.handlePing(c)
	case domain.EventWhoAmI:
		g.handleWhoAmI(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		g.sendError(c, "bad_payload")
	}
}

// stringData accepts a JSON string, number or boolean; scalars other than
// strings are taken verbatim. Missing data reads as "".
func stringData(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", errBadPayload
		}
		return s, nil
	case '{', '[':
		return "", errBadPayload
	default:
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return "", errBadPayload
		}
		return string(raw), nil
	}
}

func (g *Gateway) send(c *WsSignalConn, event string, payload any) {
	if err := c.Emit(event, payload); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("id", string(c.id)).Str("event", event).Msg("send failed")
	}
}

func (g *Gateway) sendError(c *WsSignalConn, reason string) {
	g.send(c, domain.EventError, reason)
}
