package signal

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

func (g *Gateway) handleJoin(c *WsSignalConn, data json.RawMessage) {
	nickname, err := stringData(data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("id", string(c.id)).Msg("bad join payload")
		g.sendError(c, "bad_payload")
		return
	}
	log.Info().Str("module", "signal").Str("id", string(c.id)).Str("nickname", nickname).Msg("join")
	if err := g.Room.Join(c, nickname); err != nil {
		log.Info().Err(err).Str("module", "signal").Str("id", string(c.id)).Msg("join rejected")
	}
}

func (g *Gateway) handleMessage(c *WsSignalConn, data json.RawMessage) {
	text, err := stringData(data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("id", string(c.id)).Msg("bad message payload")
		g.sendError(c, "bad_payload")
		return
	}
	if !g.Limiter.Allow(c.id) {
		log.Warn().Str("module", "signal").Str("id", string(c.id)).Msg("message rate limited")
		g.sendError(c, "rate_limited")
		return
	}
	if err := g.Room.Message(c, text); errors.Is(err, domain.ErrNotMember) {
		log.Warn().Str("module", "signal").Str("id", string(c.id)).Msg("message before join")
	}
}

// handleLeave leaves the room; the connection stays open until the client drops it.
func (g *Gateway) handleLeave(c *WsSignalConn) {
	log.Info().Str("module", "signal").Str("id", string(c.id)).Msg("leave")
	g.Room.Leave(c.id)
}
