package signal

import "github.com/dkeye/Chat/internal/domain"

type whoAmI struct {
	Nickname string `json:"nickname,omitempty"`
	Joined   bool   `json:"joined"`
}

func (g *Gateway) handleWhoAmI(c *WsSignalConn) {
	nickname, ok := g.Room.Nickname(c.id)
	g.send(c, domain.EventWhoAmI, whoAmI{Nickname: nickname, Joined: ok})
}
