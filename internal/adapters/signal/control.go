package signal

import "github.com/dkeye/Chat/internal/domain"

// handlePing is a transport keepalive; it does not count as room activity.
func (g *Gateway) handlePing(c *WsSignalConn) {
	g.send(c, domain.EventPong, nil)
}
