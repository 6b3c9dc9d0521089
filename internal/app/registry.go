package app

import (
	"context"
	"sync"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	Conn   core.Connection
	Client string
	Cancel context.CancelFunc
}

// Registry tracks every live transport connection, joined or not.
// The room only knows members; shutdown needs all of them.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnectionID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[domain.ConnectionID]*connEntry),
	}
}

func (r *Registry) Bind(conn core.Connection, client string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID()] = &connEntry{Conn: conn, Client: client, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("id", string(conn.ID())).Str("client", client).Int("conns", len(r.conns)).Msg("bound connection")
}

func (r *Registry) Unbind(id domain.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		return
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("id", string(id)).Int("conns", len(r.conns)).Msg("unbound connection")
}

func (r *Registry) Get(id domain.ConnectionID) (core.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.Conn, true
	}
	return nil, false
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CloseAll cancels and closes every connection and empties the registry.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	entries := make([]*connEntry, 0, len(r.conns))
	for id, e := range r.conns {
		entries = append(entries, e)
		delete(r.conns, id)
	}
	r.mu.Unlock()

	for _, e := range entries {
		if e.Cancel != nil {
			e.Cancel()
		}
		e.Conn.Close()
	}
	log.Info().Str("module", "app.registry").Int("closed", len(entries)).Msg("closed all connections")
	return len(entries)
}
