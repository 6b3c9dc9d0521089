package app

import (
	"fmt"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

// command is the closed set of things the room loop can do.
type command interface {
	name() string
	apply(m *RoomManager) error
}

type envelope struct {
	cmd   command
	reply chan error
}

type joinCmd struct {
	conn     core.Connection
	nickname string
}

func (joinCmd) name() string { return "join" }

func (c joinCmd) apply(m *RoomManager) error {
	id := c.conn.ID()
	if err := m.opts.Nicknames.Check(c.nickname); err != nil {
		m.unicast(c.conn, domain.EventJoinFail, domain.ReasonInvalidNickname)
		log.Info().Str("module", "app.room").Str("id", string(id)).Str("nickname", c.nickname).Msg("join rejected: invalid nickname")
		return fmt.Errorf("%w: %v", domain.ErrInvalidNickname, err)
	}
	if _, ok := m.members[id]; ok {
		m.unicast(c.conn, domain.EventJoinFail, domain.ReasonNicknameTaken)
		log.Info().Str("module", "app.room").Str("id", string(id)).Msg("join rejected: already joined")
		return domain.ErrAlreadyJoined
	}
	if _, ok := m.retired[id]; ok {
		m.unicast(c.conn, domain.EventJoinFail, domain.ReasonNicknameTaken)
		log.Info().Str("module", "app.room").Str("id", string(id)).Msg("join rejected: connection already left")
		return domain.ErrAlreadyJoined
	}
	if m.hasNickname(c.nickname) {
		m.unicast(c.conn, domain.EventJoinFail, domain.ReasonNicknameTaken)
		log.Info().Str("module", "app.room").Str("id", string(id)).Str("nickname", c.nickname).Msg("join rejected: nickname taken")
		return domain.ErrNicknameTaken
	}

	rm := &roomMember{meta: domain.NewMember(id, c.nickname), conn: c.conn}
	m.members[id] = rm
	m.scheduleTimeout(rm)
	log.Info().Str("module", "app.room").Str("id", string(id)).Str("nickname", c.nickname).Int("members", len(m.members)).Msg("member joined")

	m.unicast(c.conn, domain.EventJoinSuccess, domain.JoinResponse{Nickname: c.nickname})
	m.broadcast(domain.NewAnnouncement(domain.JoinedText(c.nickname), m.opts.Now()))
	return nil
}

type messageCmd struct {
	conn core.Connection
	text string
}

func (messageCmd) name() string { return "message" }

// Empty text still counts as activity: the timer is reset, nothing is broadcast.
func (c messageCmd) apply(m *RoomManager) error {
	rm, ok := m.members[c.conn.ID()]
	if !ok {
		m.unicast(c.conn, domain.EventKick, domain.ReasonUnauthorized)
		log.Info().Str("module", "app.room").Str("id", string(c.conn.ID())).Msg("message from non-member")
		return domain.ErrNotMember
	}
	m.scheduleTimeout(rm)
	if c.text == "" {
		return nil
	}
	m.broadcast(domain.NewChatMessage(rm.meta.Nickname, c.text, m.opts.Now()))
	return nil
}

type leaveCmd struct {
	id domain.ConnectionID
}

func (leaveCmd) name() string { return "leave" }

func (c leaveCmd) apply(m *RoomManager) error {
	if m.depart(c.id, "member left") {
		m.retired[c.id] = struct{}{}
	}
	return nil
}

type disconnectCmd struct {
	id domain.ConnectionID
}

func (disconnectCmd) name() string { return "disconnect" }

func (c disconnectCmd) apply(m *RoomManager) error {
	m.depart(c.id, "member disconnected")
	delete(m.retired, c.id)
	return nil
}

// depart removes the member before announcing, so it never hears its own departure.
func (m *RoomManager) depart(id domain.ConnectionID, msg string) bool {
	rm, ok := m.members[id]
	if !ok {
		return false
	}
	m.remove(rm)
	log.Info().Str("module", "app.room").Str("id", string(id)).Str("nickname", rm.meta.Nickname).Int("members", len(m.members)).Msg(msg)
	m.broadcast(domain.NewAnnouncement(domain.LeftText(rm.meta.Nickname), m.opts.Now()))
	return true
}

type timeoutCmd struct {
	id  domain.ConnectionID
	gen uint64
}

func (timeoutCmd) name() string { return "timeout" }

func (c timeoutCmd) apply(m *RoomManager) error {
	rm, ok := m.members[c.id]
	if !ok || rm.gen != c.gen {
		log.Debug().Str("module", "app.room").Str("id", string(c.id)).Msg("stale timeout ignored")
		return nil
	}
	m.broadcast(domain.NewAnnouncement(domain.KickedText(rm.meta.Nickname), m.opts.Now()))
	m.unicast(rm.conn, domain.EventKick, domain.ReasonInactivity)
	m.remove(rm)
	m.retired[c.id] = struct{}{}
	log.Info().Str("module", "app.room").Str("id", string(c.id)).Str("nickname", rm.meta.Nickname).Int("members", len(m.members)).Msg("member kicked for inactivity")
	return nil
}

type nicknameQuery struct {
	id       domain.ConnectionID
	nickname string
	ok       bool
}

func (*nicknameQuery) name() string { return "nickname" }

func (q *nicknameQuery) apply(m *RoomManager) error {
	if rm, ok := m.members[q.id]; ok {
		q.nickname, q.ok = rm.meta.Nickname, true
	}
	return nil
}

type snapshotQuery struct {
	out []core.MemberDTO
}

func (*snapshotQuery) name() string { return "snapshot" }

func (q *snapshotQuery) apply(m *RoomManager) error {
	q.out = m.snapshot()
	return nil
}
