package app

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const DefaultKickSilent = 5 * time.Minute

type Options struct {
	// KickSilent is how long a member may stay silent before being kicked.
	KickSilent time.Duration
	Scheduler  core.Scheduler
	Nicknames  NicknamePolicy
	Policy     Policy
	Now        func() time.Time
}

func (o *Options) withDefaults() {
	if o.KickSilent <= 0 {
		o.KickSilent = DefaultKickSilent
	}
	if o.Scheduler == nil {
		o.Scheduler = core.RealScheduler()
	}
	if o.Nicknames == nil {
		o.Nicknames = AnyNickname{}
	}
	if o.Policy == nil {
		o.Policy = SimplePolicy{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

type roomMember struct {
	meta  *domain.Member
	conn  core.Connection
	timer core.Timer
	// gen identifies the live timer; a firing with another gen is stale.
	gen uint64
}

// RoomManager owns the chat room state. Every mutation runs on the
// goroutine started by Start, so the maps below need no locking.
type RoomManager struct {
	opts Options

	members map[domain.ConnectionID]*roomMember
	// retired holds connections that left or were kicked but are still open.
	// They may not join again; Disconnect forgets them.
	retired map[domain.ConnectionID]struct{}

	cmds chan envelope
	quit chan struct{}
	done chan struct{}

	lifeMu  sync.Mutex
	started bool
	stopped bool
}

var _ core.ChatRoom = (*RoomManager)(nil)

func NewRoomManager(opts Options) *RoomManager {
	opts.withDefaults()
	return &RoomManager{
		opts:    opts,
		members: make(map[domain.ConnectionID]*roomMember),
		retired: make(map[domain.ConnectionID]struct{}),
		cmds:    make(chan envelope),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the event loop. Operations block until it runs.
func (m *RoomManager) Start() {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()
	if m.started || m.stopped {
		return
	}
	m.started = true
	go m.run()
	log.Info().Str("module", "app.room").Dur("kick_silent", m.opts.KickSilent).Msg("room started")
}

// Stop cancels every timer, closes every member connection and clears the
// room without announcing anything. Later operations are no-ops.
func (m *RoomManager) Stop() {
	m.lifeMu.Lock()
	if m.stopped {
		m.lifeMu.Unlock()
		<-m.done
		return
	}
	m.stopped = true
	started := m.started
	m.lifeMu.Unlock()

	if !started {
		close(m.done)
		return
	}
	close(m.quit)
	<-m.done
}

func (m *RoomManager) run() {
	defer close(m.done)
	for {
		select {
		case <-m.quit:
			m.shutdown()
			return
		case env := <-m.cmds:
			env.reply <- env.cmd.apply(m)
		}
	}
}

func (m *RoomManager) shutdown() {
	n := len(m.members)
	for id, rm := range m.members {
		rm.timer.Stop()
		rm.conn.Close()
		delete(m.members, id)
	}
	clear(m.retired)
	log.Info().Str("module", "app.room").Int("closed", n).Msg("room stopped")
}

// submit hands cmd to the loop and waits for its result.
// Once the room is stopped every command is dropped and reports nil.
func (m *RoomManager) submit(cmd command) error {
	env := envelope{cmd: cmd, reply: make(chan error, 1)}
	select {
	case m.cmds <- env:
	case <-m.done:
		log.Debug().Str("module", "app.room").Str("cmd", cmd.name()).Msg("room stopped, command dropped")
		return nil
	}
	select {
	case err := <-env.reply:
		return err
	case <-m.done:
		return nil
	}
}

func (m *RoomManager) Join(conn core.Connection, nickname string) error {
	return m.submit(joinCmd{conn: conn, nickname: nickname})
}

func (m *RoomManager) Message(conn core.Connection, text string) error {
	return m.submit(messageCmd{conn: conn, text: text})
}

func (m *RoomManager) Leave(id domain.ConnectionID) {
	_ = m.submit(leaveCmd{id: id})
}

func (m *RoomManager) Disconnect(id domain.ConnectionID) {
	_ = m.submit(disconnectCmd{id: id})
}

func (m *RoomManager) Nickname(id domain.ConnectionID) (string, bool) {
	q := &nicknameQuery{id: id}
	_ = m.submit(q)
	return q.nickname, q.ok
}

func (m *RoomManager) MemberCount() int {
	q := &snapshotQuery{}
	_ = m.submit(q)
	return len(q.out)
}

func (m *RoomManager) MembersSnapshot() []core.MemberDTO {
	q := &snapshotQuery{}
	_ = m.submit(q)
	if q.out == nil {
		return []core.MemberDTO{}
	}
	return q.out
}

// The helpers below run on the loop goroutine only.

func (m *RoomManager) hasNickname(nickname string) bool {
	for _, rm := range m.members {
		if rm.meta.Nickname == nickname {
			return true
		}
	}
	return false
}

func (m *RoomManager) scheduleTimeout(rm *roomMember) {
	if rm.timer != nil {
		rm.timer.Stop()
	}
	rm.gen++
	id, gen := rm.meta.ID, rm.gen
	rm.timer = m.opts.Scheduler.AfterFunc(m.opts.KickSilent, func() {
		_ = m.submit(timeoutCmd{id: id, gen: gen})
	})
}

// remove cancels the member timer and drops it from the registry.
func (m *RoomManager) remove(rm *roomMember) {
	rm.timer.Stop()
	delete(m.members, rm.meta.ID)
}

func (m *RoomManager) unicast(conn core.Connection, event string, payload any) {
	if err := conn.Emit(event, payload); err != nil {
		m.onEmitError(conn, event, err)
	}
}

func (m *RoomManager) broadcast(msg domain.ChatMessage) {
	sent := 0
	for _, rm := range m.members {
		if err := rm.conn.Emit(domain.EventMessage, msg); err != nil {
			m.onEmitError(rm.conn, domain.EventMessage, err)
			continue
		}
		sent++
	}
	log.Debug().Str("module", "app.room").Str("text", msg.Text).Bool("announcement", msg.IsAnnouncement).Int("sent_to", sent).Msg("broadcast")
}

func (m *RoomManager) onEmitError(conn core.Connection, event string, err error) {
	action := m.opts.Policy.OnBackPressure(conn, err)
	log.Warn().Err(err).Str("module", "app.room").Str("id", string(conn.ID())).Str("event", event).Int("action", int(action)).Msg("emit failed")
	if action == CloseConnection {
		conn.Close()
	}
}

func (m *RoomManager) snapshot() []core.MemberDTO {
	out := lo.MapToSlice(m.members, func(id domain.ConnectionID, rm *roomMember) core.MemberDTO {
		return core.MemberDTO{ID: id, Nickname: rm.meta.Nickname}
	})
	slices.SortFunc(out, func(a, b core.MemberDTO) int {
		return strings.Compare(a.Nickname, b.Nickname)
	})
	return out
}
