package core

import (
	"github.com/dkeye/Chat/internal/domain"
)

//go:generate mockgen -destination=../mocks/mock_connection.go -package=mocks github.com/dkeye/Chat/internal/core Connection

// Connection abstracts the messaging transport of one participant.
// Owned by the adapter; the room manager may only Emit and Close.
type Connection interface {
	ID() domain.ConnectionID
	// Emit queues one named event for delivery. It must never block.
	Emit(event string, payload any) error
	// Close forcibly terminates the underlying transport. Safe to call twice.
	Close()
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID       domain.ConnectionID `json:"id"`
	Nickname string              `json:"nickname"`
}

// RoomInfo is what the REST surface reports about the room.
type RoomInfo struct {
	Members []MemberDTO `json:"members"`
	Count   int         `json:"count"`
}

// ChatRoom is the gateway-facing API of the room manager.
// It owns the membership set; it only touches a transport through Emit and Close.
type ChatRoom interface {
	Join(conn Connection, nickname string) error
	Message(conn Connection, text string) error
	Leave(id domain.ConnectionID)
	Disconnect(id domain.ConnectionID)
	Stop()

	Nickname(id domain.ConnectionID) (string, bool)
	MemberCount() int
	MembersSnapshot() []MemberDTO
}
