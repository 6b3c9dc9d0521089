package domain

// ConnectionID identifies one transport connection for its whole lifetime.
type ConnectionID string

// Member represents a participant that joined the room.
// No transport or lifecycle logic here.
type Member struct {
	ID       ConnectionID
	Nickname string
}

// NewMember avoids raw literals in the room manager and keeps construction obvious.
func NewMember(id ConnectionID, nickname string) *Member {
	return &Member{ID: id, Nickname: nickname}
}
