package domain

import (
	"fmt"
	"time"
)

// Inbound event names.
const (
	EventJoin    = "join"
	EventLeave   = "leave"
	EventMessage = "message"
	EventPing    = "ping"
	EventWhoAmI  = "whoami"
)

// Outbound event names.
const (
	EventJoinSuccess = "joinSuccess"
	EventJoinFail    = "joinFail"
	EventKick        = "kick"
	EventPong        = "pong"
	EventError       = "error"
)

// Reasons carried by joinFail and kick.
const (
	ReasonNicknameTaken   = "nickname taken"
	ReasonInvalidNickname = "invalid nickname"
	ReasonInactivity      = "inactivity"
	ReasonUnauthorized    = "unauthorized"
)

type JoinResponse struct {
	Nickname string `json:"nickname"`
}

// ChatMessage is the payload of every outbound "message" event.
// Announcements carry no nickname.
type ChatMessage struct {
	Nickname       string `json:"nickname,omitempty"`
	Text           string `json:"text"`
	Timestamp      int64  `json:"timestamp"`
	IsAnnouncement bool   `json:"isAnnouncement"`
}

func NewChatMessage(nickname, text string, at time.Time) ChatMessage {
	return ChatMessage{Nickname: nickname, Text: text, Timestamp: at.UnixMilli()}
}

func NewAnnouncement(text string, at time.Time) ChatMessage {
	return ChatMessage{Text: text, Timestamp: at.UnixMilli(), IsAnnouncement: true}
}

func JoinedText(nickname string) string {
	return fmt.Sprintf("%s joined the chat", nickname)
}

func LeftText(nickname string) string {
	return fmt.Sprintf("%s left the chat, connection lost", nickname)
}

func KickedText(nickname string) string {
	return fmt.Sprintf("%s was disconnected due to inactivity", nickname)
}
