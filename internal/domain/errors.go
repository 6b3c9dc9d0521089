// Package domain contains entities without logic, just meta-data
package domain

import "errors"

const MaxNicknameLen = 36

var (
	ErrNicknameTaken   = errors.New("nickname taken")
	ErrAlreadyJoined   = errors.New("connection already joined")
	ErrInvalidNickname = errors.New("invalid nickname")
	ErrNotMember       = errors.New("connection is not a member")

	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)
