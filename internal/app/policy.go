package app

import "github.com/dkeye/Chat/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	CloseConnection
)

// Policy decides what happens to a connection whose Emit failed.
type Policy interface {
	OnBackPressure(conn core.Connection, err error) BackpressureAction
}

// SimplePolicy closes slow connections; the read pump then reports the disconnect.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.Connection, error) BackpressureAction {
	return CloseConnection
}

// TolerantPolicy drops the frame and keeps the connection.
type TolerantPolicy struct{}

func (TolerantPolicy) OnBackPressure(core.Connection, error) BackpressureAction {
	return NoAction
}
