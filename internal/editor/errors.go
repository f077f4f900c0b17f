package editor

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownEquipment   = errors.New("unknown equipment")
	ErrControllerNotFound = errors.New("controller parameters not found")
)

// ValidationError rejects an hours value before any network call.
type ValidationError struct {
	Input string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid hours %q: %v", e.Input, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ConnectionError reports a controller that could not be reached.
type ConnectionError struct {
	Controller string
	Address    string
	Err        error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("could not connect to PLC %s (%s)", e.Controller, e.Address)
	}
	return fmt.Sprintf("could not connect to PLC %s (%s): %v", e.Controller, e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError reports a failed read or write on an open connection.
type ProtocolError struct {
	Op      string
	Address string
	Err     error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Address, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }
