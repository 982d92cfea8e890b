package app

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned when an operation needs a profile and Connect
// has not succeeded yet.
var ErrNotConnected = errors.New("not connected")

// ErrConnection represents a server connection error.
type ErrConnection struct {
	Profile string
	Cause   error
}

func (e *ErrConnection) Error() string {
	if e.Profile == "" {
		return fmt.Sprintf("connection error: %v", e.Cause)
	}
	return fmt.Sprintf("connection error (%s): %v", e.Profile, e.Cause)
}

func (e *ErrConnection) Unwrap() error {
	return e.Cause
}

// ErrQuery represents a query execution error.
type ErrQuery struct {
	Query string
	Cause error
}

func (e *ErrQuery) Error() string {
	return fmt.Sprintf("query error: %v", e.Cause)
}

func (e *ErrQuery) Unwrap() error {
	return e.Cause
}

// ErrLoad represents a failed bulk load of one file.
type ErrLoad struct {
	Table string
	File  string
	Cause error
}

func (e *ErrLoad) Error() string {
	return fmt.Sprintf("load %s into %s: %v", e.File, e.Table, e.Cause)
}

func (e *ErrLoad) Unwrap() error {
	return e.Cause
}

// ErrConfig represents a configuration error.
type ErrConfig struct {
	Cause error
}

func (e *ErrConfig) Error() string {
	return fmt.Sprintf("config error: %v", e.Cause)
}

func (e *ErrConfig) Unwrap() error {
	return e.Cause
}
