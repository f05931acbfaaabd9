package playground

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is matched by errors returned for a missing or rejected token
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotSolved is matched by errors returned when the transaction did not solve the challenge
	ErrNotSolved = errors.New("challenge not solved")
)

// Error is a twirp error returned by the server
type Error struct {
	Status int
	Code   string            `json:"code"`
	Msg    string            `json:"msg"`
	Meta   map[string]string `json:"meta,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Is maps twirp codes onto the package sentinels
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthenticated:
		return e.Code == "unauthenticated"
	case ErrNotSolved:
		return e.Code == "invalid_argument" && e.Meta["argument"] == ""
	}
	return false
}
