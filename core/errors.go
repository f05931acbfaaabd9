package core

import (
	"errors"
	"fmt"
)

var (
	ErrTokenExpired         = errors.New("token has expired")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenScope           = errors.New("token was not issued by this challenge")
	ErrMalformedKey         = errors.New("malformed private key")
	ErrNoGasCoin            = errors.New("account owns no coin to pay for gas")
	ErrDeploymentNotIndexed = errors.New("publish transaction not found in event log")
)

// Kind classifies an error for the caller.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindPrecondition
	KindVerification
	KindInfrastructure
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindPrecondition:
		return "precondition"
	case KindVerification:
		return "verification"
	case KindInfrastructure:
		return "infrastructure"
	default:
		return "unknown"
	}
}

// Error is a classified error returned by the challenge service.
type Error struct {
	Kind Kind
	Msg  string
	// Meta carries extra detail for the caller, such as the name of a missing argument.
	Meta map[string]string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf returns a classified error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err, keeping its text as the message.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Msg: err.Error(), Err: err}
}

// RequiredArgument reports a missing request field.
func RequiredArgument(name string) *Error {
	return &Error{
		Kind: KindValidation,
		Msg:  name + " is required",
		Meta: map[string]string{"argument": name},
	}
}

// KindOf returns the classification of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
