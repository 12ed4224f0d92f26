package service

import (
	"github.com/go-faster/errors"
)

// Kind classifies service failures for the transport layer.
type Kind int

const (
	// KindUpstream is a store or media-host failure.
	KindUpstream Kind = iota
	KindValidation
	KindNotFound
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func validationError(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func notFoundError(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// KindOf reports the Kind of err; unclassified errors are upstream failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}
