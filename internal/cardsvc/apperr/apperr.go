// Package apperr classifies failures so the HTTP boundary can pick a status
// code and message without inspecting error strings.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	BadRequest
	Unauthorized
	Conflict
	NotFound
)

func (k Kind) String() string {
	switch k {
	case BadRequest:
		return "bad_request"
	case Unauthorized:
		return "unauthorized"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not_found"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func StatusCode(err error) int {
	switch KindOf(err) {
	case BadRequest:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Conflict:
		return http.StatusConflict
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
