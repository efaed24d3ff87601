package errors

import (
	stderrors "errors"
	"net/http"
)

// Kind is the stable classification every domain failure carries.
type Kind string

const (
	KindBadRequest           Kind = ErrCodeInvalidInput
	KindUnauthorized         Kind = ErrCodeUnauthorized
	KindForbidden            Kind = ErrCodeForbidden
	KindNotFound             Kind = ErrCodeNotFound
	KindConflict             Kind = ErrCodeConflict
	KindStateLocked          Kind = ErrCodeStateLocked
	KindInvalidState         Kind = ErrCodeInvalidState
	KindUnsupportedMediaType Kind = ErrCodeUnsupportedMediaType
	KindPayloadTooLarge      Kind = ErrCodePayloadTooLarge
	KindInternal             Kind = ErrCodeInternalError
)

var kindStatus = map[Kind]int{
	KindBadRequest:           http.StatusBadRequest,
	KindUnauthorized:         http.StatusUnauthorized,
	KindForbidden:            http.StatusForbidden,
	KindNotFound:             http.StatusNotFound,
	KindConflict:             http.StatusConflict,
	KindStateLocked:          http.StatusLocked,
	KindInvalidState:         http.StatusUnprocessableEntity,
	KindUnsupportedMediaType: http.StatusUnsupportedMediaType,
	KindPayloadTooLarge:      http.StatusRequestEntityTooLarge,
	KindInternal:             http.StatusInternalServerError,
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	if status, ok := kindStatus[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a domain failure with a kind and a client-safe message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New creates a new Error
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the message of the first *Error in err's chain.
func MessageOf(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
