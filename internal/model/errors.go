package model

import (
	"errors"
	"net/http"
)

// Kind groups error codes by how transports should report them
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthenticated
	KindInvalid
	KindUnavailable
)

// Error is a domain error carrying its wire code
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error with the same code, so wrapped copies compare equal
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrRoomNotFound       = &Error{KindNotFound, "room_not_found", "room not found"}
	ErrRoomFull           = &Error{KindConflict, "room_full", "room is full"}
	ErrInvalidRoomState   = &Error{KindConflict, "invalid_room_state", "operation not allowed in current room state"}
	ErrOnlyHostCanStart   = &Error{KindForbidden, "only_host_can_start", "only the host can start the race"}
	ErrRaceNotFound       = &Error{KindNotFound, "race_not_found", "race not found"}
	ErrSessionNotFound    = &Error{KindNotFound, "session_not_found", "race session not found"}
	ErrPlayerNotInSession = &Error{KindNotFound, "player_not_in_session", "player is not part of this race"}
	ErrForbidden          = &Error{KindForbidden, "forbidden", "forbidden"}
	ErrUnauthenticated    = &Error{KindUnauthenticated, "unauthenticated", "missing or invalid token"}
	ErrInvalidRequest     = &Error{KindInvalid, "invalid_request", "invalid request"}
	ErrUnknownOperation   = &Error{KindInvalid, "unknown_operation", "unknown operation"}
	ErrEngineUnavailable  = &Error{KindUnavailable, "engine_unavailable", "race engine unavailable"}
	ErrUsernameTaken      = &Error{KindConflict, "username_taken", "username already taken"}
	ErrInvalidCredentials = &Error{KindUnauthenticated, "invalid_credentials", "invalid username or password"}
	ErrInternal           = &Error{KindInternal, "internal", "internal error"}
)

// Invalid returns an invalid_request error with a specific message
func Invalid(msg string) error {
	return &Error{Kind: KindInvalid, Code: ErrInvalidRequest.Code, Message: msg}
}

// CodeOf returns the wire code of err, or "internal" for unknown errors
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInternal.Code
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps err to a response status
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindInvalid:
		return http.StatusBadRequest
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var byCode = func() map[string]*Error {
	m := make(map[string]*Error)
	for _, e := range []*Error{
		ErrRoomNotFound, ErrRoomFull, ErrInvalidRoomState, ErrOnlyHostCanStart,
		ErrRaceNotFound, ErrSessionNotFound, ErrPlayerNotInSession, ErrForbidden,
		ErrUnauthenticated, ErrInvalidRequest, ErrUnknownOperation, ErrEngineUnavailable,
		ErrUsernameTaken, ErrInvalidCredentials, ErrInternal,
	} {
		m[e.Code] = e
	}
	return m
}()

// FromCode turns a wire code back into its sentinel. Unknown codes become
// internal errors that keep the code as their message.
func FromCode(code string) error {
	if e, ok := byCode[code]; ok {
		return e
	}
	return &Error{Kind: KindInternal, Code: ErrInternal.Code, Message: code}
}
