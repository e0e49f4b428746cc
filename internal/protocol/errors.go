package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error is a client-visible failure. Every game operation either succeeds or
// fails with exactly one of these; the session translates it into a response
// frame with the carried result code.
type Error struct {
	Code    Result
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func errorf(code Result, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// BadCommandf reports a malformed or illegal-for-state command.
func BadCommandf(format string, args ...any) *Error {
	return errorf(ResultBadCommand, format, args...)
}

// ResourceNotFoundf reports an unknown train, line, post, layer or game id.
func ResourceNotFoundf(format string, args ...any) *Error {
	return errorf(ResultResourceNotFound, format, args...)
}

// AccessDeniedf reports an authentication or ownership failure.
func AccessDeniedf(format string, args ...any) *Error {
	return errorf(ResultAccessDenied, format, args...)
}

// InappropriateGameStatef reports an action that is legal in principle but
// forbidden by the current game state.
func InappropriateGameStatef(format string, args ...any) *Error {
	return errorf(ResultInappropriateGameState, format, args...)
}

// Timeoutf reports that the turn barrier did not reach a tick in time.
func Timeoutf(format string, args ...any) *Error {
	return errorf(ResultTimeout, format, args...)
}

// ResultOf maps err to the result code for the response frame.
// nil maps to OKEY, anything outside the taxonomy to INTERNAL_SERVER_ERROR.
func ResultOf(err error) Result {
	if err == nil {
		return ResultOkey
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ResultInternalServerError
}

// ErrorPayload renders the error payload object {"error": "<message>"}.
// Returns nil for errors outside the taxonomy so internal details never
// reach the wire.
func ErrorPayload(err error) []byte {
	var pe *Error
	if !errors.As(err, &pe) {
		return nil
	}
	body, merr := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: pe.Message})
	if merr != nil {
		return nil
	}
	return body
}
