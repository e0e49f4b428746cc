package protocol

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Result
	}{
		{"nil is okey", nil, ResultOkey},
		{"bad command", BadCommandf("nope"), ResultBadCommand},
		{"not found", ResourceNotFoundf("missing"), ResultResourceNotFound},
		{"access denied", AccessDeniedf("denied"), ResultAccessDenied},
		{"game state", InappropriateGameStatef("not running"), ResultInappropriateGameState},
		{"timeout", Timeoutf("too slow"), ResultTimeout},
		{"wrapped", fmt.Errorf("handling: %w", BadCommandf("nope")), ResultBadCommand},
		{"unknown error", errors.New("disk on fire"), ResultInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResultOf(tt.err))
		})
	}
}

func TestErrorPayload(t *testing.T) {
	payload := ErrorPayload(BadCommandf("The train is under cooldown, cooldown: %d", 2))
	assert.JSONEq(t, `{"error":"The train is under cooldown, cooldown: 2"}`, string(payload))

	// Internal failures never leak details to the wire.
	assert.Nil(t, ErrorPayload(errors.New("pq: connection reset")))
}
