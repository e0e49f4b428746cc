package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeRequest(t *testing.T, action Action, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteRequest(&buf, action, payload))
	return buf.Bytes()
}

func TestFramerSingleFrame(t *testing.T) {
	var f Framer
	requests, err := f.Feed(encodeRequest(t, ActionLogin, []byte(`{"name":"alice"}`)))
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, ActionLogin, requests[0].Action)
	assert.Equal(t, `{"name":"alice"}`, string(requests[0].Payload))
}

func TestFramerEmptyPayload(t *testing.T) {
	var f Framer
	requests, err := f.Feed(encodeRequest(t, ActionTurn, nil))
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, ActionTurn, requests[0].Action)
	assert.Empty(t, requests[0].Payload)
}

func TestFramerArbitraryChunking(t *testing.T) {
	// Any byte split of a valid stream must decode to the same requests.
	stream := append(
		encodeRequest(t, ActionLogin, []byte(`{"name":"alice","password":"s3cret"}`)),
		encodeRequest(t, ActionMove, []byte(`{"train_idx":1,"speed":1,"line_idx":1}`))...)
	stream = append(stream, encodeRequest(t, ActionTurn, nil)...)

	for chunk := 1; chunk <= len(stream); chunk++ {
		var f Framer
		var requests []Request
		for start := 0; start < len(stream); start += chunk {
			end := min(start+chunk, len(stream))
			part, err := f.Feed(stream[start:end])
			require.NoError(t, err)
			requests = append(requests, part...)
		}
		require.Len(t, requests, 3, "chunk size %d", chunk)
		assert.Equal(t, ActionLogin, requests[0].Action)
		assert.Equal(t, ActionMove, requests[1].Action)
		assert.Equal(t, `{"train_idx":1,"speed":1,"line_idx":1}`, string(requests[1].Payload))
		assert.Equal(t, ActionTurn, requests[2].Action)
	}
}

func TestFramerMultipleFramesInOneChunk(t *testing.T) {
	stream := append(
		encodeRequest(t, ActionTurn, nil),
		encodeRequest(t, ActionPlayer, nil)...)

	var f Framer
	requests, err := f.Feed(stream)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, ActionTurn, requests[0].Action)
	assert.Equal(t, ActionPlayer, requests[1].Action)
}

func TestFramerRejectsOversizedLength(t *testing.T) {
	frame := []byte{
		1, 0, 0, 0, // action
		0xff, 0xff, 0xff, 0xff, // absurd length
	}
	var f Framer
	_, err := f.Feed(frame)
	require.Error(t, err)
}

func TestResponseRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResponse(&buf, ResultAccessDenied, []byte(`{"error":"Password mismatch"}`)))

	result, payload, err := ReadResponse(&buf)
	require.NoError(t, err)
	assert.Equal(t, ResultAccessDenied, result)
	assert.JSONEq(t, `{"error":"Password mismatch"}`, string(payload))
}
