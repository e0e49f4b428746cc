package testutil

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/railgo/internal/protocol"
)

// Client is a blocking test client speaking the wire protocol over one TCP
// connection.
type Client struct {
	tb   testing.TB
	conn net.Conn
}

// Dial connects to the server under test. The connection closes with the
// test.
func Dial(tb testing.TB, addr string) *Client {
	tb.Helper()
	var conn net.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, err = net.DialTimeout("tcp", addr, time.Second)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(tb, err, "dialing server")
	tb.Cleanup(func() { conn.Close() })
	return &Client{tb: tb, conn: conn}
}

// Close closes the connection early, simulating a client disconnect.
func (c *Client) Close() {
	c.conn.Close()
}

// TryDo sends one request and returns the response frame without failing
// the test. Safe to call off the test goroutine.
func (c *Client) TryDo(action protocol.Action, payload string) (protocol.Result, []byte, error) {
	if err := protocol.WriteRequest(c.conn, action, []byte(payload)); err != nil {
		return 0, nil, err
	}
	return protocol.ReadResponse(c.conn)
}

// Do sends one request and returns the response frame.
func (c *Client) Do(action protocol.Action, payload string) (protocol.Result, []byte) {
	c.tb.Helper()
	require.NoError(c.tb, protocol.WriteRequest(c.conn, action, []byte(payload)))
	result, body, err := protocol.ReadResponse(c.conn)
	require.NoError(c.tb, err, "reading response")
	return result, body
}

// MustOkey sends one request and requires an OKEY response, returning the
// payload decoded into a generic JSON value.
func (c *Client) MustOkey(action protocol.Action, payload string) map[string]any {
	c.tb.Helper()
	result, body := c.Do(action, payload)
	require.Equal(c.tb, protocol.ResultOkey, result, "response payload: %s", body)
	if len(body) == 0 {
		return nil
	}
	var decoded map[string]any
	require.NoError(c.tb, json.Unmarshal(body, &decoded))
	return decoded
}

// MustFail sends one request and requires the given error result, returning
// the error message.
func (c *Client) MustFail(action protocol.Action, payload string, want protocol.Result) string {
	c.tb.Helper()
	result, body := c.Do(action, payload)
	require.Equal(c.tb, want, result, "response payload: %s", body)
	var decoded struct {
		Error string `json:"error"`
	}
	if len(body) > 0 {
		require.NoError(c.tb, json.Unmarshal(body, &decoded))
	}
	return decoded.Error
}
