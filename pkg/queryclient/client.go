// Package queryclient is the matching SDK for pkg/queryserver, generalized
// from the teacher's client.Client (Put/Get/Delete/Scan against a mutable
// store, with reconnect-and-retry on a dropped connection) down to the one
// read-only Lookup this index serves (SPEC_FULL §6.4).
package queryclient

import (
	"errors"
	"net"
	"time"

	"airindex/pkg/common"
	"airindex/pkg/wire"
)

// ErrNotFound mirrors the other backends' not-found sentinel so callers can
// treat a remote Lookup miss the same as a local one.
var ErrNotFound = errors.New("queryclient: key not found")

type Client struct {
	conn net.Conn
	addr string
}

// Dial connects to a queryserver listening on addr.
func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, addr: addr}, nil
}

// Get issues one Lookup. On any error other than a not-found reply (a
// dropped connection, but also a server error response) it reconnects once
// and retries, the same single-retry policy as the teacher's
// reconnectAndRetryValues.
func (c *Client) Get(key common.Key) ([]byte, error) {
	val, err := c.attemptGet(key)
	if err == nil {
		return val, nil
	}
	if err == ErrNotFound {
		return nil, err
	}
	return c.reconnectAndRetry(key)
}

func (c *Client) attemptGet(key common.Key) ([]byte, error) {
	if err := wire.EncodeRequest(c.conn, wire.Request{Op: wire.OpLookup, Key: key}); err != nil {
		return nil, err
	}
	resp, err := wire.DecodeResponse(c.conn)
	if err != nil {
		return nil, err
	}
	return decodeResponse(resp)
}

func (c *Client) reconnectAndRetry(key common.Key) ([]byte, error) {
	c.conn.Close()
	conn, err := net.DialTimeout("tcp", c.addr, 5*time.Second)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c.attemptGet(key)
}

func decodeResponse(resp wire.Response) ([]byte, error) {
	switch resp.Status {
	case wire.StatusOK:
		return resp.Value, nil
	case wire.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, errors.New("queryclient: " + string(resp.Value))
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}
