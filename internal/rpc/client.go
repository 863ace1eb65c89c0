package rpc

import (
	"fmt"
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// Client is the unprivileged-side proxy: a pure pass-through whose
// methods forward one call each to the serving process and return its
// answer. It holds no document state and applies no store logic.
//
// Calls are serialized; the transport carries one request/response
// exchange at a time.
type Client struct {
	mu   sync.Mutex
	enc  *cbor.Encoder
	dec  *cbor.Decoder
	next uint64
}

// NewClient wraps a stream connected to a Serve loop.
func NewClient(conn io.ReadWriter) *Client {
	return &Client{
		enc: encMode.NewEncoder(conn),
		dec: decMode.NewDecoder(conn),
	}
}

func (c *Client) call(action Action, key string, value any, hasValue bool) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.next++
	req := Request{ID: c.next, Action: action, Key: key, Value: value, HasValue: hasValue}
	if err := c.enc.Encode(req); err != nil {
		return nil, fmt.Errorf("send %s: %w", action, err)
	}

	var resp Response
	if err := c.dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("receive %s: %w", action, err)
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("correlation mismatch: sent %d, received %d", req.ID, resp.ID)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("remote %s: %s", action, resp.Error)
	}
	return resp.Result, nil
}

// Get returns the remote value at key, or nil when absent.
func (c *Client) Get(key string) (any, error) {
	return c.call(ActionGet, key, nil, false)
}

// GetDefault returns the remote value at key, or fallback when absent.
func (c *Client) GetDefault(key string, fallback any) (any, error) {
	return c.call(ActionGet, key, fallback, true)
}

// Set stores value at key in the remote store.
func (c *Client) Set(key string, value any) error {
	_, err := c.call(ActionSet, key, value, true)
	return err
}

// SetAll applies entries to the remote store in one commit.
func (c *Client) SetAll(entries map[string]any) error {
	_, err := c.call(ActionSet, "", entries, true)
	return err
}

// Has reports whether key exists in the remote store.
func (c *Client) Has(key string) (bool, error) {
	result, err := c.call(ActionHas, key, nil, false)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("has: unexpected result type %T", result)
	}
	return b, nil
}

// Reset restores key to its remote recorded default.
func (c *Client) Reset(key string) error {
	_, err := c.call(ActionReset, key, nil, false)
	return err
}

// Delete removes key from the remote store.
func (c *Client) Delete(key string) error {
	_, err := c.call(ActionDelete, key, nil, false)
	return err
}

// Clear wipes the remote store and restores its declared defaults.
func (c *Client) Clear() error {
	_, err := c.call(ActionClear, "", nil, false)
	return err
}
