// Package rpc lets an unprivileged process operate on a configuration
// store owned by a privileged process. The privileged side wraps its
// store in a Dispatcher and serves it over any byte stream; the
// unprivileged side holds a Client whose methods map 1:1 onto store
// operations and forward each call as one request/response exchange.
//
// The wire contract is minimal: a request carries a correlation id, an
// action name, a key, and an optional value; the response carries the
// same id and either a result or a structured failure. Frames are
// CBOR-encoded. The contract is transport-agnostic; anything
// implementing io.ReadWriter (pipe, socket, stdio) carries it.
package rpc

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Action names the store operation a request invokes.
type Action string

const (
	ActionGet    Action = "get"
	ActionSet    Action = "set"
	ActionHas    Action = "has"
	ActionReset  Action = "reset"
	ActionDelete Action = "delete"
	ActionClear  Action = "clear"
)

// Request is one forwarded store call.
type Request struct {
	// ID correlates the response to this request.
	ID uint64 `cbor:"id"`

	Action Action `cbor:"action"`

	// Key is the dot path argument; empty for clear and for bulk set.
	Key string `cbor:"key,omitempty"`

	// Value is the optional value argument. HasValue distinguishes an
	// explicit null value from no value at all. Value must not carry
	// omitempty: a false or zero value is still a value.
	Value    any  `cbor:"value"`
	HasValue bool `cbor:"hasValue,omitempty"`
}

// Response answers exactly one Request.
type Response struct {
	ID     uint64 `cbor:"id"`
	Result any    `cbor:"result"`

	// Error is the failure message; empty on success.
	Error string `cbor:"error,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(fmt.Sprintf("rpc: encoder setup: %v", err))
	}
	// Documents are string-keyed maps with int64 numbers on both sides
	// of the wire, matching the store's in-memory document kinds.
	decOpts := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		IntDec:         cbor.IntDecConvertSignedOrFail,
	}
	if decMode, err = decOpts.DecMode(); err != nil {
		panic(fmt.Sprintf("rpc: decoder setup: %v", err))
	}
}
