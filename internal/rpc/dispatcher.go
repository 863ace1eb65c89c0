package rpc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/confstore/internal/store"
)

// Dispatcher maps actions onto the methods of one store. It holds no
// state of its own; every call translates to exactly one store method.
type Dispatcher struct {
	store  *store.Store
	logger *slog.Logger
}

// NewDispatcher wraps s. A nil logger falls back to slog.Default.
func NewDispatcher(s *store.Store, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{store: s, logger: logger}
}

// Dispatch invokes the store method named by action and returns its
// result, or nil for void methods. Set with an empty key and a mapping
// value is the bulk form. Unknown actions are an error.
func (d *Dispatcher) Dispatch(action Action, key string, value any, hasValue bool) (any, error) {
	switch action {
	case ActionGet:
		if hasValue {
			return d.store.GetDefault(key, value), nil
		}
		return d.store.Get(key), nil
	case ActionSet:
		if key == "" {
			entries, ok := value.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("bulk set requires a mapping value, got %T", value)
			}
			return nil, d.store.SetAll(entries)
		}
		if !hasValue {
			return nil, fmt.Errorf("set %q requires a value; use delete to remove a key", key)
		}
		return nil, d.store.Set(key, value)
	case ActionHas:
		return d.store.Has(key), nil
	case ActionReset:
		return nil, d.store.Reset(key)
	case ActionDelete:
		return nil, d.store.Delete(key)
	case ActionClear:
		return nil, d.store.Clear()
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}

// Serve answers requests from conn until it is closed. Each decoded
// request is dispatched and answered with a response carrying the same
// correlation id; a failed dispatch becomes a structured failure
// payload rather than tearing down the stream.
func Serve(conn io.ReadWriter, d *Dispatcher) error {
	dec := decMode.NewDecoder(conn)
	enc := encMode.NewEncoder(conn)

	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("decode request: %w", err)
		}

		resp := Response{ID: req.ID}
		result, err := d.Dispatch(req.Action, req.Key, req.Value, req.HasValue)
		if err != nil {
			d.logger.Debug("dispatch failed", "action", req.Action, "key", req.Key, "error", err)
			resp.Error = err.Error()
		} else {
			resp.Result = result
		}

		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
	}
}
