package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/confstore/internal/dotpath"
	"github.com/roach88/confstore/internal/objutil"
)

// bus is the per-store change notification surface. Observers are keyed
// by subscription id so unsubscribing removes exactly one registration,
// never a lookalike.
type bus struct {
	regMu     sync.Mutex
	observers map[string]*observer

	// fireMu serializes the compare-and-advance of the observers'
	// last-seen snapshots. It is never held while a callback runs, so
	// callbacks may re-enter the store and trigger nested broadcasts.
	fireMu sync.Mutex
}

// observer holds one subscription: a selector (whole document when key
// is empty) and the value it last delivered. Each observer compares and
// advances independently of the others.
type observer struct {
	key   string
	last  any
	anyFn func(newDoc, oldDoc map[string]any)
	keyFn func(newVal, oldVal any)
}

func newBus() *bus {
	return &bus{observers: make(map[string]*observer)}
}

// subscribe registers o and returns its unsubscribe function. The
// function is idempotent; calling it twice is harmless.
func (b *bus) subscribe(o *observer) func() {
	id := uuid.NewString()
	b.regMu.Lock()
	b.observers[id] = o
	b.regMu.Unlock()
	return func() {
		b.regMu.Lock()
		delete(b.observers, id)
		b.regMu.Unlock()
	}
}

// broadcast delivers the committed document to every observer.
// Callbacks run outside every bus lock, so a callback may subscribe,
// unsubscribe, or call any store method, including mutations that
// trigger a nested broadcast. Observers whose selected value is
// deep-equal to their last delivery are suppressed. No ordering is
// guaranteed between observers.
func (b *bus) broadcast(doc map[string]any) {
	b.regMu.Lock()
	current := make([]*observer, 0, len(b.observers))
	for _, o := range b.observers {
		current = append(current, o)
	}
	b.regMu.Unlock()

	// Advance every last-seen snapshot first, then fire. A callback's
	// own writes broadcast against the already-advanced snapshots, so
	// re-entry cannot double-deliver this change.
	b.fireMu.Lock()
	pending := make([]func(), 0, len(current))
	for _, o := range current {
		if fire := o.prepare(doc); fire != nil {
			pending = append(pending, fire)
		}
	}
	b.fireMu.Unlock()

	for _, fire := range pending {
		fire()
	}
}

// prepare compares doc against the observer's last delivery and, when
// they differ, advances the snapshot and returns the deferred callback
// invocation. A nil return means the observer is suppressed. Callers
// must hold fireMu.
func (o *observer) prepare(doc map[string]any) func() {
	if o.anyFn != nil {
		if objutil.Equal(o.last, doc) {
			return nil
		}
		oldDoc, _ := o.last.(map[string]any)
		o.last = objutil.CloneMap(doc)
		fn := o.anyFn
		return func() { fn(objutil.CloneMap(doc), oldDoc) }
	}

	newVal, _ := dotpath.Get(doc, o.key)
	if objutil.Equal(o.last, newVal) {
		return nil
	}
	oldVal := o.last
	o.last = objutil.Clone(newVal)
	fn := o.keyFn
	return func() { fn(objutil.Clone(newVal), oldVal) }
}

// OnDidAnyChange subscribes to whole-document changes. On every commit
// the new document is compared to the last one this subscription saw;
// the callback fires as (newDoc, oldDoc) only when they differ.
// Subscribing does not fire for pre-existing state. The returned
// function removes the subscription.
func (s *Store) OnDidAnyChange(fn func(newDoc, oldDoc map[string]any)) (func(), error) {
	if fn == nil {
		return nil, &ArgumentError{Code: ErrCodeBadCallback, Message: "callback must not be nil"}
	}
	return s.bus.subscribe(&observer{last: s.Snapshot(), anyFn: fn}), nil
}

// OnDidChange subscribes to changes of the value at key. The callback
// fires as (newValue, oldValue); oldValue is nil the first time the key
// is observed as set, and newValue is nil after the key is deleted.
func (s *Store) OnDidChange(key string, fn func(newVal, oldVal any)) (func(), error) {
	if key == "" {
		return nil, badKey(key, "key must be a non-empty dot path")
	}
	if fn == nil {
		return nil, &ArgumentError{Code: ErrCodeBadCallback, Key: key, Message: "callback must not be nil"}
	}
	return s.bus.subscribe(&observer{key: key, last: s.Get(key), keyFn: fn}), nil
}
