// Package store implements the configuration store engine: a single
// JSON-serializable document owned by one process, persisted atomically
// to one file, validated against an optional CUE schema, upgraded by
// versioned migrations, and observable through change subscriptions.
//
// All operations are synchronous and run to completion before
// returning. The engine holds the authoritative document; callers only
// ever receive clones, so external mutation cannot corrupt engine state
// without going through Set/Delete/Clear.
//
// The on-disk file is exclusively owned by one Store instance. Two
// instances sharing one file, in the same process or across processes,
// are not coordinated and can silently overwrite each other.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/confstore/internal/atomicfile"
	"github.com/roach88/confstore/internal/dotpath"
	"github.com/roach88/confstore/internal/objutil"
	"github.com/roach88/confstore/internal/schema"
)

// InternalKey is the reserved top-level namespace holding engine
// bookkeeping. User writes under it are rejected.
const InternalKey = "__internal__"

// migrationVersionPath records the highest migration version applied to
// the document. Absent means version 0.
const migrationVersionPath = InternalKey + ".migrationVersion"

// Defaults for Options fields left at their zero value.
const (
	DefaultName = "config"
	DefaultExt  = ".json"
)

// fileMode is applied before umask, matching the convention for
// user-owned configuration files.
const fileMode = 0o666

// Migration is a versioned, one-time upgrade hook. The hook receives
// the store and the version recorded before this migration ran, and may
// call any store mutation method. Only migrations with a version
// strictly greater than the recorded version run, in ascending order.
type Migration struct {
	Version int64
	Hook    func(s *Store, previousVersion int64) error
}

// Options configures a Store. The zero value is usable: it stores
// "config.json" in the process working directory with the default JSON
// serializer and no schema, defaults, or migrations.
type Options struct {
	// Dir is the base storage directory. Defaults to the process
	// working directory; hosts typically pass a platform user-data
	// directory.
	Dir string

	// Name is the file base name, without extension. Defaults to
	// "config".
	Name string

	// Ext is the file extension including the dot. Defaults to ".json".
	Ext string

	// Defaults seeds missing keys at construction and is the value
	// source for Reset and Clear.
	Defaults map[string]any

	// Schema, when set, gates the loaded document at construction and
	// every document produced by a write.
	Schema *schema.Schema

	// Serializer overrides the on-disk encoding. Defaults to
	// JSONSerializer.
	Serializer *Serializer

	// Migrations are ordered upgrade hooks, each run at most once per
	// version, at construction time.
	Migrations []Migration

	// Logger receives debug-level operational events. Defaults to
	// slog.Default.
	Logger *slog.Logger
}

// Store is the live engine instance. Safe for concurrent use; each
// operation appears atomic to other goroutines in the same process.
type Store struct {
	mu         sync.Mutex
	dir        string
	path       string
	defaults   map[string]any
	schema     *schema.Schema
	serializer Serializer
	logger     *slog.Logger
	cache      map[string]any
	bus        *bus
}

// Open constructs a Store: it reads the file (an absent file yields an
// empty document and creates the directory), validates against the
// schema, merges defaults under the loaded document, persists the merge
// if it changed anything, and runs pending migrations. Everything
// completes before Open returns; there is no asynchronous
// initialization.
//
// A schema violation in the loaded or merged document is a construction
// failure; the file is not repaired automatically.
func Open(opts Options) (*Store, error) {
	dir := opts.Dir
	if dir == "" {
		var err error
		if dir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
	}
	name := opts.Name
	if name == "" {
		name = DefaultName
	}
	ext := opts.Ext
	if ext == "" {
		ext = DefaultExt
	}
	serializer := JSONSerializer()
	if opts.Serializer != nil {
		serializer = *opts.Serializer
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		dir:        dir,
		path:       filepath.Join(dir, name+ext),
		defaults:   objutil.CloneMap(opts.Defaults),
		schema:     opts.Schema,
		serializer: serializer,
		logger:     logger,
		bus:        newBus(),
	}

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	if s.schema != nil {
		if err := s.schema.Check(doc); err != nil {
			return nil, fmt.Errorf("stored document at %s: %w", s.path, err)
		}
	}

	if len(s.defaults) > 0 {
		merged := objutil.Merge(objutil.CloneMap(s.defaults), doc)
		if !objutil.Equal(merged, doc) {
			if err := s.commit(merged); err != nil {
				return nil, err
			}
		} else {
			s.cache = doc
		}
	} else {
		s.cache = doc
	}

	if err := s.migrate(opts.Migrations); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the resolved configuration file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns a clone of the value at key, or nil when the key is
// absent. No validation, no side effects.
func (s *Store) Get(key string) any {
	return s.GetDefault(key, nil)
}

// GetDefault returns a clone of the value at key, or fallback when the
// key is absent. An explicitly stored null is returned as nil, not as
// fallback.
func (s *Store) GetDefault(key string, fallback any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := dotpath.Get(s.cache, key)
	if !ok {
		return fallback
	}
	return objutil.Clone(v)
}

// Has reports whether key exists in the document. A key holding null
// exists.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dotpath.Has(s.cache, key)
}

// Snapshot returns a deep clone of the whole document.
func (s *Store) Snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return objutil.CloneMap(s.cache)
}

// Size returns the number of top-level keys in the document.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

// Set stores value at the dot path key, persists, and notifies
// subscribers. The reserved namespace is rejected, as are values that
// cannot round-trip through the serializer. To remove a key, use
// Delete; Set(key, nil) stores an explicit null.
func (s *Store) Set(key string, value any) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if !objutil.Serializable(value) {
		return badValue(key, value)
	}

	s.mu.Lock()
	doc := objutil.CloneMap(s.cache)
	dotpath.Set(doc, key, objutil.Clone(value))
	err := s.commit(doc)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.broadcast()
	return nil
}

// SetAll applies every (path, value) pair in entries to one in-memory
// copy and commits once: one persist, one notification, regardless of
// how many pairs are given. The same guards as Set apply to every pair;
// a rejected pair fails the whole call with nothing applied.
func (s *Store) SetAll(entries map[string]any) error {
	if entries == nil {
		return &ArgumentError{Code: ErrCodeBadDocument, Message: "entries must be a non-nil mapping"}
	}
	for key, value := range entries {
		if err := validateKey(key); err != nil {
			return err
		}
		if !objutil.Serializable(value) {
			return badValue(key, value)
		}
	}

	s.mu.Lock()
	doc := objutil.CloneMap(s.cache)
	for key, value := range entries {
		dotpath.Set(doc, key, objutil.Clone(value))
	}
	err := s.commit(doc)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.broadcast()
	return nil
}

// Reset restores each given key to its recorded default value. Keys
// with no recorded default, or whose default is null, are left
// untouched. Reset is idempotent.
func (s *Store) Reset(keys ...string) error {
	for _, key := range keys {
		def, ok := dotpath.Get(s.defaults, key)
		if !ok || def == nil {
			continue
		}
		if err := s.Set(key, objutil.Clone(def)); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the dot path key from the document and commits.
// Deleting a missing key still commits (and broadcasts) an unchanged
// document; key-level subscribers suppress the resulting no-op.
func (s *Store) Delete(key string) error {
	if key == "" {
		return badKey(key, "key must be a non-empty dot path")
	}

	s.mu.Lock()
	doc := objutil.CloneMap(s.cache)
	dotpath.Delete(doc, key)
	err := s.commit(doc)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.broadcast()
	return nil
}

// Clear replaces the entire document with an empty mapping, commits,
// then resets every key that has a recorded default. Keys without a
// recorded default stay gone; schema-declared defaults are not
// restored.
func (s *Store) Clear() error {
	s.mu.Lock()
	err := s.commit(map[string]any{})
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.broadcast()

	keys := make([]string, 0, len(s.defaults))
	for k := range s.defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return s.Reset(keys...)
}

// load reads and decodes the on-disk document. A missing file yields an
// empty document after ensuring the directory exists. The decoded value
// is cloned so the engine never shares structure with the serializer.
func (s *Store) load() (map[string]any, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return nil, fmt.Errorf("create config directory: %w", err)
		}
		s.logger.Debug("no configuration file, starting empty", "path", s.path)
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	doc, err := s.serializer.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	s.logger.Debug("configuration loaded", "path", s.path, "bytes", len(raw))
	return objutil.CloneMap(doc), nil
}

// commit is the single write path: validate, serialize, persist
// atomically, then swap the cache. Validation happens before
// persistence, so a violation leaves both the cache and the file in
// their last committed state. Callers must hold s.mu (or be inside
// Open, before the store escapes).
func (s *Store) commit(doc map[string]any) error {
	if s.schema != nil {
		if err := s.schema.Check(doc); err != nil {
			return err
		}
	}
	data, err := s.serializer.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serialize document: %w", err)
	}
	if err := atomicfile.WriteFile(s.path, data, fileMode); err != nil {
		return fmt.Errorf("persist %s: %w", s.path, err)
	}
	s.cache = doc
	s.logger.Debug("configuration persisted", "path", s.path, "bytes", len(data))
	return nil
}

// broadcast notifies subscribers after a successful commit. It runs
// without holding s.mu so callbacks may call back into the store.
func (s *Store) broadcast() {
	s.bus.broadcast(s.Snapshot())
}

// migrate applies pending migrations in ascending version order. Each
// hook's own writes are committed (and durable) before the version bump
// for that migration is recorded by a separate commit. A crash or hook
// failure between the two leaves the version unrecorded, so the hook
// runs again on next construction: migration semantics are
// at-least-once, not exactly-once.
func (s *Store) migrate(migrations []Migration) error {
	if len(migrations) == 0 {
		return nil
	}
	ordered := make([]Migration, len(migrations))
	copy(ordered, migrations)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Version < ordered[j].Version
	})

	current := s.migrationVersion()
	for _, m := range ordered {
		if m.Version <= current {
			continue
		}
		s.logger.Debug("applying migration", "path", s.path, "from", current, "to", m.Version)
		if m.Hook != nil {
			if err := m.Hook(s, current); err != nil {
				return fmt.Errorf("migration to version %d: %w", m.Version, err)
			}
		}

		s.mu.Lock()
		doc := objutil.CloneMap(s.cache)
		dotpath.Set(doc, migrationVersionPath, m.Version)
		err := s.commit(doc)
		s.mu.Unlock()
		if err != nil {
			return fmt.Errorf("record migration version %d: %w", m.Version, err)
		}
		s.broadcast()
		current = m.Version
	}
	return nil
}

// migrationVersion reads the recorded migration version; absent means 0.
func (s *Store) migrationVersion() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := dotpath.Get(s.cache, migrationVersionPath)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// validateKey rejects empty keys and the reserved namespace.
func validateKey(key string) error {
	if key == "" {
		return badKey(key, "key must be a non-empty dot path")
	}
	if key == InternalKey || strings.HasPrefix(key, InternalKey+".") {
		return reservedKey(key)
	}
	return nil
}
