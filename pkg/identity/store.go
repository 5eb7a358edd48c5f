// Package identity resolves and persists the durable pseudonymous user
// identifier backing telemetry events.
//
// The identifier is created once per machine/user profile, stored as a small
// JSON document under the per-user config directory, and mirrored to the
// path legacy DVC installations read so every tool sharing the backend
// reports under the same id. Concurrent first runs of unrelated processes
// are serialized with a cross-process file lock, so exactly one identifier
// is ever generated.
//
// Resolution never fails loudly: lock timeouts, unreadable files and
// malformed content all degrade to "no id", which callers treat as "send
// nothing".
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/kofalt/go-memoize"
	"github.com/natefinch/atomic"
	cache "github.com/patrickmn/go-cache"

	"github.com/iterative/telemetry-go/pkg/paths"
)

// DoNotTrack is the reserved identifier meaning the user opted out of
// telemetry. Comparisons are case-insensitive wherever an id is read.
const DoNotTrack = "do-not-track"

const (
	defaultLockTimeout = 5 * time.Second
	lockRetryDelay     = 100 * time.Millisecond
	memoKey            = "user-id"
)

// userIDFile is the JSON shape of both identity files.
type userIDFile struct {
	UserID string `json:"user_id"`
}

// Store resolves the durable user identifier.
//
// Resolution is memoized per Store; Invalidate clears the memo so the
// backing files are consulted again.
type Store struct {
	path        string
	legacyPath  string
	lockTimeout time.Duration
	logger      *slog.Logger
	memo        *memoize.Memoizer
}

// Option configures a Store.
type Option func(*Store)

// WithPath overrides the primary identity file location.
func WithPath(path string) Option {
	return func(s *Store) { s.path = path }
}

// WithLegacyPath overrides the legacy identity file location.
func WithLegacyPath(path string) Option {
	return func(s *Store) { s.legacyPath = path }
}

// WithLockTimeout bounds the wait for the cross-process file locks.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// WithLogger sets the logger used for debug-level degradation reports.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a Store over the default identity file locations.
func NewStore(opts ...Option) *Store {
	s := &Store{
		path:        paths.UserIDPath(),
		legacyPath:  paths.LegacyUserIDPath(),
		lockTimeout: defaultLockTimeout,
		logger:      slog.Default(),
		memo:        memoize.NewMemoizer(cache.NoExpiration, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the durable user id, creating and persisting one on first
// ever use. ok is false when the user opted out or the id could not be
// resolved; in both cases no event may be sent.
func (s *Store) Resolve(ctx context.Context) (id string, ok bool) {
	v, _, _ := s.memo.Memoize(memoKey, func() (any, error) {
		return s.findOrCreate(ctx), nil
	})
	id, _ = v.(string)
	if id == "" || strings.EqualFold(id, DoNotTrack) {
		return "", false
	}
	return id, true
}

// Invalidate clears the memoized resolution so the next Resolve re-reads
// the backing files.
func (s *Store) Invalidate() {
	s.memo.Storage.Flush()
}

// OptOut writes the do-not-track sentinel to the primary identity file,
// disabling telemetry for this user until the file is removed or edited.
func (s *Store) OptOut(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	lock := flock.New(s.path + ".lock")
	locked, err := s.tryLock(ctx, lock)
	if err != nil {
		return fmt.Errorf("lock identity file: %w", err)
	}
	if !locked {
		return errors.New("identity file is locked by another process")
	}
	defer lock.Unlock()

	if err := writeIDFile(s.path, DoNotTrack); err != nil {
		return fmt.Errorf("write identity file: %w", err)
	}
	s.Invalidate()
	return nil
}

// findOrCreate runs the locked read-or-create sequence. It returns an empty
// string when resolution fails; the empty result is memoized like any other,
// matching the lifetime of a failed first run.
func (s *Store) findOrCreate(ctx context.Context) string {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.logger.Debug("telemetry: cannot create config directory", "path", s.path, "error", err)
		return ""
	}

	lock := flock.New(s.path + ".lock")
	locked, err := s.tryLock(ctx, lock)
	if err != nil || !locked {
		s.logger.Debug("telemetry: failed to acquire identity lock", "path", lock.Path(), "error", err)
		return ""
	}
	defer lock.Unlock()

	uid, found := s.readIDFile(s.path)
	if found {
		// The primary file is authoritative; keep the legacy copy in sync
		// for old installations, best effort.
		if !strings.EqualFold(uid, DoNotTrack) {
			s.backfillLegacy(ctx, uid)
		}
		return uid
	}
	return s.migrateOrGenerate(ctx)
}

// migrateOrGenerate resolves a fresh primary store: takes the id from the
// legacy file when one exists, generates a new UUID otherwise, and persists
// the result. Runs with the primary lock held.
func (s *Store) migrateOrGenerate(ctx context.Context) string {
	if err := os.MkdirAll(filepath.Dir(s.legacyPath), 0o755); err != nil {
		s.logger.Debug("telemetry: cannot create legacy config directory", "path", s.legacyPath, "error", err)
		return ""
	}

	// The legacy file has its own writers (old installations), so reading
	// it takes its lock too. Failing to get it fails the whole resolution
	// rather than risking two generated ids.
	legacyLock := flock.New(s.legacyPath + ".lock")
	locked, err := s.tryLock(ctx, legacyLock)
	if err != nil || !locked {
		s.logger.Debug("telemetry: failed to acquire legacy identity lock", "path", legacyLock.Path(), "error", err)
		return ""
	}
	defer legacyLock.Unlock()

	uid, legacyFound := s.readIDFile(s.legacyPath)
	if !legacyFound {
		uid = uuid.NewString()
	}

	if err := writeIDFile(s.path, uid); err != nil {
		s.logger.Debug("telemetry: cannot write identity file", "path", s.path, "error", err)
		return ""
	}

	// Write the legacy copy in case a legacy installation shows up later,
	// unless the user opted out.
	if !legacyFound && !strings.EqualFold(uid, DoNotTrack) {
		if err := writeIDFile(s.legacyPath, uid); err != nil {
			s.logger.Debug("telemetry: cannot write legacy identity file", "path", s.legacyPath, "error", err)
		}
	}

	return uid
}

// backfillLegacy restores a missing legacy copy of an already-resolved id.
// Unlike the migration read, a lock failure here only skips the backfill.
func (s *Store) backfillLegacy(ctx context.Context, uid string) {
	if _, err := os.Stat(s.legacyPath); err == nil || !errors.Is(err, os.ErrNotExist) {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.legacyPath), 0o755); err != nil {
		s.logger.Debug("telemetry: cannot create legacy config directory", "path", s.legacyPath, "error", err)
		return
	}

	legacyLock := flock.New(s.legacyPath + ".lock")
	locked, err := s.tryLock(ctx, legacyLock)
	if err != nil || !locked {
		s.logger.Debug("telemetry: failed to acquire legacy identity lock", "path", legacyLock.Path(), "error", err)
		return
	}
	defer legacyLock.Unlock()

	if _, found := s.readIDFile(s.legacyPath); found {
		return
	}
	if err := writeIDFile(s.legacyPath, uid); err != nil {
		s.logger.Debug("telemetry: cannot write legacy identity file", "path", s.legacyPath, "error", err)
	}
}

func (s *Store) tryLock(ctx context.Context, lock *flock.Flock) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	return lock.TryLockContext(ctx, lockRetryDelay)
}

// readIDFile reads an identity file. Missing files, unreadable files and
// malformed content are all reported as not found.
func (s *Store) readIDFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("telemetry: cannot read identity file", "path", path, "error", err)
		}
		return "", false
	}

	var f userIDFile
	if err := json.Unmarshal(data, &f); err == nil && f.UserID != "" {
		return f.UserID, true
	}

	// Earlier releases stored the id as a bare string.
	if id := strings.TrimSpace(string(data)); id != "" && !strings.ContainsAny(id, "{} \n\t") {
		return id, true
	}

	s.logger.Debug("telemetry: malformed identity file", "path", path)
	return "", false
}

func writeIDFile(path, uid string) error {
	data, err := json.Marshal(userIDFile{UserID: uid})
	if err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}
