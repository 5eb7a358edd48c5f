package identity

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type storePaths struct {
	primary string
	legacy  string
}

func newTestStore(t *testing.T, opts ...Option) (*Store, storePaths) {
	t.Helper()

	dir := t.TempDir()
	p := storePaths{
		primary: filepath.Join(dir, "iterative", "telemetry"),
		legacy:  filepath.Join(dir, "dvc", "user_id"),
	}
	opts = append([]Option{WithPath(p.primary), WithLegacyPath(p.legacy)}, opts...)
	return NewStore(opts...), p
}

func writeJSONID(t *testing.T, path, id string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"user_id": "`+id+`"}`), 0o644))
}

func readJSONID(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var f userIDFile
	require.NoError(t, json.Unmarshal(data, &f))
	return f.UserID
}

func TestResolveGeneratesUUID(t *testing.T) {
	t.Parallel()

	store, p := newTestStore(t)
	id, ok := store.Resolve(context.Background())
	require.True(t, ok)

	_, err := uuid.Parse(id)
	require.NoError(t, err)

	// Both files carry the new id.
	require.Equal(t, id, readJSONID(t, p.primary))
	require.Equal(t, id, readJSONID(t, p.legacy))
}

func TestResolveIdempotent(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	first, ok := store.Resolve(context.Background())
	require.True(t, ok)

	store.Invalidate()

	second, ok := store.Resolve(context.Background())
	require.True(t, ok)
	require.Equal(t, first, second)
}

func TestResolveMigratesLegacy(t *testing.T) {
	t.Parallel()

	store, p := newTestStore(t)
	writeJSONID(t, p.legacy, "1234")

	id, ok := store.Resolve(context.Background())
	require.True(t, ok)
	require.Equal(t, "1234", id)
	require.Equal(t, "1234", readJSONID(t, p.primary))

	// The primary file is now authoritative: deleting the legacy copy does
	// not change future resolutions.
	require.NoError(t, os.Remove(p.legacy))
	store.Invalidate()

	id, ok = store.Resolve(context.Background())
	require.True(t, ok)
	require.Equal(t, "1234", id)
}

func TestResolveBackfillsLegacy(t *testing.T) {
	t.Parallel()

	store, p := newTestStore(t)
	writeJSONID(t, p.primary, "abcd")

	id, ok := store.Resolve(context.Background())
	require.True(t, ok)
	require.Equal(t, "abcd", id)
	require.Equal(t, "abcd", readJSONID(t, p.legacy))
}

func TestResolveOptOut(t *testing.T) {
	t.Parallel()

	for _, sentinel := range []string{"do-not-track", "DO-NOT-TRACK", "Do-Not-Track"} {
		store, p := newTestStore(t)
		writeJSONID(t, p.primary, sentinel)

		_, ok := store.Resolve(context.Background())
		require.False(t, ok)

		// Opting out is never propagated to the legacy file.
		_, err := os.Stat(p.legacy)
		require.ErrorIs(t, err, os.ErrNotExist)
	}
}

func TestResolveAcceptsBareTextFile(t *testing.T) {
	t.Parallel()

	store, p := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(p.primary), 0o755))
	require.NoError(t, os.WriteFile(p.primary, []byte("16fd2706-8baf-433b-82eb-8c7fada847da\n"), 0o644))

	id, ok := store.Resolve(context.Background())
	require.True(t, ok)
	require.Equal(t, "16fd2706-8baf-433b-82eb-8c7fada847da", id)
}

func TestResolveMalformedFileGeneratesNewID(t *testing.T) {
	t.Parallel()

	store, p := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(p.primary), 0o755))
	require.NoError(t, os.WriteFile(p.primary, []byte("{not json"), 0o644))

	id, ok := store.Resolve(context.Background())
	require.True(t, ok)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	require.Equal(t, id, readJSONID(t, p.primary))
}

func TestResolveConcurrentFirstRun(t *testing.T) {
	t.Parallel()

	// Two stores over the same files simulate unrelated processes racing
	// to create the identity on first run.
	a, p := newTestStore(t)
	b := NewStore(WithPath(p.primary), WithLegacyPath(p.legacy))

	var wg sync.WaitGroup
	ids := make([]string, 2)
	for i, store := range []*Store{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, ok := store.Resolve(context.Background())
			require.True(t, ok)
			ids[i] = id
		}()
	}
	wg.Wait()

	require.Equal(t, ids[0], ids[1])
	require.Equal(t, ids[0], readJSONID(t, p.primary))
}

func TestResolveLockTimeout(t *testing.T) {
	t.Parallel()

	store, p := newTestStore(t, WithLockTimeout(100*time.Millisecond))

	require.NoError(t, os.MkdirAll(filepath.Dir(p.primary), 0o755))
	holder := flock.New(p.primary + ".lock")
	require.NoError(t, holder.Lock())
	defer holder.Unlock()

	_, ok := store.Resolve(context.Background())
	require.False(t, ok)
}

func TestOptOut(t *testing.T) {
	t.Parallel()

	store, p := newTestStore(t)
	id, ok := store.Resolve(context.Background())
	require.True(t, ok)
	require.NotEmpty(t, id)

	require.NoError(t, store.OptOut(context.Background()))

	_, ok = store.Resolve(context.Background())
	require.False(t, ok)
	require.Equal(t, DoNotTrack, readJSONID(t, p.primary))
}
