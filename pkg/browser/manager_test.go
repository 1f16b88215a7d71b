package browser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addSession injects a fake-backed session directly into the registry,
// sidestepping the Playwright launch path.
func addSession(t *testing.T, m *Manager, name string) (*Session, *fakePager) {
	t.Helper()
	pager := newFakePager()
	s := testSession(t, pager, Options{})
	s.name = name
	m.mu.Lock()
	m.sessions[name] = s
	m.mu.Unlock()
	return s, pager
}

func TestStartSessionRequiresInitialize(t *testing.T) {
	m := NewManager()

	_, err := m.StartSession("first", Options{})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestGetUnknownSession(t *testing.T) {
	m := NewManager()

	_, err := m.Get("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGetOrStart(t *testing.T) {
	m := NewManager()
	existing, _ := addSession(t, m, "default")

	// An existing session is returned as-is, no start attempted.
	got, err := m.GetOrStart("default", Options{})
	require.NoError(t, err)
	assert.Same(t, existing, got)

	// A genuine start failure still surfaces.
	_, err = m.GetOrStart("other", Options{})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestCloseSession(t *testing.T) {
	m := NewManager()
	_, pager := addSession(t, m, "work")

	require.NoError(t, m.CloseSession("work"))
	assert.True(t, pager.closed)
	assert.Empty(t, m.List())

	err := m.CloseSession("work")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestListSessions(t *testing.T) {
	m := NewManager()
	assert.Empty(t, m.List())

	addSession(t, m, "a")
	addSession(t, m, "b")

	infos := m.List()
	require.Len(t, infos, 2)
	names := []string{infos[0].Name, infos[1].Name}
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestCloseAll(t *testing.T) {
	m := NewManager()
	_, p1 := addSession(t, m, "a")
	_, p2 := addSession(t, m, "b")

	m.CloseAll()

	assert.True(t, p1.closed)
	assert.True(t, p2.closed)
	assert.Empty(t, m.List())
}

func TestCleanupIdle(t *testing.T) {
	m := NewManager()
	stale, stalePager := addSession(t, m, "stale")
	fresh, _ := addSession(t, m, "fresh")

	stale.mu.Lock()
	stale.lastUsedAt = time.Now().Add(-time.Hour)
	stale.mu.Unlock()

	closed := m.CleanupIdle(10 * time.Minute)

	assert.Equal(t, []string{"stale"}, closed)
	assert.True(t, stalePager.closed)

	_, err := m.Get("stale")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	got, err := m.Get("fresh")
	require.NoError(t, err)
	assert.Same(t, fresh, got)
}
