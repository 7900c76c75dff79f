package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tablecontrols/pkg/persist"
	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

func attach(t *testing.T, dir string) *Backend {
	t.Helper()
	b := NewBackend(nil)
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	t.Cleanup(func() { _ = b.Detach() })
	return b
}

func TestBackendAttach(t *testing.T) {
	dir := t.TempDir()
	b := attach(t, dir)

	_, err := os.Stat(filepath.Join(dir, DatabaseFile))
	require.NoError(t, err)
	assert.True(t, b.Attached())
	assert.Equal(t, dir, b.Config().DataDir)

	err = b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir})
	assert.ErrorIs(t, err, types.ErrAlreadyAttached)
}

func TestBackendAttachValidatesConfig(t *testing.T) {
	b := NewBackend(nil)
	assert.ErrorIs(t, b.Attach(types.Config{}), types.ErrBackendEmpty)
	assert.ErrorIs(t, b.Attach(types.Config{Backend: "postgres"}), types.ErrBackendUnknown)
}

func TestBackendDetach(t *testing.T) {
	b := NewBackend(nil)
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendMemory}))
	local := b.LocalStorage()
	require.NoError(t, local.SetItem("k", "v"))

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "detach is idempotent")

	_, _, err := local.GetItem("k")
	assert.ErrorIs(t, err, types.ErrDetached)
	_, err = b.NewSession()
	assert.ErrorIs(t, err, types.ErrDetached)
}

func TestLocalStorageSurvivesReattach(t *testing.T) {
	dir := t.TempDir()

	b := NewBackend(nil)
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	local := b.LocalStorage()
	require.NoError(t, local.SetItem("apps:filters", `{"env":["prod"]}`))
	require.NoError(t, local.SetItem("apps:filters", `{"env":["staging"]}`))
	require.NoError(t, local.SetItem("apps:sort", `null`))
	require.NoError(t, b.Detach())

	b = attach(t, dir)
	local = b.LocalStorage()
	value, ok, err := local.GetItem("apps:filters")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"env":["staging"]}`, value)

	keys, err := local.Keys("apps:")
	require.NoError(t, err)
	assert.Equal(t, []string{"apps:filters", "apps:sort"}, keys)

	require.NoError(t, local.RemoveItem("apps:sort"))
	require.NoError(t, local.RemoveItem("missing"))
	_, ok, err = local.GetItem("apps:sort")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorageKeysWithMultibytePrefix(t *testing.T) {
	b := NewBackend(nil)
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendMemory}))
	t.Cleanup(func() { _ = b.Detach() })

	local := b.LocalStorage()
	for _, key := range []string{"café:sort", "café:filters", "cafe:filters", "cafés:filters", "日本:pagination"} {
		require.NoError(t, local.SetItem(key, `{}`))
	}

	tests := []struct {
		prefix string
		want   []string
	}{
		{prefix: "café:", want: []string{"café:filters", "café:sort"}},
		{prefix: "cafe:", want: []string{"cafe:filters"}},
		{prefix: "日本:", want: []string{"日本:pagination"}},
		{prefix: "日", want: []string{"日本:pagination"}},
		{prefix: "", want: []string{"cafe:filters", "café:filters", "café:sort", "cafés:filters", "日本:pagination"}},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			keys, err := local.Keys(tt.prefix)
			require.NoError(t, err)
			assert.Equal(t, tt.want, keys)
		})
	}
}

func TestSessionScope(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend(nil)
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))

	first, err := b.NewSession()
	require.NoError(t, err)
	second, err := b.NewSession()
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())

	require.NoError(t, first.SetItem("page", "1"))
	_, ok, err := second.GetItem("page")
	require.NoError(t, err)
	assert.False(t, ok, "sessions do not share items")
	_, ok, err = b.LocalStorage().GetItem("page")
	require.NoError(t, err)
	assert.False(t, ok, "sessions do not leak into local storage")

	require.NoError(t, first.Close())
	require.NoError(t, first.Close())
	_, _, err = first.GetItem("page")
	assert.ErrorIs(t, err, types.ErrSessionClosed)
	assert.ErrorIs(t, first.SetItem("page", "2"), types.ErrSessionClosed)

	// An unclosed session is purged on the next attach.
	require.NoError(t, second.SetItem("page", "3"))
	require.NoError(t, b.Detach())
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	t.Cleanup(func() { _ = b.Detach() })
	_, ok, err = second.GetItem("page")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorageBacksPersistValue(t *testing.T) {
	b := attach(t, t.TempDir())

	opts := persist.Options[types.PageQuery]{
		PersistTo: persist.StrategyLocalStorage,
		Storage:   b.LocalStorage(),
		Key:       "pagination",
		KeyPrefix: "apps",
		Default:   types.PageQuery{PageNumber: 1, ItemsPerPage: 10},
	}
	v, err := persist.New(opts)
	require.NoError(t, err)
	v.Set(types.PageQuery{PageNumber: 3, ItemsPerPage: 25})

	reopened, err := persist.New(opts)
	require.NoError(t, err)
	assert.Equal(t, types.PageQuery{PageNumber: 3, ItemsPerPage: 25}, reopened.Get())

	raw, ok, err := b.LocalStorage().GetItem("apps:pagination")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"pageNumber":3,"itemsPerPage":25}`, raw)
}
