package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	assert.Empty(t, store.GetAll())

	saved, err := store.Add("  Big counts ", "rows above four", "public.items", Spec{Fields: scenarioFields})
	require.NoError(t, err)
	assert.Equal(t, "Big counts", saved.Name)
	assert.Equal(t, "Big counts", saved.Spec.View.Name)
	assert.NotEmpty(t, saved.ID)

	_, err = store.Add("big COUNTS", "", "", Spec{})
	assert.ErrorContains(t, err, "already exists")

	_, err = store.Add(" ", "", "", Spec{})
	assert.ErrorContains(t, err, "cannot be empty")

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	got, err := reopened.Get("big counts")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, scenarioFields, got.Spec.Fields)

	require.NoError(t, reopened.RecordUsage(saved.ID))
	got, err = reopened.Get(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsageCount)

	assert.Len(t, reopened.Search("ITEMS"), 1)
	assert.Empty(t, reopened.Search("missing"))

	require.NoError(t, reopened.Delete(saved.ID))
	assert.Error(t, reopened.Delete(saved.ID))
	_, err = reopened.Get(saved.ID)
	assert.Error(t, err)
}

func TestStoreUpdate(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	saved, err := store.Add("mine", "", "", Spec{})
	require.NoError(t, err)
	require.NoError(t, store.Update(saved.ID, Spec{Fields: scenarioFields, Search: SearchSpec{Term: "a"}}))

	got, err := store.Get(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Spec.Search.Term)
	assert.Equal(t, "mine", got.Spec.View.Name)

	assert.Error(t, store.Update("nope", Spec{}))
}

func TestStoreGetRecent(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	first, err := store.Add("first", "", "", Spec{})
	require.NoError(t, err)
	_, err = store.Add("second", "", "", Spec{})
	require.NoError(t, err)
	require.NoError(t, store.RecordUsage(first.ID))

	recent := store.GetRecent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, "first", recent[0].Name)
}
