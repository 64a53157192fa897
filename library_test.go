package smartflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// brokenStore fails every operation.
type brokenStore struct{}

var errBroken = errors.New("disk on fire")

func (brokenStore) CreateSchema(context.Context) error             { return errBroken }
func (brokenStore) DropSchema(context.Context) error               { return errBroken }
func (brokenStore) LoadFlows(context.Context) ([]SavedFlow, error) { return nil, errBroken }
func (brokenStore) SaveFlows(context.Context, []SavedFlow) error   { return errBroken }

func TestLibrary_SaveAndReload(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	lib := NewLibrary(store, discard)
	lib.Load(ctx)
	assert.Empty(t, lib.List())

	f, _, _ := weekendFlow(t)
	now := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	first, err := lib.Save(ctx, "  Weekend  ", f, now)
	require.NoError(t, err)
	assert.Equal(t, "Weekend", first.Name)
	assert.NotEmpty(t, first.ID)

	second, err := lib.Save(ctx, "Weekend copy", f, now)
	require.NoError(t, err)

	reloaded := NewLibrary(store, discard)
	reloaded.Load(ctx)
	list := reloaded.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)

	got, err := reloaded.Get(first.ID)
	require.NoError(t, err)
	restored := FromSnapshot(got.Snapshot)
	assert.Equal(t, "https://weekend.example", restored.Resolve(Attributes{"day": "sunday"}).URL)
	assert.Equal(t, "https://weekday.example", restored.Resolve(Attributes{"day": "monday"}).URL)
}

func TestLibrary_SaveRules(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary(NewMemoryStore(), discard)
	f, _, _ := weekendFlow(t)
	now := time.Now()

	_, err := lib.Save(ctx, "Weekend", New(), now)
	assert.ErrorIs(t, err, ErrInvalidFlow)

	_, err = lib.Save(ctx, "   ", f, now)
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = lib.Save(ctx, "Weekend", f, now)
	require.NoError(t, err)
	_, err = lib.Save(ctx, " WEEKEND ", f, now)
	assert.ErrorIs(t, err, ErrDuplicateName)

	assert.Len(t, lib.List(), 1)
	found, err := lib.FindByName("weekend")
	require.NoError(t, err)
	assert.Equal(t, "Weekend", found.Name)
}

func TestLibrary_Remove(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	lib := NewLibrary(store, discard)
	f, _, _ := weekendFlow(t)
	saved, err := lib.Save(ctx, "Weekend", f, time.Now())
	require.NoError(t, err)

	require.NoError(t, lib.Remove(ctx, saved.ID))
	require.NoError(t, lib.Remove(ctx, saved.ID))
	assert.Empty(t, lib.List())

	_, err = lib.Get(saved.ID)
	assert.ErrorIs(t, err, ErrFlowNotFound)

	stored, err := store.LoadFlows(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestLibrary_UnreadableStoreLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Put([]byte("{not json"))

	lib := NewLibrary(store, discard)
	lib.Load(ctx)
	assert.Empty(t, lib.List())

	broken := NewLibrary(brokenStore{}, discard)
	broken.Load(ctx)
	assert.Empty(t, broken.List())
}

func TestLibrary_PersistFailureIsReported(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary(brokenStore{}, discard)
	f, _, _ := weekendFlow(t)

	saved, err := lib.Save(ctx, "Weekend", f, time.Now())
	require.ErrorIs(t, err, ErrPersistenceUnavailable)
	assert.ErrorIs(t, err, errBroken)
	assert.Len(t, lib.List(), 1)

	err = lib.Remove(ctx, saved.ID)
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	flows, err := store.LoadFlows(ctx)
	require.NoError(t, err)
	assert.Nil(t, flows)

	require.NoError(t, store.SaveFlows(ctx, nil))
	flows, err = store.LoadFlows(ctx)
	require.NoError(t, err)
	assert.Empty(t, flows)

	require.NoError(t, store.DropSchema(ctx))
	flows, err = store.LoadFlows(ctx)
	require.NoError(t, err)
	assert.Nil(t, flows)
}
