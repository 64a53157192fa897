package smartflow

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Library holds the saved-flow list for one application and keeps it in
// sync with a Store. It is not safe for concurrent use.
type Library struct {
	store  Store
	logger *slog.Logger
	flows  []SavedFlow
}

// NewLibrary returns an empty library backed by store. Call Load to read the
// stored list.
func NewLibrary(store Store, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{store: store, logger: logger}
}

// Load replaces the in-memory list with the stored one. A store that cannot
// be read leaves the library empty; the failure is logged, not returned.
func (l *Library) Load(ctx context.Context) {
	flows, err := l.store.LoadFlows(ctx)
	if err != nil {
		l.logger.Error("load saved flows", "key", StorageKey, "err", err)
		flows = nil
	}
	l.flows = flows
	l.logger.Debug("saved flows loaded", "count", len(l.flows))
}

// List returns the saved flows, newest first.
func (l *Library) List() []SavedFlow {
	return slices.Clone(l.flows)
}

// Get returns the saved flow with the given id.
func (l *Library) Get(id string) (SavedFlow, error) {
	for _, sf := range l.flows {
		if sf.ID == id {
			return sf, nil
		}
	}
	return SavedFlow{}, ErrFlowNotFound
}

// FindByName returns the saved flow whose name matches, ignoring case and
// surrounding space.
func (l *Library) FindByName(name string) (SavedFlow, error) {
	name = strings.TrimSpace(name)
	for _, sf := range l.flows {
		if strings.EqualFold(sf.Name, name) {
			return sf, nil
		}
	}
	return SavedFlow{}, ErrFlowNotFound
}

// Save snapshots f under name and persists the list. The flow must be valid
// and the trimmed name unique among saved flows, ignoring case.
//
// If the store rejects the write the flow stays in the in-memory list and
// the returned error wraps ErrPersistenceUnavailable.
func (l *Library) Save(ctx context.Context, name string, f *Flow, now time.Time) (SavedFlow, error) {
	if !f.Valid() {
		return SavedFlow{}, ErrInvalidFlow
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return SavedFlow{}, ErrEmptyName
	}
	if _, err := l.FindByName(name); err == nil {
		return SavedFlow{}, ErrDuplicateName
	}

	sf := SavedFlow{ID: uuid.NewString(), Name: name, Snapshot: f.Snapshot(now)}
	l.flows = append([]SavedFlow{sf}, l.flows...)
	if err := l.persist(ctx); err != nil {
		return sf, err
	}
	l.logger.Info("flow saved", "id", sf.ID, "name", sf.Name)
	return sf, nil
}

// Remove deletes a saved flow. Removing an unknown id is a no-op.
func (l *Library) Remove(ctx context.Context, id string) error {
	before := len(l.flows)
	l.flows = slices.DeleteFunc(l.flows, func(sf SavedFlow) bool { return sf.ID == id })
	if len(l.flows) == before {
		return nil
	}
	if err := l.persist(ctx); err != nil {
		return err
	}
	l.logger.Info("flow removed", "id", id)
	return nil
}

func (l *Library) persist(ctx context.Context) error {
	if err := l.store.SaveFlows(ctx, l.flows); err != nil {
		l.logger.Error("persist saved flows", "key", StorageKey, "err", err)
		return fmt.Errorf("%w: %w", ErrPersistenceUnavailable, err)
	}
	return nil
}
