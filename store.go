package smartflow

import (
	"context"
	"errors"
)

var (
	ErrDuplicateCondition     = errors.New("smartflow: condition already exists")
	ErrInvalidCondition       = errors.New("smartflow: condition needs a criteria and a known operator")
	ErrInvalidFlow            = errors.New("smartflow: flow is not valid")
	ErrNodeNotFound           = errors.New("smartflow: node not found")
	ErrInvalidRef             = errors.New("smartflow: invalid node reference")
	ErrInvalidPort            = errors.New("smartflow: invalid port")
	ErrEmptyName              = errors.New("smartflow: flow name is empty")
	ErrDuplicateName          = errors.New("smartflow: a flow with this name already exists")
	ErrFlowNotFound           = errors.New("smartflow: saved flow not found")
	ErrPersistenceUnavailable = errors.New("smartflow: persistence unavailable")
)

// StorageKey is the fixed key every Store keeps the saved-flow list under.
const StorageKey = "smart-flow:saved-flows"

// Store persists the saved-flow list as a single value.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// LoadFlows returns the stored list, or nil, nil if nothing is stored.
	LoadFlows(ctx context.Context) ([]SavedFlow, error)
	// SaveFlows replaces the stored list.
	SaveFlows(ctx context.Context, flows []SavedFlow) error
}

// SavedFlow is a named snapshot kept in the library.
type SavedFlow struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Snapshot Snapshot `json:"snapshot"`
}
