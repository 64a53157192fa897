package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/meikuraledutech/smartflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, store smartflow.Store) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lib := smartflow.NewLibrary(store, logger)
	lib.Load(context.Background())
	return New(lib, logger, WithClock(func() time.Time { return fixedNow }))
}

// call sends a request and decodes a JSON response into out when out is
// non-nil.
func call(t *testing.T, s *Server, method, path string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out), "%s %s", method, path)
	}
	return resp.StatusCode
}

type nodeResp struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

type viewResp struct {
	Nodes       []nodeResp `json:"nodes"`
	Connections []struct {
		ID int `json:"id"`
	} `json:"connections"`
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems"`
}

func buildWeekend(t *testing.T, s *Server) {
	t.Helper()
	var cond, dest nodeResp
	require.Equal(t, http.StatusCreated, call(t, s, http.MethodPost, "/flow/conditions",
		map[string]string{"criteria": "day", "operator": "is", "value": "sunday"}, &cond))
	require.Equal(t, http.StatusCreated, call(t, s, http.MethodPost, "/flow/destinations",
		map[string]string{"destinationUrl": "https://weekend.example"}, &dest))
	require.Equal(t, http.StatusNoContent, call(t, s, http.MethodPut, "/flow/default-destination",
		map[string]string{"url": "https://weekday.example"}, nil))

	for _, conn := range []map[string]any{
		{"from": "default-source", "to": cond.ID, "port": "success"},
		{"from": cond.ID, "to": dest.ID, "port": "success"},
		{"from": cond.ID, "to": "default-destination", "port": "danger"},
	} {
		require.Equal(t, http.StatusCreated, call(t, s, http.MethodPost, "/flow/connections", conn, nil))
	}
}

func TestCriteria(t *testing.T) {
	s := newTestServer(t, smartflow.NewMemoryStore())
	var body struct {
		Criteria  []smartflow.Criterion `json:"criteria"`
		Operators []smartflow.Choice    `json:"operators"`
		Defaults  smartflow.Attributes  `json:"defaults"`
	}
	assert.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/criteria", nil, &body))
	assert.Len(t, body.Criteria, 4)
	assert.Len(t, body.Operators, 2)
	assert.Equal(t, "monday", body.Defaults["day"])
}

func TestEditAndSimulate(t *testing.T) {
	s := newTestServer(t, smartflow.NewMemoryStore())

	var cond nodeResp
	require.Equal(t, http.StatusCreated, call(t, s, http.MethodPost, "/flow/conditions",
		map[string]string{"criteria": "day", "operator": "is", "value": "sunday"}, &cond))
	assert.Equal(t, 1, cond.ID)
	assert.Equal(t, "Day Is Sunday", cond.Label)

	assert.Equal(t, http.StatusConflict, call(t, s, http.MethodPost, "/flow/conditions",
		map[string]string{"criteria": "day", "operator": "is", "value": "sunday"}, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, s, http.MethodPost, "/flow/conditions",
		map[string]string{"criteria": "day", "operator": "maybe", "value": "sunday"}, nil))

	assert.Equal(t, http.StatusUnprocessableEntity, call(t, s, http.MethodPost, "/flow/simulate", nil, nil))

	require.Equal(t, http.StatusNoContent, call(t, s, http.MethodDelete, "/flow", nil, nil))
	buildWeekend(t, s)

	var discarded map[string]bool
	assert.Equal(t, http.StatusOK, call(t, s, http.MethodPost, "/flow/connections",
		map[string]any{"from": 3, "to": 2, "port": "success"}, &discarded))
	assert.True(t, discarded["discarded"])

	var validity viewResp
	assert.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/flow/validity", nil, &validity))
	assert.True(t, validity.Valid)
	assert.Empty(t, validity.Problems)

	var sim smartflow.Simulation
	require.Equal(t, http.StatusOK, call(t, s, http.MethodPost, "/flow/simulate",
		map[string]any{"attributes": map[string]string{"day": "sunday"}}, &sim))
	assert.Equal(t, "https://weekend.example", sim.Destination.URL)
	assert.Equal(t, smartflow.ReachedDestination, sim.Outcome)
	assert.True(t, fixedNow.Equal(sim.Timestamp))

	require.Equal(t, http.StatusOK, call(t, s, http.MethodPost, "/flow/simulate",
		map[string]any{"useDefaults": true}, &sim))
	assert.Equal(t, "https://weekday.example", sim.Destination.URL)
	assert.Equal(t, "us", sim.Payload.Attributes["country"])
}

func TestNodeRoutes(t *testing.T) {
	s := newTestServer(t, smartflow.NewMemoryStore())
	buildWeekend(t, s)

	assert.Equal(t, http.StatusNoContent, call(t, s, http.MethodPut, "/flow/nodes/2/position",
		map[string]float64{"x": 500, "y": 300}, nil))
	assert.Equal(t, http.StatusNotFound, call(t, s, http.MethodPut, "/flow/nodes/99/position",
		map[string]float64{"x": 1, "y": 1}, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, s, http.MethodDelete, "/flow/nodes/abc", nil, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, s, http.MethodPost, "/flow/connections",
		map[string]any{"from": "nowhere", "to": 1, "port": "success"}, nil))
	assert.Equal(t, http.StatusNotFound, call(t, s, http.MethodPost, "/flow/connections",
		map[string]any{"from": 1, "to": 42, "port": "success"}, nil))

	assert.Equal(t, http.StatusNoContent, call(t, s, http.MethodDelete, "/flow/nodes/2", nil, nil))
	var view viewResp
	require.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/flow", nil, &view))
	assert.Len(t, view.Nodes, 1)
	assert.Len(t, view.Connections, 2)
	assert.False(t, view.Valid)
	assert.Equal(t, []string{`condition "Day Is Sunday" has no success connection`}, view.Problems)

	require.Equal(t, http.StatusNoContent, call(t, s, http.MethodDelete,
		"/flow/connections/1", nil, nil))
	require.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/flow", nil, &view))
	assert.Len(t, view.Connections, 1)
}

func TestSnapshotRoutes(t *testing.T) {
	s := newTestServer(t, smartflow.NewMemoryStore())
	buildWeekend(t, s)

	var snap smartflow.Snapshot
	require.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/flow/snapshot", nil, &snap))
	assert.True(t, fixedNow.Equal(snap.GeneratedAt))
	assert.Len(t, snap.Nodes, 4)

	other := newTestServer(t, smartflow.NewMemoryStore())
	var view viewResp
	require.Equal(t, http.StatusOK, call(t, other, http.MethodPut, "/flow/snapshot", snap, &view))
	assert.True(t, view.Valid)
	assert.Len(t, view.Nodes, 2)
	assert.Len(t, view.Connections, 3)
}

func TestSavedFlowRoutes(t *testing.T) {
	s := newTestServer(t, smartflow.NewMemoryStore())

	assert.Equal(t, http.StatusUnprocessableEntity, call(t, s, http.MethodPost, "/flows",
		map[string]string{"name": "Empty"}, nil))

	buildWeekend(t, s)
	assert.Equal(t, http.StatusBadRequest, call(t, s, http.MethodPost, "/flows",
		map[string]string{"name": "  "}, nil))

	var saved smartflow.SavedFlow
	require.Equal(t, http.StatusCreated, call(t, s, http.MethodPost, "/flows",
		map[string]string{"name": "Weekend"}, &saved))
	assert.Equal(t, "Weekend", saved.Name)

	var view viewResp
	require.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/flow", nil, &view))
	assert.Empty(t, view.Nodes, "saving clears the canvas")

	buildWeekend(t, s)
	assert.Equal(t, http.StatusConflict, call(t, s, http.MethodPost, "/flows",
		map[string]string{"name": "weekend"}, nil))

	var list []smartflow.SavedFlow
	require.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/flows", nil, &list))
	require.Len(t, list, 1)

	require.Equal(t, http.StatusOK, call(t, s, http.MethodPost, "/flows/"+saved.ID+"/load", nil, &view))
	assert.True(t, view.Valid)
	assert.Len(t, view.Nodes, 2)
	assert.Equal(t, http.StatusNotFound, call(t, s, http.MethodPost, "/flows/missing/load", nil, nil))

	assert.Equal(t, http.StatusNoContent, call(t, s, http.MethodDelete, "/flows/"+saved.ID, nil, nil))
	require.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/flows", nil, &list))
	assert.Empty(t, list)
}

type brokenStore struct{}

var errBroken = errors.New("read-only filesystem")

func (brokenStore) CreateSchema(context.Context) error                       { return nil }
func (brokenStore) DropSchema(context.Context) error                         { return nil }
func (brokenStore) LoadFlows(context.Context) ([]smartflow.SavedFlow, error) { return nil, nil }
func (brokenStore) SaveFlows(context.Context, []smartflow.SavedFlow) error   { return errBroken }

func TestSaveWithoutPersistence(t *testing.T) {
	s := newTestServer(t, brokenStore{})
	buildWeekend(t, s)

	var body map[string]string
	assert.Equal(t, http.StatusServiceUnavailable, call(t, s, http.MethodPost, "/flows",
		map[string]string{"name": "Weekend"}, &body))
	assert.Contains(t, body["error"], "read-only filesystem")

	var list []smartflow.SavedFlow
	require.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/flows", nil, &list))
	assert.Len(t, list, 1, "the flow is kept for this session")

	var view viewResp
	require.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/flow", nil, &view))
	assert.Len(t, view.Nodes, 2, "canvas is kept when the save failed")
}
