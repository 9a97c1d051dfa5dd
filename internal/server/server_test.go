package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stelae/stelae/internal/docs"
	"github.com/stelae/stelae/internal/graph"
	"github.com/stelae/stelae/internal/index"
	"github.com/stelae/stelae/internal/model"
	"github.com/stelae/stelae/internal/store"
	"github.com/stelae/stelae/internal/telemetry"
)

// newTestServer wires an in-memory graph store and mem-only indices
// behind the admin surface.
func newTestServer(t *testing.T) (*Server, *store.SQLiteGraphStore) {
	t.Helper()

	gs, err := store.NewSQLiteGraphStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = gs.Close() })

	resolver, err := graph.NewResolver(gs)
	require.NoError(t, err)
	projector, err := docs.NewProjector(gs)
	require.NoError(t, err)

	objects, err := index.NewBleveStore("objects", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = objects.Close() })
	metadata, err := index.NewBleveStore("metadata", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = metadata.Close() })

	metrics := telemetry.NewMetrics()
	sync := index.NewSynchronizer(index.SynchronizerConfig{},
		gs, resolver, projector, objects, metadata, metrics)

	return New("127.0.0.1:0", sync, objects, metadata, metrics), gs
}

func getJSON(t *testing.T, h http.Handler, method, path string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestServer_Healthz(t *testing.T) {
	s, _ := newTestServer(t)

	code, body := getJSON(t, s.Handler(), http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestServer_StatusReportsDocCounts(t *testing.T) {
	// Given: one unit in the graph, reindexed
	s, gs := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, gs.UpsertNode(ctx, model.Node{ID: 1, Type: model.ObjectTypeUnit, ObjectID: 10, Name: "NMNH"}))
	require.NoError(t, gs.UpsertDomainObject(ctx, model.Unit{ID: 10, Name: "NMNH"}))
	_, err := s.sync.FullRebuild(ctx)
	require.NoError(t, err)

	// When: asking for status
	code, body := getJSON(t, s.Handler(), http.MethodGet, "/admin/status")

	// Then: the rebuild flag is down and the object count is visible
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["rebuilding"])
	assert.Equal(t, float64(1), body["object_documents"])
	assert.Equal(t, float64(0), body["metadata_documents"])
}

func TestServer_ReindexRunsInBackground(t *testing.T) {
	// Given: an admin server over an empty graph
	s, _ := newTestServer(t)

	// When: triggering a rebuild
	code, body := getJSON(t, s.Handler(), http.MethodPost, "/admin/reindex")

	// Then: the trigger is accepted and runs in the background
	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "rebuild started", body["status"])

	// And: once it finishes, a second trigger is accepted again
	require.Eventually(t, func() bool { return !s.sync.Rebuilding() },
		5*time.Second, 10*time.Millisecond)
	code, _ = getJSON(t, s.Handler(), http.MethodPost, "/admin/reindex")
	assert.Equal(t, http.StatusAccepted, code)
	require.Eventually(t, func() bool { return !s.sync.Rebuilding() },
		5*time.Second, 10*time.Millisecond)
}

func TestServer_MetricsExposed(t *testing.T) {
	// Given: a completed rebuild so the rebuild counter has a sample
	s, _ := newTestServer(t)
	require.True(t, s.sync.TriggerFullRebuild(context.Background()))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stelae_rebuilds_total")
}

func TestServer_MetricsAbsentWithoutRegistry(t *testing.T) {
	// Given: a server built without metrics
	s, _ := newTestServer(t)
	bare := New("127.0.0.1:0", s.sync, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	bare.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
