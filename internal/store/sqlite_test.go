package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stelaeerrors "github.com/stelae/stelae/internal/errors"
	"github.com/stelae/stelae/internal/model"
)

func newTestStore(t *testing.T) *SQLiteGraphStore {
	t.Helper()
	s, err := NewSQLiteGraphStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteGraphStore_NodeRoundTrip(t *testing.T) {
	// Given: a node with a creation timestamp
	s := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertNode(ctx, model.Node{
		ID: 1, Type: model.ObjectTypeSubject, ObjectID: 30,
		Name: "Bee Specimen", Retired: true, Created: created,
	}))

	// When: fetching it back
	n, err := s.FetchNode(ctx, 1)
	require.NoError(t, err)

	// Then: every column survives
	assert.Equal(t, model.ObjectTypeSubject, n.Type)
	assert.Equal(t, int64(30), n.ObjectID)
	assert.Equal(t, "Bee Specimen", n.Name)
	assert.True(t, n.Retired)
	assert.True(t, created.Equal(n.Created))
}

func TestSQLiteGraphStore_FetchNode_NotFound(t *testing.T) {
	// Given: an empty store
	s := newTestStore(t)

	// When: fetching a missing node
	_, err := s.FetchNode(context.Background(), 404)

	// Then: the error carries the not-found code
	require.Error(t, err)
	assert.True(t, stelaeerrors.IsNotFound(err))
}

func TestSQLiteGraphStore_EdgesAndLinkedNodes(t *testing.T) {
	// Given: a unit with two derived projects
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertNode(ctx, model.Node{ID: 1, Type: model.ObjectTypeUnit, ObjectID: 10}))
	require.NoError(t, s.UpsertNode(ctx, model.Node{ID: 2, Type: model.ObjectTypeProject, ObjectID: 20}))
	require.NoError(t, s.UpsertNode(ctx, model.Node{ID: 3, Type: model.ObjectTypeProject, ObjectID: 21}))
	require.NoError(t, s.AddEdge(ctx, 1, 2))
	require.NoError(t, s.AddEdge(ctx, 1, 3))
	require.NoError(t, s.AddEdge(ctx, 1, 3), "duplicate edges are ignored")

	// When: loading the whole graph
	nodes, edges, err := s.FetchAllNodesAndEdges(ctx)
	require.NoError(t, err)

	// Then: the graph holds three nodes and two distinct edges
	assert.Len(t, nodes, 3)
	assert.Len(t, edges, 2)

	// And: directional fetches agree
	children, err := s.FetchChildren(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, children, 2)

	parents, err := s.FetchParents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, parents, 1)
	assert.Equal(t, int64(1), parents[0].ID)
}

func TestSQLiteGraphStore_DomainObjectRoundTrip(t *testing.T) {
	// Given: a model row
	s := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertDomainObject(ctx, model.Model{
		ID: 60, Name: "Bee Mesh", CreationMethodID: 1, ModalityID: 2,
		UnitsID: 3, PurposeID: 4, FileTypeID: 5, Created: created,
	}))

	// When: fetching it as a domain object
	obj, err := s.FetchDomainObject(ctx, model.ObjectTypeModel, 60)
	require.NoError(t, err)

	// Then: the typed row comes back intact
	m, ok := obj.(model.Model)
	require.True(t, ok)
	assert.Equal(t, "Bee Mesh", m.Name)
	assert.Equal(t, int64(4), m.PurposeID)
	assert.True(t, created.Equal(m.Created))
}

func TestSQLiteGraphStore_DomainObject_NotFound(t *testing.T) {
	// Given: an empty store
	s := newTestStore(t)

	// When: fetching a missing unit
	_, err := s.FetchDomainObject(context.Background(), model.ObjectTypeUnit, 404)

	// Then: the error carries the not-found code
	assert.True(t, stelaeerrors.IsNotFound(err))
}

func TestSQLiteGraphStore_CaptureFactsLoadWithNodes(t *testing.T) {
	// Given: a capture node whose files span three variants with one
	// duplicate
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertNode(ctx, model.Node{ID: 5, Type: model.ObjectTypeCaptureData, ObjectID: 50}))
	require.NoError(t, s.UpsertDomainObject(ctx, model.CaptureData{ID: 50, CaptureMethodID: 7}))
	require.NoError(t, s.AddCaptureFile(ctx, 50, 11))
	require.NoError(t, s.AddCaptureFile(ctx, 50, 12))
	require.NoError(t, s.AddCaptureFile(ctx, 50, 11))

	// When: loading the graph
	nodes, _, err := s.FetchAllNodesAndEdges(ctx)
	require.NoError(t, err)

	// Then: the node carries its method and distinct variant facts
	require.Len(t, nodes, 1)
	assert.Equal(t, int64(7), nodes[0].Facts.CaptureMethodID)
	assert.ElementsMatch(t, []int64{11, 12}, nodes[0].Facts.VariantTypeIDs)

	// And: the single-node fetch agrees
	n, err := s.FetchNode(ctx, 5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{11, 12}, n.Facts.VariantTypeIDs)
}

func TestSQLiteGraphStore_CapturePhoto(t *testing.T) {
	// Given: a capture set with a photogrammetry record
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddCapturePhoto(ctx, model.CaptureDataPhoto{
		ID: 1, CaptureDataID: 50, DatasetTypeID: 8, CameraSettingsUniform: true,
	}))

	// When: fetching the record
	photo, err := s.FetchCapturePhoto(ctx, 50)
	require.NoError(t, err)
	require.NotNil(t, photo)
	assert.Equal(t, int64(8), photo.DatasetTypeID)
	assert.True(t, photo.CameraSettingsUniform)

	// And: absence yields nil without error
	missing, err := s.FetchCapturePhoto(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteGraphStore_Identifiers(t *testing.T) {
	// Given: two identifiers on one node
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddIdentifier(ctx, model.Identifier{NodeID: 3, Value: "USNM 1"}))
	require.NoError(t, s.AddIdentifier(ctx, model.Identifier{NodeID: 3, Value: "ark:/x", Preferred: true}))

	// When: fetching them
	ids, err := s.FetchIdentifiers(ctx, 3)
	require.NoError(t, err)

	// Then: insertion order and the preferred flag are preserved
	require.Len(t, ids, 2)
	assert.Equal(t, "USNM 1", ids[0].Value)
	assert.True(t, ids[1].Preferred)

	// And: a node without identifiers yields an empty slice
	none, err := s.FetchIdentifiers(ctx, 404)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSQLiteGraphStore_MetadataPaging(t *testing.T) {
	// Given: five metadata rows
	s := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.AddMetadataRow(ctx, model.MetadataRow{NodeID: 3, Name: "Tag", Value: "v"})
		require.NoError(t, err)
	}

	// When: paging with a size of two
	page1, err := s.FetchMetadataPage(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)

	page2, err := s.FetchMetadataPage(ctx, page1[1].ID, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)

	page3, err := s.FetchMetadataPage(ctx, page2[1].ID, 2)
	require.NoError(t, err)

	// Then: the cursor walks every row exactly once
	assert.Len(t, page3, 1)
	assert.Greater(t, page2[0].ID, page1[1].ID)
}

func TestSQLiteGraphStore_VocabularyTerm(t *testing.T) {
	// Given: one vocabulary entry
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetVocabularyTerm(ctx, 7, "Photogrammetry"))

	// When: resolving terms
	term, err := s.FetchVocabularyTerm(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Photogrammetry", term)

	// Then: unknown IDs resolve to empty without error
	unknown, err := s.FetchVocabularyTerm(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, "", unknown)
}

func TestSQLiteGraphStore_PersistsToDisk(t *testing.T) {
	// Given: a store written to a file and closed
	path := filepath.Join(t.TempDir(), "graph.db")
	ctx := context.Background()

	s, err := NewSQLiteGraphStore(path)
	require.NoError(t, err)
	require.NoError(t, s.UpsertNode(ctx, model.Node{ID: 1, Type: model.ObjectTypeUnit, ObjectID: 10, Name: "NMNH"}))
	require.NoError(t, s.Close())

	// When: reopening the same path
	s2, err := NewSQLiteGraphStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s2.Close() })

	// Then: the node is still there
	n, err := s2.FetchNode(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "NMNH", n.Name)
}

func TestDirLock_SecondLockFails(t *testing.T) {
	// Given: a held data directory lock
	dir := t.TempDir()
	first := NewDirLock(dir)
	acquired, err := first.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	t.Cleanup(func() { _ = first.Unlock() })

	// When: a second process-equivalent tries to lock it
	second := NewDirLock(dir)
	acquired, err = second.TryLock()
	require.NoError(t, err)

	// Then: the second attempt is refused until the first releases
	assert.False(t, acquired)

	require.NoError(t, first.Unlock())
	acquired, err = second.TryLock()
	require.NoError(t, err)
	assert.True(t, acquired)
	require.NoError(t, second.Unlock())
}
