package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stelae/stelae/internal/model"
)

// fakeGraphStore is an in-memory GraphStore for resolver tests.
type fakeGraphStore struct {
	nodes map[int64]model.Node
	edges []model.Edge
	vocab map[int64]string
}

func newFakeGraphStore() *fakeGraphStore {
	return &fakeGraphStore{
		nodes: make(map[int64]model.Node),
		vocab: make(map[int64]string),
	}
}

func (f *fakeGraphStore) addNode(n model.Node) {
	f.nodes[n.ID] = n
}

func (f *fakeGraphStore) addEdge(masterID, derivedID int64) {
	f.edges = append(f.edges, model.Edge{MasterID: masterID, DerivedID: derivedID})
}

func (f *fakeGraphStore) FetchAllNodesAndEdges(_ context.Context) ([]model.Node, []model.Edge, error) {
	nodes := make([]model.Node, 0, len(f.nodes))
	for _, n := range f.nodes {
		nodes = append(nodes, n)
	}
	return nodes, f.edges, nil
}

func (f *fakeGraphStore) FetchNode(_ context.Context, id int64) (*model.Node, error) {
	n, ok := f.nodes[id]
	if !ok {
		return nil, assert.AnError
	}
	return &n, nil
}

func (f *fakeGraphStore) FetchParents(_ context.Context, id int64) ([]model.Node, error) {
	var out []model.Node
	for _, e := range f.edges {
		if e.DerivedID == id {
			out = append(out, f.nodes[e.MasterID])
		}
	}
	return out, nil
}

func (f *fakeGraphStore) FetchChildren(_ context.Context, id int64) ([]model.Node, error) {
	var out []model.Node
	for _, e := range f.edges {
		if e.MasterID == id {
			out = append(out, f.nodes[e.DerivedID])
		}
	}
	return out, nil
}

func (f *fakeGraphStore) FetchDomainObject(_ context.Context, _ model.ObjectType, _ int64) (model.DomainObject, error) {
	return nil, assert.AnError
}

func (f *fakeGraphStore) FetchIdentifiers(_ context.Context, _ int64) ([]model.Identifier, error) {
	return nil, nil
}

func (f *fakeGraphStore) FetchCapturePhoto(_ context.Context, _ int64) (*model.CaptureDataPhoto, error) {
	return nil, nil
}

func (f *fakeGraphStore) FetchCaptureFileVariants(_ context.Context, _ int64) ([]int64, error) {
	return nil, nil
}

func (f *fakeGraphStore) FetchMetadataPage(_ context.Context, _ int64, _ int) ([]model.MetadataRow, error) {
	return nil, nil
}

func (f *fakeGraphStore) FetchVocabularyTerm(_ context.Context, vocabID int64) (string, error) {
	return f.vocab[vocabID], nil
}

func (f *fakeGraphStore) Close() error { return nil }

func newTestResolver(t *testing.T, store model.GraphStore) *Resolver {
	t.Helper()
	r, err := NewResolver(store)
	require.NoError(t, err)
	return r
}

// buildHierarchy seeds a unit -> project -> subject -> item chain with
// an extra project -> item edge forming a diamond.
func buildHierarchy() *fakeGraphStore {
	store := newFakeGraphStore()
	store.addNode(model.Node{ID: 1, Type: model.ObjectTypeUnit, ObjectID: 10, Name: "NMNH"})
	store.addNode(model.Node{ID: 2, Type: model.ObjectTypeProject, ObjectID: 20, Name: "Bee Survey"})
	store.addNode(model.Node{ID: 3, Type: model.ObjectTypeSubject, ObjectID: 30, Name: "Bee Specimen"})
	store.addNode(model.Node{ID: 4, Type: model.ObjectTypeItem, ObjectID: 40, Name: "Whole Bee",
		Created: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)})
	store.addEdge(1, 2)
	store.addEdge(2, 3)
	store.addEdge(3, 4)
	store.addEdge(2, 4)
	return store
}

func TestResolveAll_TransitiveAncestors(t *testing.T) {
	// Given: a diamond hierarchy where the item hangs off both the
	// subject and the project
	store := buildHierarchy()
	r := newTestResolver(t, store)

	// When: resolving the whole graph
	entries, err := r.ResolveAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// Then: the item's ancestor set is transitive, deduplicated, and
	// never contains the item itself
	item := entries[4]
	assert.ElementsMatch(t, []int64{3, 2}, item.ParentIDs)
	assert.ElementsMatch(t, []int64{1, 2, 3}, item.AncestorIDs)
	assert.NotContains(t, item.AncestorIDs, int64(4))
}

func TestResolveAll_LandmarkSetsCarryIDAndName(t *testing.T) {
	// Given: the diamond hierarchy
	store := buildHierarchy()
	r := newTestResolver(t, store)

	// When: resolving the graph
	entries, err := r.ResolveAll(context.Background())
	require.NoError(t, err)

	// Then: each landmark level of the item carries the ancestor's
	// domain-object ID and display name
	item := entries[4]
	require.Len(t, item.Units, 1)
	assert.Equal(t, int64(10), item.Units[0].ObjectID)
	assert.Equal(t, "NMNH", item.Units[0].Name)
	require.Len(t, item.Projects, 1)
	assert.Equal(t, "Bee Survey", item.Projects[0].Name)
	require.Len(t, item.Subjects, 1)
	assert.Equal(t, int64(30), item.Subjects[0].ObjectID)
	assert.Empty(t, item.Items, "the item is not its own landmark")
}

func TestResolveAll_DescendantAggregate(t *testing.T) {
	// Given: the diamond hierarchy plus a capture set with a method term
	store := buildHierarchy()
	store.vocab[7] = "Photogrammetry"
	store.addNode(model.Node{ID: 5, Type: model.ObjectTypeCaptureData, ObjectID: 50,
		Created: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Facts:   model.NodeFacts{CaptureMethodID: 7}})
	store.addEdge(4, 5)

	r := newTestResolver(t, store)

	// When: resolving the graph
	entries, err := r.ResolveAll(context.Background())
	require.NoError(t, err)

	// Then: the unit's aggregate unions distinct descendant types and
	// resolved vocabulary terms, while dates keep duplicates
	unit := entries[1]
	assert.Equal(t, []string{"Capture Data", "Item", "Project", "Subject"}, unit.Aggregate.ChildTypes)
	assert.Equal(t, []string{"Photogrammetry"}, unit.Aggregate.CaptureMethods)
	assert.Len(t, unit.Aggregate.DateCreated, 2, "item and capture share a date, both kept")
}

func TestResolveAll_LeafAggregateIsEmpty(t *testing.T) {
	// Given: the diamond hierarchy
	store := buildHierarchy()
	r := newTestResolver(t, store)

	// When: resolving the graph
	entries, err := r.ResolveAll(context.Background())
	require.NoError(t, err)

	// Then: the leaf item has an empty aggregate
	assert.True(t, entries[4].Aggregate.Empty())
}

func TestResolveAll_SkipsEdgesToUnknownNodes(t *testing.T) {
	// Given: an edge referencing a node that does not exist
	store := buildHierarchy()
	store.addEdge(1, 99)
	store.addEdge(98, 4)
	r := newTestResolver(t, store)

	// When: resolving the graph
	entries, err := r.ResolveAll(context.Background())

	// Then: the dangling edges are skipped without error
	require.NoError(t, err)
	assert.NotContains(t, entries[1].ChildIDs, int64(99))
	assert.NotContains(t, entries[4].ParentIDs, int64(98))
}

func TestResolveAll_CycleTerminates(t *testing.T) {
	// Given: corrupt external data containing a two-node cycle
	store := newFakeGraphStore()
	store.addNode(model.Node{ID: 1, Type: model.ObjectTypeProject, ObjectID: 10})
	store.addNode(model.Node{ID: 2, Type: model.ObjectTypeSubject, ObjectID: 20})
	store.addEdge(1, 2)
	store.addEdge(2, 1)
	r := newTestResolver(t, store)

	// When: resolving the graph
	entries, err := r.ResolveAll(context.Background())

	// Then: resolution terminates and neither node lists itself
	require.NoError(t, err)
	assert.NotContains(t, entries[1].AncestorIDs, int64(1))
	assert.NotContains(t, entries[2].AncestorIDs, int64(2))
}

func TestResolveOne_ContributionIncludesSelfAndSubtree(t *testing.T) {
	// Given: the diamond hierarchy with a capture set under the item
	store := buildHierarchy()
	store.vocab[7] = "Structured Light"
	store.addNode(model.Node{ID: 5, Type: model.ObjectTypeCaptureData, ObjectID: 50,
		Facts: model.NodeFacts{CaptureMethodID: 7}})
	store.addEdge(4, 5)
	r := newTestResolver(t, store)

	// When: resolving only the item
	res, err := r.ResolveOne(context.Background(), 4)
	require.NoError(t, err)

	// Then: every transitive ancestor receives the same contribution,
	// covering the item itself plus its subtree
	require.Len(t, res.Ancestors, 3)
	for _, anc := range res.Ancestors {
		assert.Contains(t, anc.Aggregate.ChildTypes, "Item")
		assert.Contains(t, anc.Aggregate.ChildTypes, "Capture Data")
		assert.Equal(t, []string{"Structured Light"}, anc.Aggregate.CaptureMethods)
	}

	// And: the item's own entry aggregates only its subtree
	assert.Equal(t, []string{"Capture Data"}, res.Entry.Aggregate.ChildTypes)
	assert.ElementsMatch(t, []int64{1, 2, 3}, res.Entry.AncestorIDs)
}
