package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stelae/stelae/internal/docs"
)

func newMemStore(t *testing.T) *BleveStore {
	t.Helper()
	store, err := NewBleveStore("test", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBleveStore_CreateThenPatchMerges(t *testing.T) {
	// Given: a committed create document
	store := newMemStore(t)
	ctx := context.Background()

	create := docs.NewCreate(1)
	create.Set("CommonName", "Bee Specimen")
	create.Set("ChildrenObjectTypes", "Item")
	require.NoError(t, store.Add(ctx, []*docs.Document{create}))
	require.NoError(t, store.Commit(ctx))

	// When: a later round trip patches the same document
	patch := docs.NewPatch(1)
	patch.PatchAdd("ChildrenObjectTypes", "Capture Data", "Item")
	patch.PatchSet("CommonName", "Renamed Specimen")
	require.NoError(t, store.Add(ctx, []*docs.Document{patch}))
	require.NoError(t, store.Commit(ctx))

	// Then: add unions without duplicates and set replaces
	fields, err := store.Fields("1")
	require.NoError(t, err)
	require.NotNil(t, fields)
	assert.ElementsMatch(t, []string{"Item", "Capture Data"}, fields["ChildrenObjectTypes"])
	assert.Equal(t, []string{"Renamed Specimen"}, fields["CommonName"])
}

func TestBleveStore_PatchForMissingDocumentStartsEmpty(t *testing.T) {
	// Given: an empty index
	store := newMemStore(t)
	ctx := context.Background()

	// When: a patch arrives for a document that was never created
	patch := docs.NewPatch(7)
	patch.PatchAdd("ChildrenObjectTypes", "Model")
	require.NoError(t, store.Add(ctx, []*docs.Document{patch}))
	require.NoError(t, store.Commit(ctx))

	// Then: the document exists with just the patched field
	fields, err := store.Fields("7")
	require.NoError(t, err)
	assert.Equal(t, []string{"Model"}, fields["ChildrenObjectTypes"])
}

func TestBleveStore_DateValuesRoundTripThroughPatch(t *testing.T) {
	// Given: a document with RFC3339 date strings
	store := newMemStore(t)
	ctx := context.Background()

	create := docs.NewCreate(3)
	create.Set("ChildrenDateCreated", "2024-03-01T00:00:00Z")
	require.NoError(t, store.Add(ctx, []*docs.Document{create}))
	require.NoError(t, store.Commit(ctx))

	// When: a patch adds another date in a later round trip
	patch := docs.NewPatch(3)
	patch.PatchAdd("ChildrenDateCreated", "2024-04-01T00:00:00Z")
	require.NoError(t, store.Add(ctx, []*docs.Document{patch}))
	require.NoError(t, store.Commit(ctx))

	// Then: the stored strings survive verbatim
	fields, err := store.Fields("3")
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"2024-03-01T00:00:00Z", "2024-04-01T00:00:00Z"},
		fields["ChildrenDateCreated"])
}

func TestBleveStore_CreateReplacesEarlierDocument(t *testing.T) {
	// Given: a committed document with two fields
	store := newMemStore(t)
	ctx := context.Background()

	first := docs.NewCreate(4)
	first.Set("CommonName", "old")
	first.Set("ProjectDescription", "legacy")
	require.NoError(t, store.Add(ctx, []*docs.Document{first}))
	require.NoError(t, store.Commit(ctx))

	// When: a full re-create arrives without the second field
	second := docs.NewCreate(4)
	second.Set("CommonName", "new")
	require.NoError(t, store.Add(ctx, []*docs.Document{second}))
	require.NoError(t, store.Commit(ctx))

	// Then: the old field is gone, not merged
	fields, err := store.Fields("4")
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, fields["CommonName"])
	assert.NotContains(t, fields, "ProjectDescription")
}

func TestBleveStore_DocCount(t *testing.T) {
	// Given: two committed documents
	store := newMemStore(t)
	ctx := context.Background()

	a := docs.NewCreate(1)
	a.Set("CommonName", "a")
	b := docs.NewCreate(2)
	b.Set("CommonName", "b")
	require.NoError(t, store.Add(ctx, []*docs.Document{a, b}))
	require.NoError(t, store.Commit(ctx))

	// Then: the count reflects both
	count, err := store.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestBleveStore_ClosedStoreRefusesWrites(t *testing.T) {
	// Given: a closed store
	store := newMemStore(t)
	require.NoError(t, store.Close())

	// When: adding after close
	doc := docs.NewCreate(1)
	doc.Set("CommonName", "x")
	err := store.Add(context.Background(), []*docs.Document{doc})

	// Then: the write is refused
	assert.Error(t, err)
}

func TestNewBleveStore_RecreatesCorruptedIndex(t *testing.T) {
	// Given: an index directory with a truncated meta file
	dir := t.TempDir()
	path := filepath.Join(dir, "objects.bleve")
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "index_meta.json"), nil, 0o644))

	// When: opening the store
	store, err := NewBleveStore("objects", path)

	// Then: the corrupt directory is cleared and a fresh index created
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	count, err := store.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}
