package docs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocument_KeyIsDecimalNodeID(t *testing.T) {
	// Given: a create document for node 42
	doc := NewCreate(42)

	// Then: the store key is the decimal node ID
	assert.Equal(t, "42", doc.Key())
}

func TestUnion_DeduplicatesAndDropsEmpty(t *testing.T) {
	// Given: a create document with an existing value
	doc := NewCreate(1)
	doc.Set("Tags", "a")

	// When: unioning duplicates and empty strings
	doc.Union("Tags", "b", "a", "", "b")

	// Then: only distinct non-empty values remain, order preserved
	assert.Equal(t, []string{"a", "b"}, doc.Fields()["Tags"])
}

func TestPatchSet_DropsEmptyValueList(t *testing.T) {
	// Given: a patch document
	doc := NewPatch(1)

	// When: recording a set with no values
	doc.PatchSet("Name")

	// Then: the operation is dropped, never "clear the field"
	assert.Empty(t, doc.Patches())
	assert.True(t, doc.Empty())
}

func TestPatchAdd_DropsEmptyStrings(t *testing.T) {
	// Given: a patch document
	doc := NewPatch(1)

	// When: adding values including empty strings
	doc.PatchAdd("Tags", "", "x", "")
	doc.PatchAdd("Other", "", "")

	// Then: empty strings vanish and an all-empty add is dropped
	assert.Equal(t, Patch{Op: OpAdd, Values: []string{"x"}}, doc.Patches()["Tags"])
	assert.NotContains(t, doc.Patches(), "Other")
}

func TestEmpty_DistinguishesModes(t *testing.T) {
	// Given: one document per mode
	create := NewCreate(1)
	patch := NewPatch(2)

	// Then: both start empty
	assert.True(t, create.Empty())
	assert.True(t, patch.Empty())

	// When: adding content
	create.Set("CommonName", "x")
	patch.PatchSet("CommonName", "y")

	// Then: neither is empty
	assert.False(t, create.Empty())
	assert.False(t, patch.Empty())
}

func TestFormatTime_ZeroRendersEmpty(t *testing.T) {
	// Given: a zero and a non-zero timestamp
	ts := time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC)

	// Then: zero renders empty, non-zero renders RFC3339 UTC
	assert.Equal(t, "", FormatTime(time.Time{}))
	assert.Equal(t, "2024-06-15T12:30:00Z", FormatTime(ts))
}

func TestFormatTimes_KeepsDuplicatesDropsZero(t *testing.T) {
	// Given: duplicate dates and a zero value
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// When: formatting the list
	out := FormatTimes([]time.Time{ts, time.Time{}, ts})

	// Then: duplicates survive, zeros do not
	assert.Equal(t, []string{"2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"}, out)
}
