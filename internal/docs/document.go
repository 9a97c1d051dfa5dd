// Package docs builds the flat search documents submitted to the index
// store. A Document carries one of two encodings: "create" holds literal
// field values for a document that does not exist yet, "patch" wraps
// each value with set/add semantics for field-level updates against an
// existing document.
package docs

import (
	"strconv"
	"time"
)

// Op is a field-level patch operation.
type Op string

const (
	// OpSet replaces the field's value.
	OpSet Op = "set"
	// OpAdd unions values into a multi-valued field.
	OpAdd Op = "add"
)

// Mode distinguishes the two document encodings.
type Mode int

const (
	// ModeCreate is a full-document creation.
	ModeCreate Mode = iota
	// ModePatch is a field-level update of an existing document.
	ModePatch
)

// Patch is one field-level operation inside a patch document.
type Patch struct {
	Op     Op
	Values []string
}

// Document is the field-keyed representation of one node, keyed by its
// system object ID. Built by the projector, consumed once, discarded.
type Document struct {
	ID   int64
	Mode Mode

	fields  map[string][]string
	patches map[string]Patch
}

// NewCreate returns an empty create-mode document for a node.
func NewCreate(id int64) *Document {
	return &Document{ID: id, Mode: ModeCreate, fields: make(map[string][]string)}
}

// NewPatch returns an empty patch-mode document for a node.
func NewPatch(id int64) *Document {
	return &Document{ID: id, Mode: ModePatch, patches: make(map[string]Patch)}
}

// Key returns the document's store key.
func (d *Document) Key() string {
	return strconv.FormatInt(d.ID, 10)
}

// Set assigns literal values to a field of a create document.
func (d *Document) Set(field string, values ...string) {
	d.fields[field] = values
}

// Union appends values to a field of a create document, skipping
// duplicates and empty strings.
func (d *Document) Union(field string, values ...string) {
	existing := d.fields[field]
	seen := make(map[string]bool, len(existing))
	for _, v := range existing {
		seen[v] = true
	}
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		existing = append(existing, v)
	}
	if len(existing) > 0 {
		d.fields[field] = existing
	}
}

// PatchSet records a set operation on a patch document. Empty value
// lists are dropped: "nothing to merge", never "clear the field".
func (d *Document) PatchSet(field string, values ...string) {
	if len(values) == 0 {
		return
	}
	d.patches[field] = Patch{Op: OpSet, Values: values}
}

// PatchAdd records an add (union) operation on a patch document.
// Empty value lists are dropped.
func (d *Document) PatchAdd(field string, values ...string) {
	values = dropEmpty(values)
	if len(values) == 0 {
		return
	}
	d.patches[field] = Patch{Op: OpAdd, Values: values}
}

// Fields returns the literal fields of a create document.
func (d *Document) Fields() map[string][]string {
	return d.fields
}

// Patches returns the operations of a patch document.
func (d *Document) Patches() map[string]Patch {
	return d.patches
}

// Empty reports whether the document carries nothing to write.
// Empty patch documents must be skipped, not submitted.
func (d *Document) Empty() bool {
	if d.Mode == ModePatch {
		return len(d.patches) == 0
	}
	return len(d.fields) == 0
}

func dropEmpty(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// FormatID renders a numeric ID as a field value.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// FormatIDs renders a list of numeric IDs as field values.
func FormatIDs(ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatInt(id, 10)
	}
	return out
}

// FormatBool renders a boolean as a field value.
func FormatBool(b bool) string {
	return strconv.FormatBool(b)
}

// FormatTime renders a timestamp as a field value. Zero times render
// empty and are dropped by the union helpers.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// FormatTimes renders a list of timestamps, keeping duplicates.
func FormatTimes(ts []time.Time) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		if t.IsZero() {
			continue
		}
		out = append(out, FormatTime(t))
	}
	return out
}
