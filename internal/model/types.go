// Package model defines the domain objects tracked by the hierarchy graph
// and the GraphStore interface that supplies them.
// Every domain object is wrapped by exactly one Node; Nodes are linked by
// directed master->derived edges forming a DAG (not a tree).
package model

import (
	"context"
	"time"
)

// ObjectType identifies the kind of domain object a Node wraps.
// The set is closed: a Node's type is immutable after creation.
type ObjectType int

const (
	ObjectTypeUnknown ObjectType = iota
	ObjectTypeUnit
	ObjectTypeProject
	ObjectTypeSubject
	ObjectTypeItem
	ObjectTypeCaptureData
	ObjectTypeModel
	ObjectTypeScene
	ObjectTypeIntermediaryFile
	ObjectTypeProjectDocumentation
	ObjectTypeAsset
	ObjectTypeAssetVersion
	ObjectTypeActor
	ObjectTypeStakeholder
)

// objectTypeNames maps each type to its display name, as indexed in
// the ObjectType document field and the children-type aggregates.
var objectTypeNames = map[ObjectType]string{
	ObjectTypeUnknown:              "Unknown",
	ObjectTypeUnit:                 "Unit",
	ObjectTypeProject:              "Project",
	ObjectTypeSubject:              "Subject",
	ObjectTypeItem:                 "Item",
	ObjectTypeCaptureData:          "Capture Data",
	ObjectTypeModel:                "Model",
	ObjectTypeScene:                "Scene",
	ObjectTypeIntermediaryFile:     "Intermediary File",
	ObjectTypeProjectDocumentation: "Project Documentation",
	ObjectTypeAsset:                "Asset",
	ObjectTypeAssetVersion:         "Asset Version",
	ObjectTypeActor:                "Actor",
	ObjectTypeStakeholder:          "Stakeholder",
}

// String returns the display name for the object type.
func (t ObjectType) String() string {
	if name, ok := objectTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// Known reports whether the type is one of the defined object kinds.
// Unknown and out-of-range values take the fallback projection path.
func (t ObjectType) Known() bool {
	_, ok := objectTypeNames[t]
	return ok && t != ObjectTypeUnknown
}

// IsLandmark reports whether the type participates in the named
// hierarchy levels denormalized onto descendant documents.
func (t ObjectType) IsLandmark() bool {
	switch t {
	case ObjectTypeUnit, ObjectTypeProject, ObjectTypeSubject, ObjectTypeItem:
		return true
	}
	return false
}

// NodeFacts carries the per-node details the resolver aggregates over
// descendants. Vocabulary references are IDs; terms are resolved at
// projection time. Zero IDs mean "not present".
type NodeFacts struct {
	CaptureMethodID int64
	VariantTypeIDs  []int64
	ModelPurposeID  int64
	ModelFileTypeID int64
}

// Node is a typed, uniquely identified wrapper around one domain object.
type Node struct {
	ID       int64 // system object ID, the document key
	Type     ObjectType
	ObjectID int64 // ID of the wrapped domain object
	Name     string
	Retired  bool // soft-delete marker, propagated into the document
	Created  time.Time
	Facts    NodeFacts
}

// Edge is a directed master->derived relationship between two Nodes.
type Edge struct {
	MasterID  int64
	DerivedID int64
}

// Identifier is one identifier value attached to a Node.
type Identifier struct {
	NodeID    int64
	Value     string
	Preferred bool
}

// MetadataRow is one free-text metadata tuple, rolled up per NodeID
// into one metadata document.
type MetadataRow struct {
	ID      int64 // row ID, the paging cursor
	NodeID  int64
	Name    string
	Value   string
	VocabID int64 // source vocabulary, zero when free text
}

// MutationEventKind classifies a mutation event from the event bus.
type MutationEventKind int

const (
	MutationCreated MutationEventKind = iota
	MutationUpdated
	MutationDeleted
)

// String returns the event kind label used in logs.
func (k MutationEventKind) String() string {
	switch k {
	case MutationCreated:
		return "created"
	case MutationUpdated:
		return "updated"
	case MutationDeleted:
		return "deleted"
	}
	return "unknown"
}

// MutationEvent notifies the synchronizer that a tracked object changed.
// Deleted objects stay in the graph with Retired set, so every kind maps
// to a reindex of the node.
type MutationEvent struct {
	Kind   MutationEventKind
	NodeID int64
}

// GraphStore is the authoritative store of Nodes, Edges, and the domain
// rows behind them. Implementations must return ErrCodeNotFound-coded
// errors for missing rows so callers can count and continue.
type GraphStore interface {
	// FetchAllNodesAndEdges loads the entire graph for a full rebuild.
	FetchAllNodesAndEdges(ctx context.Context) ([]Node, []Edge, error)

	// FetchNode loads a single node by system object ID.
	FetchNode(ctx context.Context, id int64) (*Node, error)

	// FetchParents returns the direct masters of a node.
	FetchParents(ctx context.Context, id int64) ([]Node, error)

	// FetchChildren returns the direct derived nodes of a node.
	FetchChildren(ctx context.Context, id int64) ([]Node, error)

	// FetchDomainObject loads the typed domain row a node wraps.
	FetchDomainObject(ctx context.Context, t ObjectType, objectID int64) (DomainObject, error)

	// FetchIdentifiers returns every identifier attached to a node.
	// Absence yields an empty slice, never an error.
	FetchIdentifiers(ctx context.Context, nodeID int64) ([]Identifier, error)

	// FetchCapturePhoto returns the first photogrammetry sub-record for
	// a capture data set, or nil when none exists.
	FetchCapturePhoto(ctx context.Context, captureDataID int64) (*CaptureDataPhoto, error)

	// FetchCaptureFileVariants returns the distinct variant-type
	// vocabulary IDs across a capture data set's files.
	FetchCaptureFileVariants(ctx context.Context, captureDataID int64) ([]int64, error)

	// FetchMetadataPage returns up to pageSize metadata rows with row ID
	// greater than afterID, ordered by row ID.
	FetchMetadataPage(ctx context.Context, afterID int64, pageSize int) ([]MetadataRow, error)

	// FetchVocabularyTerm resolves a vocabulary ID to its term.
	// Unknown IDs yield "" without error.
	FetchVocabularyTerm(ctx context.Context, vocabID int64) (string, error)

	// Close releases the underlying connection.
	Close() error
}
