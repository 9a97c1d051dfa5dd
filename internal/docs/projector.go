package docs

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	stelaeerrors "github.com/stelae/stelae/internal/errors"
	"github.com/stelae/stelae/internal/graph"
	"github.com/stelae/stelae/internal/model"
)

// vocabCacheSize bounds the projector's vocabulary term cache.
const vocabCacheSize = 2048

// Projector converts resolved entries into search documents. It
// dispatches on the node's type to one handler per kind; every handler
// receives a document already carrying the common fields and adds the
// type-specific ones by loading the few domain rows it needs.
type Projector struct {
	store model.GraphStore
	vocab *lru.Cache[int64, string]
}

// NewProjector creates a projector over the given graph store.
func NewProjector(store model.GraphStore) (*Projector, error) {
	vocab, err := lru.New[int64, string](vocabCacheSize)
	if err != nil {
		return nil, err
	}
	return &Projector{store: store, vocab: vocab}, nil
}

// Project builds the create document for one resolved entry.
//
// A node whose domain object cannot be loaded fails closed: the error
// is returned for the caller to log and count without aborting the
// batch. A node of unknown type still yields the minimal common-field
// document so it stays discoverable by ID.
func (p *Projector) Project(ctx context.Context, entry *graph.Entry) (*Document, error) {
	doc, err := p.base(ctx, entry)
	if err != nil {
		return nil, err
	}

	if !entry.Node.Type.Known() {
		slog.Warn("no projection handler for node type, emitting fallback document",
			slog.Int64("node", entry.Node.ID),
			slog.String("type", entry.Node.Type.String()))
		return doc, nil
	}

	obj, err := p.store.FetchDomainObject(ctx, entry.Node.Type, entry.Node.ObjectID)
	if err != nil {
		return nil, err
	}

	switch o := obj.(type) {
	case model.Unit:
		p.projectUnit(doc, o)
	case model.Project:
		p.projectProject(doc, o)
	case model.Subject:
		p.projectSubject(ctx, doc, entry.Node.ID)
	case model.Item:
		p.projectItem(doc, o)
	case model.CaptureData:
		p.projectCaptureData(ctx, doc, o)
	case model.Model:
		p.projectModel(ctx, doc, o)
	case model.Scene:
		p.projectScene(doc, o)
	case model.IntermediaryFile:
		p.projectIntermediaryFile(doc, o)
	case model.ProjectDocumentation:
		p.projectProjectDocumentation(doc, o)
	case model.Asset:
		p.projectAsset(ctx, doc, o)
	case model.AssetVersion:
		p.projectAssetVersion(doc, o)
	case model.Actor:
		p.projectActor(doc, o)
	case model.Stakeholder:
		p.projectStakeholder(doc, o)
	default:
		return nil, stelaeerrors.UnsupportedType(entry.Node.Type.String())
	}

	return doc, nil
}

// base populates the common fields every document carries.
func (p *Projector) base(ctx context.Context, entry *graph.Entry) (*Document, error) {
	n := entry.Node
	doc := NewCreate(n.ID)

	doc.Set(FieldCommonName, n.Name)
	doc.Set(FieldRetired, FormatBool(n.Retired))
	doc.Set(FieldObjectType, n.Type.String())
	doc.Set(FieldObjectTypeID, FormatID(int64(n.Type)))
	doc.Set(FieldObjectID, FormatID(n.ObjectID))

	// Identifiers: absence yields an empty array, never null.
	identifiers, err := p.store.FetchIdentifiers(ctx, n.ID)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		values = append(values, id.Value)
	}
	doc.Set(FieldIdentifier, values...)

	doc.Set(FieldHierarchyParent, FormatIDs(entry.ParentIDs)...)
	doc.Set(FieldHierarchyChildren, FormatIDs(entry.ChildIDs)...)
	doc.Set(FieldHierarchyAncestor, FormatIDs(entry.AncestorIDs)...)

	setLandmarks(doc, FieldUnitID, FieldUnit, entry.Units)
	setLandmarks(doc, FieldProjectID, FieldProject, entry.Projects)
	setLandmarks(doc, FieldSubjectID, FieldSubject, entry.Subjects)
	setLandmarks(doc, FieldItemID, FieldItem, entry.Items)

	setAggregate(doc, entry.Aggregate)
	return doc, nil
}

// setLandmarks writes the paired ID/name arrays for one landmark level.
// The arrays are equal in length and positionally correspond.
func setLandmarks(doc *Document, idField, nameField string, landmarks []graph.Landmark) {
	ids := make([]string, len(landmarks))
	names := make([]string, len(landmarks))
	for i, lm := range landmarks {
		ids[i] = FormatID(lm.ObjectID)
		names[i] = lm.Name
	}
	doc.Set(idField, ids...)
	doc.Set(nameField, names...)
}

// setAggregate writes the descendant-aggregate fields of a create
// document. Empty collections are written as empty arrays here; only
// patch documents suppress them.
func setAggregate(doc *Document, agg graph.Aggregate) {
	doc.Set(FieldChildrenObjectTypes, agg.ChildTypes...)
	doc.Set(FieldChildrenCaptureMethods, agg.CaptureMethods...)
	doc.Set(FieldChildrenVariantTypes, agg.VariantTypes...)
	doc.Set(FieldChildrenModelPurposes, agg.ModelPurposes...)
	doc.Set(FieldChildrenModelFileTypes, agg.ModelFileTypes...)
	doc.Set(FieldChildrenDateCreated, FormatTimes(agg.DateCreated)...)
}

// ProjectAncestorPatch encodes an ancestor's aggregate contribution as
// add patches. Returns nil when the aggregate holds no facts: a no-op
// ancestor is skipped entirely, never sent as an empty patch.
func (p *Projector) ProjectAncestorPatch(u *graph.AncestorUpdate) *Document {
	if u.Aggregate.Empty() {
		return nil
	}
	doc := NewPatch(u.Node.ID)
	doc.PatchAdd(FieldChildrenObjectTypes, u.Aggregate.ChildTypes...)
	doc.PatchAdd(FieldChildrenCaptureMethods, u.Aggregate.CaptureMethods...)
	doc.PatchAdd(FieldChildrenVariantTypes, u.Aggregate.VariantTypes...)
	doc.PatchAdd(FieldChildrenModelPurposes, u.Aggregate.ModelPurposes...)
	doc.PatchAdd(FieldChildrenModelFileTypes, u.Aggregate.ModelFileTypes...)
	doc.PatchAdd(FieldChildrenDateCreated, FormatTimes(u.Aggregate.DateCreated)...)
	if doc.Empty() {
		return nil
	}
	return doc
}

// ProjectMetadata rolls a group of metadata rows for one node into a
// single document. Field keys are the lower-cased metadata name plus a
// fixed suffix; values are truncated to valueCap bytes on a rune
// boundary. Rows without free text resolve their vocabulary term as
// the value. In patch mode values are encoded as add operations so
// they merge rather than overwrite.
func (p *Projector) ProjectMetadata(ctx context.Context, nodeID int64, rows []model.MetadataRow, mode Mode, valueCap int) *Document {
	grouped := make(map[string][]string)
	var order []string
	for _, row := range rows {
		value := row.Value
		if value == "" {
			value = p.vocabTerm(ctx, row.VocabID)
		}
		if value == "" {
			continue
		}
		key := strings.ToLower(row.Name) + MetadataFieldSuffix
		value = truncateValue(value, valueCap)
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], value)
	}

	if mode == ModePatch {
		doc := NewPatch(nodeID)
		for _, key := range order {
			doc.PatchAdd(key, grouped[key]...)
		}
		return doc
	}

	doc := NewCreate(nodeID)
	for _, key := range order {
		doc.Union(key, grouped[key]...)
	}
	return doc
}

func (p *Projector) projectUnit(doc *Document, o model.Unit) {
	doc.Set(FieldUnitAbbreviation, o.Abbreviation)
	doc.Set(FieldUnitARKPrefix, o.ARKPrefix)
}

func (p *Projector) projectProject(doc *Document, o model.Project) {
	doc.Set(FieldProjectDescription, o.Description)
}

// projectSubject marks the preferred identifier, when one exists.
func (p *Projector) projectSubject(ctx context.Context, doc *Document, nodeID int64) {
	identifiers, err := p.store.FetchIdentifiers(ctx, nodeID)
	if err != nil {
		slog.Warn("failed to load subject identifiers",
			slog.Int64("node", nodeID),
			slog.String("error", err.Error()))
		return
	}
	for _, id := range identifiers {
		if id.Preferred {
			doc.Set(FieldSubjectIdentifierPreferred, id.Value)
			return
		}
	}
}

func (p *Projector) projectItem(doc *Document, o model.Item) {
	doc.Set(FieldItemEntireSubject, FormatBool(o.EntireSubject))
}

func (p *Projector) projectCaptureData(ctx context.Context, doc *Document, o model.CaptureData) {
	doc.Set(FieldCaptureDataCaptureMethod, p.vocabTerm(ctx, o.CaptureMethodID))

	// The photogrammetry sub-record is optional; when present the first
	// one supplies the dataset detail fields.
	photo, err := p.store.FetchCapturePhoto(ctx, o.ID)
	if err != nil {
		slog.Warn("failed to load capture photo record",
			slog.Int64("capture_data", o.ID),
			slog.String("error", err.Error()))
	} else if photo != nil {
		doc.Set(FieldCaptureDataDatasetType, p.vocabTerm(ctx, photo.DatasetTypeID))
		doc.Set(FieldCaptureDataPositionType, p.vocabTerm(ctx, photo.PositionTypeID))
		doc.Set(FieldCaptureDataFocusType, p.vocabTerm(ctx, photo.FocusTypeID))
		doc.Set(FieldCaptureDataLightSourceType, p.vocabTerm(ctx, photo.LightSourceTypeID))
		doc.Set(FieldCaptureDataBackgroundRemovalMethod, p.vocabTerm(ctx, photo.BackgroundRemovalID))
		doc.Set(FieldCaptureDataClusterType, p.vocabTerm(ctx, photo.ClusterTypeID))
		doc.Set(FieldCaptureDataClusterGeometryField, FormatID(photo.ClusterGeometryFieldID))
		doc.Set(FieldCaptureDataCameraSettingsUniform, FormatBool(photo.CameraSettingsUniform))
	}

	variants, err := p.store.FetchCaptureFileVariants(ctx, o.ID)
	if err != nil {
		slog.Warn("failed to load capture file variants",
			slog.Int64("capture_data", o.ID),
			slog.String("error", err.Error()))
		return
	}
	for _, v := range variants {
		doc.Union(FieldCaptureDataVariantType, p.vocabTerm(ctx, v))
	}
}

func (p *Projector) projectModel(ctx context.Context, doc *Document, o model.Model) {
	doc.Set(FieldModelCreationMethod, p.vocabTerm(ctx, o.CreationMethodID))
	doc.Set(FieldModelModality, p.vocabTerm(ctx, o.ModalityID))
	doc.Set(FieldModelUnits, p.vocabTerm(ctx, o.UnitsID))
	doc.Set(FieldModelPurpose, p.vocabTerm(ctx, o.PurposeID))
	doc.Set(FieldModelFileType, p.vocabTerm(ctx, o.FileTypeID))
	doc.Set(FieldModelDateCreated, FormatTime(o.Created))
}

func (p *Projector) projectScene(doc *Document, o model.Scene) {
	doc.Set(FieldSceneEdanUUID, o.EdanUUID)
	doc.Set(FieldSceneIsOriented, FormatBool(o.IsOriented))
	doc.Set(FieldSceneHasBeenQCd, FormatBool(o.HasBeenQCd))
}

func (p *Projector) projectIntermediaryFile(doc *Document, o model.IntermediaryFile) {
	doc.Set(FieldIntermediaryFileDateCreated, FormatTime(o.Created))
}

func (p *Projector) projectProjectDocumentation(doc *Document, o model.ProjectDocumentation) {
	doc.Set(FieldProjectDocumentationDescription, o.Description)
}

func (p *Projector) projectAsset(ctx context.Context, doc *Document, o model.Asset) {
	doc.Set(FieldAssetFileName, o.FileName)
	doc.Set(FieldAssetType, p.vocabTerm(ctx, o.AssetTypeID))
}

func (p *Projector) projectAssetVersion(doc *Document, o model.AssetVersion) {
	doc.Set(FieldAssetVersionFileName, o.FileName)
	doc.Set(FieldAssetVersionCreator, o.Creator)
	doc.Set(FieldAssetVersionVersion, FormatID(o.Version))
	doc.Set(FieldAssetVersionStorageSize, FormatID(o.StorageSize))
	doc.Set(FieldAssetVersionIngested, FormatBool(o.Ingested))
	doc.Set(FieldAssetVersionDateCreated, FormatTime(o.Created))
}

func (p *Projector) projectActor(doc *Document, o model.Actor) {
	doc.Set(FieldActorOrganizationName, o.OrganizationName)
}

func (p *Projector) projectStakeholder(doc *Document, o model.Stakeholder) {
	doc.Set(FieldStakeholderOrganizationName, o.OrganizationName)
	doc.Set(FieldStakeholderEmailAddress, o.EmailAddress)
	doc.Set(FieldStakeholderPhoneNumber, o.PhoneNumberOffice)
}

// vocabTerm resolves a vocabulary ID to its term, caching results.
// Unknown IDs resolve to "" so a bad reference never fails the document.
func (p *Projector) vocabTerm(ctx context.Context, vocabID int64) string {
	if vocabID == 0 {
		return ""
	}
	if term, ok := p.vocab.Get(vocabID); ok {
		return term
	}
	term, err := p.store.FetchVocabularyTerm(ctx, vocabID)
	if err != nil {
		slog.Warn("vocabulary lookup failed",
			slog.Int64("vocab_id", vocabID),
			slog.String("error", err.Error()))
		return ""
	}
	p.vocab.Add(vocabID, term)
	return term
}

// truncateValue caps value at max bytes, backing off to the preceding
// rune boundary so a multibyte rune is never split.
func truncateValue(value string, max int) string {
	if len(value) <= max {
		return value
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}
