// Package store implements the GraphStore interface on SQLite.
// It is the authoritative source of system objects, their
// master/derived edges, identifiers, metadata rows, and vocabulary.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	stelaeerrors "github.com/stelae/stelae/internal/errors"
	"github.com/stelae/stelae/internal/model"
)

// SQLiteGraphStore implements model.GraphStore backed by SQLite.
// WAL mode allows concurrent readers while the upstream sync process
// writes.
type SQLiteGraphStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// Verify interface implementation at compile time.
var _ model.GraphStore = (*SQLiteGraphStore)(nil)

// validateIntegrity runs a quick integrity check before opening.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// NewSQLiteGraphStore opens or creates the graph store at path.
// If path is empty, an in-memory store is created for testing.
func NewSQLiteGraphStore(path string) (*SQLiteGraphStore, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
		}
		if err := validateIntegrity(path); err != nil {
			return nil, stelaeerrors.New(stelaeerrors.ErrCodeGraphCorrupt,
				fmt.Sprintf("graph store corrupted at %s", path), err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer prevents lock contention with modernc.org/sqlite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL must be set via PRAGMA for modernc.org/sqlite; DSN params may
	// be ignored.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &SQLiteGraphStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates the graph tables.
func (s *SQLiteGraphStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	-- One row per Node; object_type matches model.ObjectType.
	CREATE TABLE IF NOT EXISTS system_object (
		id          INTEGER PRIMARY KEY,
		object_type INTEGER NOT NULL,
		object_id   INTEGER NOT NULL,
		name        TEXT NOT NULL DEFAULT '',
		retired     INTEGER NOT NULL DEFAULT 0,
		created     INTEGER NOT NULL DEFAULT 0
	);

	-- Directed master->derived edges; the graph is a DAG, not a tree.
	CREATE TABLE IF NOT EXISTS system_object_xref (
		master_id  INTEGER NOT NULL,
		derived_id INTEGER NOT NULL,
		PRIMARY KEY (master_id, derived_id)
	);
	CREATE INDEX IF NOT EXISTS idx_xref_derived ON system_object_xref(derived_id);

	CREATE TABLE IF NOT EXISTS identifier (
		node_id   INTEGER NOT NULL,
		value     TEXT NOT NULL,
		preferred INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_identifier_node ON identifier(node_id);

	CREATE TABLE IF NOT EXISTS metadata (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		node_id  INTEGER NOT NULL,
		name     TEXT NOT NULL,
		value    TEXT NOT NULL,
		vocab_id INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_metadata_node ON metadata(node_id);

	CREATE TABLE IF NOT EXISTS vocabulary (
		id   INTEGER PRIMARY KEY,
		term TEXT NOT NULL
	);

	-- Per-kind domain rows. Only the columns the projector reads.
	CREATE TABLE IF NOT EXISTS unit (
		id INTEGER PRIMARY KEY, name TEXT NOT NULL DEFAULT '',
		abbreviation TEXT NOT NULL DEFAULT '', ark_prefix TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS project (
		id INTEGER PRIMARY KEY, name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS subject (
		id INTEGER PRIMARY KEY, unit_id INTEGER NOT NULL DEFAULT 0,
		name TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS item (
		id INTEGER PRIMARY KEY, name TEXT NOT NULL DEFAULT '',
		entire_subject INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS capture_data (
		id INTEGER PRIMARY KEY, name TEXT NOT NULL DEFAULT '',
		capture_method_id INTEGER NOT NULL DEFAULT 0,
		captured INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS capture_data_photo (
		id INTEGER PRIMARY KEY,
		capture_data_id INTEGER NOT NULL,
		dataset_type_id INTEGER NOT NULL DEFAULT 0,
		position_type_id INTEGER NOT NULL DEFAULT 0,
		focus_type_id INTEGER NOT NULL DEFAULT 0,
		light_source_type_id INTEGER NOT NULL DEFAULT 0,
		background_removal_id INTEGER NOT NULL DEFAULT 0,
		cluster_type_id INTEGER NOT NULL DEFAULT 0,
		cluster_geometry_field_id INTEGER NOT NULL DEFAULT 0,
		camera_settings_uniform INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_photo_capture ON capture_data_photo(capture_data_id);
	CREATE TABLE IF NOT EXISTS capture_data_file (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		capture_data_id INTEGER NOT NULL,
		variant_type_id INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_file_capture ON capture_data_file(capture_data_id);
	CREATE TABLE IF NOT EXISTS model (
		id INTEGER PRIMARY KEY, name TEXT NOT NULL DEFAULT '',
		creation_method_id INTEGER NOT NULL DEFAULT 0,
		modality_id INTEGER NOT NULL DEFAULT 0,
		units_id INTEGER NOT NULL DEFAULT 0,
		purpose_id INTEGER NOT NULL DEFAULT 0,
		file_type_id INTEGER NOT NULL DEFAULT 0,
		created INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS scene (
		id INTEGER PRIMARY KEY, name TEXT NOT NULL DEFAULT '',
		edan_uuid TEXT NOT NULL DEFAULT '',
		is_oriented INTEGER NOT NULL DEFAULT 0,
		has_been_qcd INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS intermediary_file (
		id INTEGER PRIMARY KEY, created INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS project_documentation (
		id INTEGER PRIMARY KEY, name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS asset (
		id INTEGER PRIMARY KEY, file_name TEXT NOT NULL DEFAULT '',
		asset_type_id INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS asset_version (
		id INTEGER PRIMARY KEY,
		asset_id INTEGER NOT NULL DEFAULT 0,
		file_name TEXT NOT NULL DEFAULT '',
		creator TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 0,
		storage_size INTEGER NOT NULL DEFAULT 0,
		ingested INTEGER NOT NULL DEFAULT 0,
		created INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS actor (
		id INTEGER PRIMARY KEY,
		individual_name TEXT NOT NULL DEFAULT '',
		organization_name TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS stakeholder (
		id INTEGER PRIMARY KEY,
		individual_name TEXT NOT NULL DEFAULT '',
		organization_name TEXT NOT NULL DEFAULT '',
		email_address TEXT NOT NULL DEFAULT '',
		phone_number_office TEXT NOT NULL DEFAULT ''
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// nodeSelect is the base query for Node rows, joining in the
// per-kind fact columns the resolver aggregates over descendants.
const nodeSelect = `
	SELECT so.id, so.object_type, so.object_id, so.name, so.retired, so.created,
	       COALESCE(cd.capture_method_id, 0),
	       COALESCE(m.purpose_id, 0),
	       COALESCE(m.file_type_id, 0)
	FROM system_object so
	LEFT JOIN capture_data cd ON so.object_type = 5 AND cd.id = so.object_id
	LEFT JOIN model m ON so.object_type = 6 AND m.id = so.object_id`

// scanNode scans one row of nodeSelect.
func scanNode(rows interface{ Scan(...any) error }) (model.Node, error) {
	var n model.Node
	var retired, created int64
	var objectType int
	err := rows.Scan(&n.ID, &objectType, &n.ObjectID, &n.Name, &retired, &created,
		&n.Facts.CaptureMethodID, &n.Facts.ModelPurposeID, &n.Facts.ModelFileTypeID)
	if err != nil {
		return n, err
	}
	n.Type = model.ObjectType(objectType)
	n.Retired = retired != 0
	if created > 0 {
		n.Created = time.Unix(created, 0).UTC()
	}
	return n, nil
}

// FetchAllNodesAndEdges loads the entire graph.
func (s *SQLiteGraphStore) FetchAllNodesAndEdges(ctx context.Context) ([]model.Node, []model.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, nil, stelaeerrors.ResolutionFailure("graph store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx, nodeSelect+" ORDER BY so.id")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []model.Node
	idx := make(map[int64]int)
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan node: %w", err)
		}
		idx[n.ID] = len(nodes)
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate nodes: %w", err)
	}

	if err := s.attachVariants(ctx, nodes, idx); err != nil {
		return nil, nil, err
	}

	edgeRows, err := s.db.QueryContext(ctx,
		`SELECT master_id, derived_id FROM system_object_xref ORDER BY master_id, derived_id`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()

	var edges []model.Edge
	for edgeRows.Next() {
		var e model.Edge
		if err := edgeRows.Scan(&e.MasterID, &e.DerivedID); err != nil {
			return nil, nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate edges: %w", err)
	}

	return nodes, edges, nil
}

// attachVariants loads the distinct variant-type IDs for every capture
// data node in one pass.
func (s *SQLiteGraphStore) attachVariants(ctx context.Context, nodes []model.Node, idx map[int64]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT so.id, f.variant_type_id
		FROM capture_data_file f
		JOIN system_object so ON so.object_type = 5 AND so.object_id = f.capture_data_id
		WHERE f.variant_type_id != 0
		GROUP BY so.id, f.variant_type_id`)
	if err != nil {
		return fmt.Errorf("failed to query capture variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var nodeID, variantID int64
		if err := rows.Scan(&nodeID, &variantID); err != nil {
			return fmt.Errorf("failed to scan capture variant: %w", err)
		}
		if i, ok := idx[nodeID]; ok {
			nodes[i].Facts.VariantTypeIDs = append(nodes[i].Facts.VariantTypeIDs, variantID)
		}
	}
	return rows.Err()
}

// FetchNode loads a single node by system object ID.
func (s *SQLiteGraphStore) FetchNode(ctx context.Context, id int64) (*model.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, stelaeerrors.ResolutionFailure("graph store is closed", nil)
	}

	row := s.db.QueryRowContext(ctx, nodeSelect+" WHERE so.id = ?", id)
	n, err := scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, stelaeerrors.NotFound("system object", id)
		}
		return nil, fmt.Errorf("failed to fetch node %d: %w", id, err)
	}

	if n.Type == model.ObjectTypeCaptureData {
		variants, err := s.FetchCaptureFileVariants(ctx, n.ObjectID)
		if err != nil {
			return nil, err
		}
		n.Facts.VariantTypeIDs = variants
	}
	return &n, nil
}

// FetchParents returns the direct masters of a node.
func (s *SQLiteGraphStore) FetchParents(ctx context.Context, id int64) ([]model.Node, error) {
	return s.fetchLinked(ctx,
		nodeSelect+` JOIN system_object_xref x ON x.master_id = so.id WHERE x.derived_id = ? ORDER BY so.id`, id)
}

// FetchChildren returns the direct derived nodes of a node.
func (s *SQLiteGraphStore) FetchChildren(ctx context.Context, id int64) ([]model.Node, error) {
	return s.fetchLinked(ctx,
		nodeSelect+` JOIN system_object_xref x ON x.derived_id = so.id WHERE x.master_id = ? ORDER BY so.id`, id)
}

func (s *SQLiteGraphStore) fetchLinked(ctx context.Context, query string, id int64) ([]model.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, stelaeerrors.ResolutionFailure("graph store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query linked nodes of %d: %w", id, err)
	}
	defer rows.Close()

	var nodes []model.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan linked node: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// FetchDomainObject loads the typed domain row a node wraps.
func (s *SQLiteGraphStore) FetchDomainObject(ctx context.Context, t model.ObjectType, objectID int64) (model.DomainObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, stelaeerrors.ResolutionFailure("graph store is closed", nil)
	}

	switch t {
	case model.ObjectTypeUnit:
		var o model.Unit
		err := s.db.QueryRowContext(ctx,
			`SELECT id, name, abbreviation, ark_prefix FROM unit WHERE id = ?`, objectID).
			Scan(&o.ID, &o.Name, &o.Abbreviation, &o.ARKPrefix)
		return domainResult(o, "unit", objectID, err)
	case model.ObjectTypeProject:
		var o model.Project
		err := s.db.QueryRowContext(ctx,
			`SELECT id, name, description FROM project WHERE id = ?`, objectID).
			Scan(&o.ID, &o.Name, &o.Description)
		return domainResult(o, "project", objectID, err)
	case model.ObjectTypeSubject:
		var o model.Subject
		err := s.db.QueryRowContext(ctx,
			`SELECT id, unit_id, name FROM subject WHERE id = ?`, objectID).
			Scan(&o.ID, &o.UnitID, &o.Name)
		return domainResult(o, "subject", objectID, err)
	case model.ObjectTypeItem:
		var o model.Item
		var entire int64
		err := s.db.QueryRowContext(ctx,
			`SELECT id, name, entire_subject FROM item WHERE id = ?`, objectID).
			Scan(&o.ID, &o.Name, &entire)
		o.EntireSubject = entire != 0
		return domainResult(o, "item", objectID, err)
	case model.ObjectTypeCaptureData:
		var o model.CaptureData
		var captured int64
		err := s.db.QueryRowContext(ctx,
			`SELECT id, name, capture_method_id, captured, description FROM capture_data WHERE id = ?`, objectID).
			Scan(&o.ID, &o.Name, &o.CaptureMethodID, &captured, &o.Description)
		if captured > 0 {
			o.Captured = time.Unix(captured, 0).UTC()
		}
		return domainResult(o, "capture data", objectID, err)
	case model.ObjectTypeModel:
		var o model.Model
		var created int64
		err := s.db.QueryRowContext(ctx,
			`SELECT id, name, creation_method_id, modality_id, units_id, purpose_id, file_type_id, created
			 FROM model WHERE id = ?`, objectID).
			Scan(&o.ID, &o.Name, &o.CreationMethodID, &o.ModalityID, &o.UnitsID, &o.PurposeID, &o.FileTypeID, &created)
		if created > 0 {
			o.Created = time.Unix(created, 0).UTC()
		}
		return domainResult(o, "model", objectID, err)
	case model.ObjectTypeScene:
		var o model.Scene
		var oriented, qcd int64
		err := s.db.QueryRowContext(ctx,
			`SELECT id, name, edan_uuid, is_oriented, has_been_qcd FROM scene WHERE id = ?`, objectID).
			Scan(&o.ID, &o.Name, &o.EdanUUID, &oriented, &qcd)
		o.IsOriented = oriented != 0
		o.HasBeenQCd = qcd != 0
		return domainResult(o, "scene", objectID, err)
	case model.ObjectTypeIntermediaryFile:
		var o model.IntermediaryFile
		var created int64
		err := s.db.QueryRowContext(ctx,
			`SELECT id, created FROM intermediary_file WHERE id = ?`, objectID).
			Scan(&o.ID, &created)
		if created > 0 {
			o.Created = time.Unix(created, 0).UTC()
		}
		return domainResult(o, "intermediary file", objectID, err)
	case model.ObjectTypeProjectDocumentation:
		var o model.ProjectDocumentation
		err := s.db.QueryRowContext(ctx,
			`SELECT id, name, description FROM project_documentation WHERE id = ?`, objectID).
			Scan(&o.ID, &o.Name, &o.Description)
		return domainResult(o, "project documentation", objectID, err)
	case model.ObjectTypeAsset:
		var o model.Asset
		err := s.db.QueryRowContext(ctx,
			`SELECT id, file_name, asset_type_id FROM asset WHERE id = ?`, objectID).
			Scan(&o.ID, &o.FileName, &o.AssetTypeID)
		return domainResult(o, "asset", objectID, err)
	case model.ObjectTypeAssetVersion:
		var o model.AssetVersion
		var ingested, created int64
		err := s.db.QueryRowContext(ctx,
			`SELECT id, asset_id, file_name, creator, version, storage_size, ingested, created
			 FROM asset_version WHERE id = ?`, objectID).
			Scan(&o.ID, &o.AssetID, &o.FileName, &o.Creator, &o.Version, &o.StorageSize, &ingested, &created)
		o.Ingested = ingested != 0
		if created > 0 {
			o.Created = time.Unix(created, 0).UTC()
		}
		return domainResult(o, "asset version", objectID, err)
	case model.ObjectTypeActor:
		var o model.Actor
		err := s.db.QueryRowContext(ctx,
			`SELECT id, individual_name, organization_name FROM actor WHERE id = ?`, objectID).
			Scan(&o.ID, &o.IndividualName, &o.OrganizationName)
		return domainResult(o, "actor", objectID, err)
	case model.ObjectTypeStakeholder:
		var o model.Stakeholder
		err := s.db.QueryRowContext(ctx,
			`SELECT id, individual_name, organization_name, email_address, phone_number_office
			 FROM stakeholder WHERE id = ?`, objectID).
			Scan(&o.ID, &o.IndividualName, &o.OrganizationName, &o.EmailAddress, &o.PhoneNumberOffice)
		return domainResult(o, "stakeholder", objectID, err)
	default:
		return nil, stelaeerrors.UnsupportedType(t.String())
	}
}

// domainResult converts sql.ErrNoRows into a coded not-found error.
func domainResult(o model.DomainObject, what string, id int64, err error) (model.DomainObject, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, stelaeerrors.NotFound(what, id)
		}
		return nil, fmt.Errorf("failed to fetch %s %d: %w", what, id, err)
	}
	return o, nil
}

// FetchIdentifiers returns every identifier attached to a node.
func (s *SQLiteGraphStore) FetchIdentifiers(ctx context.Context, nodeID int64) ([]model.Identifier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, stelaeerrors.ResolutionFailure("graph store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT node_id, value, preferred FROM identifier WHERE node_id = ? ORDER BY rowid`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query identifiers of %d: %w", nodeID, err)
	}
	defer rows.Close()

	identifiers := make([]model.Identifier, 0)
	for rows.Next() {
		var id model.Identifier
		var preferred int64
		if err := rows.Scan(&id.NodeID, &id.Value, &preferred); err != nil {
			return nil, fmt.Errorf("failed to scan identifier: %w", err)
		}
		id.Preferred = preferred != 0
		identifiers = append(identifiers, id)
	}
	return identifiers, rows.Err()
}

// FetchCapturePhoto returns the first photogrammetry sub-record of a
// capture set, or nil when none exists.
func (s *SQLiteGraphStore) FetchCapturePhoto(ctx context.Context, captureDataID int64) (*model.CaptureDataPhoto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, stelaeerrors.ResolutionFailure("graph store is closed", nil)
	}

	var p model.CaptureDataPhoto
	var uniform int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, capture_data_id, dataset_type_id, position_type_id, focus_type_id,
		       light_source_type_id, background_removal_id, cluster_type_id,
		       cluster_geometry_field_id, camera_settings_uniform
		FROM capture_data_photo WHERE capture_data_id = ? ORDER BY id LIMIT 1`, captureDataID).
		Scan(&p.ID, &p.CaptureDataID, &p.DatasetTypeID, &p.PositionTypeID, &p.FocusTypeID,
			&p.LightSourceTypeID, &p.BackgroundRemovalID, &p.ClusterTypeID,
			&p.ClusterGeometryFieldID, &uniform)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch capture photo for %d: %w", captureDataID, err)
	}
	p.CameraSettingsUniform = uniform != 0
	return &p, nil
}

// FetchCaptureFileVariants returns the distinct variant-type vocabulary
// IDs across a capture set's files.
func (s *SQLiteGraphStore) FetchCaptureFileVariants(ctx context.Context, captureDataID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, stelaeerrors.ResolutionFailure("graph store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT variant_type_id FROM capture_data_file
		WHERE capture_data_id = ? AND variant_type_id != 0 ORDER BY variant_type_id`, captureDataID)
	if err != nil {
		return nil, fmt.Errorf("failed to query capture variants of %d: %w", captureDataID, err)
	}
	defer rows.Close()

	var variants []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan capture variant: %w", err)
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

// FetchMetadataPage returns up to pageSize metadata rows after afterID,
// ordered by row ID so paging can resume exactly where it left off.
func (s *SQLiteGraphStore) FetchMetadataPage(ctx context.Context, afterID int64, pageSize int) ([]model.MetadataRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, stelaeerrors.ResolutionFailure("graph store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, node_id, name, value, vocab_id FROM metadata WHERE id > ? ORDER BY id LIMIT ?`,
		afterID, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query metadata page: %w", err)
	}
	defer rows.Close()

	var page []model.MetadataRow
	for rows.Next() {
		var r model.MetadataRow
		if err := rows.Scan(&r.ID, &r.NodeID, &r.Name, &r.Value, &r.VocabID); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		page = append(page, r)
	}
	return page, rows.Err()
}

// FetchVocabularyTerm resolves a vocabulary ID to its term.
// Unknown IDs yield "" without error.
func (s *SQLiteGraphStore) FetchVocabularyTerm(ctx context.Context, vocabID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", stelaeerrors.ResolutionFailure("graph store is closed", nil)
	}

	var term string
	err := s.db.QueryRowContext(ctx, `SELECT term FROM vocabulary WHERE id = ?`, vocabID).Scan(&term)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to fetch vocabulary term %d: %w", vocabID, err)
	}
	return term, nil
}

// Close closes the database.
func (s *SQLiteGraphStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
