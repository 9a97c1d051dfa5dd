package store

import (
	"context"
	"fmt"

	"github.com/stelae/stelae/internal/model"
)

// The write methods are used by import tooling and tests. The
// synchronizer itself never writes to the graph store.

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// UpsertNode writes a system object row.
func (s *SQLiteGraphStore) UpsertNode(ctx context.Context, n model.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var created int64
	if !n.Created.IsZero() {
		created = n.Created.Unix()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO system_object (id, object_type, object_id, name, retired, created)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			object_type = excluded.object_type,
			object_id = excluded.object_id,
			name = excluded.name,
			retired = excluded.retired,
			created = excluded.created`,
		n.ID, int(n.Type), n.ObjectID, n.Name, boolToInt(n.Retired), created)
	if err != nil {
		return fmt.Errorf("failed to upsert node %d: %w", n.ID, err)
	}
	return nil
}

// AddEdge writes a master->derived edge. Duplicate edges are ignored.
func (s *SQLiteGraphStore) AddEdge(ctx context.Context, masterID, derivedID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO system_object_xref (master_id, derived_id) VALUES (?, ?)`,
		masterID, derivedID)
	if err != nil {
		return fmt.Errorf("failed to add edge %d->%d: %w", masterID, derivedID, err)
	}
	return nil
}

// AddIdentifier attaches an identifier to a node.
func (s *SQLiteGraphStore) AddIdentifier(ctx context.Context, id model.Identifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO identifier (node_id, value, preferred) VALUES (?, ?, ?)`,
		id.NodeID, id.Value, boolToInt(id.Preferred))
	if err != nil {
		return fmt.Errorf("failed to add identifier for node %d: %w", id.NodeID, err)
	}
	return nil
}

// AddMetadataRow appends a metadata row and returns its assigned ID.
func (s *SQLiteGraphStore) AddMetadataRow(ctx context.Context, r model.MetadataRow) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO metadata (node_id, name, value, vocab_id) VALUES (?, ?, ?, ?)`,
		r.NodeID, r.Name, r.Value, r.VocabID)
	if err != nil {
		return 0, fmt.Errorf("failed to add metadata row for node %d: %w", r.NodeID, err)
	}
	return res.LastInsertId()
}

// SetVocabularyTerm writes a vocabulary entry.
func (s *SQLiteGraphStore) SetVocabularyTerm(ctx context.Context, id int64, term string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vocabulary (id, term) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET term = excluded.term`, id, term)
	if err != nil {
		return fmt.Errorf("failed to set vocabulary term %d: %w", id, err)
	}
	return nil
}

// UpsertDomainObject writes the typed row a node wraps.
func (s *SQLiteGraphStore) UpsertDomainObject(ctx context.Context, obj model.DomainObject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch o := obj.(type) {
	case model.Unit:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO unit (id, name, abbreviation, ark_prefix) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				abbreviation = excluded.abbreviation, ark_prefix = excluded.ark_prefix`,
			o.ID, o.Name, o.Abbreviation, o.ARKPrefix)
	case model.Project:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO project (id, name, description) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description`,
			o.ID, o.Name, o.Description)
	case model.Subject:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO subject (id, unit_id, name) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET unit_id = excluded.unit_id, name = excluded.name`,
			o.ID, o.UnitID, o.Name)
	case model.Item:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO item (id, name, entire_subject) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name, entire_subject = excluded.entire_subject`,
			o.ID, o.Name, boolToInt(o.EntireSubject))
	case model.CaptureData:
		var captured int64
		if !o.Captured.IsZero() {
			captured = o.Captured.Unix()
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO capture_data (id, name, capture_method_id, captured, description)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				capture_method_id = excluded.capture_method_id,
				captured = excluded.captured, description = excluded.description`,
			o.ID, o.Name, o.CaptureMethodID, captured, o.Description)
	case model.Model:
		var created int64
		if !o.Created.IsZero() {
			created = o.Created.Unix()
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO model (id, name, creation_method_id, modality_id, units_id,
				purpose_id, file_type_id, created)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				creation_method_id = excluded.creation_method_id,
				modality_id = excluded.modality_id, units_id = excluded.units_id,
				purpose_id = excluded.purpose_id, file_type_id = excluded.file_type_id,
				created = excluded.created`,
			o.ID, o.Name, o.CreationMethodID, o.ModalityID, o.UnitsID,
			o.PurposeID, o.FileTypeID, created)
	case model.Scene:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO scene (id, name, edan_uuid, is_oriented, has_been_qcd)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name, edan_uuid = excluded.edan_uuid,
				is_oriented = excluded.is_oriented, has_been_qcd = excluded.has_been_qcd`,
			o.ID, o.Name, o.EdanUUID, boolToInt(o.IsOriented), boolToInt(o.HasBeenQCd))
	case model.IntermediaryFile:
		var created int64
		if !o.Created.IsZero() {
			created = o.Created.Unix()
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO intermediary_file (id, created) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET created = excluded.created`,
			o.ID, created)
	case model.ProjectDocumentation:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO project_documentation (id, name, description) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description`,
			o.ID, o.Name, o.Description)
	case model.Asset:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO asset (id, file_name, asset_type_id) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET file_name = excluded.file_name,
				asset_type_id = excluded.asset_type_id`,
			o.ID, o.FileName, o.AssetTypeID)
	case model.AssetVersion:
		var created int64
		if !o.Created.IsZero() {
			created = o.Created.Unix()
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO asset_version (id, asset_id, file_name, creator, version,
				storage_size, ingested, created)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET asset_id = excluded.asset_id,
				file_name = excluded.file_name, creator = excluded.creator,
				version = excluded.version, storage_size = excluded.storage_size,
				ingested = excluded.ingested, created = excluded.created`,
			o.ID, o.AssetID, o.FileName, o.Creator, o.Version,
			o.StorageSize, boolToInt(o.Ingested), created)
	case model.Actor:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO actor (id, individual_name, organization_name) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET individual_name = excluded.individual_name,
				organization_name = excluded.organization_name`,
			o.ID, o.IndividualName, o.OrganizationName)
	case model.Stakeholder:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO stakeholder (id, individual_name, organization_name,
				email_address, phone_number_office)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET individual_name = excluded.individual_name,
				organization_name = excluded.organization_name,
				email_address = excluded.email_address,
				phone_number_office = excluded.phone_number_office`,
			o.ID, o.IndividualName, o.OrganizationName, o.EmailAddress, o.PhoneNumberOffice)
	default:
		return fmt.Errorf("unsupported domain object type %T", obj)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert domain object: %w", err)
	}
	return nil
}

// AddCapturePhoto writes a photogrammetry sub-record.
func (s *SQLiteGraphStore) AddCapturePhoto(ctx context.Context, p model.CaptureDataPhoto) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO capture_data_photo (id, capture_data_id, dataset_type_id,
			position_type_id, focus_type_id, light_source_type_id,
			background_removal_id, cluster_type_id, cluster_geometry_field_id,
			camera_settings_uniform)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET capture_data_id = excluded.capture_data_id,
			dataset_type_id = excluded.dataset_type_id,
			position_type_id = excluded.position_type_id,
			focus_type_id = excluded.focus_type_id,
			light_source_type_id = excluded.light_source_type_id,
			background_removal_id = excluded.background_removal_id,
			cluster_type_id = excluded.cluster_type_id,
			cluster_geometry_field_id = excluded.cluster_geometry_field_id,
			camera_settings_uniform = excluded.camera_settings_uniform`,
		p.ID, p.CaptureDataID, p.DatasetTypeID, p.PositionTypeID, p.FocusTypeID,
		p.LightSourceTypeID, p.BackgroundRemovalID, p.ClusterTypeID,
		p.ClusterGeometryFieldID, boolToInt(p.CameraSettingsUniform))
	if err != nil {
		return fmt.Errorf("failed to add capture photo %d: %w", p.ID, err)
	}
	return nil
}

// AddCaptureFile records a capture file's variant type.
func (s *SQLiteGraphStore) AddCaptureFile(ctx context.Context, captureDataID, variantTypeID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO capture_data_file (capture_data_id, variant_type_id) VALUES (?, ?)`,
		captureDataID, variantTypeID)
	if err != nil {
		return fmt.Errorf("failed to add capture file for %d: %w", captureDataID, err)
	}
	return nil
}
