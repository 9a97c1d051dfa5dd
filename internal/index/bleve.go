package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/datetime/flexible"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveindex "github.com/blevesearch/bleve_index_api"

	"github.com/stelae/stelae/internal/docs"
	stelaeerrors "github.com/stelae/stelae/internal/errors"
)

// BleveStore implements Store on a bleve index. Documents are flat
// string-to-values maps; bleve stores field values, which lets patch
// documents merge into the previously indexed fields.
type BleveStore struct {
	mu     sync.Mutex
	index  bleve.Index
	name   string
	path   string
	staged map[string]map[string][]string
	order  []string
	closed bool
}

// Verify interface implementation at compile time.
var _ Store = (*BleveStore)(nil)

// validateIndexIntegrity checks a bleve index directory before opening.
// Returns nil if valid or absent, an error describing the corruption
// otherwise, so a half-written index can be cleared instead of bricking
// the daemon until someone deletes it by hand.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}

	return nil
}

// isCorruptionError checks if an error indicates bleve index corruption.
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unexpected end of JSON") ||
		strings.Contains(errStr, "error parsing mapping JSON") ||
		strings.Contains(errStr, "failed to load segment") ||
		strings.Contains(errStr, "error opening bolt") ||
		err == bleve.ErrorIndexMetaCorrupt
}

// buildIndexMapping returns the index mapping shared by both indices.
// Dynamic date detection is disabled by installing a datetime parser
// with no layouts: every value indexes as text, so stored field values
// round-trip verbatim when a patch reloads them.
func buildIndexMapping() (mapping.IndexMapping, error) {
	im := bleve.NewIndexMapping()
	if err := im.AddCustomDateTimeParser("textonly", map[string]interface{}{
		"type":    flexible.Name,
		"layouts": []interface{}{},
	}); err != nil {
		return nil, err
	}
	im.DefaultDateTimeParser = "textonly"
	return im, nil
}

// NewBleveStore opens or creates the named index at path.
// If path is empty, an in-memory index is created for testing.
// Corrupted on-disk indices are cleared and recreated.
func NewBleveStore(name, path string) (*BleveStore, error) {
	im, err := buildIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to build index mapping for %s: %w", name, err)
	}

	var idx bleve.Index
	if path == "" {
		idx, err = bleve.NewMemOnly(im)
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}

		if validErr := validateIndexIntegrity(path); validErr != nil {
			slog.Warn("index_corrupted",
				slog.String("index", name),
				slog.String("path", path),
				slog.String("error", validErr.Error()))
			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, stelaeerrors.New(stelaeerrors.ErrCodeCorruptIndex,
					fmt.Sprintf("index corrupted at %s and cannot remove: %v (original error: %v)", path, removeErr, validErr), validErr)
			}
			slog.Info("index_cleared",
				slog.String("index", name),
				slog.String("path", path),
				slog.String("reason", "corruption detected, full rebuild required"))
		}

		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, im)
		} else if err != nil && isCorruptionError(err) {
			slog.Warn("index_open_failed",
				slog.String("index", name),
				slog.String("path", path),
				slog.String("error", err.Error()))
			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, stelaeerrors.New(stelaeerrors.ErrCodeCorruptIndex,
					fmt.Sprintf("index corrupted, cannot clear: %v (original: %v)", removeErr, err), err)
			}
			idx, err = bleve.New(path, im)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index %s: %w", name, err)
	}

	return &BleveStore{
		index:  idx,
		name:   name,
		path:   path,
		staged: make(map[string]map[string][]string),
	}, nil
}

// Add stages documents for the next commit. Create documents replace
// any previously indexed fields; patch documents merge into them.
func (s *BleveStore) Add(ctx context.Context, documents []*docs.Document) error {
	if len(documents) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return stelaeerrors.StoreFailure("index is closed", nil)
	}

	for _, doc := range documents {
		key := doc.Key()
		switch doc.Mode {
		case docs.ModeCreate:
			fields := make(map[string][]string, len(doc.Fields()))
			for name, values := range doc.Fields() {
				fields[name] = append([]string(nil), values...)
			}
			if _, ok := s.staged[key]; !ok {
				s.order = append(s.order, key)
			}
			s.staged[key] = fields
		case docs.ModePatch:
			current, ok := s.staged[key]
			if !ok {
				loaded, err := s.loadFields(key)
				if err != nil {
					return stelaeerrors.StoreFailure(
						fmt.Sprintf("failed to load document %s for patching", key), err)
				}
				current = loaded
				s.staged[key] = current
				s.order = append(s.order, key)
			}
			applyPatches(current, doc.Patches())
		}
	}
	return nil
}

// Commit flushes all staged documents in one bleve batch.
func (s *BleveStore) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return stelaeerrors.StoreFailure("index is closed", nil)
	}
	if len(s.order) == 0 {
		return nil
	}

	batch := s.index.NewBatch()
	for _, key := range s.order {
		fields := make(map[string]interface{}, len(s.staged[key]))
		for name, values := range s.staged[key] {
			fields[name] = values
		}
		if err := batch.Index(key, fields); err != nil {
			return stelaeerrors.StoreFailure(
				fmt.Sprintf("failed to stage document %s", key), err)
		}
	}

	if err := s.index.Batch(batch); err != nil {
		return stelaeerrors.StoreFailure(
			fmt.Sprintf("failed to commit %d documents to %s index", len(s.order), s.name), err)
	}

	s.staged = make(map[string]map[string][]string)
	s.order = nil
	return nil
}

// loadFields reads the stored fields of an already indexed document.
// A patch for a document that does not exist yet starts from empty.
func (s *BleveStore) loadFields(key string) (map[string][]string, error) {
	doc, err := s.index.Document(key)
	if err != nil {
		return nil, err
	}
	fields := make(map[string][]string)
	if doc == nil {
		return fields, nil
	}
	doc.VisitFields(func(f bleveindex.Field) {
		fields[f.Name()] = append(fields[f.Name()], string(f.Value()))
	})
	return fields, nil
}

// applyPatches merges set/add operations into a field map.
func applyPatches(fields map[string][]string, patches map[string]docs.Patch) {
	for name, patch := range patches {
		switch patch.Op {
		case docs.OpSet:
			fields[name] = append([]string(nil), patch.Values...)
		case docs.OpAdd:
			existing := fields[name]
			seen := make(map[string]bool, len(existing))
			for _, v := range existing {
				seen[v] = true
			}
			for _, v := range patch.Values {
				if seen[v] {
					continue
				}
				seen[v] = true
				existing = append(existing, v)
			}
			fields[name] = existing
		}
	}
}

// DocCount returns the number of documents in the index.
func (s *BleveStore) DocCount() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, stelaeerrors.StoreFailure("index is closed", nil)
	}
	return s.index.DocCount()
}

// Fields returns the stored fields of one document, for verification
// and the admin surface. Returns nil when the document does not exist.
func (s *BleveStore) Fields(key string) (map[string][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, stelaeerrors.StoreFailure("index is closed", nil)
	}
	fields, err := s.loadFields(key)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}

// Close closes the index.
func (s *BleveStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.index != nil {
		return s.index.Close()
	}
	return nil
}
