package index

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/stelae/stelae/internal/docs"
	stelaeerrors "github.com/stelae/stelae/internal/errors"
	"github.com/stelae/stelae/internal/graph"
	"github.com/stelae/stelae/internal/model"
	"github.com/stelae/stelae/internal/telemetry"
)

// SynchronizerConfig configures batching and paging.
type SynchronizerConfig struct {
	// BatchSize is the number of documents per add+commit round trip
	// during a full object rebuild.
	BatchSize int

	// MetadataPageSize is the number of metadata rows fetched per page
	// during a full metadata rebuild.
	MetadataPageSize int

	// MetadataValueCap truncates metadata values longer than this many
	// characters before indexing.
	MetadataValueCap int
}

// DefaultSynchronizerConfig returns the production batching parameters.
func DefaultSynchronizerConfig() SynchronizerConfig {
	return SynchronizerConfig{
		BatchSize:        1000,
		MetadataPageSize: 25000,
		MetadataValueCap: 4096,
	}
}

// RebuildStats summarizes one full rebuild for its caller.
type RebuildStats struct {
	// Processed counts successfully projected documents by object type.
	Processed map[string]int
	// Failed counts per-document projection failures by object type.
	Failed map[string]int
	// Batches is the number of add+commit round trips on the object index.
	Batches int
	// MetadataDocuments is the number of metadata documents submitted.
	MetadataDocuments int
	// MetadataPages is the number of metadata pages processed.
	MetadataPages int
}

// Synchronizer keeps the object and metadata indices consistent with
// the graph. At most one full rebuild runs at a time; a concurrent
// trigger is rejected immediately, not queued. Incremental updates are
// not excluded against each other or against a running rebuild: patch
// operations are commutative and the next rebuild heals any drift.
//
// A rebuild that fails mid-stream leaves previously committed batches
// in the store; there is no rollback. The store converges on the next
// successful rebuild.
type Synchronizer struct {
	cfg       SynchronizerConfig
	graph     model.GraphStore
	resolver  *graph.Resolver
	projector *docs.Projector
	objects   Store
	metadata  Store
	metrics   *telemetry.Metrics

	// guardMu protects rebuilding, the single-rebuild guard.
	guardMu    sync.Mutex
	rebuilding bool

	// objMu and metaMu keep each add+commit round trip whole when
	// incremental updates interleave with a running rebuild.
	objMu  sync.Mutex
	metaMu sync.Mutex
}

// NewSynchronizer wires the synchronizer. metrics may be nil.
func NewSynchronizer(cfg SynchronizerConfig, graphStore model.GraphStore,
	resolver *graph.Resolver, projector *docs.Projector,
	objects, metadata Store, metrics *telemetry.Metrics,
) *Synchronizer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultSynchronizerConfig().BatchSize
	}
	if cfg.MetadataPageSize <= 0 {
		cfg.MetadataPageSize = DefaultSynchronizerConfig().MetadataPageSize
	}
	if cfg.MetadataValueCap <= 0 {
		cfg.MetadataValueCap = DefaultSynchronizerConfig().MetadataValueCap
	}
	return &Synchronizer{
		cfg:       cfg,
		graph:     graphStore,
		resolver:  resolver,
		projector: projector,
		objects:   objects,
		metadata:  metadata,
		metrics:   metrics,
	}
}

// TriggerFullRebuild runs a full rebuild, returning false when one is
// already in flight or the rebuild failed. This is the entry point for
// the scheduler and the admin surface.
func (s *Synchronizer) TriggerFullRebuild(ctx context.Context) bool {
	stats, err := s.FullRebuild(ctx)
	if err != nil {
		if stelaeerrors.GetCode(err) == stelaeerrors.ErrCodeRebuildBusy {
			slog.Warn("full rebuild rejected, another rebuild is in flight")
			s.countRebuild("rejected")
			return false
		}
		slog.Error("full rebuild failed", slog.String("error", err.Error()))
		s.countRebuild("failed")
		return false
	}
	s.countRebuild("ok")
	logRebuildStats(stats)
	return true
}

// TriggerRebuildAsync starts a full rebuild in the background and
// returns immediately: true when the rebuild was started, false when
// one is already in flight. This is the fire-and-forget entry point for
// the admin HTTP surface.
func (s *Synchronizer) TriggerRebuildAsync(ctx context.Context) bool {
	if !s.beginRebuild() {
		slog.Warn("full rebuild rejected, another rebuild is in flight")
		s.countRebuild("rejected")
		return false
	}
	go func() {
		defer s.endRebuild()
		stats, err := s.run(ctx)
		if err != nil {
			slog.Error("full rebuild failed", slog.String("error", err.Error()))
			s.countRebuild("failed")
			return
		}
		s.countRebuild("ok")
		logRebuildStats(stats)
	}()
	return true
}

// Rebuilding reports whether a full rebuild is currently in flight.
func (s *Synchronizer) Rebuilding() bool {
	s.guardMu.Lock()
	defer s.guardMu.Unlock()
	return s.rebuilding
}

// FullRebuild re-derives and re-submits every document in both indices.
// Only one rebuild runs at a time; the guard is always released, even
// on error, so a failure cannot lock out future rebuilds.
func (s *Synchronizer) FullRebuild(ctx context.Context) (*RebuildStats, error) {
	if !s.beginRebuild() {
		return nil, stelaeerrors.New(stelaeerrors.ErrCodeRebuildBusy,
			"a full rebuild is already running", nil)
	}
	defer s.endRebuild()
	return s.run(ctx)
}

// run executes the rebuild body. The caller holds the rebuild guard.
func (s *Synchronizer) run(ctx context.Context) (*RebuildStats, error) {
	stats := &RebuildStats{
		Processed: make(map[string]int),
		Failed:    make(map[string]int),
	}

	if err := s.rebuildObjects(ctx, stats); err != nil {
		return nil, err
	}
	if err := s.rebuildMetadata(ctx, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// beginRebuild acquires the single-rebuild guard.
func (s *Synchronizer) beginRebuild() bool {
	s.guardMu.Lock()
	defer s.guardMu.Unlock()
	if s.rebuilding {
		return false
	}
	s.rebuilding = true
	return true
}

// endRebuild releases the guard.
func (s *Synchronizer) endRebuild() {
	s.guardMu.Lock()
	s.rebuilding = false
	s.guardMu.Unlock()
}

// rebuildObjects resolves the whole graph and submits every node's
// document in fixed-size batches. A projection failure skips that node
// and continues; a store failure aborts the rebuild.
func (s *Synchronizer) rebuildObjects(ctx context.Context, stats *RebuildStats) error {
	entries, err := s.resolver.ResolveAll(ctx)
	if err != nil {
		return err
	}

	// Deterministic submission order keeps consecutive rebuilds
	// byte-comparable and makes batch boundaries reproducible.
	ids := make([]int64, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	batch := make([]*docs.Document, 0, s.cfg.BatchSize)
	for _, id := range ids {
		entry := entries[id]
		typeName := entry.Node.Type.String()

		doc, err := s.projector.Project(ctx, entry)
		if err != nil {
			slog.Warn("failed to project document",
				slog.Int64("node", id),
				slog.String("type", typeName),
				slog.String("error", err.Error()))
			stats.Failed[typeName]++
			s.countFailure(typeName)
			continue
		}

		batch = append(batch, doc)
		stats.Processed[typeName]++
		s.countIndexed(typeName)

		if len(batch) >= s.cfg.BatchSize {
			if err := s.submitObjects(ctx, batch); err != nil {
				return err
			}
			stats.Batches++
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := s.submitObjects(ctx, batch); err != nil {
			return err
		}
		stats.Batches++
	}

	return nil
}

// rebuildMetadata pages through every metadata row, rolling rows up
// into one document per node. The first page a node appears on builds
// a create document; later pages patch with add semantics so values
// merge across page boundaries. The created set spans the whole run.
func (s *Synchronizer) rebuildMetadata(ctx context.Context, stats *RebuildStats) error {
	created := make(map[int64]bool)
	var afterID int64

	for {
		rows, err := s.graph.FetchMetadataPage(ctx, afterID, s.cfg.MetadataPageSize)
		if err != nil {
			return stelaeerrors.ResolutionFailure("failed to fetch metadata page", err)
		}
		if len(rows) == 0 {
			break
		}
		stats.MetadataPages++

		batch := s.rollupMetadata(ctx, rows, created)
		if len(batch) > 0 {
			if err := s.submitMetadata(ctx, batch); err != nil {
				return err
			}
			stats.MetadataDocuments += len(batch)
		}

		afterID = rows[len(rows)-1].ID
		if len(rows) < s.cfg.MetadataPageSize {
			break
		}
	}

	return nil
}

// rollupMetadata groups one page of rows by node and builds one
// document per node, create for first-seen nodes and patch otherwise.
func (s *Synchronizer) rollupMetadata(ctx context.Context, rows []model.MetadataRow, created map[int64]bool) []*docs.Document {
	grouped := make(map[int64][]model.MetadataRow)
	var order []int64
	for _, row := range rows {
		if _, ok := grouped[row.NodeID]; !ok {
			order = append(order, row.NodeID)
		}
		grouped[row.NodeID] = append(grouped[row.NodeID], row)
	}

	batch := make([]*docs.Document, 0, len(order))
	for _, nodeID := range order {
		mode := docs.ModeCreate
		if created[nodeID] {
			mode = docs.ModePatch
		}
		doc := s.projector.ProjectMetadata(ctx, nodeID, grouped[nodeID], mode, s.cfg.MetadataValueCap)
		if doc.Empty() {
			continue
		}
		batch = append(batch, doc)
		created[nodeID] = true
	}
	return batch
}

// IndexObject re-derives one node's document and patches the aggregate
// fields of every ancestor, submitting everything in one add+commit
// round trip. A node with nothing to update is a no-op success.
func (s *Synchronizer) IndexObject(ctx context.Context, nodeID int64) error {
	res, err := s.resolver.ResolveOne(ctx, nodeID)
	if err != nil {
		return err
	}

	typeName := res.Entry.Node.Type.String()
	var batch []*docs.Document

	doc, err := s.projector.Project(ctx, res.Entry)
	if err != nil {
		// Per-document failure: counted and logged, the ancestor
		// patches still go out.
		slog.Warn("failed to project document for incremental update",
			slog.Int64("node", nodeID),
			slog.String("type", typeName),
			slog.String("error", err.Error()))
		s.countFailure(typeName)
	} else {
		batch = append(batch, doc)
		s.countIndexed(typeName)
	}

	for _, anc := range res.Ancestors {
		if patch := s.projector.ProjectAncestorPatch(anc); patch != nil {
			batch = append(batch, patch)
		}
	}

	if len(batch) == 0 {
		slog.Debug("incremental update is a no-op", slog.Int64("node", nodeID))
		return nil
	}

	return s.submitObjects(ctx, batch)
}

// IndexMetadata rolls the supplied rows up per node and submits them as
// patches. The caller is responsible for the base documents existing.
func (s *Synchronizer) IndexMetadata(ctx context.Context, rows []model.MetadataRow) error {
	if len(rows) == 0 {
		return nil
	}

	grouped := make(map[int64][]model.MetadataRow)
	var order []int64
	for _, row := range rows {
		if _, ok := grouped[row.NodeID]; !ok {
			order = append(order, row.NodeID)
		}
		grouped[row.NodeID] = append(grouped[row.NodeID], row)
	}

	var batch []*docs.Document
	for _, nodeID := range order {
		doc := s.projector.ProjectMetadata(ctx, nodeID, grouped[nodeID], docs.ModePatch, s.cfg.MetadataValueCap)
		if doc.Empty() {
			continue
		}
		batch = append(batch, doc)
	}

	if len(batch) == 0 {
		slog.Debug("metadata update is a no-op")
		return nil
	}

	return s.submitMetadata(ctx, batch)
}

// HandleMutation is the mutation-event entry point. Deleted objects
// stay in the graph with the retired flag set, so every event kind maps
// to a reindex of the node.
func (s *Synchronizer) HandleMutation(ctx context.Context, event model.MutationEvent) error {
	slog.Debug("processing mutation event",
		slog.String("kind", event.Kind.String()),
		slog.Int64("node", event.NodeID))
	return s.IndexObject(ctx, event.NodeID)
}

// submitObjects performs one whole add+commit round trip on the object
// index. No later batch begins before this one's commit completes.
func (s *Synchronizer) submitObjects(ctx context.Context, batch []*docs.Document) error {
	s.objMu.Lock()
	defer s.objMu.Unlock()

	if err := s.objects.Add(ctx, batch); err != nil {
		return err
	}
	if err := s.objects.Commit(ctx); err != nil {
		return err
	}
	s.countBatch("object")
	return nil
}

// submitMetadata performs one whole add+commit round trip on the
// metadata index.
func (s *Synchronizer) submitMetadata(ctx context.Context, batch []*docs.Document) error {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()

	if err := s.metadata.Add(ctx, batch); err != nil {
		return err
	}
	if err := s.metadata.Commit(ctx); err != nil {
		return err
	}
	s.countBatch("metadata")
	return nil
}

func (s *Synchronizer) countRebuild(result string) {
	if s.metrics != nil {
		s.metrics.RebuildsTotal.WithLabelValues(result).Inc()
	}
}

func (s *Synchronizer) countIndexed(typeName string) {
	if s.metrics != nil {
		s.metrics.DocumentsIndexed.WithLabelValues(typeName).Inc()
	}
}

func (s *Synchronizer) countFailure(typeName string) {
	if s.metrics != nil {
		s.metrics.DocumentFailures.WithLabelValues(typeName).Inc()
	}
}

func (s *Synchronizer) countBatch(index string) {
	if s.metrics != nil {
		s.metrics.BatchesSubmitted.WithLabelValues(index).Inc()
	}
}

// logRebuildStats writes the per-type count summary a rebuild reports.
func logRebuildStats(stats *RebuildStats) {
	attrs := []any{
		slog.Int("batches", stats.Batches),
		slog.Int("metadata_documents", stats.MetadataDocuments),
		slog.Int("metadata_pages", stats.MetadataPages),
	}
	types := make([]string, 0, len(stats.Processed))
	for t := range stats.Processed {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		attrs = append(attrs, slog.String(
			fmt.Sprintf("processed_%s", normalizeTypeName(t)),
			fmt.Sprintf("%d ok, %d failed", stats.Processed[t], stats.Failed[t])))
	}
	slog.Info("full rebuild complete", attrs...)
}

func normalizeTypeName(t string) string {
	out := make([]rune, 0, len(t))
	for _, r := range t {
		if r == ' ' {
			out = append(out, '_')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
