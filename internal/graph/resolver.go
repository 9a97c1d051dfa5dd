// Package graph computes the transitive hierarchy of the object graph:
// per-node parent/child/ancestor sets, unit/project/subject/item
// landmark sets, and aggregated facts over all descendants.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	stelaeerrors "github.com/stelae/stelae/internal/errors"
	"github.com/stelae/stelae/internal/model"
)

const (
	// landmarkNameCacheSize bounds the process-wide display-name cache.
	landmarkNameCacheSize = 8192

	// vocabCacheSize bounds the vocabulary term cache.
	vocabCacheSize = 2048
)

// Landmark is one unit/project/subject/item ancestor, retaining both
// its node ID and its domain-object ID since documents carry both.
type Landmark struct {
	NodeID   int64
	ObjectID int64
	Name     string
}

// Aggregate holds facts unioned over every node beneath an ancestor.
// Collections hold distinct values except DateCreated, which keeps
// duplicates for date-range faceting.
type Aggregate struct {
	ChildTypes     []string
	CaptureMethods []string
	VariantTypes   []string
	ModelPurposes  []string
	ModelFileTypes []string
	DateCreated    []time.Time
}

// Empty reports whether the aggregate carries no facts at all.
// Empty aggregates short-circuit document patching so untouched
// ancestors are never rewritten with empty arrays.
func (a Aggregate) Empty() bool {
	return len(a.ChildTypes) == 0 &&
		len(a.CaptureMethods) == 0 &&
		len(a.VariantTypes) == 0 &&
		len(a.ModelPurposes) == 0 &&
		len(a.ModelFileTypes) == 0 &&
		len(a.DateCreated) == 0
}

// Entry is the resolved hierarchy record for one node. Entries are
// ephemeral: recomputed per run or per touched node, never persisted.
type Entry struct {
	Node        model.Node
	ParentIDs   []int64
	ChildIDs    []int64
	AncestorIDs []int64

	Units    []Landmark
	Projects []Landmark
	Subjects []Landmark
	Items    []Landmark

	Aggregate Aggregate
}

// AncestorUpdate pairs an ancestor node with the aggregate contribution
// from an updated node's subtree, for set/add patching.
type AncestorUpdate struct {
	Node      model.Node
	Aggregate Aggregate
}

// Resolution is the result of resolving a single node: its own entry
// plus every ancestor that may need its aggregate fields patched.
type Resolution struct {
	Entry     *Entry
	Ancestors []*AncestorUpdate
}

// Resolver computes resolved entries from a GraphStore.
//
// The landmark display-name cache is a pure memoization with no
// invalidation path: a renamed unit/project/subject/item keeps serving
// its old name until LRU eviction or the next process start. Accepted
// staleness; the cache is bounded so a long-lived daemon cannot grow it
// without limit.
type Resolver struct {
	store model.GraphStore
	names *lru.Cache[int64, string]
	vocab *lru.Cache[int64, string]
}

// NewResolver creates a resolver over the given graph store.
func NewResolver(store model.GraphStore) (*Resolver, error) {
	names, err := lru.New[int64, string](landmarkNameCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create landmark name cache: %w", err)
	}
	vocab, err := lru.New[int64, string](vocabCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create vocabulary cache: %w", err)
	}
	return &Resolver{store: store, names: names, vocab: vocab}, nil
}

// ResolveAll loads the whole graph and computes an entry per node.
func (r *Resolver) ResolveAll(ctx context.Context) (map[int64]*Entry, error) {
	nodes, edges, err := r.store.FetchAllNodesAndEdges(ctx)
	if err != nil {
		return nil, stelaeerrors.ResolutionFailure("failed to load object graph", err)
	}

	byID := make(map[int64]model.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	parents := make(map[int64][]int64)
	children := make(map[int64][]int64)
	for _, e := range edges {
		if _, ok := byID[e.MasterID]; !ok {
			slog.Warn("edge references unknown master, skipping",
				slog.Int64("master", e.MasterID),
				slog.Int64("derived", e.DerivedID))
			continue
		}
		if _, ok := byID[e.DerivedID]; !ok {
			slog.Warn("edge references unknown derived node, skipping",
				slog.Int64("master", e.MasterID),
				slog.Int64("derived", e.DerivedID))
			continue
		}
		parents[e.DerivedID] = append(parents[e.DerivedID], e.MasterID)
		children[e.MasterID] = append(children[e.MasterID], e.DerivedID)
	}

	entries := make(map[int64]*Entry, len(nodes))
	for _, n := range nodes {
		entry := &Entry{
			Node:      n,
			ParentIDs: append([]int64(nil), parents[n.ID]...),
			ChildIDs:  append([]int64(nil), children[n.ID]...),
		}

		ancestors := walk(n.ID, parents)
		entry.AncestorIDs = ancestors
		for _, aid := range ancestors {
			r.classifyLandmark(entry, byID[aid])
		}

		agg := newAggregateBuilder()
		for _, did := range walk(n.ID, children) {
			r.addFacts(ctx, agg, byID[did])
		}
		entry.Aggregate = agg.build()

		entries[n.ID] = entry
	}

	return entries, nil
}

// ResolveOne computes the entry for a single node and the aggregate
// contribution its subtree makes to every ancestor.
func (r *Resolver) ResolveOne(ctx context.Context, id int64) (*Resolution, error) {
	node, err := r.store.FetchNode(ctx, id)
	if err != nil {
		return nil, err
	}

	entry := &Entry{Node: *node}

	// Upward walk. The first level doubles as the direct parent list.
	ancestorNodes, directParents, err := r.walkStore(ctx, id, r.store.FetchParents)
	if err != nil {
		return nil, stelaeerrors.ResolutionFailure(
			fmt.Sprintf("failed to resolve ancestors of node %d", id), err)
	}
	entry.ParentIDs = directParents
	for _, anc := range ancestorNodes {
		entry.AncestorIDs = append(entry.AncestorIDs, anc.ID)
		r.classifyLandmark(entry, anc)
	}

	// Downward walk for direct children and the descendant aggregate.
	descendantNodes, directChildren, err := r.walkStore(ctx, id, r.store.FetchChildren)
	if err != nil {
		return nil, stelaeerrors.ResolutionFailure(
			fmt.Sprintf("failed to resolve descendants of node %d", id), err)
	}
	entry.ChildIDs = directChildren

	agg := newAggregateBuilder()
	for _, d := range descendantNodes {
		r.addFacts(ctx, agg, d)
	}
	entry.Aggregate = agg.build()

	// The contribution unioned into ancestors covers the node itself as
	// well as its subtree, since from an ancestor's point of view the
	// node is one of the descendants being aggregated.
	contrib := newAggregateBuilder()
	r.addFacts(ctx, contrib, *node)
	for _, d := range descendantNodes {
		r.addFacts(ctx, contrib, d)
	}
	contribution := contrib.build()

	res := &Resolution{Entry: entry}
	for _, anc := range ancestorNodes {
		res.Ancestors = append(res.Ancestors, &AncestorUpdate{
			Node:      anc,
			Aggregate: contribution,
		})
	}
	return res, nil
}

// walk returns the transitive closure of links from start, excluding
// start itself, in breadth-first order. Visited tracking guarantees
// termination even if the underlying store contains a cycle; cycles are
// an external-data invariant violation, logged and not repaired.
func walk(start int64, links map[int64][]int64) []int64 {
	visited := map[int64]bool{start: true}
	var result []int64
	queue := append([]int64(nil), links[start]...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == start {
			slog.Warn("cycle detected in object graph", slog.Int64("node", start))
			continue
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		result = append(result, id)
		queue = append(queue, links[id]...)
	}
	return result
}

// walkStore is the store-backed variant of walk used by ResolveOne.
// It returns every transitively linked node plus the IDs of the first
// level (the direct parents or children).
func (r *Resolver) walkStore(ctx context.Context, start int64,
	fetch func(context.Context, int64) ([]model.Node, error),
) ([]model.Node, []int64, error) {
	first, err := fetch(ctx, start)
	if err != nil {
		return nil, nil, err
	}

	var direct []int64
	for _, n := range first {
		direct = append(direct, n.ID)
	}

	visited := map[int64]bool{start: true}
	var result []model.Node
	queue := first
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.ID == start {
			slog.Warn("cycle detected in object graph", slog.Int64("node", start))
			continue
		}
		if visited[n.ID] {
			continue
		}
		visited[n.ID] = true
		result = append(result, n)

		next, err := fetch(ctx, n.ID)
		if err != nil {
			return nil, nil, err
		}
		queue = append(queue, next...)
	}
	return result, direct, nil
}

// classifyLandmark adds an ancestor to the entry's landmark set when
// its type matches one of the named hierarchy levels.
func (r *Resolver) classifyLandmark(entry *Entry, anc model.Node) {
	if !anc.Type.IsLandmark() {
		return
	}
	lm := Landmark{NodeID: anc.ID, ObjectID: anc.ObjectID, Name: r.displayName(anc)}
	switch anc.Type {
	case model.ObjectTypeUnit:
		entry.Units = append(entry.Units, lm)
	case model.ObjectTypeProject:
		entry.Projects = append(entry.Projects, lm)
	case model.ObjectTypeSubject:
		entry.Subjects = append(entry.Subjects, lm)
	case model.ObjectTypeItem:
		entry.Items = append(entry.Items, lm)
	}
}

// displayName memoizes landmark display names by node ID.
func (r *Resolver) displayName(n model.Node) string {
	if name, ok := r.names.Get(n.ID); ok {
		return name
	}
	r.names.Add(n.ID, n.Name)
	return n.Name
}

// vocabTerm resolves a vocabulary ID to its term, caching results.
// Unknown or failing lookups yield "" so one bad reference never fails
// the document it appears in.
func (r *Resolver) vocabTerm(ctx context.Context, vocabID int64) string {
	if vocabID == 0 {
		return ""
	}
	if term, ok := r.vocab.Get(vocabID); ok {
		return term
	}
	term, err := r.store.FetchVocabularyTerm(ctx, vocabID)
	if err != nil {
		slog.Warn("vocabulary lookup failed",
			slog.Int64("vocab_id", vocabID),
			slog.String("error", err.Error()))
		return ""
	}
	r.vocab.Add(vocabID, term)
	return term
}

// addFacts folds one descendant's facts into the aggregate.
func (r *Resolver) addFacts(ctx context.Context, agg *aggregateBuilder, n model.Node) {
	agg.addChildType(n.Type.String())
	if !n.Created.IsZero() {
		agg.addDate(n.Created)
	}
	agg.addCaptureMethod(r.vocabTerm(ctx, n.Facts.CaptureMethodID))
	for _, v := range n.Facts.VariantTypeIDs {
		agg.addVariantType(r.vocabTerm(ctx, v))
	}
	agg.addModelPurpose(r.vocabTerm(ctx, n.Facts.ModelPurposeID))
	agg.addModelFileType(r.vocabTerm(ctx, n.Facts.ModelFileTypeID))
}

// aggregateBuilder unions facts, deduplicating everything except dates.
type aggregateBuilder struct {
	childTypes     map[string]bool
	captureMethods map[string]bool
	variantTypes   map[string]bool
	modelPurposes  map[string]bool
	modelFileTypes map[string]bool
	dates          []time.Time
}

func newAggregateBuilder() *aggregateBuilder {
	return &aggregateBuilder{
		childTypes:     make(map[string]bool),
		captureMethods: make(map[string]bool),
		variantTypes:   make(map[string]bool),
		modelPurposes:  make(map[string]bool),
		modelFileTypes: make(map[string]bool),
	}
}

func (b *aggregateBuilder) addChildType(s string) {
	if s != "" {
		b.childTypes[s] = true
	}
}

func (b *aggregateBuilder) addCaptureMethod(s string) {
	if s != "" {
		b.captureMethods[s] = true
	}
}

func (b *aggregateBuilder) addVariantType(s string) {
	if s != "" {
		b.variantTypes[s] = true
	}
}

func (b *aggregateBuilder) addModelPurpose(s string) {
	if s != "" {
		b.modelPurposes[s] = true
	}
}

func (b *aggregateBuilder) addModelFileType(s string) {
	if s != "" {
		b.modelFileTypes[s] = true
	}
}

func (b *aggregateBuilder) addDate(t time.Time) {
	b.dates = append(b.dates, t)
}

// build produces an Aggregate with sorted collections so that two
// rebuilds over the same graph emit identical documents.
func (b *aggregateBuilder) build() Aggregate {
	sort.Slice(b.dates, func(i, j int) bool { return b.dates[i].Before(b.dates[j]) })
	return Aggregate{
		ChildTypes:     sortedKeys(b.childTypes),
		CaptureMethods: sortedKeys(b.captureMethods),
		VariantTypes:   sortedKeys(b.variantTypes),
		ModelPurposes:  sortedKeys(b.modelPurposes),
		ModelFileTypes: sortedKeys(b.modelFileTypes),
		DateCreated:    b.dates,
	}
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
