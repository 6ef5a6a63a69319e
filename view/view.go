// Package view stands in for the reader library that parses an archive or
// folder into a queryable dataset view and exposes a per-level tabular
// interface and a hierarchical schema descriptor. It defines the View
// interface the metadata engine and planner program against, plus three
// concrete implementations: Dataset (a materialized archive or folder
// load), FilteredView (a predicate pushed down to level 0), and ConcatView
// (several views stitched together with provenance columns).
package view

import (
	"fmt"

	"github.com/tacofoundation/tacobridge/plantypes"
	"github.com/tacofoundation/tacobridge/table"
)

// View is the hierarchical dataset abstraction the planner and metadata
// engine consume. A View may be backed by a materialized archive/folder
// load, a filter over another View, or a concatenation of several.
type View interface {
	// MaxDepth returns the deepest level index D (levels run 0..D).
	MaxDepth() int
	// Collection returns the view's manifest document.
	Collection() map[string]any
	// SourcePath identifies where this view was loaded from; the planner
	// records it as the plan's SourcePath.
	SourcePath() string
	// HasLevel1Joins reports whether the view's levels above 0 are backed
	// by a join the planner cannot safely snapshot; the planner rejects
	// such views with a PlanError rather than produce an inconsistent plan.
	HasLevel1Joins() bool
	// Level0Snapshot returns level 0's table, fetched exactly once and
	// cached for the lifetime of the View so every subsequent caller
	// within a single plan observes the same rows: level 0 is never
	// re-queried mid-plan.
	Level0Snapshot() *table.Table
	// Level returns the full table for levelIdx. For level 0 a filtering
	// view returns its filtered snapshot; deeper levels are returned
	// unfiltered. Callers that need only a folder's children should use
	// Children instead.
	Level(levelIdx int) *table.Table
	// Children returns the rows of levelIdx whose internal:parent_id
	// equals parentID, additionally scoped by sourceKey when the level
	// carries concat provenance columns.
	Children(levelIdx int, parentID int64, sourceKey string) *table.Table
}

// SourceKey extracts the composite-key component used to disambiguate
// identical current_id/parent_id values across concatenated sources:
// internal:source_path if present, else internal:source_file, else "".
func SourceKey(t *table.Table, row int) string {
	if c, ok := t.Column(plantypes.ColSourcePath); ok {
		return c.StringAt(row)
	}
	if c, ok := t.Column(plantypes.ColSourceFile); ok {
		return c.StringAt(row)
	}
	return ""
}

// HasProvenance reports whether t carries concat provenance columns.
func HasProvenance(t *table.Table) bool {
	return t.HasColumn(plantypes.ColSourcePath) || t.HasColumn(plantypes.ColSourceFile)
}

func childrenOf(t *table.Table, parentID int64, sourceKey string, scoped bool) *table.Table {
	parentCol := t.MustColumn(plantypes.ColParentID)
	mask := make([]bool, t.NumRows)
	for i := 0; i < t.NumRows; i++ {
		if parentCol.Int64At(i) != parentID {
			continue
		}
		if scoped && SourceKey(t, i) != sourceKey {
			continue
		}
		mask[i] = true
	}
	return t.Filter(mask)
}

// Dataset is a materialized, already-loaded view: every level's full table
// is held in memory, as it would be immediately after an archive or folder
// load. Level0Snapshot is simply the stored level-0 table, since nothing
// about a Dataset can change between calls.
type Dataset struct {
	sourcePath string
	collection map[string]any
	levels     []*table.Table
	joins      bool
}

// NewDataset builds a Dataset from already-loaded level tables, in index
// order (levels[0] first). Returns an error if levels is empty.
func NewDataset(sourcePath string, collection map[string]any, levels []*table.Table) (*Dataset, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("view: dataset %s has no levels", sourcePath)
	}
	return &Dataset{sourcePath: sourcePath, collection: collection, levels: levels}, nil
}

func (d *Dataset) MaxDepth() int                { return len(d.levels) - 1 }
func (d *Dataset) Collection() map[string]any   { return d.collection }
func (d *Dataset) SourcePath() string           { return d.sourcePath }
func (d *Dataset) HasLevel1Joins() bool         { return d.joins }
func (d *Dataset) Level0Snapshot() *table.Table { return d.levels[0] }
func (d *Dataset) Level(levelIdx int) *table.Table {
	return d.levels[levelIdx]
}
func (d *Dataset) Children(levelIdx int, parentID int64, sourceKey string) *table.Table {
	t := d.levels[levelIdx]
	return childrenOf(t, parentID, sourceKey, HasProvenance(t))
}

// MarkJoined returns a copy of d with HasLevel1Joins forced true, used only
// by tests exercising the planner's join-rejection precondition: no loader
// in this system actually produces a joined view, since both the archive
// reader and folder reader materialize plain tables.
func (d *Dataset) MarkJoined() *Dataset {
	cp := *d
	cp.joins = true
	return &cp
}

// Predicate reports whether a level-0 row should be kept. Implementations
// receive the row as a name->value map (table.Table.Row's shape) so a
// predicate can inspect any reserved or user-defined column uniformly.
type Predicate func(row map[string]any) bool

// FilteredView applies a predicate to another view's level 0 and leaves
// every other level untouched; the metadata engine's reindexing walk is
// what makes the filter propagate to descendant levels, since a child row
// survives only if its parent's new id is present in the id-mapping table.
type FilteredView struct {
	base      View
	predicate Predicate
	snapshot  *table.Table // cached on first Level0Snapshot call
}

// NewFilteredView wraps base with predicate. The predicate is not applied
// until Level0Snapshot is first called, and its result is cached for the
// life of the FilteredView.
func NewFilteredView(base View, predicate Predicate) *FilteredView {
	return &FilteredView{base: base, predicate: predicate}
}

func (f *FilteredView) MaxDepth() int              { return f.base.MaxDepth() }
func (f *FilteredView) Collection() map[string]any { return f.base.Collection() }
func (f *FilteredView) SourcePath() string          { return f.base.SourcePath() }
func (f *FilteredView) HasLevel1Joins() bool        { return f.base.HasLevel1Joins() }

func (f *FilteredView) Level0Snapshot() *table.Table {
	if f.snapshot != nil {
		return f.snapshot
	}
	base := f.base.Level0Snapshot()
	mask := make([]bool, base.NumRows)
	for i := 0; i < base.NumRows; i++ {
		if f.predicate(base.Row(i)) {
			mask[i] = true
		}
	}
	f.snapshot = base.Filter(mask)
	return f.snapshot
}

func (f *FilteredView) Level(levelIdx int) *table.Table {
	if levelIdx == 0 {
		return f.Level0Snapshot()
	}
	return f.base.Level(levelIdx)
}

func (f *FilteredView) Children(levelIdx int, parentID int64, sourceKey string) *table.Table {
	if levelIdx == 0 {
		return childrenOf(f.Level0Snapshot(), parentID, sourceKey, HasProvenance(f.Level0Snapshot()))
	}
	return f.base.Children(levelIdx, parentID, sourceKey)
}

// ConcatView stitches several views' levels together, tagging every row
// with internal:source_path (and internal:source_file, mirrored to the
// same value when the source has no more specific filename) so the
// metadata engine's composite (source_key, old_id) keying can disambiguate
// identical identifiers across sources. Levels beyond the shallowest
// source's depth are simply absent from the combined view (MaxDepth is the
// minimum of the sources' depths).
type ConcatView struct {
	sourcePath string
	collection map[string]any
	levels     []*table.Table
}

// NewConcatView concatenates sources, labelling each source's rows with the
// corresponding entry of labels (e.g. the source's archive or folder path).
// The combined collection is the first source's, matching how a
// concatenation names itself after its primary input.
func NewConcatView(sources []View, labels []string) (*ConcatView, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("view: concat requires at least one source")
	}
	if len(sources) != len(labels) {
		return nil, fmt.Errorf("view: %d sources but %d labels", len(sources), len(labels))
	}
	depth := sources[0].MaxDepth()
	for _, s := range sources[1:] {
		if s.MaxDepth() < depth {
			depth = s.MaxDepth()
		}
	}
	levels := make([]*table.Table, depth+1)
	for l := 0; l <= depth; l++ {
		var parts []*table.Table
		for i, s := range sources {
			var src *table.Table
			if l == 0 {
				src = s.Level0Snapshot()
			} else {
				src = s.Level(l)
			}
			tagged, err := tagProvenance(src, labels[i])
			if err != nil {
				return nil, fmt.Errorf("view: concat level %d source %s: %w", l, labels[i], err)
			}
			parts = append(parts, tagged)
		}
		merged, err := concatTables(parts)
		if err != nil {
			return nil, fmt.Errorf("view: concat level %d: %w", l, err)
		}
		levels[l] = merged
	}
	return &ConcatView{sourcePath: labels[0], collection: sources[0].Collection(), levels: levels}, nil
}

func (c *ConcatView) MaxDepth() int                { return len(c.levels) - 1 }
func (c *ConcatView) Collection() map[string]any   { return c.collection }
func (c *ConcatView) SourcePath() string           { return c.sourcePath }
func (c *ConcatView) HasLevel1Joins() bool         { return false }
func (c *ConcatView) Level0Snapshot() *table.Table { return c.levels[0] }
func (c *ConcatView) Level(levelIdx int) *table.Table {
	return c.levels[levelIdx]
}
func (c *ConcatView) Children(levelIdx int, parentID int64, sourceKey string) *table.Table {
	return childrenOf(c.levels[levelIdx], parentID, sourceKey, true)
}

func tagProvenance(t *table.Table, label string) (*table.Table, error) {
	if HasProvenance(t) {
		return t, nil
	}
	paths := make([]string, t.NumRows)
	files := make([]string, t.NumRows)
	for i := range paths {
		paths[i] = label
		files[i] = label
	}
	return table.New(t.NumRows, append(t.Cols(),
		table.NewStringColumn(plantypes.ColSourcePath, paths),
		table.NewStringColumn(plantypes.ColSourceFile, files),
	)...)
}

// concatTables stacks tables with identical schemas row-wise.
func concatTables(tables []*table.Table) (*table.Table, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("no tables to concatenate")
	}
	schema := tables[0].Names()
	total := 0
	for _, t := range tables {
		if !sameSchema(schema, t.Names()) {
			return nil, fmt.Errorf("schema mismatch: %v vs %v", schema, t.Names())
		}
		total += t.NumRows
	}
	cols := make([]table.Column, len(schema))
	for ci, name := range schema {
		first, _ := tables[0].Column(name)
		switch first.Kind {
		case table.Int64:
			vs := make([]int64, 0, total)
			for _, t := range tables {
				c, _ := t.Column(name)
				for i := 0; i < t.NumRows; i++ {
					vs = append(vs, c.Int64At(i))
				}
			}
			cols[ci] = table.NewInt64Column(name, vs)
		case table.String:
			vs := make([]string, 0, total)
			for _, t := range tables {
				c, _ := t.Column(name)
				for i := 0; i < t.NumRows; i++ {
					vs = append(vs, c.StringAt(i))
				}
			}
			cols[ci] = table.NewStringColumn(name, vs)
		case table.Bool:
			vs := make([]bool, 0, total)
			for _, t := range tables {
				c, _ := t.Column(name)
				for i := 0; i < t.NumRows; i++ {
					vs = append(vs, c.BoolAt(i))
				}
			}
			cols[ci] = table.NewBoolColumn(name, vs)
		case table.Float64:
			vs := make([]float64, 0, total)
			for _, t := range tables {
				c, _ := t.Column(name)
				for i := 0; i < t.NumRows; i++ {
					vs = append(vs, c.Float64At(i))
				}
			}
			cols[ci] = table.NewFloat64Column(name, vs)
		}
	}
	return table.New(total, cols...)
}

func sameSchema(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
