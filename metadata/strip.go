// Package metadata implements the metadata engine: column stripping,
// cross-hierarchy identifier reindexing, local-metadata construction, and
// collection-manifest preparation.
package metadata

import (
	"github.com/tacofoundation/tacobridge/plantypes"
	"github.com/tacofoundation/tacobridge/table"
	"github.com/tacofoundation/tacobridge/view"
)

// StripColumns returns a copy of t with the named columns removed; columns
// not present are ignored. With no columns given, it strips the default
// archive/concat-only set (internal:offset, internal:size,
// internal:source_path, internal:source_file).
func StripColumns(t *table.Table, columns ...string) *table.Table {
	if len(columns) == 0 {
		columns = plantypes.ExportStripColumns
	}
	return t.Drop(columns...)
}

// levelZero returns v's level-0 table the snapshot-safe way: through
// Level0Snapshot rather than Level(0), so every caller within one plan
// observes the identical level-0 rows.
func levelZero(v view.View) *table.Table { return v.Level0Snapshot() }

// StripArchiveColumns fetches every level of v and strips the default
// archive-only column set, returning levels[0..D] in order. Used by
// plan_zip2folder, which never reindexes (a freshly loaded archive already
// has dense identifiers).
func StripArchiveColumns(v view.View) []*table.Table {
	out := make([]*table.Table, v.MaxDepth()+1)
	for l := 0; l <= v.MaxDepth(); l++ {
		var t *table.Table
		if l == 0 {
			t = levelZero(v)
		} else {
			t = v.Level(l)
		}
		out[l] = StripColumns(t)
	}
	return out
}

// ReindexTable replaces t's two identifier columns in bulk. newCurrentIDs
// and newParentIDs must each have t.NumRows entries.
func ReindexTable(t *table.Table, newCurrentIDs, newParentIDs []int64) (*table.Table, error) {
	out, err := t.SetColumn(table.NewInt64Column(plantypes.ColCurrentID, newCurrentIDs))
	if err != nil {
		return nil, err
	}
	return out.SetColumn(table.NewInt64Column(plantypes.ColParentID, newParentIDs))
}
