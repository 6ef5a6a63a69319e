package metadata

import (
	"github.com/tacofoundation/tacobridge/plantypes"
	"github.com/tacofoundation/tacobridge/table"
	"github.com/tacofoundation/tacobridge/view"
)

// idKey is the composite key M is built from: a row's provenance source
// (empty string when the view carries no concat columns) paired with its
// pre-reindex current_id. Scoping by source is what lets two concatenated
// sources reuse the same integer id space without their rows colliding.
type idKey struct {
	source string
	oldID  int64
}

// ReindexFromSnapshot is the core reindexing algorithm. It accepts a
// pre-fetched, already-filtered level-0 table (the snapshot) and
// walks v's deeper levels once each, keeping only rows whose parent
// survived the snapshot's filter, and assigning dense 0..N-1 identifiers at
// every level. It never re-fetches level 0 from v: the snapshot is the sole
// source of truth for which roots are in scope.
func ReindexFromSnapshot(v view.View, snapshot *table.Table) ([]*table.Table, map[string]*table.Table, error) {
	levels := make([]*table.Table, v.MaxDepth()+1)
	mapping := make(map[idKey]int64, snapshot.NumRows)

	current0 := snapshot.MustColumn(plantypes.ColCurrentID)
	newCurrent0 := make([]int64, snapshot.NumRows)
	newParent0 := make([]int64, snapshot.NumRows)
	for i := 0; i < snapshot.NumRows; i++ {
		newCurrent0[i] = int64(i)
		newParent0[i] = int64(i) // self-parent convention at level 0
		key := idKey{source: view.SourceKey(snapshot, i), oldID: current0.Int64At(i)}
		mapping[key] = int64(i)
	}
	reindexed0, err := ReindexTable(snapshot, newCurrent0, newParent0)
	if err != nil {
		return nil, nil, err
	}
	levels[0] = StripColumns(reindexed0)

	for l := 1; l <= v.MaxDepth(); l++ {
		t := v.Level(l)
		parentCol := t.MustColumn(plantypes.ColParentID)

		keepMask := make([]bool, t.NumRows)
		mappedParents := make([]int64, 0, t.NumRows)
		for i := 0; i < t.NumRows; i++ {
			key := idKey{source: view.SourceKey(t, i), oldID: parentCol.Int64At(i)}
			newParent, ok := mapping[key]
			if !ok {
				continue
			}
			keepMask[i] = true
			mappedParents = append(mappedParents, newParent)
		}

		kept := t.Filter(keepMask)
		keptCurrent := kept.MustColumn(plantypes.ColCurrentID)
		newCurrent := make([]int64, kept.NumRows)
		for i := 0; i < kept.NumRows; i++ {
			newCurrent[i] = int64(i)
			key := idKey{source: view.SourceKey(kept, i), oldID: keptCurrent.Int64At(i)}
			mapping[key] = int64(i)
		}

		reindexed, err := ReindexTable(kept, newCurrent, mappedParents)
		if err != nil {
			return nil, nil, err
		}
		levels[l] = StripColumns(reindexed)
	}

	localMeta, err := BuildLocalMetadata(levels)
	if err != nil {
		return nil, nil, err
	}
	return levels, localMeta, nil
}
