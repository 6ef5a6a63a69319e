package metadata

import (
	"fmt"

	"github.com/tacofoundation/tacobridge/plantypes"
	"github.com/tacofoundation/tacobridge/table"
)

// BuildLocalMetadata walks levels pairwise and produces a mapping from
// output folder path (e.g. "DATA/region_a/sensor_0/") to the table of
// children destined to live there. Folders with no surviving children get
// a zero-row table that preserves the child level's schema.
func BuildLocalMetadata(levels []*table.Table) (map[string]*table.Table, error) {
	if len(levels) == 0 {
		return map[string]*table.Table{}, nil
	}

	paths := make([]map[int64]string, len(levels))
	paths[0] = make(map[int64]string, levels[0].NumRows)
	idCol0 := levels[0].MustColumn(plantypes.ColumnID)
	currentCol0 := levels[0].MustColumn(plantypes.ColCurrentID)
	for i := 0; i < levels[0].NumRows; i++ {
		paths[0][currentCol0.Int64At(i)] = idCol0.StringAt(i)
	}

	for l := 1; l < len(levels); l++ {
		paths[l] = make(map[int64]string, levels[l].NumRows)
		idCol := levels[l].MustColumn(plantypes.ColumnID)
		currentCol := levels[l].MustColumn(plantypes.ColCurrentID)
		parentCol := levels[l].MustColumn(plantypes.ColParentID)
		for i := 0; i < levels[l].NumRows; i++ {
			parentPath, ok := paths[l-1][parentCol.Int64At(i)]
			if !ok {
				return nil, fmt.Errorf("metadata: level %d row %d references unknown parent %d", l, i, parentCol.Int64At(i))
			}
			paths[l][currentCol.Int64At(i)] = parentPath + "/" + idCol.StringAt(i)
		}
	}

	out := make(map[string]*table.Table)
	for l := 0; l < len(levels)-1; l++ {
		typeCol := levels[l].MustColumn(plantypes.ColumnType)
		currentCol := levels[l].MustColumn(plantypes.ColCurrentID)
		childParentCol := levels[l+1].MustColumn(plantypes.ColParentID)

		for i := 0; i < levels[l].NumRows; i++ {
			if typeCol.StringAt(i) != plantypes.SampleTypeFolder {
				continue
			}
			folderID := currentCol.Int64At(i)
			mask := make([]bool, levels[l+1].NumRows)
			for j := 0; j < levels[l+1].NumRows; j++ {
				mask[j] = childParentCol.Int64At(j) == folderID
			}
			children := levels[l+1].Filter(mask).Drop(plantypes.ColRelativePath)
			key := fmt.Sprintf("%s/%s/", plantypes.FolderDataDir, paths[l][folderID])
			out[key] = children
		}
	}
	return out, nil
}
