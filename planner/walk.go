package planner

import (
	"fmt"
	"path"

	"github.com/tacofoundation/tacobridge/plantypes"
	"github.com/tacofoundation/tacobridge/table"
	"github.com/tacofoundation/tacobridge/view"
)

// collectTasks walks rows (a level-ℓ table, starting with the level-0
// snapshot) recursively: FILE rows become a transfer task from their
// internal:gdal_vsi location to output/DATA/<relative path>; FOLDER rows
// are expanded by querying v for their children at level ℓ+1, scoped by
// parent id and source provenance so concatenated sources never leak into
// each other's subtrees.
func collectTasks(v view.View, level int, rows *table.Table, output string) ([]plantypes.Task, error) {
	if rows.NumRows == 0 {
		return nil, nil
	}
	typeCol := rows.MustColumn(plantypes.ColumnType)
	idCol := rows.MustColumn(plantypes.ColumnID)
	currentCol := rows.MustColumn(plantypes.ColCurrentID)
	relCol, hasRel := rows.Column(plantypes.ColRelativePath)
	vsiCol, hasVSI := rows.Column(plantypes.ColGDALVSI)

	var tasks []plantypes.Task
	for i := 0; i < rows.NumRows; i++ {
		switch typeCol.StringAt(i) {
		case plantypes.SampleTypeFile:
			rel := idCol.StringAt(i)
			if hasRel {
				if r := relCol.StringAt(i); r != "" {
					rel = r
				}
			}
			var loc string
			if hasVSI {
				loc = vsiCol.StringAt(i)
			}
			if loc == "" {
				return nil, fmt.Errorf("row %q at level %d has no internal:gdal_vsi location", idCol.StringAt(i), level)
			}
			dest := path.Join(output, plantypes.FolderDataDir, rel)
			tasks = append(tasks, VSIToTask(loc, dest))
		case plantypes.SampleTypeFolder:
			if level == v.MaxDepth() {
				continue
			}
			sourceKey := view.SourceKey(rows, i)
			children := v.Children(level+1, currentCol.Int64At(i), sourceKey)
			childTasks, err := collectTasks(v, level+1, children, output)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, childTasks...)
		default:
			return nil, fmt.Errorf("row %q at level %d has unknown type %q", idCol.StringAt(i), level, typeCol.StringAt(i))
		}
	}
	return tasks, nil
}
