package planner

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/tacofoundation/tacobridge/metadata"
	"github.com/tacofoundation/tacobridge/parquetio"
	"github.com/tacofoundation/tacobridge/plantypes"
	"github.com/tacofoundation/tacobridge/table"
)

// PlanFolder2Zip produces a Folder2ZipPlan from a folder-form source,
// failing with PlanError if output already exists, folder is missing, its
// COLLECTION.json fails to parse, or no level metadata / data files are
// found. Its Entries reference existing local files directly: no executor
// phase is required for this direction.
func PlanFolder2Zip(folder, output string) (*plantypes.Folder2ZipPlan, error) {
	if _, err := os.Stat(output); err == nil {
		return nil, plantypes.NewPlanError(fmt.Sprintf("output %s already exists", output))
	} else if !os.IsNotExist(err) {
		return nil, plantypes.WrapPlanError("stat output", err)
	}

	if _, err := os.Stat(folder); err != nil {
		return nil, plantypes.WrapPlanError(fmt.Sprintf("source folder %s", folder), err)
	}

	collectionPath := filepath.Join(folder, plantypes.FolderCollectionFilename)
	raw, err := os.ReadFile(collectionPath)
	if err != nil {
		return nil, plantypes.WrapPlanError("read "+plantypes.FolderCollectionFilename, err)
	}
	var collection map[string]any
	if err := json.Unmarshal(raw, &collection); err != nil {
		return nil, plantypes.WrapPlanError("parse "+plantypes.FolderCollectionFilename, err)
	}

	levelPaths, err := filepath.Glob(filepath.Join(folder, plantypes.FolderMetadataDir, "level*.parquet"))
	if err != nil {
		return nil, plantypes.WrapPlanError("glob level metadata", err)
	}
	if len(levelPaths) == 0 {
		return nil, plantypes.NewPlanError(fmt.Sprintf("%s has no level metadata", folder))
	}
	sort.Strings(levelPaths)

	tables := make([]*table.Table, 0, len(levelPaths))
	for _, lp := range levelPaths {
		tbl, err := parquetio.ReadTable(lp)
		if err != nil {
			return nil, plantypes.WrapPlanError("read "+lp, err)
		}
		tables = append(tables, tbl)
	}

	localMetadata, err := metadata.BuildLocalMetadata(tables)
	if err != nil {
		return nil, plantypes.WrapPlanError("build local metadata", err)
	}

	dataDir := filepath.Join(folder, plantypes.FolderDataDir)
	var entries []plantypes.ArchiveRef
	err = filepath.WalkDir(dataDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() == plantypes.FolderMetaFilename {
			return nil
		}
		rel, err := filepath.Rel(dataDir, p)
		if err != nil {
			return err
		}
		entries = append(entries, plantypes.ArchiveRef{
			Src:     p,
			ArcPath: path.Join(plantypes.FolderDataDir, filepath.ToSlash(rel)),
		})
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, plantypes.WrapPlanError("scan "+dataDir, err)
	}
	if len(entries) == 0 {
		return nil, plantypes.NewPlanError("No data files found")
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ArcPath < entries[j].ArcPath })

	return &plantypes.Folder2ZipPlan{
		Entries:       entries,
		SourcePath:    folder,
		Output:        output,
		Levels:        tables,
		LocalMetadata: localMetadata,
		Collection:    collection,
	}, nil
}
