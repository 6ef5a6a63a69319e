package planner

import (
	"context"
	"fmt"
	"os"

	"github.com/tacofoundation/tacobridge/archivefmt"
	"github.com/tacofoundation/tacobridge/blob"
	"github.com/tacofoundation/tacobridge/metadata"
	"github.com/tacofoundation/tacobridge/plantypes"
	"github.com/tacofoundation/tacobridge/view"
)

// PlanZip2Folder produces a Zip2FolderPlan for the archive at archivePath
// (a local path or a byte-range-capable URL), failing with PlanError if
// output already exists or the archive fails to load. Unlike PlanExport,
// identifiers are not reindexed: a freshly loaded archive's levels are
// already densely numbered.
func PlanZip2Folder(ctx context.Context, archivePath, output string) (*plantypes.Zip2FolderPlan, error) {
	if _, err := os.Stat(output); err == nil {
		return nil, plantypes.NewPlanError(fmt.Sprintf("output %s already exists", output))
	} else if !os.IsNotExist(err) {
		return nil, plantypes.WrapPlanError("stat output", err)
	}

	var r *archivefmt.Reader
	var err error
	if blob.IsRemote(archivePath) {
		r, err = archivefmt.OpenRemote(ctx, archivePath)
	} else {
		r, err = archivefmt.Open(archivePath)
	}
	if err != nil {
		return nil, plantypes.WrapPlanError("load archive", err)
	}
	defer r.Close()

	ds, err := view.NewDataset(archivePath, r.Collection(), r.Levels())
	if err != nil {
		return nil, plantypes.WrapPlanError("build view over archive", err)
	}

	snapshot := ds.Level0Snapshot()
	tasks, err := collectTasks(ds, 0, snapshot, output)
	if err != nil {
		return nil, plantypes.WrapPlanError("collect transfer tasks", err)
	}

	// A byte-range reference embeds the path the archive had when it was
	// written; the slice has to be read from wherever the archive lives
	// now, which may differ after a move or a remote fetch.
	for i := range tasks {
		if tasks[i].Partial() {
			tasks[i].Src = archivePath
		}
	}

	levels := metadata.StripArchiveColumns(ds)
	localMetadata, err := metadata.BuildLocalMetadata(levels)
	if err != nil {
		return nil, plantypes.WrapPlanError("build local metadata", err)
	}

	return &plantypes.Zip2FolderPlan{
		Tasks:         tasks,
		SourcePath:    archivePath,
		Output:        output,
		Levels:        levels,
		LocalMetadata: localMetadata,
		Collection:    metadata.CopyCollection(ds.Collection()),
	}, nil
}
