package planner

import (
	"fmt"
	"os"

	"github.com/tacofoundation/tacobridge/metadata"
	"github.com/tacofoundation/tacobridge/plantypes"
	"github.com/tacofoundation/tacobridge/view"
)

// PlanExport produces an ExportPlan for v, failing with PlanError if
// output already exists, v's root count is zero, or v carries level>=1
// joins the planner cannot safely snapshot. clock defaults to
// metadata.SystemClock{} when omitted; tests pass a fixed clock.
func PlanExport(v view.View, output string, clock ...metadata.Clock) (*plantypes.ExportPlan, error) {
	if _, err := os.Stat(output); err == nil {
		return nil, plantypes.NewPlanError(fmt.Sprintf("output %s already exists", output))
	} else if !os.IsNotExist(err) {
		return nil, plantypes.WrapPlanError("stat output", err)
	}

	if v.HasLevel1Joins() {
		return nil, plantypes.NewPlanError("view carries unsupported joins at level >= 1")
	}

	snapshot := v.Level0Snapshot()
	if snapshot.NumRows == 0 {
		return nil, plantypes.NewPlanError("view is empty")
	}

	tasks, err := collectTasks(v, 0, snapshot, output)
	if err != nil {
		return nil, plantypes.WrapPlanError("collect transfer tasks", err)
	}

	levels, localMetadata, err := metadata.ReindexFromSnapshot(v, snapshot)
	if err != nil {
		return nil, plantypes.WrapPlanError("reindex metadata", err)
	}

	cl := metadata.Clock(metadata.SystemClock{})
	if len(clock) > 0 {
		cl = clock[0]
	}
	collection := metadata.PrepareCollection(v, snapshot.NumRows, cl)

	return &plantypes.ExportPlan{
		Tasks:         tasks,
		SourcePath:    v.SourcePath(),
		Output:        output,
		Levels:        levels,
		LocalMetadata: localMetadata,
		Collection:    collection,
	}, nil
}
