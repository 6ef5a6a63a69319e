package bridge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tacofoundation/tacobridge/archivefmt"
	"github.com/tacofoundation/tacobridge/blob"
	"github.com/tacofoundation/tacobridge/dispatch"
	"github.com/tacofoundation/tacobridge/finalizer"
	"github.com/tacofoundation/tacobridge/metadata"
	"github.com/tacofoundation/tacobridge/plantypes"
	"github.com/tacofoundation/tacobridge/planner"
	"github.com/tacofoundation/tacobridge/view"
)

// ExportOptions tunes how Export dispatches its transfer tasks.
type ExportOptions struct {
	Parallel bool
	Workers  int
	Progress func(done, total int)
}

func (o ExportOptions) dispatchOptions() dispatch.Options {
	return dispatch.Options{Parallel: o.Parallel, Workers: o.Workers, Progress: o.Progress}
}

// Export writes v out as a new dataset archive, in FOLDER form or ZIP form
// depending on format (FormatAuto detects from output's extension).
func Export(v view.View, output string, format Format, opts ExportOptions) (string, error) {
	format = resolveFormat(output, format)
	opID := newOperationID()
	logger.Printf("[%s] export: format=%v output=%s", opID, format, output)
	if format == FormatFolder {
		return exportToFolder(opID, v, stripTacozipSuffixIfFolder(output, format), opts)
	}
	return exportToZip(opID, v, output, opts)
}

func stripTacozipSuffixIfFolder(output string, format Format) string {
	if format == FormatFolder {
		return stripTacozipSuffix(output)
	}
	return output
}

func exportToFolder(opID string, v view.View, output string, opts ExportOptions) (string, error) {
	plan, err := planner.PlanExport(v, output)
	if err != nil {
		return "", err
	}
	logger.Printf("[%s] export: %d tasks planned", opID, len(plan.Tasks))
	results := dispatch.Run(context.Background(), plan.Tasks, opts.dispatchOptions())
	if err := firstError(results); err != nil {
		return "", err
	}
	return finalizer.FinalizeFolder(plan.Output, plan.Levels, plan.LocalMetadata, plan.Collection)
}

// exportToZip plans directly against a scratch folder next to output,
// executes every task there, then packages the scratch folder's DATA
// members into the final archive: write once to a temp folder, zip it,
// delete the folder, rather than streaming entries straight into the zip
// while tasks are still running.
func exportToZip(opID string, v view.View, output string, opts ExportOptions) (string, error) {
	if _, err := os.Stat(output); err == nil {
		return "", plantypes.NewPlanError("output already exists: " + output)
	}

	tempDir := tempExportDir(output)
	if err := acquireTempDir(tempDir); err != nil {
		return "", err
	}
	defer releaseTempDir(tempDir)

	plan, err := planner.PlanExport(v, tempDir)
	if err != nil {
		return "", err
	}
	logger.Printf("[%s] export: %d tasks planned into scratch dir %s", opID, len(plan.Tasks), tempDir)

	results := dispatch.Run(context.Background(), plan.Tasks, opts.dispatchOptions())
	if err := firstError(results); err != nil {
		return "", err
	}

	entries := archiveEntriesFromTasks(plan.Tasks, tempDir)
	return finalizer.FinalizeArchive(output, entries, plan.Levels, plan.LocalMetadata, plan.Collection)
}

func archiveEntriesFromTasks(tasks []plantypes.Task, tempDir string) []plantypes.ArchiveRef {
	entries := make([]plantypes.ArchiveRef, len(tasks))
	for i, t := range tasks {
		rel, err := filepath.Rel(tempDir, t.Dest)
		if err != nil {
			rel = t.Dest
		}
		entries[i] = plantypes.ArchiveRef{Src: t.Dest, ArcPath: filepath.ToSlash(rel)}
	}
	return entries
}

// Zip2Folder expands a ZIP-form archive into FOLDER form. A local archive
// takes a fast path that extracts DATA members directly and rebuilds fresh
// metadata from the already-loaded level tables; a remote archive goes
// through the plan/execute pipeline so byte ranges are fetched task by
// task instead of downloading the whole archive up front.
func Zip2Folder(source, output string, opts ExportOptions) (string, error) {
	opID := newOperationID()
	if blob.IsRemote(source) {
		return zip2FolderRemote(opID, source, output, opts)
	}
	return zip2FolderLocal(opID, source, output)
}

func zip2FolderLocal(opID, source, output string) (string, error) {
	if _, err := os.Stat(output); err == nil {
		return "", plantypes.NewPlanError("output already exists: " + output)
	}

	r, err := archivefmt.Open(source)
	if err != nil {
		return "", plantypes.WrapPlanError("open archive", err)
	}
	defer r.Close()

	dataset, err := view.NewDataset(source, r.Collection(), r.Levels())
	if err != nil {
		return "", plantypes.WrapPlanError("build dataset from archive", err)
	}

	logger.Printf("[%s] zip2folder: local fast path, extracting data members", opID)
	if err := r.ExtractDataTo(output); err != nil {
		return "", plantypes.WrapFinalizeError("extract data members", err)
	}

	levels := metadata.StripArchiveColumns(dataset)
	localMeta, err := metadata.BuildLocalMetadata(levels)
	if err != nil {
		return "", plantypes.WrapFinalizeError("build local metadata", err)
	}
	collection := metadata.CopyCollection(dataset.Collection())

	return finalizer.FinalizeFolder(output, levels, localMeta, collection)
}

func zip2FolderRemote(opID, source, output string, opts ExportOptions) (string, error) {
	plan, err := planner.PlanZip2Folder(context.Background(), source, output)
	if err != nil {
		return "", err
	}
	logger.Printf("[%s] zip2folder: remote path, %d tasks planned", opID, len(plan.Tasks))
	results := dispatch.Run(context.Background(), plan.Tasks, opts.dispatchOptions())
	if err := firstError(results); err != nil {
		return "", err
	}
	return finalizer.FinalizeFolder(plan.Output, plan.Levels, plan.LocalMetadata, plan.Collection)
}

// Folder2Zip packages a FOLDER-form dataset into a single ZIP-form
// archive. Entries reference files already on local disk, so there is no
// executor phase: planning produces the final archive's member list
// directly.
func Folder2Zip(folder, output string) (string, error) {
	opID := newOperationID()
	plan, err := planner.PlanFolder2Zip(folder, output)
	if err != nil {
		return "", err
	}
	logger.Printf("[%s] folder2zip: %d entries planned", opID, len(plan.Entries))
	return finalizer.FinalizeArchive(plan.Output, plan.Entries, plan.Levels, plan.LocalMetadata, plan.Collection)
}

func firstError(results []dispatch.Result) error {
	for _, r := range results {
		if r.Err != nil {
			return fmt.Errorf("dispatch: %w", r.Err)
		}
	}
	return nil
}
