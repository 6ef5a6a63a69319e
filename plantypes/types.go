// Package plantypes holds the data-model types shared by the planner and
// finalizer: the transfer task, the archive reference, the three plan
// variants, and the three error kinds. It depends on nothing else in this
// module besides table, since the finalizer depends on the data-model
// types only.
package plantypes

import "github.com/tacofoundation/tacobridge/table"

// Task is a single byte-transfer operation: copy bytes from src to dest,
// either the whole object (Offset == nil) or a byte range (both set).
// Immutable and comparable once constructed with plain values; Offset/Size
// use pointers only to distinguish "whole object" from "offset 0".
type Task struct {
	Src, Dest string
	Offset    *int64
	Size      *int64
}

// Partial reports whether this task reads a byte range rather than the
// whole source object.
func (t Task) Partial() bool { return t.Offset != nil && t.Size != nil }

func Int64Ptr(v int64) *int64 { return &v }

// ArchiveRef is a reference to a pre-existing local file and the path it
// shall have inside the output archive (folder->archive direction; no copy
// is implied).
type ArchiveRef struct {
	Src     string
	ArcPath string
}

// ExportPlan is produced by planner.PlanExport.
type ExportPlan struct {
	Tasks         []Task
	SourcePath    string
	Output        string
	Levels        []*table.Table
	LocalMetadata map[string]*table.Table
	Collection    map[string]any
}

// Zip2FolderPlan is produced by planner.PlanZip2Folder.
type Zip2FolderPlan struct {
	Tasks         []Task
	SourcePath    string
	Output        string
	Levels        []*table.Table
	LocalMetadata map[string]*table.Table
	Collection    map[string]any
}

// Folder2ZipPlan is produced by planner.PlanFolder2Zip. It has no Tasks:
// entries reference files that already exist locally, so no executor phase
// is required.
type Folder2ZipPlan struct {
	Entries       []ArchiveRef
	SourcePath    string
	Output        string
	Levels        []*table.Table
	LocalMetadata map[string]*table.Table
	Collection    map[string]any
}
