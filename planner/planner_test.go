package planner

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tacofoundation/tacobridge/archivefmt"
	"github.com/tacofoundation/tacobridge/parquetio"
	"github.com/tacofoundation/tacobridge/plantypes"
	"github.com/tacofoundation/tacobridge/table"
	"github.com/tacofoundation/tacobridge/view"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func TestVSIToTaskByteRange(t *testing.T) {
	task := VSIToTask("/vsisubfile/archive.tacozip,128,64", "/out/DATA/f.tif")
	require.Equal(t, "archive.tacozip", task.Src)
	require.Equal(t, "/out/DATA/f.tif", task.Dest)
	require.True(t, task.Partial())
	require.Equal(t, int64(128), *task.Offset)
	require.Equal(t, int64(64), *task.Size)
}

func TestVSIToTaskPlainPath(t *testing.T) {
	task := VSIToTask("file:///local/raster.tif", "/out/DATA/f.tif")
	require.Equal(t, "file:///local/raster.tif", task.Src)
	require.False(t, task.Partial())
}

func TestVSIToTaskWholeObjectWithTrailingCommas(t *testing.T) {
	task := VSIToTask("/local/tile,12,34", "/out/DATA/f.tif")
	require.Equal(t, "/local/tile,12,34", task.Src)
	require.False(t, task.Partial())
}

func flatDataset(t *testing.T, n int) *view.Dataset {
	t.Helper()
	ids := make([]string, n)
	types := make([]string, n)
	current := make([]int64, n)
	parent := make([]int64, n)
	vsi := make([]string, n)
	rel := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = "leaf"
		types[i] = plantypes.SampleTypeFile
		current[i] = int64(i)
		parent[i] = int64(i)
		vsi[i] = "/local/src" + string(rune('0'+i))
		rel[i] = "leaf" + string(rune('0'+i))
	}
	l0, err := table.New(n,
		table.NewStringColumn(plantypes.ColumnID, ids),
		table.NewStringColumn(plantypes.ColumnType, types),
		table.NewInt64Column(plantypes.ColCurrentID, current),
		table.NewInt64Column(plantypes.ColParentID, parent),
		table.NewStringColumn(plantypes.ColGDALVSI, vsi),
		table.NewStringColumn(plantypes.ColRelativePath, rel),
	)
	require.NoError(t, err)
	ds, err := view.NewDataset("flat", map[string]any{"id": "flat"}, []*table.Table{l0})
	require.NoError(t, err)
	return ds
}

func TestPlanExportHappyPath(t *testing.T) {
	ds := flatDataset(t, 3)
	output := filepath.Join(t.TempDir(), "out")

	plan, err := PlanExport(ds, output, fixedClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 3)
	require.Equal(t, 3, plan.Levels[0].NumRows)
	require.Equal(t, "2026-01-01T00:00:00Z", plan.Collection[plantypes.SubsetDateKey])
}

func TestPlanExportRejectsExistingOutput(t *testing.T) {
	ds := flatDataset(t, 1)
	output := t.TempDir() // already exists
	_, err := PlanExport(ds, output)
	require.Error(t, err)
	_, ok := err.(*plantypes.PlanError)
	require.True(t, ok)
}

func TestPlanExportRejectsEmptyView(t *testing.T) {
	ds := flatDataset(t, 1)
	fv := view.NewFilteredView(ds, func(row map[string]any) bool { return false })
	output := filepath.Join(t.TempDir(), "out")
	_, err := PlanExport(fv, output)
	require.Error(t, err)
}

func TestPlanExportRejectsJoinedView(t *testing.T) {
	ds := flatDataset(t, 1).MarkJoined()
	output := filepath.Join(t.TempDir(), "out")
	_, err := PlanExport(ds, output)
	require.Error(t, err)
}

func buildArchiveFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	srcFile := filepath.Join(dir, "raw.tif")
	require.NoError(t, os.WriteFile(srcFile, []byte("pixels"), 0o644))

	l0, err := table.New(1,
		table.NewStringColumn(plantypes.ColumnID, []string{"leaf.tif"}),
		table.NewStringColumn(plantypes.ColumnType, []string{plantypes.SampleTypeFile}),
		table.NewInt64Column(plantypes.ColCurrentID, []int64{0}),
		table.NewInt64Column(plantypes.ColParentID, []int64{0}),
		table.NewStringColumn(plantypes.ColRelativePath, []string{"leaf.tif"}),
		table.NewStringColumn(plantypes.ColGDALVSI, []string{""}),
	)
	require.NoError(t, err)

	out := filepath.Join(dir, "fixture.zip")
	_, err = archivefmt.CreateCompleteZip(out,
		[]string{srcFile},
		[]string{"DATA/leaf.tif"},
		archivefmt.MetadataPackage{
			Levels:        []*table.Table{l0},
			LocalMetadata: map[string]*table.Table{plantypes.FolderDataDir: l0},
			Collection:    map[string]any{"id": "fixture"},
		},
	)
	require.NoError(t, err)
	return out
}

func TestPlanZip2Folder(t *testing.T) {
	archivePath := buildArchiveFixture(t)
	output := filepath.Join(filepath.Dir(archivePath), "extracted")

	plan, err := PlanZip2Folder(context.Background(), archivePath, output)
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 1)
	require.True(t, plan.Tasks[0].Partial())
	require.Equal(t, archivePath, plan.Tasks[0].Src)
	require.False(t, plan.Levels[0].HasColumn(plantypes.ColOffset))
	require.False(t, plan.Levels[0].HasColumn(plantypes.ColSize))
}

func TestPlanZip2FolderRejectsMissingArchive(t *testing.T) {
	_, err := PlanZip2Folder(context.Background(), "/nonexistent/archive.zip", filepath.Join(t.TempDir(), "out"))
	require.Error(t, err)
}

func buildFolderFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, plantypes.FolderMetadataDir), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, plantypes.FolderDataDir), 0o755))

	l0, err := table.New(1,
		table.NewStringColumn(plantypes.ColumnID, []string{"leaf.tif"}),
		table.NewStringColumn(plantypes.ColumnType, []string{plantypes.SampleTypeFile}),
		table.NewInt64Column(plantypes.ColCurrentID, []int64{0}),
		table.NewInt64Column(plantypes.ColParentID, []int64{0}),
	)
	require.NoError(t, err)
	require.NoError(t, parquetio.WriteTable(l0, filepath.Join(dir, plantypes.FolderMetadataDir, "level0.parquet")))

	require.NoError(t, os.WriteFile(filepath.Join(dir, plantypes.FolderDataDir, "leaf.tif"), []byte("pixels"), 0o644))

	collBytes, err := json.Marshal(map[string]any{"id": "folder-fixture"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, plantypes.FolderCollectionFilename), collBytes, 0o644))
	return dir
}

func TestPlanFolder2Zip(t *testing.T) {
	dir := buildFolderFixture(t)
	output := filepath.Join(filepath.Dir(dir), "out.zip")

	plan, err := PlanFolder2Zip(dir, output)
	require.NoError(t, err)
	require.Len(t, plan.Entries, 1)
	require.Equal(t, "DATA/leaf.tif", plan.Entries[0].ArcPath)
}

func TestPlanFolder2ZipRejectsNoDataFiles(t *testing.T) {
	dir := buildFolderFixture(t)
	require.NoError(t, os.Remove(filepath.Join(dir, plantypes.FolderDataDir, "leaf.tif")))

	_, err := PlanFolder2Zip(dir, filepath.Join(filepath.Dir(dir), "out.zip"))
	require.Error(t, err)
	pe, ok := err.(*plantypes.PlanError)
	require.True(t, ok)
	require.Contains(t, pe.Msg, "No data files found")
}
