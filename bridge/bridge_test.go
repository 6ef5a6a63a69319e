package bridge

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tacofoundation/tacobridge/archivefmt"
	"github.com/tacofoundation/tacobridge/parquetio"
	"github.com/tacofoundation/tacobridge/plantypes"
	"github.com/tacofoundation/tacobridge/table"
	"github.com/tacofoundation/tacobridge/view"
)

// flatDataset builds a leaf-only dataset of n rows whose payload files are
// written under dir, so exports can actually execute their transfer tasks.
func flatDataset(t *testing.T, dir string, n int) *view.Dataset {
	t.Helper()
	ids := make([]string, n)
	types := make([]string, n)
	current := make([]int64, n)
	parent := make([]int64, n)
	vsi := make([]string, n)
	rel := make([]string, n)
	for i := 0; i < n; i++ {
		name := "leaf" + string(rune('0'+i))
		src := filepath.Join(dir, "src_"+name)
		require.NoError(t, os.WriteFile(src, []byte("pixels-"+name), 0o644))
		ids[i] = name
		types[i] = plantypes.SampleTypeFile
		current[i] = int64(i)
		parent[i] = int64(i)
		vsi[i] = src
		rel[i] = name
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

func TestDetectFormat(t *testing.T) {
	require.Equal(t, FormatZip, DetectFormat("out.zip"))
	require.Equal(t, FormatZip, DetectFormat("out.tacozip"))
	require.Equal(t, FormatFolder, DetectFormat("out"))
	require.Equal(t, FormatFolder, DetectFormat("out.tar.gz"))
}

func TestExportToFolder(t *testing.T) {
	dir := t.TempDir()
	ds := flatDataset(t, dir, 2)
	output := filepath.Join(dir, "out")

	result, err := Export(ds, output, FormatFolder, ExportOptions{})
	require.NoError(t, err)
	require.Equal(t, output, result)

	_, err = os.Stat(filepath.Join(output, plantypes.FolderCollectionFilename))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(output, plantypes.FolderDataDir, "leaf0"))
	require.NoError(t, err)
}

func TestExportToZipCleansUpTempDir(t *testing.T) {
	dir := t.TempDir()
	ds := flatDataset(t, dir, 2)
	output := filepath.Join(dir, "out.zip")

	result, err := Export(ds, output, FormatAuto, ExportOptions{})
	require.NoError(t, err)
	require.Equal(t, output, result)

	_, err = os.Stat(output)
	require.NoError(t, err)

	_, err = os.Stat(tempExportDir(output))
	require.True(t, os.IsNotExist(err))

	r, err := archivefmt.Open(output)
	require.NoError(t, err)
	defer r.Close()
	require.Len(t, r.DataMembers(), 2)
}

func TestExportToZipRejectsExistingOutput(t *testing.T) {
	dir := t.TempDir()
	ds := flatDataset(t, dir, 1)
	output := filepath.Join(dir, "out.zip")
	require.NoError(t, os.WriteFile(output, []byte("stale"), 0o644))

	_, err := Export(ds, output, FormatZip, ExportOptions{})
	require.Error(t, err)
	_, ok := err.(*plantypes.PlanError)
	require.True(t, ok)
}

func buildArchiveFixtureForBridge(t *testing.T) string {
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

func TestZip2FolderLocalFastPath(t *testing.T) {
	archivePath := buildArchiveFixtureForBridge(t)
	output := filepath.Join(filepath.Dir(archivePath), "extracted")

	result, err := Zip2Folder(archivePath, output, ExportOptions{})
	require.NoError(t, err)
	require.Equal(t, output, result)

	got, err := os.ReadFile(filepath.Join(output, plantypes.FolderDataDir, "leaf.tif"))
	require.NoError(t, err)
	require.Equal(t, "pixels", string(got))

	lvl, err := parquetio.ReadTable(filepath.Join(output, plantypes.FolderMetadataDir, "level0.parquet"))
	require.NoError(t, err)
	require.False(t, lvl.HasColumn(plantypes.ColOffset))
	require.False(t, lvl.HasColumn(plantypes.ColSize))
}

func TestZip2FolderRemote(t *testing.T) {
	archivePath := buildArchiveFixtureForBridge(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, archivePath)
	}))
	defer srv.Close()

	output := filepath.Join(filepath.Dir(archivePath), "from-remote")
	result, err := Zip2Folder(srv.URL+"/fixture.zip", output, ExportOptions{})
	require.NoError(t, err)
	require.Equal(t, output, result)

	got, err := os.ReadFile(filepath.Join(output, plantypes.FolderDataDir, "leaf.tif"))
	require.NoError(t, err)
	require.Equal(t, "pixels", string(got))
}

func TestZip2FolderRejectsExistingOutput(t *testing.T) {
	archivePath := buildArchiveFixtureForBridge(t)
	output := t.TempDir()

	_, err := Zip2Folder(archivePath, output, ExportOptions{})
	require.Error(t, err)
}

func buildFolderFixtureForBridge(t *testing.T) string {
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

func TestFolder2Zip(t *testing.T) {
	dir := buildFolderFixtureForBridge(t)
	output := filepath.Join(filepath.Dir(dir), "out.zip")

	result, err := Folder2Zip(dir, output)
	require.NoError(t, err)
	require.Equal(t, output, result)

	r, err := archivefmt.Open(output)
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, []string{"DATA/leaf.tif"}, r.DataMembers())
}

// TestRoundTripZipFolderZip expands an archive into folder form, repackages
// the folder, and checks the final archive's level-0 id sequence matches
// the original's in order.
func TestRoundTripZipFolderZip(t *testing.T) {
	dir := t.TempDir()
	ds := flatDataset(t, dir, 3)

	original := filepath.Join(dir, "original.zip")
	_, err := Export(ds, original, FormatZip, ExportOptions{})
	require.NoError(t, err)

	r1, err := archivefmt.Open(original)
	require.NoError(t, err)
	wantIDs := r1.Levels()[0].MustColumn(plantypes.ColumnID)
	wantRows := r1.Levels()[0].NumRows
	r1.Close()

	folder := filepath.Join(dir, "expanded")
	_, err = Zip2Folder(original, folder, ExportOptions{})
	require.NoError(t, err)

	repacked := filepath.Join(dir, "repacked.zip")
	_, err = Folder2Zip(folder, repacked)
	require.NoError(t, err)

	r2, err := archivefmt.Open(repacked)
	require.NoError(t, err)
	defer r2.Close()
	gotIDs := r2.Levels()[0].MustColumn(plantypes.ColumnID)
	require.Equal(t, wantRows, r2.Levels()[0].NumRows)
	for i := 0; i < wantRows; i++ {
		require.Equal(t, wantIDs.StringAt(i), gotIDs.StringAt(i))
	}
}

// TestRoundTripFolderZipFolder packages a folder, expands the archive, and
// checks the folder layout's row count and data files reappear.
func TestRoundTripFolderZipFolder(t *testing.T) {
	folder := buildFolderFixtureForBridge(t)

	archive := filepath.Join(filepath.Dir(folder), "rt.zip")
	_, err := Folder2Zip(folder, archive)
	require.NoError(t, err)

	restored := filepath.Join(filepath.Dir(folder), "restored")
	_, err = Zip2Folder(archive, restored, ExportOptions{})
	require.NoError(t, err)

	lvl, err := parquetio.ReadTable(filepath.Join(restored, plantypes.FolderMetadataDir, "level0.parquet"))
	require.NoError(t, err)
	require.Equal(t, 1, lvl.NumRows)

	got, err := os.ReadFile(filepath.Join(restored, plantypes.FolderDataDir, "leaf.tif"))
	require.NoError(t, err)
	require.Equal(t, "pixels", string(got))
}
