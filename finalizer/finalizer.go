// Package finalizer writes a plan's consolidated metadata, per-folder
// local metadata, and collection manifest (folder-output direction), or
// invokes the archive writer (folder-to-archive direction): two paths
// dispatched by plan shape, both wrapping any failure in
// plantypes.FinalizeError so the caller knows the output may be partial.
package finalizer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tacofoundation/tacobridge/archivefmt"
	"github.com/tacofoundation/tacobridge/parquetio"
	"github.com/tacofoundation/tacobridge/plantypes"
	"github.com/tacofoundation/tacobridge/table"
)

// FinalizeFolder writes the FOLDER-form output for an already-executed
// ExportPlan or Zip2FolderPlan: METADATA/level<N>.parquet (consolidated,
// content-defined-chunked), DATA/<folder>/__meta__ per local_metadata
// entry (plain), and COLLECTION.json (4-space indented UTF-8). Returns
// output.
func FinalizeFolder(output string, levels []*table.Table, localMetadata map[string]*table.Table, collection map[string]any) (string, error) {
	metadataDir := filepath.Join(output, plantypes.FolderMetadataDir)
	if err := os.MkdirAll(metadataDir, 0o755); err != nil {
		return "", plantypes.WrapFinalizeError("create metadata dir", err)
	}
	for i, lvl := range levels {
		path := filepath.Join(metadataDir, fmt.Sprintf(plantypes.LevelParquetTemplate, i))
		if err := parquetio.WriteTableCDC(lvl, path); err != nil {
			return "", plantypes.WrapFinalizeError(fmt.Sprintf("write level %d metadata", i), err)
		}
	}

	for folderPath, children := range localMetadata {
		metaPath := filepath.Join(output, filepath.FromSlash(folderPath), plantypes.FolderMetaFilename)
		if err := os.MkdirAll(filepath.Dir(metaPath), 0o755); err != nil {
			return "", plantypes.WrapFinalizeError("create local metadata dir", err)
		}
		if err := parquetio.WriteTable(children, metaPath); err != nil {
			return "", plantypes.WrapFinalizeError(fmt.Sprintf("write local metadata for %s", folderPath), err)
		}
	}

	collectionBytes, err := json.MarshalIndent(collection, "", "    ")
	if err != nil {
		return "", plantypes.WrapFinalizeError("marshal collection", err)
	}
	collectionPath := filepath.Join(output, plantypes.FolderCollectionFilename)
	if err := os.WriteFile(collectionPath, collectionBytes, 0o644); err != nil {
		return "", plantypes.WrapFinalizeError("write collection manifest", err)
	}

	return output, nil
}

// FinalizeArchive packages a Folder2ZipPlan's entries into output using
// the archive writer.
func FinalizeArchive(output string, entries []plantypes.ArchiveRef, levels []*table.Table, localMetadata map[string]*table.Table, collection map[string]any) (string, error) {
	srcFiles := make([]string, len(entries))
	arcFiles := make([]string, len(entries))
	for i, e := range entries {
		srcFiles[i] = e.Src
		arcFiles[i] = e.ArcPath
	}

	result, err := archivefmt.CreateCompleteZip(output, srcFiles, arcFiles, archivefmt.MetadataPackage{
		Levels:        levels,
		LocalMetadata: localMetadata,
		Collection:    collection,
	})
	if err != nil {
		return "", plantypes.WrapFinalizeError("package archive", err)
	}
	return result, nil
}
