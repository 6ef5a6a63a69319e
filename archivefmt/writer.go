// Package archivefmt implements the archive writer/reader: given a flat
// list of source file paths with their intended archive paths plus a
// metadata package, it produces the final archive. This system needs a
// concrete, self-consistent single-file container to round-trip against,
// so archivefmt builds one on top of the standard library's archive/zip:
// DATA/* members are stored uncompressed (zip.Store) so their exact byte
// offsets inside the container can be recovered and embedded back into the
// metadata as internal:gdal_vsi byte-range references — which is precisely
// what lets the container permit byte-range reads of contained members.
package archivefmt

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"

	"archive/zip"

	"github.com/tacofoundation/tacobridge/parquetio"
	"github.com/tacofoundation/tacobridge/plantypes"
	"github.com/tacofoundation/tacobridge/table"
)

// MetadataPackage bundles everything the writer needs besides the raw file
// list: the reindexed levels, the per-folder local metadata, and the
// collection manifest.
type MetadataPackage struct {
	Levels        []*table.Table
	LocalMetadata map[string]*table.Table
	Collection    map[string]any
}

// countingWriter tracks the number of bytes written so far. archive/zip
// writes sequentially and never seeks backward mid-entry, so once the
// zip.Writer's internal buffer has been flushed this count equals the
// current absolute offset into the underlying file.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

type span struct {
	offset, size int64
}

// CreateCompleteZip packages srcFiles (existing local files) into a single
// archive at outputPath, named inside the archive by the corresponding
// arcFiles entries, and embeds meta's metadata. It returns outputPath.
func CreateCompleteZip(outputPath string, srcFiles, arcFiles []string, meta MetadataPackage) (string, error) {
	if len(srcFiles) != len(arcFiles) {
		return "", fmt.Errorf("archivefmt: %d src files but %d arc paths", len(srcFiles), len(arcFiles))
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("archivefmt: create %s: %w", outputPath, err)
	}
	defer f.Close()

	cw := &countingWriter{w: f}
	zw := zip.NewWriter(cw)

	spans := make(map[string]span, len(arcFiles))
	for i, src := range srcFiles {
		info, err := os.Stat(src)
		if err != nil {
			return "", fmt.Errorf("archivefmt: stat %s: %w", src, err)
		}
		hdr := &zip.FileHeader{
			Name:               arcFiles[i],
			Method:             zip.Store,
			UncompressedSize64: uint64(info.Size()),
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return "", fmt.Errorf("archivefmt: create entry %s: %w", arcFiles[i], err)
		}
		if err := zw.Flush(); err != nil {
			return "", fmt.Errorf("archivefmt: flush entry header %s: %w", arcFiles[i], err)
		}
		offset := cw.n
		in, err := os.Open(src)
		if err != nil {
			return "", fmt.Errorf("archivefmt: open %s: %w", src, err)
		}
		_, err = io.Copy(w, in)
		in.Close()
		if err != nil {
			return "", fmt.Errorf("archivefmt: write entry %s: %w", arcFiles[i], err)
		}
		spans[arcFiles[i]] = span{offset: offset, size: info.Size()}
	}

	levels, err := rewriteVSI(meta.Levels, spans, outputPath)
	if err != nil {
		return "", fmt.Errorf("archivefmt: %w", err)
	}
	localMeta, err := rewriteVSIMap(meta.LocalMetadata, spans, outputPath)
	if err != nil {
		return "", fmt.Errorf("archivefmt: %w", err)
	}

	for i, lvl := range levels {
		raw, err := parquetio.EncodeTableCDCBytes(lvl)
		if err != nil {
			return "", fmt.Errorf("archivefmt: encode level %d: %w", i, err)
		}
		if err := writeEntry(zw, fmt.Sprintf("%s/%s", plantypes.FolderMetadataDir, fmt.Sprintf(plantypes.LevelParquetTemplate, i)), raw); err != nil {
			return "", err
		}
	}

	for folderPath, children := range localMeta {
		raw, err := parquetio.EncodeTable(children)
		if err != nil {
			return "", fmt.Errorf("archivefmt: encode local metadata %s: %w", folderPath, err)
		}
		if err := writeEntry(zw, path.Join(folderPath, plantypes.FolderMetaFilename), raw); err != nil {
			return "", err
		}
	}

	collectionJSON, err := json.MarshalIndent(meta.Collection, "", "    ")
	if err != nil {
		return "", fmt.Errorf("archivefmt: marshal collection: %w", err)
	}
	if err := writeEntry(zw, plantypes.FolderCollectionFilename, collectionJSON); err != nil {
		return "", err
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("archivefmt: close: %w", err)
	}
	return outputPath, nil
}

func writeEntry(zw *zip.Writer, name string, body []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("archivefmt: create entry %s: %w", name, err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("archivefmt: write entry %s: %w", name, err)
	}
	return nil
}

// rewriteVSI returns copies of levels with internal:gdal_vsi replaced by a
// byte-range reference into the archive at archivePath for every FILE row,
// and the archive-only internal:offset / internal:size columns filled in,
// using spans (keyed by "DATA/<relative path>") computed while writing the
// DATA entries.
func rewriteVSI(levels []*table.Table, spans map[string]span, archivePath string) ([]*table.Table, error) {
	out := make([]*table.Table, len(levels))
	for i, lvl := range levels {
		rewritten, err := rewriteVSITable(lvl, spans, archivePath, "")
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", i, err)
		}
		out[i] = rewritten
	}
	return out, nil
}

// rewriteVSIMap is rewriteVSI over per-folder local metadata. The map key
// ("DATA/<folder path>/") is passed through as the archive-path prefix
// because child tables have had internal:relative_path dropped: a child row
// is locatable only as <folder path>/<id>.
func rewriteVSIMap(m map[string]*table.Table, spans map[string]span, archivePath string) (map[string]*table.Table, error) {
	out := make(map[string]*table.Table, len(m))
	for k, v := range m {
		rewritten, err := rewriteVSITable(v, spans, archivePath, k)
		if err != nil {
			return nil, fmt.Errorf("local metadata %s: %w", k, err)
		}
		out[k] = rewritten
	}
	return out, nil
}

func rewriteVSITable(t *table.Table, spans map[string]span, archivePath, prefix string) (*table.Table, error) {
	if !t.HasColumn(plantypes.ColGDALVSI) {
		return t, nil
	}
	typeCol, hasType := t.Column(plantypes.ColumnType)
	idCol := t.MustColumn(plantypes.ColumnID)
	relCol, hasRel := t.Column(plantypes.ColRelativePath)
	vsis := make([]string, t.NumRows)
	offsets := make([]int64, t.NumRows)
	sizes := make([]int64, t.NumRows)
	for i := 0; i < t.NumRows; i++ {
		if hasType && typeCol.StringAt(i) != plantypes.SampleTypeFile {
			continue
		}
		rel := idCol.StringAt(i)
		if hasRel {
			if r := relCol.StringAt(i); r != "" {
				rel = r
			}
		}
		arcPath := path.Join(plantypes.FolderDataDir, rel)
		if prefix != "" {
			arcPath = path.Join(prefix, rel)
		}
		sp, ok := spans[arcPath]
		if !ok {
			return nil, fmt.Errorf("no archive span for %s", arcPath)
		}
		vsis[i] = fmt.Sprintf("%s%s,%d,%d", plantypes.VSISubfilePrefix, archivePath, sp.offset, sp.size)
		offsets[i] = sp.offset
		sizes[i] = sp.size
	}
	out, err := t.SetColumn(table.NewStringColumn(plantypes.ColGDALVSI, vsis))
	if err != nil {
		return nil, err
	}
	if out, err = withInt64Column(out, plantypes.ColOffset, offsets); err != nil {
		return nil, err
	}
	return withInt64Column(out, plantypes.ColSize, sizes)
}

// withInt64Column replaces the named column if present, or appends it.
func withInt64Column(t *table.Table, name string, vs []int64) (*table.Table, error) {
	col := table.NewInt64Column(name, vs)
	if t.HasColumn(name) {
		return t.SetColumn(col)
	}
	return table.New(t.NumRows, append(t.Cols(), col)...)
}
