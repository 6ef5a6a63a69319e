package archivefmt

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tacofoundation/tacobridge/blob"
	"github.com/tacofoundation/tacobridge/parquetio"
	"github.com/tacofoundation/tacobridge/plantypes"
	"github.com/tacofoundation/tacobridge/table"
)

// Reader gives read access to an already-packaged archive: its level
// tables, its collection manifest, and its DATA member list. The archive
// may live on local disk (Open) or behind a byte-range-capable remote
// endpoint (OpenRemote); either way only the metadata entries are read up
// front, never the DATA members.
type Reader struct {
	path       string
	zr         *zip.Reader
	closer     io.Closer
	collection map[string]any
	levels     []*table.Table
}

// Open reads a local archive's metadata entries (COLLECTION.json and every
// METADATA/level<N>.parquet) without extracting the DATA members.
func Open(path string) (*Reader, error) {
	zrc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("archivefmt: open %s: %w", path, err)
	}
	return newReader(path, &zrc.Reader, zrc)
}

// OpenRemote reads a remote archive's metadata entries over HTTP Range
// requests: the zip central directory is parsed in place through a
// blob.RemoteReaderAt, so only the directory and the metadata members are
// fetched, not the payload bytes.
func OpenRemote(ctx context.Context, url string) (*Reader, error) {
	ra, err := blob.NewReaderAt(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("archivefmt: open %s: %w", url, err)
	}
	zr, err := zip.NewReader(ra, ra.Size())
	if err != nil {
		return nil, fmt.Errorf("archivefmt: open %s: %w", url, err)
	}
	return newReader(url, zr, nil)
}

func newReader(path string, zr *zip.Reader, closer io.Closer) (*Reader, error) {
	r := &Reader{path: path, zr: zr, closer: closer}
	fail := func(err error) (*Reader, error) {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}

	byName := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		byName[f.Name] = f
	}

	collEntry, ok := byName[plantypes.FolderCollectionFilename]
	if !ok {
		return fail(fmt.Errorf("archivefmt: %s missing %s", path, plantypes.FolderCollectionFilename))
	}
	collBytes, err := readZipFile(collEntry)
	if err != nil {
		return fail(err)
	}
	if err := json.Unmarshal(collBytes, &r.collection); err != nil {
		return fail(fmt.Errorf("archivefmt: decode %s: %w", plantypes.FolderCollectionFilename, err))
	}

	var levelNames []string
	for name := range byName {
		if strings.HasPrefix(name, plantypes.FolderMetadataDir+"/") && strings.HasSuffix(name, ".parquet") {
			levelNames = append(levelNames, name)
		}
	}
	sort.Strings(levelNames)
	for _, name := range levelNames {
		raw, err := readZipFile(byName[name])
		if err != nil {
			return fail(err)
		}
		tbl, err := parquetio.DecodeTable(raw)
		if err != nil {
			return fail(fmt.Errorf("archivefmt: decode %s: %w", name, err))
		}
		r.levels = append(r.levels, tbl)
	}
	if len(r.levels) == 0 {
		return fail(fmt.Errorf("archivefmt: %s has no level metadata", path))
	}
	return r, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("archivefmt: open entry %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("archivefmt: read entry %s: %w", f.Name, err)
	}
	return data, nil
}

// Close releases the underlying archive file; a no-op for remote readers,
// which hold no file handle between Range requests.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// MaxDepth returns the deepest level index present (levels are 0-indexed).
func (r *Reader) MaxDepth() int { return len(r.levels) - 1 }

// Levels returns the decoded level tables, index 0 first.
func (r *Reader) Levels() []*table.Table { return r.levels }

// Collection returns the decoded COLLECTION.json manifest.
func (r *Reader) Collection() map[string]any { return r.collection }

// DataMembers lists every DATA/* entry name that holds sample bytes (i.e.
// excludes per-folder __meta__ manifests).
func (r *Reader) DataMembers() []string {
	var names []string
	for _, f := range r.zr.File {
		if !strings.HasPrefix(f.Name, plantypes.FolderDataDir+"/") {
			continue
		}
		if strings.HasSuffix(f.Name, plantypes.FolderMetaFilename) {
			continue
		}
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}
