package archivefmt

import (
	"archive/zip"
	"os"
	"path/filepath"
)

// ExtractDataTo extracts every DATA/* member except per-folder __meta__
// manifests into destDir, preserving the DATA/... prefix. Used by the
// local zip2folder fast path, which re-derives fresh metadata from the
// already-loaded level tables instead of copying the archive's own
// METADATA/COLLECTION.json entries verbatim.
func (r *Reader) ExtractDataTo(destDir string) error {
	for _, name := range r.DataMembers() {
		f := r.findFile(name)
		if f == nil {
			continue
		}
		dest := filepath.Join(destDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		raw, err := readZipFile(f)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dest, raw, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) findFile(name string) *zip.File {
	for _, f := range r.zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}
