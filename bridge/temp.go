package bridge

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tacofoundation/tacobridge/plantypes"
)

// tempExportDir picks a sibling scratch directory for the intermediate
// FOLDER-form output that precedes zip packaging: write the real data once
// into a hidden temp folder next to the requested output, then fold it
// into the archive and discard the folder.
func tempExportDir(output string) string {
	dir := filepath.Dir(output)
	base := filepath.Base(stripTacozipSuffix(output))
	return filepath.Join(dir, fmt.Sprintf(plantypes.TempFolderTemplate, base))
}

// acquireTempDir rejects a stale or colliding scratch directory up front,
// before any task runs, so a crashed previous export never silently merges
// its leftovers into a new one.
func acquireTempDir(path string) error {
	if _, err := os.Stat(path); err == nil {
		return plantypes.NewPlanError("temp export directory already exists: " + path)
	}
	return nil
}

// releaseTempDir removes the scratch directory unconditionally; called via
// defer so it runs on every exit path, success or failure alike.
func releaseTempDir(path string) {
	_ = os.RemoveAll(path)
}
