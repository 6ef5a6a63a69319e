// Package bridge is the high-level convenience API: three entry points
// (Export, Zip2Folder, Folder2Zip) that wire together planner, the
// dispatch layer, and finalizer so callers don't have to drive the
// plan/execute/finalize pipeline by hand. The three entry points return
// (string, error); there are no exceptions and no hidden global executor
// pool.
package bridge

import (
	"path/filepath"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/tacofoundation/tacobridge/plantypes"
)

// Format selects the physical layout Export produces.
type Format int

const (
	// FormatAuto detects zip vs folder from the output path's extension.
	FormatAuto Format = iota
	FormatZip
	FormatFolder
)

// DetectFormat inspects output's extension to choose zip or folder form,
// the same rule tacotoolbox.create uses: .zip/.tacozip select zip,
// anything else selects folder.
func DetectFormat(output string) Format {
	ext := strings.ToLower(filepath.Ext(output))
	if slices.Contains(plantypes.TacozipExtensions, ext) {
		return FormatZip
	}
	return FormatFolder
}

func resolveFormat(output string, requested Format) Format {
	if requested == FormatAuto {
		return DetectFormat(output)
	}
	return requested
}

// stripTacozipSuffix removes a .zip/.tacozip extension from output, used
// when the caller asked for folder form but gave a zip-shaped path.
func stripTacozipSuffix(output string) string {
	ext := strings.ToLower(filepath.Ext(output))
	if slices.Contains(plantypes.TacozipExtensions, ext) {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	return output
}
