// Package planner produces the three immutable plan variants (export,
// archive→folder, folder→archive) from a view or an on-disk source,
// failing with plantypes.PlanError before any byte is written.
package planner

import (
	"strconv"
	"strings"

	"github.com/tacofoundation/tacobridge/plantypes"
)

// VSIToTask parses a location string from internal:gdal_vsi into a
// transfer task writing to dest. Dispatch is gated on the prefix alone: a
// location starting with VSISubfilePrefix is parsed as
// "<archive-path>,<offset>,<size>" and becomes a partial-read task;
// anything else is returned unmodified as a whole-object source (a plain
// local path or URL), never inspected for trailing commas.
func VSIToTask(location, dest string) plantypes.Task {
	if !strings.HasPrefix(location, plantypes.VSISubfilePrefix) {
		return plantypes.Task{Src: location, Dest: dest}
	}

	rest := strings.TrimPrefix(location, plantypes.VSISubfilePrefix)
	archivePath, offset, size, ok := parseByteRange(rest)
	if !ok {
		return plantypes.Task{Src: location, Dest: dest}
	}
	return plantypes.Task{
		Src:    stripFileScheme(archivePath),
		Dest:   dest,
		Offset: plantypes.Int64Ptr(offset),
		Size:   plantypes.Int64Ptr(size),
	}
}

// parseByteRange recognizes "<path>,<offset>,<size>" (the remainder after
// VSISubfilePrefix has already been stripped) by splitting off the two
// rightmost comma-separated fields and requiring both to parse as
// non-negative integers; the path itself may legitimately contain commas.
func parseByteRange(loc string) (path string, offset, size int64, ok bool) {
	lastComma := strings.LastIndex(loc, ",")
	if lastComma < 0 {
		return "", 0, 0, false
	}
	sizeStr := loc[lastComma+1:]
	rest := loc[:lastComma]

	secondComma := strings.LastIndex(rest, ",")
	if secondComma < 0 {
		return "", 0, 0, false
	}
	offsetStr := rest[secondComma+1:]
	path = rest[:secondComma]
	if path == "" {
		return "", 0, 0, false
	}

	off, errO := strconv.ParseInt(offsetStr, 10, 64)
	sz, errS := strconv.ParseInt(sizeStr, 10, 64)
	if errO != nil || errS != nil || off < 0 || sz < 0 {
		return "", 0, 0, false
	}
	return path, off, sz, true
}

func stripFileScheme(s string) string {
	return strings.TrimPrefix(s, "file://")
}
