package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tacofoundation/tacobridge/archivefmt"
	"github.com/tacofoundation/tacobridge/bridge"
	"github.com/tacofoundation/tacobridge/parquetio"
	"github.com/tacofoundation/tacobridge/plantypes"
	"github.com/tacofoundation/tacobridge/table"
	"github.com/tacofoundation/tacobridge/view"
)

var (
	dashv        bool
	dashparallel bool
	dashworkers  int
)

func init() {
	flag.BoolVar(&dashv, "v", false, "verbose diagnostic logging")
	flag.BoolVar(&dashparallel, "parallel", false, "dispatch transfer tasks across a worker pool")
	flag.IntVar(&dashworkers, "workers", 0, "worker pool size when -parallel is set (0: default)")
}

func exitf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

func exportOptions() bridge.ExportOptions {
	return bridge.ExportOptions{Parallel: dashparallel, Workers: dashworkers}
}

func main() {
	flag.Parse()
	args := flag.Args()
	if dashv {
		bridge.SetupLogging()
	}

	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "usage:\n")
		fmt.Fprintf(os.Stderr, "    %s [-v] [-parallel] [-workers n] export <source> <output>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        export a FOLDER or ZIP form dataset into <output> (format auto-detected)\n")
		fmt.Fprintf(os.Stderr, "    %s [-v] [-parallel] [-workers n] zip2folder <archive> <output>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        expand a ZIP-form archive into FOLDER form\n")
		fmt.Fprintf(os.Stderr, "    %s [-v] folder2zip <folder> <output>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        package a FOLDER-form dataset into a ZIP-form archive\n")
		fmt.Fprintf(os.Stderr, "flag usage:\n")
		flag.Usage()
		os.Exit(1)
	}

	switch args[0] {
	case "export":
		if len(args) != 3 {
			exitf("usage: export <source> <output>")
		}
		runExport(args[1], args[2])
	case "zip2folder":
		if len(args) != 3 {
			exitf("usage: zip2folder <archive> <output>")
		}
		result, err := bridge.Zip2Folder(args[1], args[2], exportOptions())
		if err != nil {
			exitf("zip2folder: %s", err)
		}
		fmt.Println(result)
	case "folder2zip":
		if len(args) != 3 {
			exitf("usage: folder2zip <folder> <output>")
		}
		result, err := bridge.Folder2Zip(args[1], args[2])
		if err != nil {
			exitf("folder2zip: %s", err)
		}
		fmt.Println(result)
	default:
		exitf("commands: export, zip2folder, folder2zip")
	}
}

// runExport loads source the same way zip2folder's local fast path does
// (archive or folder, whichever source points at), then re-exports it
// unfiltered. SQL-filtered or concatenated exports are built by
// constructing a view.FilteredView/view.ConcatView in code and calling
// bridge.Export directly; the CLI only exposes the identity case.
func runExport(source, output string) {
	v, err := loadView(source)
	if err != nil {
		exitf("export: %s", err)
	}
	result, err := bridge.Export(v, output, bridge.FormatAuto, exportOptions())
	if err != nil {
		exitf("export: %s", err)
	}
	fmt.Println(result)
}

func loadView(source string) (view.View, error) {
	switch bridge.DetectFormat(source) {
	case bridge.FormatZip:
		return loadZipView(source)
	default:
		return loadFolderView(source)
	}
}

func loadZipView(source string) (view.View, error) {
	r, err := archivefmt.Open(source)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return view.NewDataset(source, r.Collection(), r.Levels())
}

// loadFolderView reads an on-disk FOLDER-form dataset's level metadata and
// collection manifest back into a view.View, the same files
// bridge.Folder2Zip reads via planner.PlanFolder2Zip, but without building
// the archive entry list export doesn't need.
func loadFolderView(source string) (view.View, error) {
	raw, err := os.ReadFile(filepath.Join(source, plantypes.FolderCollectionFilename))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", plantypes.FolderCollectionFilename, err)
	}
	var collection map[string]any
	if err := json.Unmarshal(raw, &collection); err != nil {
		return nil, fmt.Errorf("parse %s: %w", plantypes.FolderCollectionFilename, err)
	}

	levelPaths, err := filepath.Glob(filepath.Join(source, plantypes.FolderMetadataDir, "level*.parquet"))
	if err != nil {
		return nil, fmt.Errorf("glob level metadata: %w", err)
	}
	sort.Strings(levelPaths)

	levels := make([]*table.Table, 0, len(levelPaths))
	for _, lp := range levelPaths {
		tbl, err := parquetio.ReadTable(lp)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", lp, err)
		}
		levels = append(levels, tbl)
	}

	return view.NewDataset(source, collection, levels)
}
