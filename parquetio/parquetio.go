// Package parquetio persists table.Table values to and from disk.
//
// The underlying columnar table format and its parquet-file persistence
// are treated as an external collaborator out of scope for this system's
// core logic, and no parquet or Arrow library appears anywhere in the
// retrieved corpus (see DESIGN.md), so this package stands in for that
// collaborator with a small self-describing binary container: a schema
// header followed by column bodies. It is deliberately not a real parquet
// reader/writer; it only needs to round-trip table.Table faithfully and
// supports two write variants:
//
//   - WriteTable: the plain writer, used for __meta__ files.
//   - WriteTableCDC: the content-defined-chunking variant, used for
//     consolidated METADATA/level<N> files so that repeated byte runs
//     (common across sibling archives produced from the same source)
//     are stored once and referenced by content hash.
package parquetio

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/tacofoundation/tacobridge/table"
)

const (
	magicPlain = "TPLN1"
	magicCDC   = "TCDC1"
)

// wireColumn is the gob-friendly projection of a table.Column.
type wireColumn struct {
	Name     string
	Kind     table.Kind
	Int64s   []int64
	Strings  []string
	Bools    []bool
	Float64s []float64
}

type wireTable struct {
	NumRows int
	Columns []wireColumn
}

func toWire(t *table.Table) wireTable {
	cols := t.Cols()
	wcols := make([]wireColumn, len(cols))
	for i, c := range cols {
		wcols[i] = wireColumn{
			Name:     c.Name,
			Kind:     c.Kind,
			Int64s:   c.Int64Slice(),
			Strings:  c.StringSlice(),
			Bools:    c.BoolSlice(),
			Float64s: c.Float64Slice(),
		}
	}
	return wireTable{NumRows: t.NumRows, Columns: wcols}
}

func fromWire(w wireTable) (*table.Table, error) {
	cols := make([]table.Column, len(w.Columns))
	for i, wc := range w.Columns {
		switch wc.Kind {
		case table.Int64:
			cols[i] = table.NewInt64Column(wc.Name, wc.Int64s)
		case table.String:
			cols[i] = table.NewStringColumn(wc.Name, wc.Strings)
		case table.Bool:
			cols[i] = table.NewBoolColumn(wc.Name, wc.Bools)
		case table.Float64:
			cols[i] = table.NewFloat64Column(wc.Name, wc.Float64s)
		default:
			return nil, fmt.Errorf("parquetio: unknown column kind %d for %q", wc.Kind, wc.Name)
		}
	}
	return table.New(w.NumRows, cols...)
}

func encodeWire(t *table.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(toWire(t)); err != nil {
		return nil, fmt.Errorf("parquetio: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeWire(b []byte) (*table.Table, error) {
	var w wireTable
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&w); err != nil {
		return nil, fmt.Errorf("parquetio: decode: %w", err)
	}
	return fromWire(w)
}

// WriteTable writes tbl to path using the plain writer: no chunking, no
// compression. Used for per-folder __meta__ files, which are small and
// read individually.
func WriteTable(tbl *table.Table, path string) error {
	body, err := encodeWire(tbl)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(magicPlain), body...), 0o644)
}

// EncodeTable is WriteTable without the file I/O, used by the archive
// writer to embed a table's plain-writer bytes directly into a zip entry.
func EncodeTable(tbl *table.Table) ([]byte, error) {
	body, err := encodeWire(tbl)
	if err != nil {
		return nil, err
	}
	return append([]byte(magicPlain), body...), nil
}

// ReadTable reads a table previously written by WriteTable or
// WriteTableCDC; it dispatches on the file's magic prefix.
func ReadTable(path string) (*table.Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("parquetio: read %s: %w", path, err)
	}
	return DecodeTable(raw)
}

// DecodeTable is ReadTable without the file I/O, used by the archive
// reader to decode a table directly from zip entry bytes.
func DecodeTable(raw []byte) (*table.Table, error) {
	switch {
	case len(raw) >= len(magicPlain) && string(raw[:len(magicPlain)]) == magicPlain:
		return decodeWire(raw[len(magicPlain):])
	case len(raw) >= len(magicCDC) && string(raw[:len(magicCDC)]) == magicCDC:
		return decodeCDC(raw[len(magicCDC):])
	default:
		return nil, fmt.Errorf("parquetio: unrecognized file format")
	}
}
