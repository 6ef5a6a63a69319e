package parquetio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/dchest/siphash"
	"github.com/klauspost/compress/zstd"
	"github.com/tacofoundation/tacobridge/table"
	"golang.org/x/crypto/blake2b"
)

// Chunking parameters for the content-defined-chunking writer. minChunk and
// maxChunk bound the chunk size; boundaryMask controls the expected average
// chunk size (a cut point is declared wherever the rolling hash's low bits
// are all zero, so a mask with k bits set targets an average chunk size of
// 2^k bytes).
const (
	minChunk     = 256
	maxChunk     = 1 << 16
	boundaryBits = 12 // average chunk size 4KiB
)

var boundaryMask = uint64(1)<<boundaryBits - 1

// siphash keys used purely to derive chunk boundaries; they do not need to
// be secret, only stable across writes (so identical byte runs always cut
// at the same points and therefore dedup).
const sipK0, sipK1 = 0x5ca1ab1ecafe, 0xf00dfacecafe

// cutPoints returns the content-defined chunk boundaries for buf: a
// monotonically increasing list of offsets ending in len(buf). Boundaries
// are chosen by sliding a siphash window and cutting whenever the hash of
// the trailing 8 bytes satisfies the boundary mask, a rolling-hash
// approach to sharding bytes rather than whole objects.
func cutPoints(buf []byte) []int {
	if len(buf) <= minChunk {
		return []int{len(buf)}
	}
	var cuts []int
	start := 0
	for i := minChunk; i < len(buf); i++ {
		if i-start >= maxChunk {
			cuts = append(cuts, i)
			start = i
			continue
		}
		if i-start < minChunk {
			continue
		}
		window := i - 8
		if window < start {
			continue
		}
		h := siphash.Hash(sipK0, sipK1, buf[window:i])
		if h&boundaryMask == 0 {
			cuts = append(cuts, i)
			start = i
		}
	}
	cuts = append(cuts, len(buf))
	return cuts
}

var zstdEncoder *zstd.Encoder

func init() {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		panic(err)
	}
	zstdEncoder = enc
}

// WriteTableCDC writes tbl to path using content-defined chunking: the
// gob-encoded table body is split into variable-length chunks at
// content-determined boundaries, each chunk is hashed with blake2b-256 and
// zstd-compressed, and chunks whose hash repeats within this write are
// stored only once. This is what makes two archives derived from the same
// source (e.g. an export and its parent) share storage for their unchanged
// METADATA/level<N> bytes when kept in a content-addressed store; within a
// single file it also collapses any repeated runs (e.g. many structurally
// identical empty-folder rows).
func WriteTableCDC(tbl *table.Table, path string) error {
	raw, err := EncodeTableCDCBytes(tbl)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// EncodeTableCDCBytes is WriteTableCDC without the file I/O.
func EncodeTableCDCBytes(tbl *table.Table) ([]byte, error) {
	body, err := encodeWire(tbl)
	if err != nil {
		return nil, err
	}
	cuts := cutPoints(body)

	type chunkMeta struct {
		hash    [32]byte
		rawLen  uint32
		compLen uint32
		first   bool
	}
	seen := make(map[[32]byte]bool, len(cuts))
	metas := make([]chunkMeta, 0, len(cuts))
	var bodies bytes.Buffer

	start := 0
	for _, end := range cuts {
		chunk := body[start:end]
		start = end
		sum := blake2b.Sum256(chunk)
		m := chunkMeta{hash: sum, rawLen: uint32(len(chunk))}
		if !seen[sum] {
			seen[sum] = true
			m.first = true
			compressed := zstdEncoder.EncodeAll(chunk, nil)
			m.compLen = uint32(len(compressed))
			bodies.Write(compressed)
		}
		metas = append(metas, m)
	}

	var out bytes.Buffer
	out.WriteString(magicCDC)
	writeUint32(&out, uint32(len(metas)))
	for _, m := range metas {
		out.Write(m.hash[:])
		writeUint32(&out, m.rawLen)
		writeUint32(&out, m.compLen)
		if m.first {
			out.WriteByte(1)
		} else {
			out.WriteByte(0)
		}
	}
	out.Write(bodies.Bytes())
	return out.Bytes(), nil
}

func decodeCDC(raw []byte) (*table.Table, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("parquetio: truncated cdc header")
	}
	n := binary.BigEndian.Uint32(raw[:4])
	raw = raw[4:]

	type chunkMeta struct {
		hash    [32]byte
		rawLen  uint32
		compLen uint32
		first   bool
	}
	metas := make([]chunkMeta, n)
	for i := range metas {
		if len(raw) < 32+4+4+1 {
			return nil, fmt.Errorf("parquetio: truncated cdc entry %d", i)
		}
		var m chunkMeta
		copy(m.hash[:], raw[:32])
		raw = raw[32:]
		m.rawLen = binary.BigEndian.Uint32(raw[:4])
		raw = raw[4:]
		m.compLen = binary.BigEndian.Uint32(raw[:4])
		raw = raw[4:]
		m.first = raw[0] == 1
		raw = raw[1:]
		metas[i] = m
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("parquetio: zstd reader: %w", err)
	}
	defer decoder.Close()

	bodies := make(map[[32]byte][]byte, n)
	var out bytes.Buffer
	for _, m := range metas {
		if m.first {
			if len(raw) < int(m.compLen) {
				return nil, fmt.Errorf("parquetio: truncated cdc body")
			}
			compressed := raw[:m.compLen]
			raw = raw[m.compLen:]
			decoded, err := decoder.DecodeAll(compressed, make([]byte, 0, m.rawLen))
			if err != nil {
				return nil, fmt.Errorf("parquetio: zstd decode: %w", err)
			}
			bodies[m.hash] = decoded
			out.Write(decoded)
		} else {
			decoded, ok := bodies[m.hash]
			if !ok {
				return nil, fmt.Errorf("parquetio: dangling chunk reference")
			}
			out.Write(decoded)
		}
	}
	return decodeWire(out.Bytes())
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
