// Package chunkcodec serializes a chunk store as a zstd-framed stream of
// run-length-coded chunks, for debug dumps and byte-level comparisons.
package chunkcodec

import (
	"encoding/binary"
	"fmt"
)

// AppendRLE appends (value, run) varint pairs for a dense index array.
func AppendRLE(dst []byte, ids []uint8) []byte {
	var tmp [binary.MaxVarintLen64]byte
	i := 0
	for i < len(ids) {
		b := ids[i]
		run := 1
		for j := i + 1; j < len(ids) && ids[j] == b; j++ {
			run++
		}
		n := binary.PutUvarint(tmp[:], uint64(b))
		dst = append(dst, tmp[:n]...)
		n = binary.PutUvarint(tmp[:], uint64(run))
		dst = append(dst, tmp[:n]...)
		i += run
	}
	return dst
}

// DecodeRLE expands varint pairs into exactly want bytes.
func DecodeRLE(raw []byte, want int) ([]uint8, error) {
	out := make([]uint8, 0, want)
	for i := 0; i < len(raw); {
		b, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if b > 0xFF {
			return nil, fmt.Errorf("palette index too large: %d", b)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint8(b))
		}
	}
	if len(out) != want {
		return nil, fmt.Errorf("rle length %d, want %d", len(out), want)
	}
	return out, nil
}
