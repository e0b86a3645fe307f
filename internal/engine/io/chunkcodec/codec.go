package chunkcodec

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"voxelgrid/internal/engine/block"
	"voxelgrid/internal/engine/chunk"
	"voxelgrid/internal/engine/mathx"
)

// Header leads the stream as one JSON line before the binary body.
type Header struct {
	Version int `json:"version"`
	Chunks  int `json:"chunks"`
}

const version = 1

// EncodeStore writes every loaded chunk in key order. Layout per chunk:
// zigzag-varint position, palette length and entries, then either nothing
// (single palette) or the RLE-coded dense array.
func EncodeStore(w io.Writer, s *chunk.Store) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	keys := s.Keys()
	loaded := make([]*chunk.Chunk, 0, len(keys))
	for _, k := range keys {
		if c, ok := s.Get(k); ok && c.Loaded() {
			loaded = append(loaded, c)
		}
	}

	hb, _ := json.Marshal(Header{Version: version, Chunks: len(loaded)})
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	var tmp [binary.MaxVarintLen64]byte
	putVar := func(v int64) error {
		n := binary.PutVarint(tmp[:], v)
		_, err := bw.Write(tmp[:n])
		return err
	}
	putUvar := func(v uint64) error {
		n := binary.PutUvarint(tmp[:], v)
		_, err := bw.Write(tmp[:n])
		return err
	}

	var rle []byte
	for _, c := range loaded {
		for _, v := range [3]int{c.Pos.X, c.Pos.Y, c.Pos.Z} {
			if err := putVar(int64(v)); err != nil {
				return err
			}
		}
		if err := putUvar(uint64(len(c.Palette))); err != nil {
			return err
		}
		for _, p := range c.Palette {
			if err := putUvar(uint64(p)); err != nil {
				return err
			}
		}
		if len(c.Palette) > 1 {
			rle = AppendRLE(rle[:0], c.Blocks)
			if err := putUvar(uint64(len(rle))); err != nil {
				return err
			}
			if _, err := bw.Write(rle); err != nil {
				return err
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return err
	}
	return enc.Close()
}

// DecodeStore reads a stream produced by EncodeStore into a fresh store.
func DecodeStore(r io.Reader) (*chunk.Store, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	br := bufio.NewReaderSize(dec, 256*1024)

	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	var hdr Header
	if err := json.Unmarshal(line, &hdr); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("unsupported version %d", hdr.Version)
	}

	s := chunk.NewStore()
	for n := 0; n < hdr.Chunks; n++ {
		var pos mathx.Vec3i
		for i, dst := range []*int{&pos.X, &pos.Y, &pos.Z} {
			v, err := binary.ReadVarint(br)
			if err != nil {
				return nil, fmt.Errorf("chunk %d pos[%d]: %w", n, i, err)
			}
			*dst = int(v)
		}
		plen, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, fmt.Errorf("chunk %d palette len: %w", n, err)
		}
		if plen == 0 || plen > 256 {
			return nil, fmt.Errorf("chunk %d palette len %d", n, plen)
		}
		c := s.GetOrCreate(pos)
		c.Palette = make([]block.Type, plen)
		for i := range c.Palette {
			v, err := binary.ReadUvarint(br)
			if err != nil {
				return nil, fmt.Errorf("chunk %d palette[%d]: %w", n, i, err)
			}
			c.Palette[i] = block.Type(v)
		}
		if plen > 1 {
			rlen, err := binary.ReadUvarint(br)
			if err != nil {
				return nil, fmt.Errorf("chunk %d rle len: %w", n, err)
			}
			raw := make([]byte, rlen)
			if _, err := io.ReadFull(br, raw); err != nil {
				return nil, fmt.Errorf("chunk %d rle: %w", n, err)
			}
			c.Blocks, err = DecodeRLE(raw, chunk.Volume)
			if err != nil {
				return nil, fmt.Errorf("chunk %d: %w", n, err)
			}
		}
		c.ConnectedFaces = chunk.ConnStale
	}
	return s, nil
}
