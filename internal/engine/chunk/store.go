package chunk

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"

	"voxelgrid/internal/engine/block"
	"voxelgrid/internal/engine/mathx"
)

// PosOf returns the chunk coordinate containing block coordinate b.
func PosOf(b mathx.Vec3i) mathx.Vec3i { return b.FloorDiv(Size) }

// CeilPosOf returns the chunk coordinate just past block coordinate b,
// used as an exclusive upper bound when spanning a box.
func CeilPosOf(b mathx.Vec3i) mathx.Vec3i { return b.CeilDiv(Size) }

// LocalOf converts a block coordinate into chunk-local coordinates.
func LocalOf(b, cp mathx.Vec3i) mathx.Vec3i { return b.Sub(cp.Scale(Size)) }

// Origin returns the block-space origin of a chunk coordinate.
func Origin(cp mathx.Vec3i) mathx.Vec3i { return cp.Scale(Size) }

// Store is the associative chunk store. It is mutated only on the
// orchestrator's main context; workers read it under snapshot between
// mutation windows.
type Store struct {
	chunks map[mathx.Vec3i]*Chunk
}

func NewStore() *Store {
	return &Store{chunks: map[mathx.Vec3i]*Chunk{}}
}

func (s *Store) Len() int { return len(s.chunks) }

func (s *Store) Get(p mathx.Vec3i) (*Chunk, bool) {
	c, ok := s.chunks[p]
	return c, ok
}

// GetOrCreate inserts an unloaded chunk record on first reference.
func (s *Store) GetOrCreate(p mathx.Vec3i) *Chunk {
	if c, ok := s.chunks[p]; ok {
		return c
	}
	c := &Chunk{Pos: p}
	s.chunks[p] = c
	return c
}

func (s *Store) Remove(p mathx.Vec3i) {
	delete(s.chunks, p)
}

func (s *Store) Range(fn func(p mathx.Vec3i, c *Chunk) bool) {
	for p, c := range s.chunks {
		if !fn(p, c) {
			return
		}
	}
}

// Keys returns every chunk coordinate in deterministic order.
func (s *Store) Keys() []mathx.Vec3i {
	keys := make([]mathx.Vec3i, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return keys
}

// BlockAt resolves a world block coordinate through the store. Absent or
// unloaded chunks read as air.
func (s *Store) BlockAt(b mathx.Vec3i) block.Type {
	cp := PosOf(b)
	c, ok := s.chunks[cp]
	if !ok || !c.Loaded() {
		return block.Air
	}
	l := LocalOf(b, cp)
	return c.Get(l.X, l.Y, l.Z)
}

// Digest hashes every chunk record's coordinate, palette and dense contents
// in key order; unloaded records contribute their coordinate and an empty
// palette. Two stores with the same records, block contents and compression
// state produce identical digests.
func (s *Store) Digest() [32]byte {
	h := sha256.New()
	var tmp [8]byte
	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(tmp[:], uint64(int64(v)))
		h.Write(tmp[:])
	}
	for _, k := range s.Keys() {
		c := s.chunks[k]
		writeInt(k.X)
		writeInt(k.Y)
		writeInt(k.Z)
		writeInt(len(c.Palette))
		for _, p := range c.Palette {
			writeInt(int(p))
		}
		h.Write(c.Blocks)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
