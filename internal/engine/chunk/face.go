package chunk

import "voxelgrid/internal/engine/mathx"

// Canonical face numbering. Opposite faces differ in the low bit.
const (
	FaceNegY = 0
	FacePosY = 1
	FaceNegZ = 2
	FacePosZ = 3
	FaceNegX = 4
	FacePosX = 5
)

// FaceDir is the outward normal of each face.
var FaceDir = [6]mathx.Vec3i{
	{X: 0, Y: -1, Z: 0},
	{X: 0, Y: 1, Z: 0},
	{X: 0, Y: 0, Z: -1},
	{X: 0, Y: 0, Z: 1},
	{X: -1, Y: 0, Z: 0},
	{X: 1, Y: 0, Z: 0},
}

func OppositeFace(f int) int { return f ^ 1 }

// facePair indexes unordered face pairs lexicographically; -1 on the
// diagonal.
var facePair = [6][6]int8{
	{-1, 0, 1, 2, 3, 4},
	{0, -1, 5, 6, 7, 8},
	{1, 5, -1, 9, 10, 11},
	{2, 6, 9, -1, 12, 13},
	{3, 7, 10, 12, -1, 14},
	{4, 8, 11, 13, 14, -1},
}

// PairIndex returns the face-pair bit position for two distinct faces,
// -1 when a == b.
func PairIndex(a, b int) int { return int(facePair[a][b]) }

// FacesConnected reports whether the pair (a, b) is linked in mask. A stale
// mask reports everything connected, matching its all-bits encoding.
func FacesConnected(mask uint16, a, b int) bool {
	i := PairIndex(a, b)
	if i < 0 {
		return false
	}
	return mask&(1<<uint(i)) != 0
}

// PairMaskForFace returns the mask of every pair containing face f.
func PairMaskForFace(f int) uint16 {
	var m uint16
	for o := 0; o < 6; o++ {
		if o != f {
			m |= 1 << uint(facePair[f][o])
		}
	}
	return m
}

// pairMaskBySet expands a 6-bit face set into the mask of every pair inside
// the set.
var pairMaskBySet = buildPairMasks()

func buildPairMasks() [64]uint16 {
	var out [64]uint16
	for set := 0; set < 64; set++ {
		var m uint16
		for a := 0; a < 6; a++ {
			if set&(1<<uint(a)) == 0 {
				continue
			}
			for b := a + 1; b < 6; b++ {
				if set&(1<<uint(b)) != 0 {
					m |= 1 << uint(facePair[a][b])
				}
			}
		}
		out[set] = m
	}
	return out
}

// PairMaskForSet returns the pair mask of a 6-bit face set.
func PairMaskForSet(set uint8) uint16 { return pairMaskBySet[set&0x3F] }
