package chunk

import (
	"testing"

	"voxelgrid/internal/engine/block"
)

func TestPaletteInvariants(t *testing.T) {
	var c Chunk
	if c.Loaded() {
		t.Fatal("fresh chunk must be unloaded")
	}

	c.SetSinglePalette(block.Air)
	if !c.Loaded() || c.Blocks != nil {
		t.Fatalf("single palette: loaded=%v blocks=%v", c.Loaded(), c.Blocks)
	}
	if got := c.Get(3, 4, 5); got != block.Air {
		t.Fatalf("Get on uniform chunk = %d", got)
	}

	c.EnsureDense()
	if len(c.Blocks) != Volume {
		t.Fatalf("dense len = %d, want %d", len(c.Blocks), Volume)
	}
	idx := c.AddToPalette(block.Stone)
	if idx != 1 {
		t.Fatalf("stone index = %d, want 1", idx)
	}
	if again := c.AddToPalette(block.Stone); again != 1 {
		t.Fatalf("AddToPalette not idempotent: %d", again)
	}

	c.Blocks[Linear(1, 2, 3)] = idx
	if got := c.Get(1, 2, 3); got != block.Stone {
		t.Fatalf("Get = %d, want stone", got)
	}
	if got := c.Get(0, 0, 0); got != block.Air {
		t.Fatalf("Get = %d, want air", got)
	}
	for _, b := range c.Blocks {
		if int(b) >= len(c.Palette) {
			t.Fatalf("dense index %d out of palette range %d", b, len(c.Palette))
		}
	}
}

func TestCompactCollapsesUniform(t *testing.T) {
	var c Chunk
	c.SetSinglePalette(block.Air)
	c.EnsureDense()
	idx := c.AddToPalette(block.Stone)
	for i := range c.Blocks {
		c.Blocks[i] = idx
	}
	c.Compact()
	if len(c.Palette) != 1 || c.Palette[0] != block.Stone {
		t.Fatalf("palette after compact = %v", c.Palette)
	}
	if c.Blocks != nil {
		t.Fatal("dense array must be freed on compact")
	}
}

func TestCompactKeepsMixed(t *testing.T) {
	var c Chunk
	c.SetSinglePalette(block.Air)
	c.EnsureDense()
	c.Blocks[0] = c.AddToPalette(block.Stone)
	c.Compact()
	if len(c.Palette) != 2 || len(c.Blocks) != Volume {
		t.Fatalf("mixed chunk must stay dense: palette=%v blocks=%d", c.Palette, len(c.Blocks))
	}
}

func TestDisposeResets(t *testing.T) {
	var c Chunk
	c.SetSinglePalette(block.Stone)
	c.PendingUpdate = true
	c.Dispose()
	if c.Loaded() || c.Blocks != nil || c.PendingUpdate {
		t.Fatalf("dispose left state: %+v", c)
	}
}

func TestLinearLayout(t *testing.T) {
	if Linear(0, 0, 0) != 0 {
		t.Fatal("origin not zero")
	}
	if Linear(1, 0, 0) != 1 {
		t.Fatal("x must be the fastest axis")
	}
	if Linear(0, 0, 1) != Size {
		t.Fatal("z stride must be Size")
	}
	if Linear(0, 1, 0) != Area {
		t.Fatal("y stride must be Size^2")
	}
	if Linear(Size-1, Size-1, Size-1) != Volume-1 {
		t.Fatal("last cell must be Volume-1")
	}
}

func TestFacePairTable(t *testing.T) {
	seen := map[int]bool{}
	for a := 0; a < 6; a++ {
		if PairIndex(a, a) != -1 {
			t.Fatalf("diagonal (%d,%d) must be -1", a, a)
		}
		for b := a + 1; b < 6; b++ {
			i := PairIndex(a, b)
			if i < 0 || i > 14 {
				t.Fatalf("pair (%d,%d) index %d out of range", a, b, i)
			}
			if PairIndex(b, a) != i {
				t.Fatalf("pair (%d,%d) not symmetric", a, b)
			}
			if seen[i] {
				t.Fatalf("pair index %d duplicated", i)
			}
			seen[i] = true
		}
	}
	if len(seen) != 15 {
		t.Fatalf("want 15 distinct pairs, got %d", len(seen))
	}
}

func TestOppositeFace(t *testing.T) {
	want := map[int]int{FaceNegY: FacePosY, FaceNegZ: FacePosZ, FaceNegX: FacePosX}
	for a, b := range want {
		if OppositeFace(a) != b || OppositeFace(b) != a {
			t.Fatalf("opposite of %d/%d wrong", a, b)
		}
	}
}

func TestPairMasks(t *testing.T) {
	if PairMaskForSet(0x3F) != AllConnected {
		t.Fatalf("full set = %04x, want %04x", PairMaskForSet(0x3F), AllConnected)
	}
	if PairMaskForSet(1<<FaceNegY) != 0 {
		t.Fatal("single face has no pairs")
	}
	two := PairMaskForSet(1<<FaceNegY | 1<<FacePosX)
	if two != 1<<uint(PairIndex(FaceNegY, FacePosX)) {
		t.Fatalf("two-face set mask = %04x", two)
	}
	if PairMaskForFace(FaceNegY)&(1<<uint(PairIndex(FaceNegY, FacePosY))) == 0 {
		t.Fatal("PairMaskForFace misses a containing pair")
	}
	if PairMaskForFace(FaceNegY)&PairMaskForSet(1<<FaceNegZ|1<<FacePosZ|1<<FaceNegX|1<<FacePosX) != 0 {
		t.Fatal("PairMaskForFace includes a foreign pair")
	}
}
