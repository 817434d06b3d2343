package wasmengine

import "testing"

func TestSplitPointerSize(t *testing.T) {
	cases := []struct {
		packed   uint64
		wantPtr  uint32
		wantSize uint32
	}{
		{0, 0, 0},
		{0x00000000_00000100, 0x100, 0},
		{0x00000010_00000000, 0, 0x10},
		{0x00000010_00000100, 0x100, 0x10},
	}
	for _, c := range cases {
		ptr, size := splitPointerSize(c.packed)
		if ptr != c.wantPtr || size != c.wantSize {
			t.Errorf("splitPointerSize(%#x) = (%d, %d), want (%d, %d)",
				c.packed, ptr, size, c.wantPtr, c.wantSize)
		}
	}
}

func TestUpdateHeapPagesSameValueAlwaysSucceeds(t *testing.T) {
	inst := &Instance{heapPages: 16, maxPages: 16}
	if !inst.UpdateHeapPages(16) {
		t.Fatal("expected same-value update to succeed")
	}
}

func TestUpdateHeapPagesGrowsInPlaceWithinCeiling(t *testing.T) {
	inst := &Instance{heapPages: 16, maxPages: 64}
	if !inst.UpdateHeapPages(32) {
		t.Fatal("expected update within ceiling to succeed")
	}
	if inst.heapPages != 32 {
		t.Fatalf("heapPages = %d, want 32", inst.heapPages)
	}
}

func TestUpdateHeapPagesRejectsOverCeiling(t *testing.T) {
	inst := &Instance{heapPages: 16, maxPages: 32}
	if inst.UpdateHeapPages(64) {
		t.Fatal("expected update past ceiling to be rejected")
	}
	if inst.heapPages != 16 {
		t.Fatalf("heapPages = %d, want unchanged 16", inst.heapPages)
	}
}
