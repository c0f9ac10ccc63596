package bitvec

import "testing"

func TestMatrixSetAndGet(t *testing.T) {
	m := New(10, 10)
	m.Set(3, 5)
	if !m.At(3, 5) {
		t.Error("(3,5) should be set")
	}
	if m.At(5, 3) {
		t.Error("(5,3) should not be set")
	}
	m.Clear(3, 5)
	if m.At(3, 5) {
		t.Error("(3,5) should be cleared")
	}
}

func TestMatrixFlip(t *testing.T) {
	m := New(4, 4)
	m.Flip(1, 2)
	if !m.At(1, 2) {
		t.Error("flip should set the bit")
	}
	m.Flip(1, 2)
	if m.At(1, 2) {
		t.Error("second flip should clear the bit")
	}
}

func TestMatrixFillRegion(t *testing.T) {
	m := New(8, 8)
	m.FillRegion(2, 2, 4, 4)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			want := x >= 2 && x < 6 && y >= 2 && y < 6
			if m.At(x, y) != want {
				t.Errorf("(%d,%d) = %v, want %v", x, y, m.At(x, y), want)
			}
		}
	}
}

func TestMatrixGetRow(t *testing.T) {
	m := New(8, 4)
	m.Set(3, 2)
	m.Set(5, 2)
	row := m.GetRow(2, nil)
	if !row.Bit(3) || !row.Bit(5) {
		t.Error("row should have bits 3 and 5 set")
	}
	if row.Bit(4) {
		t.Error("row bit 4 should not be set")
	}
}

func TestMatrixRotate180(t *testing.T) {
	m := New(4, 4)
	m.Set(0, 0)
	m.Rotate180()
	if !m.At(3, 3) {
		t.Error("(3,3) should be set after half turn")
	}
	if m.At(0, 0) {
		t.Error("(0,0) should be clear after half turn")
	}
}

func TestMatrixRotate90(t *testing.T) {
	m := New(4, 3)
	m.Set(3, 0)
	m.Rotate90()
	if m.Width() != 3 || m.Height() != 4 {
		t.Errorf("dimensions = %dx%d, want 3x4", m.Width(), m.Height())
	}
	if !m.At(0, 0) {
		t.Error("(0,0) should be set after quarter turn")
	}
}

func TestMatrixBounds(t *testing.T) {
	m := New(10, 10)
	m.Set(3, 2)
	m.Set(7, 8)
	left, top, width, height, ok := m.Bounds()
	if !ok {
		t.Fatal("Bounds should report set bits")
	}
	if left != 3 || top != 2 || width != 5 || height != 7 {
		t.Errorf("Bounds = %d,%d %dx%d, want 3,2 5x7", left, top, width, height)
	}
}

func TestMatrixTrim(t *testing.T) {
	m := New(10, 10)
	m.FillRegion(3, 4, 2, 3)
	trimmed := m.Trim()
	if trimmed.Width() != 2 || trimmed.Height() != 3 {
		t.Fatalf("trimmed to %dx%d", trimmed.Width(), trimmed.Height())
	}
	if !trimmed.At(0, 0) || !trimmed.At(1, 2) {
		t.Error("trimmed content wrong")
	}
	if New(4, 4).Trim() != nil {
		t.Error("empty matrix should trim to nil")
	}
}

func TestMatrixBoundsEmpty(t *testing.T) {
	m := New(4, 4)
	if _, _, _, _, ok := m.Bounds(); ok {
		t.Error("empty matrix should have no bounds")
	}
}

func TestMatrixFirstAndLastSet(t *testing.T) {
	m := New(10, 10)
	m.Set(5, 3)
	m.Set(8, 7)
	if x, y, ok := m.FirstSet(); !ok || x != 5 || y != 3 {
		t.Errorf("FirstSet = %d,%d,%v, want 5,3,true", x, y, ok)
	}
	if x, y, ok := m.LastSet(); !ok || x != 8 || y != 7 {
		t.Errorf("LastSet = %d,%d,%v, want 8,7,true", x, y, ok)
	}
}

func TestMatrixXor(t *testing.T) {
	a := New(4, 4)
	b := New(4, 4)
	a.Set(0, 0)
	a.Set(1, 1)
	b.Set(1, 1)
	b.Set(2, 2)
	a.Xor(b)
	if !a.At(0, 0) || a.At(1, 1) || !a.At(2, 2) {
		t.Error("wrong XOR result")
	}
}

func TestMatrixParseRenderRoundTrip(t *testing.T) {
	m := New(7, 5)
	m.Set(0, 0)
	m.Set(6, 4)
	m.Set(3, 2)
	m.FillRegion(1, 1, 2, 2)
	parsed := Parse(m.Render("X ", "  "), "X ", "  ")
	if !m.Equal(parsed) {
		t.Error("Parse(Render(m)) differs from m")
	}
}

func TestMatrixParse(t *testing.T) {
	m := Parse("X.X\n.X.\nX.X\n", "X", ".")
	if m.Width() != 3 || m.Height() != 3 {
		t.Fatalf("dimensions = %dx%d, want 3x3", m.Width(), m.Height())
	}
	if !m.At(0, 0) || m.At(1, 0) || !m.At(1, 1) || !m.At(2, 2) {
		t.Error("wrong parsed bits")
	}
}

func TestMatrixClone(t *testing.T) {
	m := New(6, 6)
	m.Set(2, 2)
	c := m.Clone()
	c.Set(4, 4)
	if m.At(4, 4) {
		t.Error("clone mutation leaked into original")
	}
	if !c.Equal(c.Clone()) {
		t.Error("clone should equal itself")
	}
}

func TestMatrixInvertAll(t *testing.T) {
	m := New(3, 3)
	m.Set(1, 1)
	m.InvertAll()
	if m.At(1, 1) {
		t.Error("(1,1) should be clear after inversion")
	}
	if !m.At(0, 0) || !m.At(2, 2) {
		t.Error("corners should be set after inversion")
	}
}
