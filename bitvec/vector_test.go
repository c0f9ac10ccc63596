package bitvec

import "testing"

func TestVectorSetAndGet(t *testing.T) {
	v := NewVector(33)
	for i := 0; i < 33; i++ {
		if v.Bit(i) {
			t.Errorf("bit %d set in fresh vector", i)
		}
	}
	v.Set(0)
	v.Set(31)
	v.Set(32)
	if !v.Bit(0) || !v.Bit(31) || !v.Bit(32) {
		t.Error("expected bits 0, 31, 32 set")
	}
	if v.Bit(1) || v.Bit(30) {
		t.Error("unexpected bits set")
	}
}

func TestVectorFlip(t *testing.T) {
	v := NewVector(8)
	v.Flip(3)
	if !v.Bit(3) {
		t.Error("flip should set bit 3")
	}
	v.Flip(3)
	if v.Bit(3) {
		t.Error("second flip should clear bit 3")
	}
}

func TestVectorNextSet(t *testing.T) {
	v := NewVector(64)
	v.Set(10)
	v.Set(40)
	cases := []struct{ from, want int }{
		{0, 10}, {10, 10}, {11, 40}, {41, 64},
	}
	for _, c := range cases {
		if got := v.NextSet(c.from); got != c.want {
			t.Errorf("NextSet(%d) = %d, want %d", c.from, got, c.want)
		}
	}
}

func TestVectorNextUnset(t *testing.T) {
	v := NewVector(8)
	v.SetRange(0, 8)
	v.Flip(3)
	if got := v.NextUnset(0); got != 3 {
		t.Errorf("NextUnset(0) = %d, want 3", got)
	}
}

func TestVectorAppendBit(t *testing.T) {
	v := &Vector{}
	v.AppendBit(true)
	v.AppendBit(false)
	v.AppendBit(true)
	if v.Len() != 3 {
		t.Fatalf("Len = %d, want 3", v.Len())
	}
	if !v.Bit(0) || v.Bit(1) || !v.Bit(2) {
		t.Error("wrong bits after AppendBit")
	}
}

func TestVectorAppendBits(t *testing.T) {
	v := &Vector{}
	v.AppendBits(0x1E, 6) // 011110
	if v.Len() != 6 {
		t.Fatalf("Len = %d, want 6", v.Len())
	}
	want := []bool{false, true, true, true, true, false}
	for i, w := range want {
		if v.Bit(i) != w {
			t.Errorf("bit %d = %v, want %v", i, v.Bit(i), w)
		}
	}
}

func TestVectorXorWith(t *testing.T) {
	a := NewVector(8)
	b := NewVector(8)
	a.Set(0)
	a.Set(2)
	b.Set(1)
	b.Set(2)
	a.XorWith(b)
	if !a.Bit(0) || !a.Bit(1) || a.Bit(2) {
		t.Error("wrong XOR result")
	}
}

func TestVectorReverse(t *testing.T) {
	v := NewVector(8)
	v.Set(0)
	v.Set(2)
	v.Reverse()
	if !v.Bit(5) || !v.Bit(7) {
		t.Error("wrong reversed bits")
	}
	if v.Bit(0) || v.Bit(2) {
		t.Error("original positions still set")
	}
}

func TestVectorReverseUnaligned(t *testing.T) {
	v := NewVector(45)
	v.Set(0)
	v.Set(17)
	v.Set(44)
	v.Reverse()
	if !v.Bit(44) || !v.Bit(27) || !v.Bit(0) {
		t.Error("wrong reversed bits for non word-aligned length")
	}
}

func TestVectorClone(t *testing.T) {
	v := NewVector(16)
	v.Set(5)
	c := v.Clone()
	c.Set(10)
	if v.Bit(10) {
		t.Error("clone mutation leaked into original")
	}
	if !c.Bit(5) || !c.Bit(10) {
		t.Error("clone missing bits")
	}
}

func TestVectorIsRange(t *testing.T) {
	v := NewVector(16)
	v.SetRange(4, 12)
	if !v.IsRange(4, 12, true) {
		t.Error("range [4,12) should be all set")
	}
	if !v.IsRange(0, 4, false) {
		t.Error("range [0,4) should be all unset")
	}
	if v.IsRange(0, 8, true) {
		t.Error("range [0,8) should not be all set")
	}
}

func TestVectorWriteBytes(t *testing.T) {
	v := &Vector{}
	v.AppendBits(0xA5, 8)
	v.AppendBits(0x3C, 8)
	out := make([]byte, 2)
	v.WriteBytes(0, out, 0, 2)
	if out[0] != 0xA5 || out[1] != 0x3C {
		t.Errorf("WriteBytes = %x, want a53c", out)
	}
}
