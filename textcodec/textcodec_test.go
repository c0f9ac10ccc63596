package textcodec

import "testing"

func TestByValue(t *testing.T) {
	eci, err := ByValue(26)
	if err != nil || eci == nil || eci.Name != "UTF8" {
		t.Errorf("ByValue(26) = %v, %v", eci, err)
	}
	// Historical duplicate assignments.
	eci, err = ByValue(2)
	if err != nil || eci == nil || eci.Name != "Cp437" {
		t.Errorf("ByValue(2) = %v, %v", eci, err)
	}
	if _, err := ByValue(900); err == nil {
		t.Error("ByValue(900) should be out of range")
	}
	eci, err = ByValue(100)
	if err != nil || eci != nil {
		t.Errorf("unassigned value should resolve to nil, got %v, %v", eci, err)
	}
}

func TestByName(t *testing.T) {
	if ByName("Shift_JIS") != ShiftJIS {
		t.Error("alias lookup failed")
	}
	if ByName("no-such-charset") != nil {
		t.Error("unknown name should be nil")
	}
}

func TestDecodeShiftJIS(t *testing.T) {
	// Katakana "ア" is 0xB1 in half-width, 0x83 0x41 in full width.
	got := Decode([]byte{0x83, 0x41}, "Shift_JIS")
	if got != "ア" {
		t.Errorf("Decode = %q", got)
	}
}

func TestDecodeLatin1(t *testing.T) {
	got := Decode([]byte{0xE9}, "ISO-8859-1")
	if got != "é" {
		t.Errorf("Decode = %q", got)
	}
}

func TestDecodeUnknownPassesThrough(t *testing.T) {
	data := []byte("plain")
	if got := Decode(data, "X-UNKNOWN"); got != "plain" {
		t.Errorf("Decode = %q", got)
	}
}

func TestSniffASCII(t *testing.T) {
	if got := Sniff([]byte("hello world"), ""); got != "ISO-8859-1" {
		t.Errorf("Sniff = %q", got)
	}
}

func TestSniffUTF8(t *testing.T) {
	if got := Sniff([]byte("héllo — wörld"), ""); got != "UTF-8" {
		t.Errorf("Sniff = %q", got)
	}
}

func TestSniffShiftJIS(t *testing.T) {
	// Three full-width characters in a row trip the Shift_JIS heuristic.
	data := []byte{0x93, 0xFA, 0x96, 0x7B, 0x8C, 0xEA}
	if got := Sniff(data, ""); got != "Shift_JIS" {
		t.Errorf("Sniff = %q", got)
	}
}

func TestSniffHonorsOverride(t *testing.T) {
	if got := Sniff([]byte("abc"), "UTF-8"); got != "UTF-8" {
		t.Errorf("Sniff = %q", got)
	}
}
