package oned

import (
	"errors"
	"testing"

	gridscan "github.com/lkaramanov/gridscan"
)

// appendModuleRuns lays out alternating runs, the first in the given color.
func appendModuleRuns(modules []bool, black bool, widths ...int) []bool {
	for _, width := range widths {
		for i := 0; i < width; i++ {
			modules = append(modules, black)
		}
		black = !black
	}
	return modules
}

// fold9 replicates the decoder's base-9 checksum fold over four counts.
func fold9(counts [4]int) int {
	v := 0
	for i := 3; i >= 0; i-- {
		v = v*9 + counts[i]
	}
	return v
}

// TestRSS14RowRoundTrip lays out a complete RSS-14 row from element widths
// chosen so the pair checksum relation holds with finder patterns 5 (left)
// and 4 (right), then decodes it. The outside characters use uniform
// two-module elements so the recorded runs are alignment-independent.
//
// Checksum arithmetic: both outside characters contribute
// 1640+3*1640 = 6560; the left inside character (odd 2,2,2,5 / even
// 1,1,1,1) contributes 3827+3*820 = 6287 and the right inside (odd 3,2,2,2
// / even 2,2,1,1) 1641+3*830 = 4131. The pair checksum
// (31708 + 16*23084) mod 79 = 48 equals the adjusted finder target
// 9*5+4-1 = 48.
func TestRSS14RowRoundTrip(t *testing.T) {
	var modules []bool
	// Left half: guard, outside (eight 2-wide runs), finder {2,5,6,1}+1,
	// inside laid down reversed.
	modules = appendModuleRuns(modules, true, 1)
	modules = appendModuleRuns(modules, false, 2, 2, 2, 2, 2, 2, 2, 2)
	modules = appendModuleRuns(modules, false, 2, 5, 6, 1, 1)
	modules = appendModuleRuns(modules, true, 1, 5, 1, 2, 1, 2, 1, 2)
	// Right half, mirrored: inside, finder {2,7,4,1} reversed, a
	// palindromic nine-run track, closing guard.
	modules = appendModuleRuns(modules, true, 3, 2, 2, 2, 2, 1, 2, 1)
	modules = appendModuleRuns(modules, true, 1, 1, 4, 7, 2)
	modules = appendModuleRuns(modules, false, 2, 2, 2, 2, 2, 2, 2, 2, 2)
	modules = appendModuleRuns(modules, true, 1)

	row := rowFromModules(modules, 11)
	reader := NewRSS14Reader()

	// The reader demands pair confirmation across scan lines: the first
	// pass only tallies.
	if _, err := reader.DecodeRow(0, row, nil); !errors.Is(err, gridscan.ErrNotFound) {
		t.Fatalf("first pass: err = %v, want ErrNotFound", err)
	}
	result, err := reader.DecodeRow(1, row, nil)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if result.Format != gridscan.FormatRSS14 {
		t.Errorf("format = %v", result.Format)
	}
	if len(result.Text) != 14 {
		t.Fatalf("text = %q, want 14 digits", result.Text)
	}
	if err := CheckDigits(result.Text); err != nil {
		t.Fatalf("non-digit output %q", result.Text)
	}
	// The trailing digit is a standard GTIN check digit.
	sum := 0
	for i := 0; i < 13; i++ {
		digit := int(result.Text[i] - '0')
		if i&1 == 0 {
			sum += 3 * digit
		} else {
			sum += digit
		}
	}
	want := (10 - sum%10) % 10
	if int(result.Text[13]-'0') != want {
		t.Errorf("check digit = %c, want %d", result.Text[13], want)
	}
	if result.Metadata[gridscan.KeySymbologyIdentifier] != "]e0" {
		t.Errorf("symbology identifier = %v", result.Metadata[gridscan.KeySymbologyIdentifier])
	}
}

func TestRSS14ChecksumRelation(t *testing.T) {
	left := &rssPairing{
		checksumPortion: 6560 + 4*fold9([4]int{2, 2, 2, 5}) + 12*fold9([4]int{1, 1, 1, 1}),
		finder:          rssFinder{value: 5},
	}
	right := &rssPairing{
		checksumPortion: 6560 + 4*fold9([4]int{3, 2, 2, 2}) + 12*fold9([4]int{2, 2, 1, 1}),
		finder:          rssFinder{value: 4},
	}
	if !rss14ChecksumOK(left, right) {
		t.Error("engineered pairing should pass the checksum")
	}
	right.checksumPortion++
	if rss14ChecksumOK(left, right) {
		t.Error("perturbed pairing should fail the checksum")
	}
}

func TestRSS14ResultConstruction(t *testing.T) {
	left := &rssPairing{value: 123}
	right := &rssPairing{value: 456}
	result := rss14BuildResult(left, right)
	// 4537077*123 + 456, zero-padded to 13 digits plus the check digit.
	if result.Text[:13] != "0000558060927" {
		t.Errorf("text = %q", result.Text)
	}
	if len(result.Text) != 14 {
		t.Fatalf("text length = %d", len(result.Text))
	}
}

func TestRSSCharacterValue(t *testing.T) {
	if v := rssCharacterValue([]int{1, 1, 1, 1}, 8, false); v != 0 {
		t.Errorf("all-narrow value = %d, want 0", v)
	}
	// Hand-traced: one wide first element over n=5 has zero-based rank 3.
	if v := rssCharacterValue([]int{2, 1, 1, 1}, 8, false); v != 3 {
		t.Errorf("value = %d, want 3", v)
	}
}

func TestRSSFinderWindowRatio(t *testing.T) {
	if !rssLooksLikeFinder([]int{8, 2, 1, 1}) {
		t.Error("genuine finder window rejected")
	}
	if rssLooksLikeFinder([]int{2, 2, 2, 2}) {
		t.Error("uniform window accepted")
	}
}

// TestRSSExpandedBitStream round-trips the stacked-pair interpreter: pair
// character values packed into the information bits, then parsed back into
// an AI string. Character values 19 and 672 spell the AnyAI numeric stream
// for "(10)12".
func TestRSSExpandedBitStream(t *testing.T) {
	pairs := []expandedPair{
		{leftChar: &rssCharacter{value: 0}, rightChar: &rssCharacter{value: 19}},
		{leftChar: &rssCharacter{value: 672}},
	}
	binary := packExpandedBits(pairs)
	if binary.Len() != 24 {
		t.Fatalf("packed %d bits, want 24", binary.Len())
	}
	text, err := parseExpandedInformation(binary)
	if err != nil {
		t.Fatalf("parseExpandedInformation: %v", err)
	}
	if text != "(10)12" {
		t.Errorf("text = %q, want %q", text, "(10)12")
	}
}

func TestRSSExpandedChecksum(t *testing.T) {
	reader := NewRSSExpandedReader()
	reader.pairs = []expandedPair{
		{leftChar: &rssCharacter{value: 180}, rightChar: &rssCharacter{checksumPortion: 50}},
		{leftChar: &rssCharacter{checksumPortion: 60}, rightChar: &rssCharacter{checksumPortion: 70}},
	}
	if !reader.checksumOK() {
		t.Error("engineered pairs should pass the checksum")
	}
	reader.pairs[0].leftChar.value++
	if reader.checksumOK() {
		t.Error("perturbed check character should fail")
	}
}

// addOn2Modules renders a 2-digit add-on for value 34: parity 34 mod 4 = 2
// selects G for the first digit only.
func addOn2Modules() []bool {
	var modules []bool
	modules = appendModuleRuns(modules, true, 1, 1, 2)  // start guard
	modules = appendModuleRuns(modules, false, 1, 1, 4, 1) // 3 as G
	modules = appendModuleRuns(modules, false, 1, 1)       // delineator
	modules = appendModuleRuns(modules, false, 1, 1, 3, 2) // 4 as L
	return modules
}

// addOn5Modules renders a 5-digit add-on for "51234", whose checksum 9
// selects parity pattern 0x05: digits three and five use G.
func addOn5Modules() []bool {
	var modules []bool
	modules = appendModuleRuns(modules, true, 1, 1, 2)
	modules = appendModuleRuns(modules, false, 1, 2, 3, 1) // 5 as L
	modules = appendModuleRuns(modules, false, 1, 1)
	modules = appendModuleRuns(modules, false, 2, 2, 2, 1) // 1 as L
	modules = appendModuleRuns(modules, false, 1, 1)
	modules = appendModuleRuns(modules, false, 2, 2, 1, 2) // 2 as G
	modules = appendModuleRuns(modules, false, 1, 1)
	modules = appendModuleRuns(modules, false, 1, 4, 1, 1) // 3 as L
	modules = appendModuleRuns(modules, false, 1, 1)
	modules = appendModuleRuns(modules, false, 2, 3, 1, 1) // 4 as G
	return modules
}

func TestAddOn2DigitDecode(t *testing.T) {
	row := rowFromModules(addOn2Modules(), 10)
	result, err := decodeAddOn(0, row, 0)
	if err != nil {
		t.Fatalf("decodeAddOn: %v", err)
	}
	if result.Text != "34" {
		t.Errorf("text = %q, want %q", result.Text, "34")
	}
	if result.Format != gridscan.FormatUPCEANExtension {
		t.Errorf("format = %v", result.Format)
	}
	if result.Metadata[gridscan.KeyIssueNumber] != 34 {
		t.Errorf("issue number = %v", result.Metadata[gridscan.KeyIssueNumber])
	}
}

func TestAddOn5DigitDecode(t *testing.T) {
	row := rowFromModules(addOn5Modules(), 10)
	result, err := decodeAddOn(0, row, 0)
	if err != nil {
		t.Fatalf("decodeAddOn: %v", err)
	}
	if result.Text != "51234" {
		t.Errorf("text = %q, want %q", result.Text, "51234")
	}
	if result.Metadata[gridscan.KeySuggestedPrice] != "$12.34" {
		t.Errorf("price = %v", result.Metadata[gridscan.KeySuggestedPrice])
	}
}

func TestEAN13WithAddOn(t *testing.T) {
	main, err := NewEAN13Writer().EncodeContents("5012345678900")
	if err != nil {
		t.Fatalf("EncodeContents: %v", err)
	}
	modules := append([]bool{}, main...)
	modules = append(modules, make([]bool, 7)...) // gap before the add-on
	modules = append(modules, addOn5Modules()...)

	row := rowFromModules(modules, 10)
	result, err := NewEAN13Reader().DecodeRow(0, row, nil)
	if err != nil {
		t.Fatalf("DecodeRow: %v", err)
	}
	if result.Text != "5012345678900" {
		t.Errorf("text = %q", result.Text)
	}
	if result.Metadata[gridscan.KeyUPCEANExtension] != "51234" {
		t.Errorf("extension = %v", result.Metadata[gridscan.KeyUPCEANExtension])
	}
	if result.Metadata[gridscan.KeySuggestedPrice] != "$12.34" {
		t.Errorf("price = %v", result.Metadata[gridscan.KeySuggestedPrice])
	}
}
