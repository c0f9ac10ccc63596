package oned

import (
	"errors"
	"testing"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

// rowFromModules pads a module pattern with quiet zones and loads it into
// a bit vector.
func rowFromModules(code []bool, quiet int) *bitvec.Vector {
	padded := make([]bool, len(code)+2*quiet)
	copy(padded[quiet:], code)
	row := bitvec.NewVector(len(padded))
	for i, b := range padded {
		if b {
			row.Set(i)
		}
	}
	return row
}

func rowRoundTrip(t *testing.T, contents string, format gridscan.Format,
	encode func(string) ([]bool, error), decoder RowDecoder, opts *gridscan.DecodeOptions) *gridscan.Result {
	t.Helper()
	code, err := encode(contents)
	if err != nil {
		t.Fatalf("encode(%q): %v", contents, err)
	}
	row := rowFromModules(code, 10)
	result, err := decoder.DecodeRow(0, row, opts)
	if err != nil {
		t.Fatalf("decode(%q): %v", contents, err)
	}
	if result.Format != format {
		t.Errorf("format = %v, want %v", result.Format, format)
	}
	return result
}

func TestEAN13RoundTrip(t *testing.T) {
	writer := NewEAN13Writer()
	reader := NewEAN13Reader()
	for _, tc := range []string{"5901234123457", "4006381333931", "5012345678900"} {
		t.Run(tc, func(t *testing.T) {
			result := rowRoundTrip(t, tc, gridscan.FormatEAN13, writer.EncodeContents, reader, nil)
			if result.Text != tc {
				t.Errorf("text = %q, want %q", result.Text, tc)
			}
		})
	}
}

func TestEAN13ComputesCheckDigit(t *testing.T) {
	writer := NewEAN13Writer()
	reader := NewEAN13Reader()
	result := rowRoundTrip(t, "590123412345", gridscan.FormatEAN13, writer.EncodeContents, reader, nil)
	if result.Text != "5901234123457" {
		t.Errorf("text = %q, want %q", result.Text, "5901234123457")
	}
}

func TestEAN13Country(t *testing.T) {
	writer := NewEAN13Writer()
	reader := NewEAN13Reader()
	result := rowRoundTrip(t, "4006381333931", gridscan.FormatEAN13, writer.EncodeContents, reader, nil)
	if country := result.Metadata[gridscan.KeyPossibleCountry]; country != "DE" {
		t.Errorf("country = %v, want DE", country)
	}
}

func TestEAN8RoundTrip(t *testing.T) {
	writer := NewEAN8Writer()
	reader := NewEAN8Reader()
	result := rowRoundTrip(t, "96385074", gridscan.FormatEAN8, writer.EncodeContents, reader, nil)
	if result.Text != "96385074" {
		t.Errorf("text = %q", result.Text)
	}
}

func TestUPCAViaEAN13Writer(t *testing.T) {
	// A UPC-A symbol rendered through the EAN-13 writer as "0"+digits
	// decodes back to UPC-A with the zero stripped.
	writer := NewEAN13Writer()
	reader := NewUPCAReader()
	result := rowRoundTrip(t, "012345678905", gridscan.FormatUPCA, writer.EncodeContents, reader, nil)
	if result.Text != "12345678905" {
		t.Errorf("text = %q, want %q", result.Text, "12345678905")
	}
}

func TestUPCERoundTrip(t *testing.T) {
	writer := NewUPCEWriter()
	reader := NewUPCEReader()
	result := rowRoundTrip(t, "01234565", gridscan.FormatUPCE, writer.EncodeContents, reader, nil)
	if result.Text != "01234565" {
		t.Errorf("text = %q", result.Text)
	}
}

func TestExpandUPCE(t *testing.T) {
	if got := ExpandUPCE("01234565"); got != "012345000065" {
		t.Errorf("ExpandUPCE = %q", got)
	}
}

func TestCode39RoundTrip(t *testing.T) {
	writer := NewCode39Writer()
	reader := NewCode39Reader()
	for _, tc := range []string{"HELLO", "WORLD", "12345", "TEST-123", "A B.C"} {
		t.Run(tc, func(t *testing.T) {
			result := rowRoundTrip(t, tc, gridscan.FormatCode39, writer.encode, reader, nil)
			if result.Text != tc {
				t.Errorf("text = %q, want %q", result.Text, tc)
			}
		})
	}
}

func TestCode93RoundTrip(t *testing.T) {
	writer := NewCode93Writer()
	reader := NewCode93Reader()
	for _, tc := range []string{"CODE 93", "1234567890", "TEST-93.TEST"} {
		t.Run(tc, func(t *testing.T) {
			result := rowRoundTrip(t, tc, gridscan.FormatCode93, writer.encode, reader, nil)
			if result.Text != tc {
				t.Errorf("text = %q, want %q", result.Text, tc)
			}
		})
	}
}

func TestCode128RoundTrip(t *testing.T) {
	reader := NewCode128Reader()
	encode := func(s string) ([]bool, error) { return encodeCode128(s, -1) }
	for _, tc := range []string{"Hello", "12345678", "Test 123", "ABC-def", "1234567890"} {
		t.Run(tc, func(t *testing.T) {
			result := rowRoundTrip(t, tc, gridscan.FormatCode128, encode, reader, nil)
			if result.Text != tc {
				t.Errorf("text = %q, want %q", result.Text, tc)
			}
		})
	}
}

func TestITFRoundTrip(t *testing.T) {
	writer := NewITFWriter()
	reader := NewITFReader()
	encode := func(s string) ([]bool, error) { return writer.encode(s), nil }
	for _, tc := range []string{"123456", "00123456789012"} {
		t.Run(tc, func(t *testing.T) {
			result := rowRoundTrip(t, tc, gridscan.FormatITF, encode, reader, nil)
			if result.Text != tc {
				t.Errorf("text = %q, want %q", result.Text, tc)
			}
		})
	}
}

func TestCodabarRoundTrip(t *testing.T) {
	writer := NewCodabarWriter()
	reader := NewCodabarReader()
	result := rowRoundTrip(t, "A123456A", gridscan.FormatCodabar, writer.encode, reader, nil)
	if result.Text != "123456" {
		t.Errorf("text = %q, want %q", result.Text, "123456")
	}
}

func TestCodabarKeepsGuardsOnRequest(t *testing.T) {
	writer := NewCodabarWriter()
	reader := NewCodabarReader()
	opts := &gridscan.DecodeOptions{ReturnCodabarStartEnd: true}
	result := rowRoundTrip(t, "B40156D", gridscan.FormatCodabar, writer.encode, reader, opts)
	if result.Text != "B40156D" {
		t.Errorf("text = %q, want %q", result.Text, "B40156D")
	}
}

func TestTelepenRoundTrip(t *testing.T) {
	reader := NewTelepenReader()
	for _, tc := range []string{"Hello world!", "ABC123456"} {
		t.Run(tc, func(t *testing.T) {
			result := rowRoundTrip(t, tc, gridscan.FormatTelepen, EncodeTelepen, reader, nil)
			if result.Text != tc {
				t.Errorf("text = %q, want %q", result.Text, tc)
			}
		})
	}
}

func TestTelepenChecksumVectors(t *testing.T) {
	if c := TelepenChecksum("Hello world!"); c != 0x1A {
		t.Errorf("checksum = %#x, want 0x1a", c)
	}
	if c := TelepenChecksum("ABC123456"); c != 0x01 {
		t.Errorf("checksum = %#x, want 0x01", c)
	}
}

func TestTelepenNumericConversion(t *testing.T) {
	if got := TelepenASCIIToNumeric("'=Siu"); got != "1234567890" {
		t.Errorf("ascii to numeric = %q", got)
	}
	back, err := TelepenNumericToASCII("1234567890")
	if err != nil || back != "'=Siu" {
		t.Errorf("numeric to ascii = %q, %v", back, err)
	}
	if got := TelepenASCIIToNumeric("& oe"); got != "11058474" {
		t.Errorf("ascii to numeric = %q", got)
	}
}

func TestTelepenAsNumericHint(t *testing.T) {
	reader := NewTelepenReader()
	opts := &gridscan.DecodeOptions{TelepenAsNumeric: true}
	result := rowRoundTrip(t, "'=Siu", gridscan.FormatTelepen, EncodeTelepen, reader, opts)
	if result.Text != "1234567890" {
		t.Errorf("text = %q, want %q", result.Text, "1234567890")
	}
}

func TestSingleModuleWideRow(t *testing.T) {
	// A one-pixel-per-module rendering must still decode.
	writer := NewEAN13Writer()
	code, err := writer.EncodeContents("5901234123457")
	if err != nil {
		t.Fatalf("EncodeContents: %v", err)
	}
	row := rowFromModules(code, 9)
	result, err := NewEAN13Reader().DecodeRow(0, row, nil)
	if err != nil {
		t.Fatalf("DecodeRow: %v", err)
	}
	if result.Text != "5901234123457" {
		t.Errorf("text = %q", result.Text)
	}
}

func TestChecksumRejectsTamperedRow(t *testing.T) {
	if checkChecksum("5901234123458") {
		t.Error("bad check digit accepted")
	}
}

func TestITFRejectsOddLength(t *testing.T) {
	_, err := NewITFWriter().Encode("12345", gridscan.FormatITF, 200, 50, nil)
	if !errors.Is(err, gridscan.ErrBadInput) {
		t.Errorf("err = %v, want ErrBadInput", err)
	}
}

func TestAIFieldSplitter(t *testing.T) {
	got, err := splitAIFields("0112345678901231")
	if err != nil {
		t.Fatalf("splitAIFields: %v", err)
	}
	if got != "(01)12345678901231" {
		t.Errorf("got %q", got)
	}
}
