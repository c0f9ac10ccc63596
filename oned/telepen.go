package oned

import (
	"fmt"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

// Telepen encodes full ASCII with even parity per character. On the wire a
// narrow bar carries a 1 bit, a wide bar a 00 pair, and a wide space a
// single 0 squeezed between ones; narrow spaces carry nothing. The symbol
// is framed by '_' and 'z' with a 127-complement sum check character.

const (
	telepenStart = '_'
	telepenStop  = 'z'
)

// TelepenChecksum returns the check character for the payload.
func TelepenChecksum(contents string) byte {
	sum := 0
	for i := 0; i < len(contents); i++ {
		sum += int(contents[i])
	}
	diff := 127 - sum%127
	if diff == 127 {
		return 0
	}
	return byte(diff)
}

// TelepenASCIIToNumeric renders each payload byte as its two-digit numeric
// form.
func TelepenASCIIToNumeric(contents string) string {
	out := make([]byte, 0, len(contents)*2)
	for i := 0; i < len(contents); i++ {
		c := int(contents[i])
		var v int
		if c >= 27 {
			v = c - 27
		} else {
			v = c - 17
		}
		out = append(out, byte('0'+v/10), byte('0'+v%10))
	}
	return string(out)
}

// TelepenNumericToASCII reverses the numeric compression.
func TelepenNumericToASCII(contents string) (string, error) {
	if len(contents)%2 != 0 {
		return "", fmt.Errorf("%w: odd numeric length", gridscan.ErrBadInput)
	}
	out := make([]byte, 0, len(contents)/2)
	for i := 0; i < len(contents); i += 2 {
		first := contents[i]
		second := contents[i+1]
		switch {
		case second == 'X' && first >= '0' && first <= '9':
			out = append(out, 17+first-'0')
		case first >= '0' && first <= '9' && second >= '0' && second <= '9':
			out = append(out, 27+(first-'0')*10+(second-'0'))
		default:
			return "", fmt.Errorf("%w: invalid numeric pair at %d", gridscan.ErrBadInput, i)
		}
	}
	return string(out), nil
}

// telepenCharBits yields a character's bits, low bit first, with the even
// parity bit last.
func telepenCharBits(c byte, emit func(bit int)) {
	ones := 0
	for i := 0; i < 7; i++ {
		bit := int(c>>uint(i)) & 1
		ones += bit
		emit(bit)
	}
	emit(ones & 1)
}

// TelepenReader decodes Telepen symbols.
type TelepenReader struct{}

// NewTelepenReader returns a Telepen reader.
func NewTelepenReader() *TelepenReader {
	return &TelepenReader{}
}

var _ RowDecoder = (*TelepenReader)(nil)

// DecodeRow decodes one scan line.
func (r *TelepenReader) DecodeRow(rowNumber int, row *bitvec.Vector, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	start := row.NextSet(0)
	if start == row.Len() {
		return nil, gridscan.ErrNotFound
	}

	// Collect every run from the first bar to the last.
	var runs []int
	isWhite := false
	count := 0
	for i := start; i < row.Len(); i++ {
		if row.Bit(i) != isWhite {
			count++
		} else {
			runs = append(runs, count)
			count = 1
			isWhite = !isWhite
		}
	}
	runs = append(runs, count)
	// Drop a trailing white run.
	if len(runs)%2 == 0 {
		runs = runs[:len(runs)-1]
	}
	lastBarEnd := start
	for _, runLen := range runs {
		lastBarEnd += runLen
	}
	if len(runs) < 15 {
		return nil, gridscan.ErrNotFound
	}

	narrow := runs[0]
	for _, runLen := range runs {
		if runLen < narrow {
			narrow = runLen
		}
	}
	if narrow == 0 {
		return nil, gridscan.ErrNotFound
	}

	// Rebuild the bit stream from the run widths.
	var bits []int
	for i, runLen := range runs {
		wide := runLen > 2*narrow
		if i%2 == 0 {
			if wide {
				bits = append(bits, 0, 0)
			} else {
				bits = append(bits, 1)
			}
		} else if wide {
			bits = append(bits, 0)
		}
	}
	if len(bits)%8 != 0 {
		return nil, gridscan.ErrNotFound
	}

	chars := make([]byte, 0, len(bits)/8)
	for i := 0; i+8 <= len(bits); i += 8 {
		c := 0
		ones := 0
		for j := 0; j < 8; j++ {
			ones += bits[i+j]
			if j < 7 && bits[i+j] == 1 {
				c |= 1 << uint(j)
			}
		}
		if ones%2 != 0 {
			return nil, gridscan.ErrChecksum
		}
		chars = append(chars, byte(c))
	}
	if len(chars) < 4 || chars[0] != telepenStart || chars[len(chars)-1] != telepenStop {
		return nil, gridscan.ErrNotFound
	}

	payload := string(chars[1 : len(chars)-2])
	if chars[len(chars)-2] != TelepenChecksum(payload) {
		return nil, gridscan.ErrChecksum
	}

	text := payload
	if opts != nil && opts.TelepenAsNumeric {
		text = TelepenASCIIToNumeric(payload)
	}

	result := gridscan.NewResult(
		text, nil,
		[]gridscan.Point{
			{X: float64(start), Y: float64(rowNumber)},
			{X: float64(lastBarEnd), Y: float64(rowNumber)},
		},
		gridscan.FormatTelepen,
	)
	result.PutMetadata(gridscan.KeySymbologyIdentifier, "]B0")
	return result, nil
}

// TelepenWriter renders Telepen symbols.
type TelepenWriter struct{}

// NewTelepenWriter returns a Telepen writer.
func NewTelepenWriter() *TelepenWriter {
	return &TelepenWriter{}
}

// Encode renders contents as a Telepen symbol.
func (w *TelepenWriter) Encode(contents string, format gridscan.Format, width, height int, opts *gridscan.EncodeOptions) (*bitvec.Matrix, error) {
	if format != gridscan.FormatTelepen {
		return nil, fmt.Errorf("telepen writer cannot encode %s: %w", format, gridscan.ErrBadInput)
	}
	code, err := EncodeTelepen(contents)
	if err != nil {
		return nil, err
	}
	return RenderRow(code, width, height), nil
}

// EncodeTelepen lays out the module pattern for the framed payload.
func EncodeTelepen(contents string) ([]bool, error) {
	for i := 0; i < len(contents); i++ {
		if contents[i] > 127 {
			return nil, fmt.Errorf("%w: %q outside ASCII", gridscan.ErrBadInput, contents[i])
		}
	}

	var bits []int
	emit := func(bit int) { bits = append(bits, bit) }
	telepenCharBits(telepenStart, emit)
	for i := 0; i < len(contents); i++ {
		telepenCharBits(contents[i], emit)
	}
	telepenCharBits(TelepenChecksum(contents), emit)
	telepenCharBits(telepenStop, emit)

	var modules []bool
	bar := func(width int) {
		for i := 0; i < width; i++ {
			modules = append(modules, true)
		}
	}
	space := func(width int) {
		for i := 0; i < width; i++ {
			modules = append(modules, false)
		}
	}

	i := 0
	for i < len(bits) {
		switch {
		case bits[i] == 1:
			bar(1)
			i++
		case i+1 < len(bits) && bits[i+1] == 0:
			bar(3)
			i += 2
		default:
			// A lone zero at a bar position cannot happen: the stream
			// opens with a one and lone zeros ride on spaces.
			return nil, gridscan.ErrWriter
		}
		if i >= len(bits) {
			break
		}
		if bits[i] == 0 && (i+1 >= len(bits) || bits[i+1] == 1) {
			space(3)
			i++
		} else {
			space(1)
		}
	}
	return modules, nil
}
