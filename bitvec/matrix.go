package bitvec

import (
	"math/bits"
	"strings"
)

// Matrix is a width x height raster of bits, row-major, origin top-left.
// Width and height are fixed at construction.
type Matrix struct {
	width   int
	height  int
	rowSize int
	words   []uint32
}

// NewSquare returns a dimension x dimension Matrix.
func NewSquare(dimension int) *Matrix {
	return New(dimension, dimension)
}

// New returns a width x height Matrix with all bits unset.
func New(width, height int) *Matrix {
	if width < 1 || height < 1 {
		panic("bitvec: matrix dimensions must be positive")
	}
	rowSize := (width + 31) / 32
	return &Matrix{
		width:   width,
		height:  height,
		rowSize: rowSize,
		words:   make([]uint32, rowSize*height),
	}
}

// FromBools builds a Matrix from a row-major boolean grid.
func FromBools(grid [][]bool) *Matrix {
	height := len(grid)
	width := len(grid[0])
	m := New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if grid[y][x] {
				m.Set(x, y)
			}
		}
	}
	return m
}

// Parse builds a Matrix from a textual rendering, where set and unset are
// the tokens used for dark and light modules. Rows are newline-separated.
// Parse is the inverse of Render for any matrix.
func Parse(repr, set, unset string) *Matrix {
	cells := make([]bool, len(repr))
	n := 0
	rowStart := 0
	rowLen := -1
	rows := 0
	pos := 0
	for pos < len(repr) {
		switch {
		case repr[pos] == '\n' || repr[pos] == '\r':
			if n > rowStart {
				if rowLen == -1 {
					rowLen = n - rowStart
				} else if n-rowStart != rowLen {
					panic("bitvec: ragged rows")
				}
				rowStart = n
				rows++
			}
			pos++
		case len(repr) >= pos+len(set) && repr[pos:pos+len(set)] == set:
			pos += len(set)
			cells[n] = true
			n++
		case len(repr) >= pos+len(unset) && repr[pos:pos+len(unset)] == unset:
			pos += len(unset)
			n++
		default:
			panic("bitvec: unrecognized token")
		}
	}
	if n > rowStart {
		if rowLen == -1 {
			rowLen = n - rowStart
		} else if n-rowStart != rowLen {
			panic("bitvec: ragged rows")
		}
		rows++
	}
	m := New(rowLen, rows)
	for i := 0; i < n; i++ {
		if cells[i] {
			m.Set(i%rowLen, i/rowLen)
		}
	}
	return m
}

// At reports whether the bit at (x, y) is set.
func (m *Matrix) At(x, y int) bool {
	return (m.words[y*m.rowSize+x/32]>>uint(x&0x1F))&1 != 0
}

// Set sets the bit at (x, y).
func (m *Matrix) Set(x, y int) {
	m.words[y*m.rowSize+x/32] |= 1 << uint(x&0x1F)
}

// Clear unsets the bit at (x, y).
func (m *Matrix) Clear(x, y int) {
	m.words[y*m.rowSize+x/32] &^= 1 << uint(x&0x1F)
}

// Flip inverts the bit at (x, y).
func (m *Matrix) Flip(x, y int) {
	m.words[y*m.rowSize+x/32] ^= 1 << uint(x&0x1F)
}

// InvertAll inverts every bit.
func (m *Matrix) InvertAll() {
	for i := range m.words {
		m.words[i] = ^m.words[i]
	}
}

// Xor flips the bits of this matrix wherever mask has a set bit.
func (m *Matrix) Xor(mask *Matrix) {
	if m.width != mask.width || m.height != mask.height || m.rowSize != mask.rowSize {
		panic("bitvec: matrix dimensions differ")
	}
	scratch := NewVector(m.width)
	for y := 0; y < m.height; y++ {
		offset := y * m.rowSize
		row := mask.GetRow(y, scratch).Words()
		for x := 0; x < m.rowSize; x++ {
			m.words[offset+x] ^= row[x]
		}
	}
}

// Reset unsets every bit.
func (m *Matrix) Reset() {
	for i := range m.words {
		m.words[i] = 0
	}
}

// FillRegion sets every bit in the given rectangle.
func (m *Matrix) FillRegion(left, top, width, height int) {
	if top < 0 || left < 0 {
		panic("bitvec: region origin must be nonnegative")
	}
	if height < 1 || width < 1 {
		panic("bitvec: region must be at least 1x1")
	}
	right := left + width
	bottom := top + height
	if bottom > m.height || right > m.width {
		panic("bitvec: region exceeds matrix")
	}
	for y := top; y < bottom; y++ {
		offset := y * m.rowSize
		for x := left; x < right; x++ {
			m.words[offset+x/32] |= 1 << uint(x&0x1F)
		}
	}
}

// GetRow copies row y into row, allocating when row is nil or too small.
func (m *Matrix) GetRow(y int, row *Vector) *Vector {
	if row == nil || row.Len() < m.width {
		row = NewVector(m.width)
	} else {
		row.ClearAll()
	}
	offset := y * m.rowSize
	for x := 0; x < m.rowSize; x++ {
		row.SetWord(x*32, m.words[offset+x])
	}
	return row
}

// SetRow overwrites row y from the given vector.
func (m *Matrix) SetRow(y int, row *Vector) {
	copy(m.words[y*m.rowSize:], row.Words()[:m.rowSize])
}

// Rotate rotates the matrix counterclockwise by a multiple of 90 degrees.
func (m *Matrix) Rotate(degrees int) {
	switch ((degrees % 360) + 360) % 360 {
	case 0:
	case 90:
		m.Rotate90()
	case 180:
		m.Rotate180()
	case 270:
		m.Rotate90()
		m.Rotate180()
	default:
		panic("bitvec: rotation must be a multiple of 90")
	}
}

// Rotate180 rotates the matrix half a turn in place.
func (m *Matrix) Rotate180() {
	top := NewVector(m.width)
	bottom := NewVector(m.width)
	half := (m.height + 1) / 2
	for i := 0; i < half; i++ {
		top = m.GetRow(i, top)
		j := m.height - 1 - i
		bottom = m.GetRow(j, bottom)
		top.Reverse()
		bottom.Reverse()
		m.SetRow(i, bottom)
		m.SetRow(j, top)
	}
}

// Rotate90 rotates the matrix a quarter turn counterclockwise.
func (m *Matrix) Rotate90() {
	newWidth := m.height
	newHeight := m.width
	newRowSize := (newWidth + 31) / 32
	rotated := make([]uint32, newRowSize*newHeight)
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if (m.words[y*m.rowSize+x/32]>>uint(x&0x1F))&1 != 0 {
				offset := (newHeight-1-x)*newRowSize + y/32
				rotated[offset] |= 1 << uint(y&0x1F)
			}
		}
	}
	m.width = newWidth
	m.height = newHeight
	m.rowSize = newRowSize
	m.words = rotated
}

// Bounds returns the rectangle enclosing all set bits. ok is false when the
// matrix is empty.
func (m *Matrix) Bounds() (left, top, width, height int, ok bool) {
	left = m.width
	top = m.height
	right := -1
	bottom := -1
	for y := 0; y < m.height; y++ {
		for x32 := 0; x32 < m.rowSize; x32++ {
			w := m.words[y*m.rowSize+x32]
			if w == 0 {
				continue
			}
			if y < top {
				top = y
			}
			if y > bottom {
				bottom = y
			}
			if x32*32 < left {
				bit := 0
				for (w << uint(31-bit)) == 0 {
					bit++
				}
				if x32*32+bit < left {
					left = x32*32 + bit
				}
			}
			if x32*32+31 > right {
				bit := 31
				for (w >> uint(bit)) == 0 {
					bit--
				}
				if x32*32+bit > right {
					right = x32*32 + bit
				}
			}
		}
	}
	if right < left || bottom < top {
		return 0, 0, 0, 0, false
	}
	return left, top, right - left + 1, bottom - top + 1, true
}

// Trim returns a copy cropped to the bounding box of the set bits, or nil
// when the matrix is empty.
func (m *Matrix) Trim() *Matrix {
	left, top, width, height, ok := m.Bounds()
	if !ok {
		return nil
	}
	trimmed := New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if m.At(left+x, top+y) {
				trimmed.Set(x, y)
			}
		}
	}
	return trimmed
}

// FirstSet returns the coordinates of the top-left set bit.
func (m *Matrix) FirstSet() (x, y int, ok bool) {
	offset := 0
	for offset < len(m.words) && m.words[offset] == 0 {
		offset++
	}
	if offset == len(m.words) {
		return 0, 0, false
	}
	y = offset / m.rowSize
	x = (offset%m.rowSize)*32 + bits.TrailingZeros32(m.words[offset])
	return x, y, true
}

// LastSet returns the coordinates of the bottom-right set bit.
func (m *Matrix) LastSet() (x, y int, ok bool) {
	offset := len(m.words) - 1
	for offset >= 0 && m.words[offset] == 0 {
		offset--
	}
	if offset < 0 {
		return 0, 0, false
	}
	y = offset / m.rowSize
	x = (offset%m.rowSize)*32 + 31 - bits.LeadingZeros32(m.words[offset])
	return x, y, true
}

// Width returns the matrix width.
func (m *Matrix) Width() int { return m.width }

// Height returns the matrix height.
func (m *Matrix) Height() int { return m.height }

// Clone returns an independent copy.
func (m *Matrix) Clone() *Matrix {
	w := make([]uint32, len(m.words))
	copy(w, m.words)
	return &Matrix{width: m.width, height: m.height, rowSize: m.rowSize, words: w}
}

// Equal reports whether two matrices have identical dimensions and bits.
func (m *Matrix) Equal(other *Matrix) bool {
	if m.width != other.width || m.height != other.height || m.rowSize != other.rowSize {
		return false
	}
	for i := range m.words {
		if m.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

// String renders with "X " for set and "  " for unset bits.
func (m *Matrix) String() string {
	return m.Render("X ", "  ")
}

// Render writes one line per row using the given tokens.
func (m *Matrix) Render(set, unset string) string {
	var sb strings.Builder
	sb.Grow(m.height * (m.width + 1))
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if m.At(x, y) {
				sb.WriteString(set)
			} else {
				sb.WriteString(unset)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
