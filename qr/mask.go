package qr

import "github.com/lkaramanov/gridscan/bitvec"

// maskFunc reports whether the data module at row i, column j is inverted
// by the mask.
type maskFunc func(i, j int) bool

// dataMasks holds the eight mask conditions in mask-reference order.
var dataMasks = [8]maskFunc{
	func(i, j int) bool { return (i+j)&0x01 == 0 },
	func(i, j int) bool { return i&0x01 == 0 },
	func(i, j int) bool { return j%3 == 0 },
	func(i, j int) bool { return (i+j)%3 == 0 },
	func(i, j int) bool { return ((i/2)+(j/3))&0x01 == 0 },
	func(i, j int) bool { return (i*j)%6 == 0 },
	func(i, j int) bool { return (i*j)%6 < 3 },
	func(i, j int) bool { return (i+j+(i*j)%3)&0x01 == 0 },
}

// unmask XORs the mask pattern out of (or back into) the symbol; masking is
// its own inverse.
func unmask(grid *bitvec.Matrix, dimension, maskIndex int) {
	mask := dataMasks[maskIndex]
	for i := 0; i < dimension; i++ {
		for j := 0; j < dimension; j++ {
			if mask(i, j) {
				grid.Flip(j, i)
			}
		}
	}
}
