package aztec

import (
	"fmt"
	"math"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
	"github.com/lkaramanov/gridscan/galois"
	"github.com/lkaramanov/gridscan/warp"
)

// Orientation marks expected at the bullseye corners, for compact and
// full-range symbols respectively.
var cornerOrientationBits = [2][4]int{
	{0x07, 0x02, 0x01, 0x04},
	{0x1D, 0x09, 0x05, 0x13},
}

// Detect locates an Aztec symbol: walk out from the image center to the
// bullseye, read and RS-correct the mode message, then sample the full
// grid. mirrored flips the mode-message bit order for a second pass.
func Detect(image *bitvec.Matrix, mirrored bool) (*Detection, error) {
	center, err := findBullseyeCenter(image)
	if err != nil {
		return nil, err
	}

	corners, compact, err := findBullseyeCorners(image, center)
	if err != nil {
		return nil, err
	}

	dataBlocks, layers, shift, err := readParameters(image, corners, compact, mirrored)
	if err != nil {
		return nil, err
	}

	grid, points, err := sampleSymbol(image, corners, compact, layers, shift)
	if err != nil {
		return nil, err
	}

	return &Detection{
		Grid:       grid,
		Points:     points,
		Compact:    compact,
		DataBlocks: dataBlocks,
		Layers:     layers,
	}, nil
}

// findBullseyeCenter estimates a center and refines it by re-centering on
// the bullseye run along both axes.
func findBullseyeCenter(image *bitvec.Matrix) (gridscan.Point, error) {
	cx := image.Width() / 2
	cy := image.Height() / 2

	for i := 0; i < 3; i++ {
		newCX := centerOfRunX(image, cx, cy)
		newCY := centerOfRunY(image, cx, cy)
		if newCX == cx && newCY == cy {
			break
		}
		cx = newCX
		cy = newCY
	}
	return gridscan.Point{X: float64(cx), Y: float64(cy)}, nil
}

func centerOfRunX(image *bitvec.Matrix, cx, cy int) int {
	color := image.At(cx, cy)
	left, right := cx, cx
	for left > 0 && image.At(left-1, cy) == color {
		left--
	}
	for right < image.Width()-1 && image.At(right+1, cy) == color {
		right++
	}
	return (left + right) / 2
}

func centerOfRunY(image *bitvec.Matrix, cx, cy int) int {
	color := image.At(cx, cy)
	up, down := cy, cy
	for up > 0 && image.At(cx, up-1) == color {
		up--
	}
	for down < image.Height()-1 && image.At(cx, down+1) == color {
		down++
	}
	return (up + down) / 2
}

// findBullseyeCorners walks outward along the four cardinal directions,
// counting ring transitions; the count separates compact from full-range.
// Corners are returned NE, SE, SW, NW.
func findBullseyeCorners(image *bitvec.Matrix, center gridscan.Point) ([4]gridscan.Point, bool, error) {
	cx := roundInt(center.X)
	cy := roundInt(center.Y)

	rightDist, rightTrans := walkRings(image, cx, cy, 1, 0)
	leftDist, leftTrans := walkRings(image, cx, cy, -1, 0)
	downDist, downTrans := walkRings(image, cx, cy, 0, 1)
	upDist, upTrans := walkRings(image, cx, cy, 0, -1)

	avgH := (rightTrans + leftTrans + 1) / 2
	avgV := (downTrans + upTrans + 1) / 2
	avgTrans := (avgH + avgV + 1) / 2

	compact := avgTrans <= 3
	rings := 3
	if compact {
		rings = 2
	}

	halfRight := scaleToRings(rightDist, rings, rightTrans)
	halfLeft := scaleToRings(leftDist, rings, leftTrans)
	halfDown := scaleToRings(downDist, rings, downTrans)
	halfUp := scaleToRings(upDist, rings, upTrans)

	corners := [4]gridscan.Point{
		{X: float64(cx) + halfRight, Y: float64(cy) - halfUp},
		{X: float64(cx) + halfRight, Y: float64(cy) + halfDown},
		{X: float64(cx) - halfLeft, Y: float64(cy) + halfDown},
		{X: float64(cx) - halfLeft, Y: float64(cy) - halfUp},
	}
	return corners, compact, nil
}

// walkRings traces one cardinal direction, returning the distance to the
// last ring transition and the transition count.
func walkRings(image *bitvec.Matrix, cx, cy, dx, dy int) (dist, transitions int) {
	w := image.Width()
	h := image.Height()
	x := cx + dx
	y := cy + dy
	if x < 0 || x >= w || y < 0 || y >= h {
		return 0, 0
	}

	color := image.At(cx, cy)
	lastTransition := 0
	for x >= 0 && x < w && y >= 0 && y < h {
		dist++
		if image.At(x, y) != color {
			transitions++
			color = !color
			lastTransition = dist
			if transitions >= 9 {
				break
			}
		}
		x += dx
		y += dy
	}
	if lastTransition > 0 {
		dist = lastTransition
	}
	return dist, transitions
}

func scaleToRings(measuredDist, rings, measuredTrans int) float64 {
	if measuredTrans <= 0 {
		return float64(measuredDist)
	}
	ratio := float64(rings) / float64(measuredTrans)
	if ratio > 1.0 {
		ratio = 1.0
	}
	return float64(measuredDist) * ratio
}

// readParameters finds the rotation from the corner orientation marks, then
// reads and corrects the mode message in GF(16).
func readParameters(image *bitvec.Matrix, corners [4]gridscan.Point, compact, mirrored bool) (dataBlocks, layers, shift int, err error) {
	shift, err = findRotation(image, corners, compact)
	if err != nil {
		return 0, 0, 0, err
	}

	modeBits, err := readModeMessage(image, corners, compact, mirrored, shift)
	if err != nil {
		return 0, 0, 0, err
	}

	numCodewords := 10
	numECCodewords := 6
	if compact {
		numCodewords = 7
		numECCodewords = 5
	}

	words := make([]int, numCodewords)
	for i := 0; i < numCodewords; i++ {
		word := 0
		for bit := 0; bit < 4; bit++ {
			idx := i*4 + bit
			if idx < len(modeBits) && modeBits[idx] {
				word |= 1 << uint(3-bit)
			}
		}
		words[i] = word
	}

	if _, err := galois.NewDecoder(galois.AztecParam).Decode(words, numECCodewords); err != nil {
		return 0, 0, 0, fmt.Errorf("aztec: mode message unrecoverable: %w", gridscan.ErrFormat)
	}

	if compact {
		val := (words[0] << 4) | words[1]
		layers = ((val >> 6) & 0x03) + 1
		dataBlocks = (val & 0x3F) + 1
	} else {
		val := (words[0] << 12) | (words[1] << 8) | (words[2] << 4) | words[3]
		layers = ((val >> 11) & 0x1F) + 1
		dataBlocks = (val & 0x07FF) + 1
	}
	return dataBlocks, layers, shift, nil
}

// findRotation matches the four corner orientation patterns against each of
// the four quarter turns.
func findRotation(image *bitvec.Matrix, corners [4]gridscan.Point, compact bool) (int, error) {
	bitLen := 5
	expectedIdx := 1
	if compact {
		bitLen = 3
		expectedIdx = 0
	}
	expected := cornerOrientationBits[expectedIdx]

	var cornerBits [4]int
	for i := 0; i < 4; i++ {
		cornerBits[i] = readCornerPattern(image, corners, i, bitLen)
	}

	bestShift := 0
	bestScore := -1
	for shift := 0; shift < 4; shift++ {
		score := 0
		for i := 0; i < 4; i++ {
			if cornerBits[(i+shift)%4] == expected[i] {
				score++
			}
		}
		if score == 4 {
			return shift, nil
		}
		if score > bestScore {
			bestScore = score
			bestShift = shift
		}
	}
	if bestScore >= 2 {
		return bestShift, nil
	}
	return 0, gridscan.ErrNotFound
}

// readCornerPattern reads the orientation bits along the bullseye edge at
// one corner; direction depends on the corner.
func readCornerPattern(image *bitvec.Matrix, corners [4]gridscan.Point, corner, bitLen int) int {
	cx := roundInt(corners[corner].X)
	cy := roundInt(corners[corner].Y)
	w := image.Width()
	h := image.Height()

	val := 0
	read := func(i, px, py int) {
		if px >= 0 && px < w && py >= 0 && py < h && image.At(px, py) {
			val |= 1 << uint(bitLen-1-i)
		}
	}
	switch corner {
	case 0: // NE: left to right
		for i := 0; i < bitLen; i++ {
			read(i, cx-bitLen/2+i, cy)
		}
	case 1: // SE: top to bottom
		for i := 0; i < bitLen; i++ {
			read(i, cx, cy-bitLen/2+i)
		}
	case 2: // SW: right to left
		for i := 0; i < bitLen; i++ {
			read(i, cx+bitLen/2-i, cy)
		}
	case 3: // NW: bottom to top
		for i := 0; i < bitLen; i++ {
			read(i, cx, cy+bitLen/2-i)
		}
	}
	return val
}

// readModeMessage samples the ring one module outside the bullseye,
// clockwise from the side selected by the rotation.
func readModeMessage(image *bitvec.Matrix, corners [4]gridscan.Point, compact, mirrored bool, shift int) ([]bool, error) {
	sideLen := 10
	totalBits := 40
	bullseyeHalf := 5.5
	if compact {
		sideLen = 7
		totalBits = 28
		bullseyeHalf = 3.5
	}

	type side struct {
		startCorner, endCorner int
		offX, offY             float64
	}
	// Corners are NE(0), SE(1), SW(2), NW(3); sides run clockwise from
	// the top.
	sides := [4]side{
		{3, 0, 0, -1},
		{0, 1, 1, 0},
		{1, 2, 0, 1},
		{2, 3, -1, 0},
	}

	centerX := (corners[0].X + corners[1].X + corners[2].X + corners[3].X) / 4.0
	centerY := (corners[0].Y + corners[1].Y + corners[2].Y + corners[3].Y) / 4.0
	halfSizeX := (math.Abs(corners[0].X-centerX) + math.Abs(corners[2].X-centerX)) / 2.0
	halfSizeY := (math.Abs(corners[1].Y-centerY) + math.Abs(corners[3].Y-centerY)) / 2.0

	moduleX := halfSizeX / bullseyeHalf
	moduleY := halfSizeY / bullseyeHalf
	if moduleX <= 0 {
		moduleX = 1
	}
	if moduleY <= 0 {
		moduleY = 1
	}

	// One module outside the ring, half a module in for the center.
	const offsetModules = 1.5

	bits := make([]bool, totalBits)
	bitIdx := 0
	for s := 0; s < 4; s++ {
		si := sides[(s+shift)%4]
		sx := corners[si.startCorner].X + si.offX*offsetModules*moduleX
		sy := corners[si.startCorner].Y + si.offY*offsetModules*moduleY
		ex := corners[si.endCorner].X + si.offX*offsetModules*moduleX
		ey := corners[si.endCorner].Y + si.offY*offsetModules*moduleY

		for j := 0; j < sideLen; j++ {
			t := (float64(j) + 0.5) / float64(sideLen)
			px := roundInt(sx + t*(ex-sx))
			py := roundInt(sy + t*(ey-sy))
			if px >= 0 && px < image.Width() && py >= 0 && py < image.Height() {
				if mirrored {
					bits[totalBits-1-bitIdx] = image.At(px, py)
				} else {
					bits[bitIdx] = image.At(px, py)
				}
			}
			bitIdx++
		}
	}
	return bits, nil
}

// sampleSymbol projects the bullseye corners out to the symbol extent and
// samples the full module grid, undoing any rotation.
func sampleSymbol(image *bitvec.Matrix, corners [4]gridscan.Point, compact bool, layers, shift int) (*bitvec.Matrix, []gridscan.Point, error) {
	dimension := symbolDimension(compact, layers)
	if dimension <= 0 {
		return nil, nil, gridscan.ErrNotFound
	}

	centerX := (corners[0].X + corners[1].X + corners[2].X + corners[3].X) / 4.0
	centerY := (corners[0].Y + corners[1].Y + corners[2].Y + corners[3].Y) / 4.0

	bullseyeHalf := 5.5
	if compact {
		bullseyeHalf = 3.5
	}

	avgDist := 0.0
	for _, c := range corners {
		dx := c.X - centerX
		dy := c.Y - centerY
		avgDist += math.Sqrt(dx*dx + dy*dy)
	}
	avgDist /= 4.0

	moduleSize := avgDist / (bullseyeHalf * math.Sqrt2)
	if moduleSize <= 0 {
		return nil, nil, gridscan.ErrNotFound
	}

	halfDim := float64(dimension) / 2.0
	scale := halfDim * moduleSize / avgDist

	project := func(c gridscan.Point) gridscan.Point {
		return gridscan.Point{
			X: centerX + (c.X-centerX)*scale,
			Y: centerY + (c.Y-centerY)*scale,
		}
	}
	topRight := project(corners[0])
	bottomRight := project(corners[1])
	bottomLeft := project(corners[2])
	topLeft := project(corners[3])

	dimF := float64(dimension)
	h := warp.QuadToQuad(
		0.5, 0.5,
		dimF-0.5, 0.5,
		dimF-0.5, dimF-0.5,
		0.5, dimF-0.5,
		topLeft.X, topLeft.Y,
		topRight.X, topRight.Y,
		bottomRight.X, bottomRight.Y,
		bottomLeft.X, bottomLeft.Y,
	)
	grid, err := warp.Sample(image, dimension, dimension, h)
	if err != nil {
		return nil, nil, err
	}
	if shift > 0 {
		grid.Rotate(shift * 90)
	}
	return grid, []gridscan.Point{topLeft, topRight, bottomRight, bottomLeft}, nil
}

// symbolDimension is the full side length including any reference grid,
// matching the encoder's layout exactly.
func symbolDimension(compact bool, layers int) int {
	if compact {
		return 4*layers + 11
	}
	base := 4*layers + 14
	return base + 1 + 2*((base/2-1)/15)
}

func roundInt(f float64) int {
	return int(math.Round(f))
}
