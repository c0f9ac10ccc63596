package qr

import (
	"math"
	"sort"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
	"github.com/lkaramanov/gridscan/internal"
	"github.com/lkaramanov/gridscan/warp"
)

const (
	centerQuorum = 2
	minRowSkip   = 3
	maxModules   = 97
)

// FinderPattern is a candidate finder center with its module size estimate
// and the number of scan rows that confirmed it.
type FinderPattern struct {
	X, Y       float64
	ModuleSize float64
	Confirms   int
}

// finderTriple is the three ordered finder patterns of one symbol.
type finderTriple struct {
	bottomLeft, topLeft, topRight *FinderPattern
}

// AlignmentPattern is a located bottom-right alignment center.
type AlignmentPattern struct {
	X, Y       float64
	ModuleSize float64
}

func (fp *FinderPattern) near(moduleSize, i, j float64) bool {
	if math.Abs(i-fp.Y) <= moduleSize && math.Abs(j-fp.X) <= moduleSize {
		diff := math.Abs(moduleSize - fp.ModuleSize)
		return diff <= 1.0 || diff <= fp.ModuleSize
	}
	return false
}

func (fp *FinderPattern) merge(i, j, newModuleSize float64) *FinderPattern {
	n := fp.Confirms + 1
	return &FinderPattern{
		X:          (float64(fp.Confirms)*fp.X + j) / float64(n),
		Y:          (float64(fp.Confirms)*fp.Y + i) / float64(n),
		ModuleSize: (float64(fp.Confirms)*fp.ModuleSize + newModuleSize) / float64(n),
		Confirms:   n,
	}
}

func (ap *AlignmentPattern) near(moduleSize, i, j float64) bool {
	if math.Abs(i-ap.Y) <= moduleSize && math.Abs(j-ap.X) <= moduleSize {
		diff := math.Abs(moduleSize - ap.ModuleSize)
		return diff <= 1.0 || diff <= ap.ModuleSize
	}
	return false
}

func (ap *AlignmentPattern) merge(i, j, newModuleSize float64) *AlignmentPattern {
	return &AlignmentPattern{
		X:          (ap.X + j) / 2.0,
		Y:          (ap.Y + i) / 2.0,
		ModuleSize: (ap.ModuleSize + newModuleSize) / 2.0,
	}
}

// finderScan accumulates 1:1:3:1:1 run matches across scan rows.
type finderScan struct {
	image      *bitvec.Matrix
	candidates []*FinderPattern
	hasSkipped bool
	crossRuns  [5]int
	notify     func(gridscan.Point)
}

func (f *finderScan) resetCrossRuns() *[5]int {
	f.crossRuns = [5]int{}
	return &f.crossRuns
}

func (f *finderScan) find(tryHarder bool) (*finderTriple, error) {
	maxI := f.image.Height()
	maxJ := f.image.Width()

	iSkip := (3 * maxI) / (4 * maxModules)
	if iSkip < minRowSkip || tryHarder {
		iSkip = minRowSkip
	}

	done := false
	runs := [5]int{}
	for i := iSkip - 1; i < maxI && !done; i += iSkip {
		runs = [5]int{}
		state := 0
		for j := 0; j < maxJ; j++ {
			if f.image.At(j, i) {
				if state&1 == 1 {
					state++
				}
				runs[state]++
			} else {
				if state&1 == 0 {
					if state == 4 {
						if isFinderRatio(runs) {
							if f.tryCenter(runs, i, j) {
								iSkip = 2
								if f.hasSkipped {
									done = f.haveQuorum()
								} else {
									rowSkip := f.rowSkip()
									if rowSkip > runs[2] {
										i += rowSkip - runs[2] - iSkip
										j = maxJ - 1
									}
								}
								state = 0
								runs = [5]int{}
							} else {
								shiftRuns(&runs)
								state = 3
								continue
							}
						} else {
							shiftRuns(&runs)
							state = 3
						}
					} else {
						state++
						runs[state]++
					}
				} else {
					runs[state]++
				}
			}
		}
		if isFinderRatio(runs) {
			if f.tryCenter(runs, i, maxJ) {
				iSkip = runs[0]
				if f.hasSkipped {
					done = f.haveQuorum()
				}
			}
		}
	}

	best, err := f.pickBestThree()
	if err != nil {
		return nil, err
	}
	return orderTriple(best), nil
}

// isFinderRatio checks the 1:1:3:1:1 run ratio with half-module tolerance.
func isFinderRatio(runs [5]int) bool {
	total := 0
	for i := 0; i < 5; i++ {
		if runs[i] == 0 {
			return false
		}
		total += runs[i]
	}
	if total < 7 {
		return false
	}
	moduleSize := float64(total) / 7.0
	maxVariance := moduleSize / 2.0
	return math.Abs(moduleSize-float64(runs[0])) < maxVariance &&
		math.Abs(moduleSize-float64(runs[1])) < maxVariance &&
		math.Abs(3*moduleSize-float64(runs[2])) < 3*maxVariance &&
		math.Abs(moduleSize-float64(runs[3])) < maxVariance &&
		math.Abs(moduleSize-float64(runs[4])) < maxVariance
}

// isFinderRatioDiagonal relaxes the tolerance for the diagonal cross-check.
func isFinderRatioDiagonal(runs [5]int) bool {
	total := 0
	for i := 0; i < 5; i++ {
		if runs[i] == 0 {
			return false
		}
		total += runs[i]
	}
	if total < 7 {
		return false
	}
	moduleSize := float64(total) / 7.0
	maxVariance := moduleSize / 1.333
	return math.Abs(moduleSize-float64(runs[0])) < maxVariance &&
		math.Abs(moduleSize-float64(runs[1])) < maxVariance &&
		math.Abs(3*moduleSize-float64(runs[2])) < 3*maxVariance &&
		math.Abs(moduleSize-float64(runs[3])) < maxVariance &&
		math.Abs(moduleSize-float64(runs[4])) < maxVariance
}

func shiftRuns(runs *[5]int) {
	runs[0] = runs[2]
	runs[1] = runs[3]
	runs[2] = runs[4]
	runs[3] = 1
	runs[4] = 0
}

func centerFromEnd(runs [5]int, end int) float64 {
	return float64(end-runs[4]-runs[3]) - float64(runs[2])/2.0
}

func (f *finderScan) crossCheckDiagonal(centerI, centerJ int) bool {
	runs := f.resetCrossRuns()

	i := 0
	for centerI >= i && centerJ >= i && f.image.At(centerJ-i, centerI-i) {
		runs[2]++
		i++
	}
	if runs[2] == 0 {
		return false
	}
	for centerI >= i && centerJ >= i && !f.image.At(centerJ-i, centerI-i) {
		runs[1]++
		i++
	}
	if runs[1] == 0 {
		return false
	}
	for centerI >= i && centerJ >= i && f.image.At(centerJ-i, centerI-i) {
		runs[0]++
		i++
	}
	if runs[0] == 0 {
		return false
	}

	maxI := f.image.Height()
	maxJ := f.image.Width()
	i = 1
	for centerI+i < maxI && centerJ+i < maxJ && f.image.At(centerJ+i, centerI+i) {
		runs[2]++
		i++
	}
	for centerI+i < maxI && centerJ+i < maxJ && !f.image.At(centerJ+i, centerI+i) {
		runs[3]++
		i++
	}
	if runs[3] == 0 {
		return false
	}
	for centerI+i < maxI && centerJ+i < maxJ && f.image.At(centerJ+i, centerI+i) {
		runs[4]++
		i++
	}
	if runs[4] == 0 {
		return false
	}
	return isFinderRatioDiagonal(*runs)
}

func (f *finderScan) crossCheckVertical(startI, centerJ, maxCount, originalTotal int) float64 {
	maxI := f.image.Height()
	runs := f.resetCrossRuns()

	i := startI
	for i >= 0 && f.image.At(centerJ, i) {
		runs[2]++
		i--
	}
	if i < 0 {
		return math.NaN()
	}
	for i >= 0 && !f.image.At(centerJ, i) && runs[1] <= maxCount {
		runs[1]++
		i--
	}
	if i < 0 || runs[1] > maxCount {
		return math.NaN()
	}
	for i >= 0 && f.image.At(centerJ, i) && runs[0] <= maxCount {
		runs[0]++
		i--
	}
	if runs[0] > maxCount {
		return math.NaN()
	}

	i = startI + 1
	for i < maxI && f.image.At(centerJ, i) {
		runs[2]++
		i++
	}
	if i == maxI {
		return math.NaN()
	}
	for i < maxI && !f.image.At(centerJ, i) && runs[3] < maxCount {
		runs[3]++
		i++
	}
	if i == maxI || runs[3] >= maxCount {
		return math.NaN()
	}
	for i < maxI && f.image.At(centerJ, i) && runs[4] < maxCount {
		runs[4]++
		i++
	}
	if runs[4] >= maxCount {
		return math.NaN()
	}

	total := runs[0] + runs[1] + runs[2] + runs[3] + runs[4]
	if 5*intAbs(total-originalTotal) >= 2*originalTotal {
		return math.NaN()
	}
	if isFinderRatio(*runs) {
		return centerFromEnd(*runs, i)
	}
	return math.NaN()
}

func (f *finderScan) crossCheckHorizontal(startJ, centerI, maxCount, originalTotal int) float64 {
	maxJ := f.image.Width()
	runs := f.resetCrossRuns()

	j := startJ
	for j >= 0 && f.image.At(j, centerI) {
		runs[2]++
		j--
	}
	if j < 0 {
		return math.NaN()
	}
	for j >= 0 && !f.image.At(j, centerI) && runs[1] <= maxCount {
		runs[1]++
		j--
	}
	if j < 0 || runs[1] > maxCount {
		return math.NaN()
	}
	for j >= 0 && f.image.At(j, centerI) && runs[0] <= maxCount {
		runs[0]++
		j--
	}
	if runs[0] > maxCount {
		return math.NaN()
	}

	j = startJ + 1
	for j < maxJ && f.image.At(j, centerI) {
		runs[2]++
		j++
	}
	if j == maxJ {
		return math.NaN()
	}
	for j < maxJ && !f.image.At(j, centerI) && runs[3] < maxCount {
		runs[3]++
		j++
	}
	if j == maxJ || runs[3] >= maxCount {
		return math.NaN()
	}
	for j < maxJ && f.image.At(j, centerI) && runs[4] < maxCount {
		runs[4]++
		j++
	}
	if runs[4] >= maxCount {
		return math.NaN()
	}

	total := runs[0] + runs[1] + runs[2] + runs[3] + runs[4]
	if 5*intAbs(total-originalTotal) >= originalTotal {
		return math.NaN()
	}
	if isFinderRatio(*runs) {
		return centerFromEnd(*runs, j)
	}
	return math.NaN()
}

func (f *finderScan) tryCenter(runs [5]int, i, j int) bool {
	total := runs[0] + runs[1] + runs[2] + runs[3] + runs[4]
	centerJ := centerFromEnd(runs, j)
	centerI := f.crossCheckVertical(i, int(centerJ), runs[2], total)
	if math.IsNaN(centerI) {
		return false
	}
	centerJ = f.crossCheckHorizontal(int(centerJ), int(centerI), runs[2], total)
	if math.IsNaN(centerJ) || !f.crossCheckDiagonal(int(centerI), int(centerJ)) {
		return false
	}

	moduleSize := float64(total) / 7.0
	for idx, center := range f.candidates {
		if center.near(moduleSize, centerI, centerJ) {
			f.candidates[idx] = center.merge(centerI, centerJ, moduleSize)
			return true
		}
	}
	f.candidates = append(f.candidates, &FinderPattern{
		X: centerJ, Y: centerI, ModuleSize: moduleSize, Confirms: 1,
	})
	if f.notify != nil {
		f.notify(gridscan.Point{X: centerJ, Y: centerI})
	}
	return true
}

func (f *finderScan) rowSkip() int {
	if len(f.candidates) <= 1 {
		return 0
	}
	var firstConfirmed *FinderPattern
	for _, center := range f.candidates {
		if center.Confirms >= centerQuorum {
			if firstConfirmed == nil {
				firstConfirmed = center
			} else {
				f.hasSkipped = true
				return int(math.Abs(firstConfirmed.X-center.X)-
					math.Abs(firstConfirmed.Y-center.Y)) / 2
			}
		}
	}
	return 0
}

func (f *finderScan) haveQuorum() bool {
	confirmed := 0
	totalModuleSize := 0.0
	n := len(f.candidates)
	for _, p := range f.candidates {
		if p.Confirms >= centerQuorum {
			confirmed++
			totalModuleSize += p.ModuleSize
		}
	}
	if confirmed < 3 {
		return false
	}
	average := totalModuleSize / float64(n)
	totalDeviation := 0.0
	for _, p := range f.candidates {
		totalDeviation += math.Abs(p.ModuleSize - average)
	}
	return totalDeviation <= 0.05*totalModuleSize
}

func squaredDistance(a, b *FinderPattern) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// pickBestThree chooses the triple of confirmed centers closest to a right
// isoceles triangle with comparable module sizes.
func (f *finderScan) pickBestThree() ([]*FinderPattern, error) {
	if len(f.candidates) < 3 {
		return nil, gridscan.ErrNotFound
	}

	confirmed := make([]*FinderPattern, 0, len(f.candidates))
	for _, p := range f.candidates {
		if p.Confirms >= centerQuorum {
			confirmed = append(confirmed, p)
		}
	}
	f.candidates = confirmed
	if len(f.candidates) < 3 {
		return nil, gridscan.ErrNotFound
	}

	sort.Slice(f.candidates, func(i, j int) bool {
		return f.candidates[i].ModuleSize < f.candidates[j].ModuleSize
	})

	distortion := math.MaxFloat64
	var best [3]*FinderPattern
	n := len(f.candidates)
	for i := 0; i < n-2; i++ {
		fpi := f.candidates[i]
		minModuleSize := fpi.ModuleSize
		for j := i + 1; j < n-1; j++ {
			fpj := f.candidates[j]
			squares0 := squaredDistance(fpi, fpj)
			for k := j + 1; k < n; k++ {
				fpk := f.candidates[k]
				if fpk.ModuleSize > minModuleSize*1.4 {
					continue
				}

				a := squares0
				b := squaredDistance(fpj, fpk)
				c := squaredDistance(fpi, fpk)
				a, b, c = sortThree(a, b, c)

				d := math.Abs(c-2*b) + math.Abs(c-2*a)
				if d < distortion {
					distortion = d
					best[0] = fpi
					best[1] = fpj
					best[2] = fpk
				}
			}
		}
	}
	if distortion == math.MaxFloat64 {
		return nil, gridscan.ErrNotFound
	}
	return best[:], nil
}

func sortThree(a, b, c float64) (float64, float64, float64) {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return a, b, c
}

// orderTriple assigns top-left to the corner pattern and orients the other
// two by the cross product.
func orderTriple(patterns []*FinderPattern) *finderTriple {
	d01 := patternDistance(patterns[0], patterns[1])
	d12 := patternDistance(patterns[1], patterns[2])
	d02 := patternDistance(patterns[0], patterns[2])

	var a, b, c *FinderPattern
	switch {
	case d12 >= d01 && d12 >= d02:
		b, a, c = patterns[0], patterns[1], patterns[2]
	case d02 >= d01 && d02 >= d12:
		b, a, c = patterns[1], patterns[0], patterns[2]
	default:
		b, a, c = patterns[2], patterns[0], patterns[1]
	}

	if (c.X-b.X)*(a.Y-b.Y)-(c.Y-b.Y)*(a.X-b.X) < 0 {
		a, c = c, a
	}
	return &finderTriple{bottomLeft: a, topLeft: b, topRight: c}
}

func patternDistance(a, b *FinderPattern) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// alignScan searches a small window for the 1:1:1 alignment ratio.
type alignScan struct {
	image          *bitvec.Matrix
	candidates     []*AlignmentPattern
	startX, startY int
	width, height  int
	moduleSize     float64
	crossRuns      [3]int
}

func (a *alignScan) find() *AlignmentPattern {
	maxJ := a.startX + a.width
	middleI := a.startY + a.height/2

	runs := [3]int{}
	for iGen := 0; iGen < a.height; iGen++ {
		// Search outward from the middle row.
		i := middleI
		if iGen&1 == 0 {
			i += (iGen + 1) / 2
		} else {
			i -= (iGen + 1) / 2
		}

		runs = [3]int{}
		j := a.startX
		for j < maxJ && !a.image.At(j, i) {
			j++
		}
		state := 0
		for j < maxJ {
			if a.image.At(j, i) {
				if state == 1 {
					runs[1]++
				} else if state == 2 {
					if a.isAlignRatio(runs) {
						if confirmed := a.tryCenter(runs, i, j); confirmed != nil {
							return confirmed
						}
					}
					runs[0] = runs[2]
					runs[1] = 1
					runs[2] = 0
					state = 1
				} else {
					state++
					runs[state]++
				}
			} else {
				if state == 1 {
					state++
				}
				runs[state]++
			}
			j++
		}
		if a.isAlignRatio(runs) {
			if confirmed := a.tryCenter(runs, i, maxJ); confirmed != nil {
				return confirmed
			}
		}
	}

	if len(a.candidates) > 0 {
		return a.candidates[0]
	}
	return nil
}

func (a *alignScan) isAlignRatio(runs [3]int) bool {
	maxVariance := a.moduleSize / 2.0
	for i := 0; i < 3; i++ {
		if math.Abs(a.moduleSize-float64(runs[i])) >= maxVariance {
			return false
		}
	}
	return true
}

func (a *alignScan) crossCheckVertical(startI, centerJ, maxCount, originalTotal int) float64 {
	maxI := a.image.Height()
	runs := &a.crossRuns
	*runs = [3]int{}

	i := startI
	for i >= 0 && a.image.At(centerJ, i) && runs[1] <= maxCount {
		runs[1]++
		i--
	}
	if i < 0 || runs[1] > maxCount {
		return math.NaN()
	}
	for i >= 0 && !a.image.At(centerJ, i) && runs[0] <= maxCount {
		runs[0]++
		i--
	}
	if runs[0] > maxCount {
		return math.NaN()
	}

	i = startI + 1
	for i < maxI && a.image.At(centerJ, i) && runs[1] <= maxCount {
		runs[1]++
		i++
	}
	if i == maxI || runs[1] > maxCount {
		return math.NaN()
	}
	for i < maxI && !a.image.At(centerJ, i) && runs[2] <= maxCount {
		runs[2]++
		i++
	}
	if runs[2] > maxCount {
		return math.NaN()
	}

	total := runs[0] + runs[1] + runs[2]
	if 5*intAbs(total-originalTotal) >= 2*originalTotal {
		return math.NaN()
	}
	if a.isAlignRatio(*runs) {
		return float64(i-runs[2]) - float64(runs[1])/2.0
	}
	return math.NaN()
}

func (a *alignScan) tryCenter(runs [3]int, i, j int) *AlignmentPattern {
	total := runs[0] + runs[1] + runs[2]
	centerJ := float64(j-runs[2]) - float64(runs[1])/2.0
	centerI := a.crossCheckVertical(i, int(centerJ), 2*runs[1], total)
	if math.IsNaN(centerI) {
		return nil
	}
	moduleSize := float64(total) / 3.0
	for _, center := range a.candidates {
		if center.near(moduleSize, centerI, centerJ) {
			return center.merge(centerI, centerJ, moduleSize)
		}
	}
	a.candidates = append(a.candidates, &AlignmentPattern{
		X: centerJ, Y: centerI, ModuleSize: moduleSize,
	})
	return nil
}

// Detector locates a QR symbol in a binary image and samples its modules.
type Detector struct {
	image  *bitvec.Matrix
	notify func(gridscan.Point)
}

// NewDetector returns a Detector over the given binary image.
func NewDetector(image *bitvec.Matrix) *Detector {
	return &Detector{image: image}
}

// SetPointCallback installs a callback invoked for each confirmed anchor.
func (d *Detector) SetPointCallback(notify func(gridscan.Point)) {
	d.notify = notify
}

// Detect locates one QR symbol and returns the sampled module grid.
func (d *Detector) Detect(tryHarder bool) (*internal.DetectorResult, error) {
	scan := &finderScan{image: d.image, notify: d.notify}
	triple, err := scan.find(tryHarder)
	if err != nil {
		return nil, err
	}
	return d.processTriple(triple)
}

func (d *Detector) processTriple(triple *finderTriple) (*internal.DetectorResult, error) {
	topLeft := triple.topLeft
	topRight := triple.topRight
	bottomLeft := triple.bottomLeft

	moduleSize := d.moduleSize(topLeft, topRight, bottomLeft)
	if moduleSize < 1.0 {
		return nil, gridscan.ErrNotFound
	}

	dimension := computeDimension(topLeft, topRight, bottomLeft, moduleSize)
	provisionalVersion, err := VersionForDimension(dimension)
	if err != nil {
		return nil, err
	}

	var alignment *AlignmentPattern
	if len(provisionalVersion.AlignCenters) > 0 {
		// Project the bottom-right corner, then pull one module inward
		// toward the top-left to predict the alignment center.
		bottomRightX := topRight.X - topLeft.X + bottomLeft.X
		bottomRightY := topRight.Y - topLeft.Y + bottomLeft.Y

		modulesBetween := provisionalVersion.Dimension() - 7
		correction := 1.0 - 3.0/float64(modulesBetween)
		estX := int(topLeft.X + correction*(bottomRightX-topLeft.X))
		estY := int(topLeft.Y + correction*(bottomRightY-topLeft.Y))

		for factor := 4; factor <= 16; factor <<= 1 {
			if ap := d.findAlignment(moduleSize, estX, estY, float64(factor)); ap != nil {
				alignment = ap
				break
			}
		}
	}

	h := buildTransform(topLeft, topRight, bottomLeft, alignment, dimension)
	grid, err := warp.Sample(d.image, dimension, dimension, h)
	if err != nil {
		return nil, err
	}

	points := []gridscan.Point{
		{X: bottomLeft.X, Y: bottomLeft.Y},
		{X: topLeft.X, Y: topLeft.Y},
		{X: topRight.X, Y: topRight.Y},
	}
	if alignment != nil {
		points = append(points, gridscan.Point{X: alignment.X, Y: alignment.Y})
	}
	return internal.NewDetectorResult(grid, points), nil
}

func computeDimension(topLeft, topRight, bottomLeft *FinderPattern, moduleSize float64) int {
	tltr := roundHalfUp(patternDistance(topLeft, topRight) / moduleSize)
	tlbl := roundHalfUp(patternDistance(topLeft, bottomLeft) / moduleSize)
	dimension := (tltr+tlbl)/2 + 7
	switch dimension & 0x03 {
	case 0:
		dimension++
	case 2:
		dimension--
	case 3:
		dimension -= 2
	}
	return dimension
}

func roundHalfUp(d float64) int {
	if d < 0 {
		return int(d - 0.5)
	}
	return int(d + 0.5)
}

func (d *Detector) moduleSize(topLeft, topRight, bottomLeft *FinderPattern) float64 {
	return (d.moduleSizeOneWay(topLeft, topRight) +
		d.moduleSizeOneWay(topLeft, bottomLeft)) / 2.0
}

func (d *Detector) moduleSizeOneWay(pattern, other *FinderPattern) float64 {
	est1 := d.darkLightDarkRunBothWays(int(pattern.X), int(pattern.Y), int(other.X), int(other.Y))
	est2 := d.darkLightDarkRunBothWays(int(other.X), int(other.Y), int(pattern.X), int(pattern.Y))
	if math.IsNaN(est1) {
		return est2 / 7.0
	}
	if math.IsNaN(est2) {
		return est1 / 7.0
	}
	return (est1 + est2) / 14.0
}

func (d *Detector) darkLightDarkRunBothWays(fromX, fromY, toX, toY int) float64 {
	result := d.darkLightDarkRun(fromX, fromY, toX, toY)

	scale := 1.0
	otherToX := fromX - (toX - fromX)
	if otherToX < 0 {
		scale = float64(fromX) / float64(fromX-otherToX)
		otherToX = 0
	} else if otherToX >= d.image.Width() {
		scale = float64(d.image.Width()-1-fromX) / float64(otherToX-fromX)
		otherToX = d.image.Width() - 1
	}
	otherToY := int(float64(fromY) - float64(toY-fromY)*scale)

	scale = 1.0
	if otherToY < 0 {
		scale = float64(fromY) / float64(fromY-otherToY)
		otherToY = 0
	} else if otherToY >= d.image.Height() {
		scale = float64(d.image.Height()-1-fromY) / float64(otherToY-fromY)
		otherToY = d.image.Height() - 1
	}
	otherToX = int(float64(fromX) + float64(otherToX-fromX)*scale)

	result += d.darkLightDarkRun(fromX, fromY, otherToX, otherToY)
	return result - 1.0
}

// darkLightDarkRun measures the distance along a Bresenham line until a
// black-white-black transition completes.
func (d *Detector) darkLightDarkRun(fromX, fromY, toX, toY int) float64 {
	steep := intAbs(toY-fromY) > intAbs(toX-fromX)
	if steep {
		fromX, fromY = fromY, fromX
		toX, toY = toY, toX
	}

	dx := intAbs(toX - fromX)
	dy := intAbs(toY - fromY)
	errAcc := -dx / 2
	xstep := 1
	if fromX > toX {
		xstep = -1
	}
	ystep := 1
	if fromY > toY {
		ystep = -1
	}

	state := 0
	xLimit := toX + xstep
	for x, y := fromX, fromY; x != xLimit; x += xstep {
		realX, realY := x, y
		if steep {
			realX, realY = y, x
		}

		if (state == 1) == d.image.At(realX, realY) {
			if state == 2 {
				return pixelDistance(x, y, fromX, fromY)
			}
			state++
		}

		errAcc += dy
		if errAcc > 0 {
			if y == toY {
				break
			}
			y += ystep
			errAcc -= dx
		}
	}

	if state == 2 {
		return pixelDistance(toX+xstep, toY, fromX, fromY)
	}
	return math.NaN()
}

func pixelDistance(x1, y1, x2, y2 int) float64 {
	dx := float64(x1 - x2)
	dy := float64(y1 - y2)
	return math.Sqrt(dx*dx + dy*dy)
}

func buildTransform(topLeft, topRight, bottomLeft *FinderPattern, alignment *AlignmentPattern, dimension int) *warp.Homography {
	dimMinusThree := float64(dimension) - 3.5
	var bottomRightX, bottomRightY, sourceBottomRightX, sourceBottomRightY float64

	if alignment != nil {
		bottomRightX = alignment.X
		bottomRightY = alignment.Y
		sourceBottomRightX = dimMinusThree - 3.0
		sourceBottomRightY = sourceBottomRightX
	} else {
		bottomRightX = (topRight.X - topLeft.X) + bottomLeft.X
		bottomRightY = (topRight.Y - topLeft.Y) + bottomLeft.Y
		sourceBottomRightX = dimMinusThree
		sourceBottomRightY = dimMinusThree
	}

	return warp.QuadToQuad(
		3.5, 3.5, dimMinusThree, 3.5, sourceBottomRightX, sourceBottomRightY, 3.5, dimMinusThree,
		topLeft.X, topLeft.Y, topRight.X, topRight.Y, bottomRightX, bottomRightY, bottomLeft.X, bottomLeft.Y,
	)
}

func (d *Detector) findAlignment(moduleSize float64, estX, estY int, allowanceFactor float64) *AlignmentPattern {
	allowance := int(allowanceFactor * moduleSize)
	left := maxInt(0, estX-allowance)
	right := minInt(d.image.Width()-1, estX+allowance)
	if float64(right-left) < moduleSize*3 {
		return nil
	}
	top := maxInt(0, estY-allowance)
	bottom := minInt(d.image.Height()-1, estY+allowance)
	if float64(bottom-top) < moduleSize*3 {
		return nil
	}

	scan := &alignScan{
		image:      d.image,
		startX:     left,
		startY:     top,
		width:      right - left,
		height:     bottom - top,
		moduleSize: moduleSize,
	}
	return scan.find()
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
