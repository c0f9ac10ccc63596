package qr

import (
	"math"
	"sort"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
	"github.com/lkaramanov/gridscan/internal"
)

const (
	multiMaxModulesPerEdge = 180.0
	multiMinModulesPerEdge = 9.0
	multiModSizeCutoffPct  = 0.05
	multiModSizeCutoff     = 0.5
)

// DetectMulti finds every QR symbol whose finder triple survives the
// geometric screens.
func DetectMulti(image *bitvec.Matrix, tryHarder bool) ([]*internal.DetectorResult, error) {
	scan := &finderScan{image: image}
	triples, err := findAllTriples(scan, tryHarder)
	if err != nil {
		return nil, err
	}

	detector := NewDetector(image)
	var results []*internal.DetectorResult
	for _, triple := range triples {
		if result, err := detector.processTriple(triple); err == nil {
			results = append(results, result)
		}
	}
	if len(results) == 0 {
		return nil, gridscan.ErrNotFound
	}
	return results, nil
}

func findAllTriples(f *finderScan, tryHarder bool) ([]*finderTriple, error) {
	image := f.image
	maxI := image.Height()
	maxJ := image.Width()

	iSkip := (3 * maxI) / (4 * maxModules)
	if iSkip < minRowSkip || tryHarder {
		iSkip = minRowSkip
	}

	runs := [5]int{}
	for i := iSkip - 1; i < maxI; i += iSkip {
		runs = [5]int{}
		state := 0
		for j := 0; j < maxJ; j++ {
			if image.At(j, i) {
				if state&1 == 1 {
					state++
				}
				runs[state]++
			} else if state&1 == 0 {
				if state == 4 {
					if isFinderRatio(runs) && f.tryCenter(runs, i, j) {
						state = 0
						runs = [5]int{}
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
		if isFinderRatio(runs) {
			f.tryCenter(runs, i, maxJ)
		}
	}

	groups, err := groupCompatibleCenters(f.candidates)
	if err != nil {
		return nil, err
	}

	var triples []*finderTriple
	for _, group := range groups {
		triples = append(triples, orderTriple(group[:]))
	}
	if len(triples) == 0 {
		return nil, gridscan.ErrNotFound
	}
	return triples, nil
}

// groupCompatibleCenters partitions confirmed centers into triples with
// matching module sizes and square geometry.
func groupCompatibleCenters(candidates []*FinderPattern) ([][3]*FinderPattern, error) {
	var confirmed []*FinderPattern
	for _, fp := range candidates {
		if fp.Confirms >= 2 {
			confirmed = append(confirmed, fp)
		}
	}
	size := len(confirmed)
	if size < 3 {
		return nil, gridscan.ErrNotFound
	}
	if size == 3 {
		return [][3]*FinderPattern{{confirmed[0], confirmed[1], confirmed[2]}}, nil
	}

	sort.Slice(confirmed, func(i, j int) bool {
		return confirmed[j].ModuleSize < confirmed[i].ModuleSize
	})

	var groups [][3]*FinderPattern
	for i1 := 0; i1 < size-2; i1++ {
		p1 := confirmed[i1]
		for i2 := i1 + 1; i2 < size-1; i2++ {
			p2 := confirmed[i2]
			diff12 := math.Abs(p1.ModuleSize - p2.ModuleSize)
			rel12 := diff12 / math.Min(p1.ModuleSize, p2.ModuleSize)
			if diff12 > multiModSizeCutoff && rel12 >= multiModSizeCutoffPct {
				break
			}
			for i3 := i2 + 1; i3 < size; i3++ {
				p3 := confirmed[i3]
				diff23 := math.Abs(p2.ModuleSize - p3.ModuleSize)
				rel23 := diff23 / math.Min(p2.ModuleSize, p3.ModuleSize)
				if diff23 > multiModSizeCutoff && rel23 >= multiModSizeCutoffPct {
					break
				}

				test := [3]*FinderPattern{p1, p2, p3}
				ordered := orderTriple(test[:])

				dA := patternDistance(ordered.topLeft, ordered.bottomLeft)
				dC := patternDistance(ordered.topRight, ordered.bottomLeft)
				dB := patternDistance(ordered.topLeft, ordered.topRight)

				estimatedModules := (dA + dB) / (p1.ModuleSize * 2.0)
				if estimatedModules > multiMaxModulesPerEdge || estimatedModules < multiMinModulesPerEdge {
					continue
				}
				if math.Abs((dA-dB)/math.Min(dA, dB)) >= 0.1 {
					continue
				}
				hypotenuse := math.Sqrt(dA*dA + dB*dB)
				if math.Abs((dC-hypotenuse)/math.Min(dC, hypotenuse)) >= 0.1 {
					continue
				}
				groups = append(groups, test)
			}
		}
	}
	if len(groups) == 0 {
		return nil, gridscan.ErrNotFound
	}
	return groups, nil
}
