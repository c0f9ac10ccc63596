package aztec

import (
	"fmt"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

// Code widths per mode; digit codes are 4 bits, the rest 5.
var modeCodeBits = [5]int{5, 5, 5, 4, 5}

// encodeMap maps each byte to its code in each mode, -1 when absent.
var encodeMap [256][5]int

func init() {
	for i := range encodeMap {
		for j := range encodeMap[i] {
			encodeMap[i][j] = -1
		}
	}

	encodeMap[' '][modeUpper] = 1
	for c := byte('A'); c <= 'Z'; c++ {
		encodeMap[c][modeUpper] = int(c-'A') + 2
	}

	encodeMap[' '][modeLower] = 1
	for c := byte('a'); c <= 'z'; c++ {
		encodeMap[c][modeLower] = int(c-'a') + 2
	}

	encodeMap[' '][modeMixed] = 1
	for c := byte(1); c <= 13; c++ {
		encodeMap[c][modeMixed] = int(c) + 1
	}
	encodeMap[0x1B][modeMixed] = 15
	encodeMap[0x1C][modeMixed] = 16
	encodeMap[0x1D][modeMixed] = 17
	encodeMap[0x1E][modeMixed] = 18
	encodeMap[0x1F][modeMixed] = 19
	encodeMap['@'][modeMixed] = 20
	encodeMap['\\'][modeMixed] = 21
	encodeMap['^'][modeMixed] = 22
	encodeMap['_'][modeMixed] = 23
	encodeMap['`'][modeMixed] = 24
	encodeMap['|'][modeMixed] = 25
	encodeMap['~'][modeMixed] = 26
	encodeMap[0x7F][modeMixed] = 27

	encodeMap[' '][modeDigit] = 1
	for c := byte('0'); c <= '9'; c++ {
		encodeMap[c][modeDigit] = int(c-'0') + 2
	}
	encodeMap[','][modeDigit] = 12
	encodeMap['.'][modeDigit] = 13

	encodeMap['\r'][modePunct] = 1
	singlePunct := []byte{
		'!', '"', '#', '$', '%', '&', '\'', '(', ')', '*', '+', ',',
		'-', '.', '/', ':', ';', '<', '=', '>', '?', '[', ']', '{',
	}
	for idx, c := range singlePunct {
		encodeMap[c][modePunct] = idx + 6
	}
	encodeMap['}'][modePunct] = 30
}

// punctPairCodes holds the two-character punct entries.
var punctPairCodes = map[[2]byte]int{
	{'\r', '\n'}: 2,
	{'.', ' '}:   3,
	{',', ' '}:   4,
	{':', ' '}:   5,
}

// latchStep emits one code at the width of the mode it is issued from.
type latchStep struct {
	fromMode int
	code     int
}

// latchPath gives the code sequence latching between two modes.
func latchPath(from, to int) []latchStep {
	if from == to {
		return nil
	}
	switch from {
	case modeUpper:
		switch to {
		case modeLower:
			return []latchStep{{modeUpper, 28}}
		case modeMixed:
			return []latchStep{{modeUpper, 29}}
		case modeDigit:
			return []latchStep{{modeUpper, 30}}
		case modePunct:
			return []latchStep{{modeUpper, 29}, {modeMixed, 28}}
		}
	case modeLower:
		switch to {
		case modeUpper:
			return []latchStep{{modeLower, 29}, {modeMixed, 29}}
		case modeMixed:
			return []latchStep{{modeLower, 29}}
		case modeDigit:
			return []latchStep{{modeLower, 30}}
		case modePunct:
			return []latchStep{{modeLower, 29}, {modeMixed, 28}}
		}
	case modeMixed:
		switch to {
		case modeUpper:
			return []latchStep{{modeMixed, 29}}
		case modeLower:
			return []latchStep{{modeMixed, 29}, {modeUpper, 28}}
		case modeDigit:
			return []latchStep{{modeMixed, 29}, {modeUpper, 30}}
		case modePunct:
			return []latchStep{{modeMixed, 28}}
		}
	case modeDigit:
		switch to {
		case modeUpper:
			return []latchStep{{modeDigit, 14}}
		case modeLower:
			return []latchStep{{modeDigit, 14}, {modeUpper, 28}}
		case modeMixed:
			return []latchStep{{modeDigit, 14}, {modeUpper, 29}}
		case modePunct:
			return []latchStep{{modeDigit, 14}, {modeUpper, 29}, {modeMixed, 28}}
		}
	case modePunct:
		switch to {
		case modeUpper:
			return []latchStep{{modePunct, 31}}
		case modeLower:
			return []latchStep{{modePunct, 31}, {modeUpper, 28}}
		case modeMixed:
			return []latchStep{{modePunct, 31}, {modeUpper, 29}}
		case modeDigit:
			return []latchStep{{modePunct, 31}, {modeUpper, 30}}
		}
	}
	return nil
}

// encodeHighLevel greedily encodes data starting in upper mode.
func encodeHighLevel(data []byte) (*bitvec.Vector, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", gridscan.ErrBadInput)
	}

	result := bitvec.NewVector(0)
	mode := modeUpper

	emitLatch := func(to int) {
		for _, step := range latchPath(mode, to) {
			result.AppendBits(uint32(step.code), modeCodeBits[step.fromMode])
		}
		mode = to
	}

	i := 0
	for i < len(data) {
		if i+1 < len(data) {
			pair := [2]byte{data[i], data[i+1]}
			if pairCode, ok := punctPairCodes[pair]; ok {
				if mode != modePunct {
					emitLatch(modePunct)
				}
				result.AppendBits(uint32(pairCode), modeCodeBits[modePunct])
				i += 2
				continue
			}
		}

		b := data[i]
		if encodeMap[b][mode] != -1 {
			result.AppendBits(uint32(encodeMap[b][mode]), modeCodeBits[mode])
			i++
			continue
		}

		target := bestModeFor(b, mode)
		if target == -1 {
			// Binary shift; only reachable from upper, lower, mixed.
			if mode == modeDigit {
				result.AppendBits(14, modeCodeBits[modeDigit])
				mode = modeUpper
			} else if mode == modePunct {
				result.AppendBits(31, modeCodeBits[modePunct])
				mode = modeUpper
			}
			i = emitBinaryRun(result, data, i, mode)
			continue
		}

		if shiftAvailable(mode, target) && nextFitsCurrent(data, i, mode) {
			// Alpha shift: one character in upper, then back.
			if mode == modeLower {
				result.AppendBits(28, modeCodeBits[modeLower])
			} else {
				result.AppendBits(15, modeCodeBits[modeDigit])
			}
			result.AppendBits(uint32(encodeMap[b][target]), modeCodeBits[target])
		} else {
			emitLatch(target)
			result.AppendBits(uint32(encodeMap[b][mode]), modeCodeBits[mode])
		}
		i++
	}

	return result, nil
}

// bestModeFor picks the cheapest mode able to encode b from the current
// mode, or -1 when only binary shift can.
func bestModeFor(b byte, mode int) int {
	if encodeMap[b][mode] != -1 {
		return mode
	}
	preference := [5][]int{
		{modeLower, modeMixed, modeDigit, modePunct},
		{modeDigit, modeMixed, modeUpper, modePunct},
		{modeUpper, modePunct, modeLower, modeDigit},
		{modeUpper, modeLower, modeMixed, modePunct},
		{modeUpper, modeLower, modeMixed, modeDigit},
	}
	for _, m := range preference[mode] {
		if encodeMap[b][m] != -1 {
			return m
		}
	}
	return -1
}

// shiftAvailable: the only single-character shifts are to upper, from lower
// and digit.
func shiftAvailable(mode, target int) bool {
	return target == modeUpper && (mode == modeLower || mode == modeDigit)
}

// nextFitsCurrent prefers a shift when the following character stays in the
// current mode.
func nextFitsCurrent(data []byte, pos, mode int) bool {
	if pos+1 >= len(data) {
		return true
	}
	return encodeMap[data[pos+1]][mode] != -1
}

// emitBinaryRun writes a binary shift covering the run of unencodable bytes
// at pos, returning the index past the run.
func emitBinaryRun(bits *bitvec.Vector, data []byte, pos, mode int) int {
	start := pos
	for pos < len(data) && !anyModeFits(data[pos]) {
		pos++
	}
	if pos == start {
		pos = start + 1
	}
	count := pos - start
	if count > 2078 {
		count = 2078
		pos = start + count
	}

	bits.AppendBits(31, modeCodeBits[mode])
	if count <= 31 {
		bits.AppendBits(uint32(count), 5)
	} else {
		bits.AppendBits(0, 5)
		bits.AppendBits(uint32(count-31), 11)
	}
	for j := start; j < start+count; j++ {
		bits.AppendBits(uint32(data[j]), 8)
	}
	return pos
}

func anyModeFits(b byte) bool {
	for m := 0; m < 5; m++ {
		if encodeMap[b][m] != -1 {
			return true
		}
	}
	return false
}
