// Package textcodec maps ECI character-set assignments to Go decoders and
// sniffs the encoding of byte segments that arrive without one.
package textcodec

import "errors"

// ErrBadECI indicates an ECI assignment number outside the character set
// range.
var ErrBadECI = errors.New("textcodec: invalid ECI value")

// CharsetECI is one Extended Channel Interpretation character-set entry.
type CharsetECI struct {
	Value   int
	Name    string
	Aliases []string
}

// Character-set ECIs used by the supported symbologies.
var (
	Cp437     = &CharsetECI{0, "Cp437", []string{"IBM437"}}
	ISO8859_1 = &CharsetECI{1, "ISO8859_1", []string{"ISO-8859-1"}}
	ISO8859_2 = &CharsetECI{4, "ISO8859_2", []string{"ISO-8859-2"}}
	ISO8859_3 = &CharsetECI{5, "ISO8859_3", []string{"ISO-8859-3"}}
	ISO8859_4 = &CharsetECI{6, "ISO8859_4", []string{"ISO-8859-4"}}
	ISO8859_5 = &CharsetECI{7, "ISO8859_5", []string{"ISO-8859-5"}}
	ISO8859_6 = &CharsetECI{8, "ISO8859_6", []string{"ISO-8859-6"}}
	ISO8859_7 = &CharsetECI{9, "ISO8859_7", []string{"ISO-8859-7"}}
	ISO8859_8 = &CharsetECI{10, "ISO8859_8", []string{"ISO-8859-8"}}
	ISO8859_9 = &CharsetECI{11, "ISO8859_9", []string{"ISO-8859-9"}}
	ISO8859_13 = &CharsetECI{15, "ISO8859_13", []string{"ISO-8859-13"}}
	ISO8859_15 = &CharsetECI{17, "ISO8859_15", []string{"ISO-8859-15"}}
	ISO8859_16 = &CharsetECI{18, "ISO8859_16", []string{"ISO-8859-16"}}
	ShiftJIS  = &CharsetECI{20, "SJIS", []string{"Shift_JIS"}}
	Cp1250    = &CharsetECI{21, "Cp1250", []string{"windows-1250"}}
	Cp1251    = &CharsetECI{22, "Cp1251", []string{"windows-1251"}}
	Cp1252    = &CharsetECI{23, "Cp1252", []string{"windows-1252"}}
	Cp1256    = &CharsetECI{24, "Cp1256", []string{"windows-1256"}}
	UTF16BE   = &CharsetECI{25, "UnicodeBigUnmarked", []string{"UTF-16BE", "UnicodeBig"}}
	UTF8      = &CharsetECI{26, "UTF8", []string{"UTF-8"}}
	ASCII     = &CharsetECI{27, "ASCII", []string{"US-ASCII"}}
	Big5      = &CharsetECI{28, "Big5", nil}
	GB18030   = &CharsetECI{29, "GB18030", []string{"GB2312", "EUC_CN", "GBK"}}
	EUCKR     = &CharsetECI{30, "EUC_KR", []string{"EUC-KR"}}
)

var (
	byValue map[int]*CharsetECI
	byName  map[string]*CharsetECI
)

func init() {
	byValue = make(map[int]*CharsetECI)
	byName = make(map[string]*CharsetECI)

	all := []*CharsetECI{
		Cp437, ISO8859_1, ISO8859_2, ISO8859_3, ISO8859_4, ISO8859_5,
		ISO8859_6, ISO8859_7, ISO8859_8, ISO8859_9, ISO8859_13,
		ISO8859_15, ISO8859_16, ShiftJIS, Cp1250, Cp1251, Cp1252,
		Cp1256, UTF16BE, UTF8, ASCII, Big5, GB18030, EUCKR,
	}

	// Some assignments have historical duplicate values.
	extraValues := map[*CharsetECI][]int{
		Cp437:     {0, 2},
		ISO8859_1: {1, 3},
		ASCII:     {27, 170},
	}

	for _, eci := range all {
		if values, ok := extraValues[eci]; ok {
			for _, v := range values {
				byValue[v] = eci
			}
		} else {
			byValue[eci.Value] = eci
		}
		byName[eci.Name] = eci
		for _, alias := range eci.Aliases {
			byName[alias] = eci
		}
	}
}

// ByValue resolves an ECI assignment number. The value must fall in the
// character-set range [0, 900); unassigned values resolve to nil.
func ByValue(value int) (*CharsetECI, error) {
	if value < 0 || value >= 900 {
		return nil, ErrBadECI
	}
	return byValue[value], nil
}

// ByName resolves a charset name or alias.
func ByName(name string) *CharsetECI {
	return byName[name]
}
