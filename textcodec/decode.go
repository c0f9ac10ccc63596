package textcodec

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decoders maps charset names onto x/text encodings. ASCII and UTF-8 are
// absent on purpose: their bytes pass through unchanged.
var decoders = map[string]encoding.Encoding{
	"ISO8859_1":  charmap.ISO8859_1,
	"ISO-8859-1": charmap.ISO8859_1,
	"Shift_JIS":    japanese.ShiftJIS,
	"SJIS":         japanese.ShiftJIS,
	"GB18030":      simplifiedchinese.GB18030,
	"GB2312":       simplifiedchinese.GB18030,
	"GBK":          simplifiedchinese.GB18030,
	"EUC_CN":       simplifiedchinese.GB18030,
	"Big5":         traditionalchinese.Big5,
	"EUC-KR":       korean.EUCKR,
	"EUC_KR":       korean.EUCKR,
	"Cp437":        charmap.CodePage437,
	"IBM437":       charmap.CodePage437,
	"ISO8859_2":    charmap.ISO8859_2,
	"ISO-8859-2":   charmap.ISO8859_2,
	"ISO8859_3":    charmap.ISO8859_3,
	"ISO-8859-3":   charmap.ISO8859_3,
	"ISO8859_4":    charmap.ISO8859_4,
	"ISO-8859-4":   charmap.ISO8859_4,
	"ISO8859_5":    charmap.ISO8859_5,
	"ISO-8859-5":   charmap.ISO8859_5,
	"ISO8859_6":    charmap.ISO8859_6,
	"ISO-8859-6":   charmap.ISO8859_6,
	"ISO8859_7":    charmap.ISO8859_7,
	"ISO-8859-7":   charmap.ISO8859_7,
	"ISO8859_8":    charmap.ISO8859_8,
	"ISO-8859-8":   charmap.ISO8859_8,
	"ISO8859_9":    charmap.ISO8859_9,
	"ISO-8859-9":   charmap.ISO8859_9,
	"ISO8859_13":   charmap.ISO8859_13,
	"ISO-8859-13":  charmap.ISO8859_13,
	"ISO8859_15":   charmap.ISO8859_15,
	"ISO-8859-15":  charmap.ISO8859_15,
	"ISO8859_16":   charmap.ISO8859_16,
	"ISO-8859-16":  charmap.ISO8859_16,
	"Cp1250":       charmap.Windows1250,
	"windows-1250": charmap.Windows1250,
	"Cp1251":       charmap.Windows1251,
	"windows-1251": charmap.Windows1251,
	"Cp1252":       charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"Cp1256":       charmap.Windows1256,
	"windows-1256": charmap.Windows1256,
	"UTF-16BE":     unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	"UTF-16":       unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
}

// Decode converts data from the named charset to a UTF-8 string. Unknown
// names and conversion failures fall back to the raw bytes.
func Decode(data []byte, charset string) string {
	enc, ok := decoders[charset]
	if !ok {
		return string(data)
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}
