// Command gridscan decodes barcodes from image files and renders barcodes
// to PNG. Extra default flags can be supplied through the GRIDSCAN_FLAGS
// environment variable.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log"
	"os"

	"github.com/google/shlex"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/binarize"
	"github.com/lkaramanov/gridscan/multi"
	"github.com/lkaramanov/gridscan/pdf417"

	// Register every format reader and writer.
	_ "github.com/lkaramanov/gridscan/aztec"
	_ "github.com/lkaramanov/gridscan/datamatrix"
	_ "github.com/lkaramanov/gridscan/maxicode"
	_ "github.com/lkaramanov/gridscan/oned"
	_ "github.com/lkaramanov/gridscan/qr"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("gridscan: ")

	args := os.Args[1:]
	if env := os.Getenv("GRIDSCAN_FLAGS"); env != "" {
		extra, err := shlex.Split(env)
		if err != nil {
			log.Fatalf("GRIDSCAN_FLAGS: %v", err)
		}
		args = append(extra, args...)
	}

	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "decode":
		os.Exit(runDecode(args[1:]))
	case "encode":
		os.Exit(runEncode(args[1:]))
	default:
		// Bare invocation decodes, matching the common case.
		os.Exit(runDecode(args))
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  gridscan decode [flags] <image-file>...
  gridscan encode -format FORMAT -out FILE [flags] <text>

Decode flags:
  -format F        restrict to one format (e.g. QR_CODE, EAN_13)
  -try-harder      spend more time looking for barcodes
  -pure            the image is a clean render with no scene around it
  -multi           report every barcode found
  -also-inverted   retry with inverted luminance
  -charset CS      byte-mode character set override

Encode flags:
  -format F        output format (required)
  -out FILE        output PNG path (required)
  -width N         minimum width in pixels
  -height N        minimum height in pixels
  -ec LEVEL        error correction level
`)
}

func runDecode(args []string) int {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	formatName := fs.String("format", "", "restrict to one format")
	tryHarder := fs.Bool("try-harder", false, "spend more time looking for barcodes")
	pure := fs.Bool("pure", false, "assume a clean barcode render")
	wantAll := fs.Bool("multi", false, "report every barcode found")
	alsoInverted := fs.Bool("also-inverted", false, "retry with inverted luminance")
	charset := fs.String("charset", "", "byte-mode character set override")
	fs.Parse(args)

	if fs.NArg() == 0 {
		usage()
		return 2
	}

	opts := &gridscan.DecodeOptions{
		TryHarder:    *tryHarder,
		PureBarcode:  *pure,
		AlsoInverted: *alsoInverted,
		CharacterSet: *charset,
	}
	if *formatName != "" {
		format, ok := gridscan.ParseFormat(*formatName)
		if !ok {
			log.Printf("unknown format %q", *formatName)
			return 2
		}
		opts.PossibleFormats = []gridscan.Format{format}
	}

	decodedAny := false
	for _, path := range fs.Args() {
		results, err := scanFile(path, opts, *wantAll)
		if err != nil {
			log.Printf("%s: %v", path, err)
			continue
		}
		for _, r := range results {
			decodedAny = true
			fmt.Printf("%s\t%s\n", r.Format, r.Text)
		}
	}
	if !decodedAny {
		return 1
	}
	return 0
}

func scanFile(path string, opts *gridscan.DecodeOptions, wantAll bool) ([]*gridscan.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	source := gridscan.LuminanceFromImage(img)

	// A clean render binarizes fine globally; photographs want the local
	// threshold. Try both.
	binarizers := []gridscan.Binarizer{
		binarize.NewGlobal(source),
		binarize.NewHybrid(source),
	}

	var lastErr error
	for _, b := range binarizers {
		bitmap := gridscan.NewBitmap(b)
		if wantAll {
			results, err := decodeAll(bitmap, opts)
			if err == nil {
				return results, nil
			}
			lastErr = err
			continue
		}
		result, err := safeDecode(bitmap, opts)
		if err == nil {
			return []*gridscan.Result{result}, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// wantsFormat reports whether the hint filter allows a format; an empty
// filter allows everything.
func wantsFormat(opts *gridscan.DecodeOptions, format gridscan.Format) bool {
	if opts == nil || len(opts.PossibleFormats) == 0 {
		return true
	}
	for _, f := range opts.PossibleFormats {
		if f == format {
			return true
		}
	}
	return false
}

// decodeAll runs the multiple-barcode readers: the QR multi detector, the
// PDF417 multi reader, and the generic quadrant splitter around the
// multi-format dispatcher.
func decodeAll(bitmap *gridscan.Bitmap, opts *gridscan.DecodeOptions) ([]*gridscan.Result, error) {
	var readers []gridscan.MultipleReader
	if wantsFormat(opts, gridscan.FormatQRCode) {
		readers = append(readers, multi.NewQRMultiReader())
	}
	if wantsFormat(opts, gridscan.FormatPDF417) {
		readers = append(readers, pdf417.NewReader())
	}
	readers = append(readers, multi.NewGenericReader(gridscan.NewMultiFormatReader()))

	var results []*gridscan.Result
	seen := map[string]bool{}
	for _, reader := range readers {
		found, err := safeDecodeMultiple(bitmap, reader, opts)
		if err != nil {
			continue
		}
		for _, r := range found {
			key := fmt.Sprintf("%s:%s", r.Format, r.Text)
			if !seen[key] {
				seen[key] = true
				results = append(results, r)
			}
		}
	}
	if len(results) == 0 {
		result, err := safeDecode(bitmap, opts)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// safeDecodeMultiple converts decoder panics on malformed input into errors.
func safeDecodeMultiple(bitmap *gridscan.Bitmap, reader gridscan.MultipleReader, opts *gridscan.DecodeOptions) (results []*gridscan.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return reader.DecodeMultiple(bitmap, opts)
}

// safeDecode converts decoder panics on malformed input into errors.
func safeDecode(bitmap *gridscan.Bitmap, opts *gridscan.DecodeOptions) (result *gridscan.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return gridscan.Decode(bitmap, opts)
}

func runEncode(args []string) int {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	formatName := fs.String("format", "", "output format")
	out := fs.String("out", "", "output PNG path")
	width := fs.Int("width", 0, "minimum width in pixels")
	height := fs.Int("height", 0, "minimum height in pixels")
	ecLevel := fs.String("ec", "", "error correction level")
	fs.Parse(args)

	if *formatName == "" || *out == "" || fs.NArg() != 1 {
		usage()
		return 2
	}
	format, ok := gridscan.ParseFormat(*formatName)
	if !ok {
		log.Printf("unknown format %q", *formatName)
		return 2
	}

	opts := &gridscan.EncodeOptions{ErrorCorrection: *ecLevel}
	matrix, err := gridscan.Encode(fs.Arg(0), format, *width, *height, opts)
	if err != nil {
		log.Printf("encode: %v", err)
		return 1
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Printf("%v", err)
		return 1
	}
	defer f.Close()
	if err := png.Encode(f, gridscan.RenderMatrix(matrix)); err != nil {
		log.Printf("write png: %v", err)
		return 1
	}
	return 0
}
