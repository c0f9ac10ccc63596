package gridscan

import (
	"fmt"

	"github.com/lkaramanov/gridscan/bitvec"
)

// ReaderFactory builds a Reader for one format. Format packages register
// factories from init so that importing a package enables its format.
type ReaderFactory func(opts *DecodeOptions) Reader

// WriterFactory builds a Writer for one format.
type WriterFactory func() Writer

var (
	readerFactories [numFormats]ReaderFactory
	writerFactories [numFormats]WriterFactory
)

// RegisterReader installs the reader factory for a format.
func RegisterReader(format Format, factory ReaderFactory) {
	readerFactories[format] = factory
}

// RegisterWriter installs the writer factory for a format.
func RegisterWriter(format Format, factory WriterFactory) {
	writerFactories[format] = factory
}

// buildReaders assembles the attempt list in the fixed format order,
// restricted by PossibleFormats when given.
func buildReaders(opts *DecodeOptions) []Reader {
	var readers []Reader
	if opts != nil && len(opts.PossibleFormats) > 0 {
		wanted := [numFormats]bool{}
		for _, f := range opts.PossibleFormats {
			if f >= 0 && f < numFormats {
				wanted[f] = true
			}
		}
		for f := Format(0); f < numFormats; f++ {
			if factory := readerFactories[f]; wanted[f] && factory != nil {
				readers = append(readers, factory(opts))
			}
		}
	}
	if len(readers) == 0 {
		for f := Format(0); f < numFormats; f++ {
			if factory := readerFactories[f]; factory != nil {
				readers = append(readers, factory(opts))
			}
		}
	}
	return readers
}

// MultiFormatReader tries every registered (or hinted) format in a fixed
// order and returns the first success. Per-format failures are swallowed;
// only after every attempt does it surface a single ErrNotFound.
type MultiFormatReader struct {
	readers []Reader
}

// NewMultiFormatReader returns an empty dispatcher; readers are built on
// first use from the options.
func NewMultiFormatReader() *MultiFormatReader {
	return &MultiFormatReader{}
}

// Decode attempts each format in order, then optionally repeats against the
// inverted image.
func (r *MultiFormatReader) Decode(image *Bitmap, opts *DecodeOptions) (*Result, error) {
	if r.readers == nil {
		r.readers = buildReaders(opts)
	}
	for _, reader := range r.readers {
		result, err := reader.Decode(image, opts)
		if err == nil {
			return result, nil
		}
	}
	if opts != nil && opts.AlsoInverted {
		// Flip the cached matrix in place and sweep again.
		if matrix, err := image.BlackMatrix(); err == nil {
			matrix.InvertAll()
			for _, reader := range r.readers {
				result, err := reader.Decode(image, opts)
				if err == nil {
					return result, nil
				}
			}
			matrix.InvertAll()
		}
	}
	return nil, ErrNotFound
}

// DecodeFormat attempts only the named format.
func (r *MultiFormatReader) DecodeFormat(image *Bitmap, format Format, opts *DecodeOptions) (*Result, error) {
	if opts == nil {
		opts = &DecodeOptions{}
	}
	opts.PossibleFormats = []Format{format}
	for _, reader := range buildReaders(opts) {
		result, err := reader.Decode(image, opts)
		if err == nil {
			return result, nil
		}
	}
	return nil, fmt.Errorf("no %s barcode found: %w", format, ErrNotFound)
}

// Reset drops the built reader list and resets each reader.
func (r *MultiFormatReader) Reset() {
	for _, reader := range r.readers {
		reader.Reset()
	}
	r.readers = nil
}

// MultiFormatWriter dispatches an encode to the registered format writer.
type MultiFormatWriter struct{}

// NewMultiFormatWriter returns a dispatcher over the registered writers.
func NewMultiFormatWriter() *MultiFormatWriter {
	return &MultiFormatWriter{}
}

// Encode renders contents in the given format.
func (w *MultiFormatWriter) Encode(contents string, format Format, width, height int, opts *EncodeOptions) (*bitvec.Matrix, error) {
	if format < 0 || format >= numFormats || writerFactories[format] == nil {
		return nil, fmt.Errorf("no writer for format %s: %w", format, ErrBadInput)
	}
	return writerFactories[format]().Encode(contents, format, width, height, opts)
}

// Decode is a convenience wrapper over a fresh MultiFormatReader.
func Decode(image *Bitmap, opts *DecodeOptions) (*Result, error) {
	return NewMultiFormatReader().Decode(image, opts)
}

// Encode is a convenience wrapper over a fresh MultiFormatWriter.
func Encode(contents string, format Format, width, height int, opts *EncodeOptions) (*bitvec.Matrix, error) {
	return NewMultiFormatWriter().Encode(contents, format, width, height, opts)
}
