package multi

import (
	"fmt"
	"sort"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/qr"
)

// QRMultiReader decodes every QR symbol in the image and stitches
// structured append sets back together.
type QRMultiReader struct {
	decoder *qr.Decoder
}

// NewQRMultiReader returns a QR multi reader.
func NewQRMultiReader() *QRMultiReader {
	return &QRMultiReader{decoder: qr.NewDecoder()}
}

var _ gridscan.MultipleReader = (*QRMultiReader)(nil)

// DecodeMultiple finds and decodes every QR symbol.
func (r *QRMultiReader) DecodeMultiple(image *gridscan.Bitmap, opts *gridscan.DecodeOptions) ([]*gridscan.Result, error) {
	if opts == nil {
		opts = &gridscan.DecodeOptions{}
	}

	matrix, err := image.BlackMatrix()
	if err != nil {
		return nil, err
	}

	detections, err := qr.DetectMulti(matrix, opts.TryHarder)
	if err != nil {
		return nil, err
	}

	var results []*gridscan.Result
	for _, detection := range detections {
		decoded, mirrored, err := r.decoder.Decode(detection.Grid, opts.CharacterSet)
		if err != nil {
			continue
		}

		result := gridscan.NewResult(decoded.Text, decoded.RawBytes, detection.Points, gridscan.FormatQRCode)
		if decoded.ByteSegments != nil {
			result.PutMetadata(gridscan.KeyByteSegments, decoded.ByteSegments)
		}
		if decoded.ECLevel != "" {
			result.PutMetadata(gridscan.KeyErrorCorrectionLevel, decoded.ECLevel)
		}
		if decoded.HasStructuredAppend() {
			result.PutMetadata(gridscan.KeyStructuredAppendSequence, decoded.SASequence)
			result.PutMetadata(gridscan.KeyStructuredAppendParity, decoded.SAParity)
		}
		result.PutMetadata(gridscan.KeyErrorsCorrected, decoded.ErrorsCorrected)
		result.PutMetadata(gridscan.KeyMirrored, mirrored)
		result.PutMetadata(gridscan.KeySymbologyIdentifier, fmt.Sprintf("]Q%d", decoded.SymbologyModifier))
		results = append(results, result)
	}

	if len(results) == 0 {
		return nil, gridscan.ErrNotFound
	}
	return mergeStructuredAppend(results), nil
}

// Decode returns the first of the multiple results.
func (r *QRMultiReader) Decode(image *gridscan.Bitmap, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	results, err := r.DecodeMultiple(image, opts)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// Reset implements gridscan.Reader.
func (r *QRMultiReader) Reset() {}

// mergeStructuredAppend concatenates structured append segments in sequence
// order into one combined result, keeping standalone symbols as they are.
func mergeStructuredAppend(results []*gridscan.Result) []*gridscan.Result {
	var merged []*gridscan.Result
	var segments []*gridscan.Result

	for _, result := range results {
		if _, ok := result.Metadata[gridscan.KeyStructuredAppendSequence]; ok {
			segments = append(segments, result)
		} else {
			merged = append(merged, result)
		}
	}
	if len(segments) == 0 {
		return results
	}

	sort.Slice(segments, func(i, j int) bool {
		seqI, _ := segments[i].Metadata[gridscan.KeyStructuredAppendSequence].(int)
		seqJ, _ := segments[j].Metadata[gridscan.KeyStructuredAppendSequence].(int)
		return seqI < seqJ
	})

	var combinedText string
	var combinedRaw []byte
	var combinedSegments [][]byte
	var points []gridscan.Point
	for _, segment := range segments {
		combinedText += segment.Text
		combinedRaw = append(combinedRaw, segment.RawBytes...)
		if segs, ok := segment.Metadata[gridscan.KeyByteSegments].([][]byte); ok {
			combinedSegments = append(combinedSegments, segs...)
		}
		points = append(points, segment.Points...)
	}

	combined := gridscan.NewResult(combinedText, combinedRaw, points, gridscan.FormatQRCode)
	if len(combinedSegments) > 0 {
		combined.PutMetadata(gridscan.KeyByteSegments, combinedSegments)
	}
	combined.PutMetadata(gridscan.KeyStructuredAppendSequence, len(segments))
	return append(merged, combined)
}
