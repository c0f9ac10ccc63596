package gridscan

import (
	"math"
	"time"
)

// Point is a location of interest in the original image, such as a finder
// center or symbol corner.
type Point struct {
	X, Y float64
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Sqrt((a.X-b.X)*(a.X-b.X) + (a.Y-b.Y)*(a.Y-b.Y))
}

// crossProductZ is the z component of (b-a) x (c-a).
func crossProductZ(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// OrderPatterns returns three finder centers as A, B, C: A is the point
// opposite the longest side (the right-angle vertex), and B and C are
// ordered so that the z component of (B-A) x (C-A) is not negative.
func OrderPatterns(patterns [3]Point) [3]Point {
	d01 := Distance(patterns[0], patterns[1])
	d12 := Distance(patterns[1], patterns[2])
	d02 := Distance(patterns[0], patterns[2])

	var a, b, c Point
	switch {
	case d12 >= d01 && d12 >= d02:
		a, b, c = patterns[0], patterns[1], patterns[2]
	case d02 >= d01 && d02 >= d12:
		a, b, c = patterns[1], patterns[0], patterns[2]
	default:
		a, b, c = patterns[2], patterns[0], patterns[1]
	}

	if crossProductZ(a, b, c) < 0 {
		b, c = c, b
	}
	return [3]Point{a, b, c}
}

// MetadataKey identifies a kind of supplemental result information.
type MetadataKey int

const (
	KeyOther MetadataKey = iota
	KeyOrientation
	KeyMirrored
	KeyByteSegments
	KeyErrorCorrectionLevel
	KeyErrorsCorrected
	KeyErasuresCorrected
	KeyIssueNumber
	KeySuggestedPrice
	KeyPossibleCountry
	KeyUPCEANExtension
	KeyPDF417Extra
	KeyStructuredAppendSequence
	KeyStructuredAppendParity
	KeySymbologyIdentifier
)

// Result is the outcome of a successful decode.
type Result struct {
	Text      string
	RawBytes  []byte
	NumBits   int
	Points    []Point
	Format    Format
	Metadata  map[MetadataKey]interface{}
	Timestamp time.Time
}

// NewResult builds a Result for the given payload.
func NewResult(text string, rawBytes []byte, points []Point, format Format) *Result {
	numBits := 0
	if rawBytes != nil {
		numBits = 8 * len(rawBytes)
	}
	return &Result{
		Text:      text,
		RawBytes:  rawBytes,
		NumBits:   numBits,
		Points:    points,
		Format:    format,
		Metadata:  make(map[MetadataKey]interface{}),
		Timestamp: time.Now(),
	}
}

// PutMetadata records one metadata entry.
func (r *Result) PutMetadata(key MetadataKey, value interface{}) {
	r.Metadata[key] = value
}

// PutAllMetadata merges the metadata of another result into this one.
func (r *Result) PutAllMetadata(metadata map[MetadataKey]interface{}) {
	for k, v := range metadata {
		r.Metadata[k] = v
	}
}

// AddPoints appends further points of interest.
func (r *Result) AddPoints(points []Point) {
	r.Points = append(r.Points, points...)
}
