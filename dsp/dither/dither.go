// Package dither quantizes float samples to integer PCM with optional
// dither noise.
package dither

import (
	"fmt"
	"strings"
)

// DitherType selects the probability distribution used for dither noise.
type DitherType int

const (
	// DitherNone applies plain rounding.
	DitherNone DitherType = iota
	// DitherRectangular uses a uniform (rectangular) PDF of +-1 LSB.
	DitherRectangular
	// DitherTriangular uses a triangular PDF (TPDF), the most common choice.
	DitherTriangular

	ditherTypeCount
)

var ditherTypeNames = [ditherTypeCount]string{"None", "Rectangular", "Triangular"}

// String returns the name of the dither type.
func (dt DitherType) String() string {
	if dt.Valid() {
		return ditherTypeNames[dt]
	}

	return fmt.Sprintf("DitherType(%d)", int(dt))
}

// Valid reports whether dt is a known dither type.
func (dt DitherType) Valid() bool {
	return dt >= 0 && dt < ditherTypeCount
}

// ParseDitherType maps "none", "rect" or "tpdf" to a DitherType.
func ParseDitherType(s string) (DitherType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off":
		return DitherNone, nil
	case "rect", "rectangular", "rpdf":
		return DitherRectangular, nil
	case "", "tpdf", "triangular":
		return DitherTriangular, nil
	default:
		return DitherNone, fmt.Errorf("dither: unknown dither type %q", s)
	}
}
