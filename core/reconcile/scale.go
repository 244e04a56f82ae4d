package reconcile

import "math"

// Relative size scale shared by Text and Hyperlink.
const (
	SizeSmall          = -1
	SizeBody           = 0
	SizeEmphasis       = 1
	SizeStrong         = 2
	SizeStrongEmphasis = 3
)

// ClampSize saturates a relative size to the range every format can express.
func ClampSize(size int) int {
	if size < SizeSmall {
		return SizeSmall
	}
	if size > SizeStrongEmphasis {
		return SizeStrongEmphasis
	}
	return size
}

// Style is the font-class rendering of a relative size.
type Style struct {
	Bold   bool
	Italic bool
	Small  bool
}

// StyleOf maps a relative size onto bold, italic and small font classes:
//
//	<= -1  small
//	   0   regular
//	   1   italic
//	   2   bold
//	>= 3   bold italic
func StyleOf(size int) Style {
	switch ClampSize(size) {
	case SizeSmall:
		return Style{Small: true}
	case SizeEmphasis:
		return Style{Italic: true}
	case SizeStrong:
		return Style{Bold: true}
	case SizeStrongEmphasis:
		return Style{Bold: true, Italic: true}
	default:
		return Style{}
	}
}

// SizeOf is the inverse of StyleOf.
func SizeOf(s Style) int {
	switch {
	case s.Bold && s.Italic:
		return SizeStrongEmphasis
	case s.Bold:
		return SizeStrong
	case s.Italic:
		return SizeEmphasis
	case s.Small:
		return SizeSmall
	default:
		return SizeBody
	}
}

// Point sizes used by formats with absolute font sizes (rtf, docx, pdf).
const (
	BodyPoints  = 11.0
	SmallPoints = 9.0

	// HeadingThreshold is the smallest bold point size read back as a heading.
	HeadingThreshold = 11.5
)

// HeadingPoints holds the point size of heading levels 1 through 6.
var HeadingPoints = [MaxHeading]float64{24, 20, 17, 15, 13, 12}

// PointsForHeading returns the point size of a heading level, clamping it.
func PointsForHeading(level int) float64 {
	return HeadingPoints[ClampHeading(level)-1]
}

// PointsForSize returns the point size used for body text of a relative size.
func PointsForSize(size int) float64 {
	if StyleOf(size).Small {
		return SmallPoints
	}
	return BodyPoints
}

// HeadingForPoints maps a point size back to the nearest heading level. It
// reports false for sizes below HeadingThreshold.
func HeadingForPoints(pt float64) (int, bool) {
	if pt < HeadingThreshold {
		return 0, false
	}
	best, bestDist := 1, math.Inf(1)
	for i, hp := range HeadingPoints {
		if d := math.Abs(pt - hp); d < bestDist {
			best, bestDist = i+1, d
		}
	}
	return best, true
}

// SizeForRun maps a run's point size and weight back to a relative size.
func SizeForRun(pt float64, bold, italic bool) int {
	small := pt > 0 && pt < (SmallPoints+BodyPoints)/2
	return SizeOf(Style{Bold: bold, Italic: italic, Small: small})
}

// Page geometry units used by rtf and docx.
const (
	TwipsPerInch = 1440
	MMPerInch    = 25.4
)

// TwipsToMM converts twips to millimetres rounded to 0.1 mm.
func TwipsToMM(twips int) float64 {
	return math.Round(float64(twips)*MMPerInch/TwipsPerInch*10) / 10
}

// MMToTwips converts millimetres to whole twips.
func MMToTwips(mm float64) int {
	return int(math.Round(mm * TwipsPerInch / MMPerInch))
}
