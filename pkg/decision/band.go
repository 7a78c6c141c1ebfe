package decision

import (
	"fmt"
	"math"
	"strings"
)

// BandKind selects how a Band matches a distance.
type BandKind int

const (
	// BandAtMost matches distance <= Threshold.
	BandAtMost BandKind = iota
	// BandWithinTolerance matches |distance - Target| <= Tolerance.
	BandWithinTolerance
	// BandPresence matches any confident detection, with or without a distance.
	BandPresence
)

// String returns the YAML name of the band kind.
func (k BandKind) String() string {
	switch k {
	case BandWithinTolerance:
		return "within_tolerance"
	case BandPresence:
		return "presence"
	default:
		return "at_most"
	}
}

// ParseBandKind resolves a band kind name.
func ParseBandKind(s string) (BandKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "at_most", "close":
		return BandAtMost, nil
	case "within_tolerance", "away":
		return BandWithinTolerance, nil
	case "presence":
		return BandPresence, nil
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidBand, s)
}

// Band is a predicate over an estimated distance in centimetres.
type Band struct {
	Kind      BandKind
	Threshold float64
	Target    float64
	Tolerance float64
}

// AtMost matches distances up to and including threshold.
func AtMost(threshold float64) Band {
	return Band{Kind: BandAtMost, Threshold: threshold}
}

// WithinTolerance matches distances within tolerance of target, inclusive.
func WithinTolerance(target, tolerance float64) Band {
	return Band{Kind: BandWithinTolerance, Target: target, Tolerance: tolerance}
}

// Presence matches regardless of distance.
func Presence() Band {
	return Band{Kind: BandPresence}
}

// Matches evaluates the band. Distance bands never match an unknown distance.
func (b Band) Matches(cm float64, known bool) bool {
	if b.Kind == BandPresence {
		return true
	}
	if !known || math.IsNaN(cm) || math.IsInf(cm, 0) {
		return false
	}
	switch b.Kind {
	case BandAtMost:
		return cm <= b.Threshold
	case BandWithinTolerance:
		return math.Abs(cm-b.Target) <= b.Tolerance
	}
	return false
}

// Validate checks the band parameters.
func (b Band) Validate() error {
	switch b.Kind {
	case BandAtMost:
		if !(b.Threshold > 0) || math.IsInf(b.Threshold, 0) {
			return fmt.Errorf("%w: at_most threshold %v", ErrInvalidBand, b.Threshold)
		}
	case BandWithinTolerance:
		if !(b.Target > 0) || math.IsInf(b.Target, 0) {
			return fmt.Errorf("%w: target %v", ErrInvalidBand, b.Target)
		}
		if !(b.Tolerance >= 0) || math.IsInf(b.Tolerance, 0) {
			return fmt.Errorf("%w: tolerance %v", ErrInvalidBand, b.Tolerance)
		}
	case BandPresence:
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidBand, b.Kind)
	}
	return nil
}

// String describes the band for logs.
func (b Band) String() string {
	switch b.Kind {
	case BandAtMost:
		return fmt.Sprintf("d<=%.0fcm", b.Threshold)
	case BandWithinTolerance:
		return fmt.Sprintf("|d-%.0f|<=%.0fcm", b.Target, b.Tolerance)
	case BandPresence:
		return "presence"
	}
	return "invalid"
}
