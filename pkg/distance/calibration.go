package distance

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for calibration problems. These are startup errors:
// a vehicle must not enter its control loop with a broken table.
var (
	// ErrMissingCalibration is returned when a known class has no entry.
	ErrMissingCalibration = errors.New("distance: missing calibration")

	// ErrInvalidCalibration is returned when an entry is not positive and finite.
	ErrInvalidCalibration = errors.New("distance: invalid calibration")
)

// Calibration pairs the real width of an object with the focal length
// fitted for it. The focal length is an empirical constant per class,
// not the optical focal length of the lens.
type Calibration struct {
	PhysicalWidthCM float64 `yaml:"width_cm" json:"width_cm"`
	FocalLengthPX   float64 `yaml:"focal_px" json:"focal_px"`
}

// Validate checks that both values are finite and strictly positive.
func (c Calibration) Validate() error {
	if !positiveFinite(c.PhysicalWidthCM) {
		return fmt.Errorf("%w: width %v cm", ErrInvalidCalibration, c.PhysicalWidthCM)
	}
	if !positiveFinite(c.FocalLengthPX) {
		return fmt.Errorf("%w: focal length %v px", ErrInvalidCalibration, c.FocalLengthPX)
	}
	return nil
}

// Table holds one calibration per class.
type Table map[Class]Calibration

// DefaultTable returns the calibration measured in the test pool.
func DefaultTable() Table {
	return Table{
		ClassCylinder: {PhysicalWidthCM: 32, FocalLengthPX: 712},
		ClassGate:     {PhysicalWidthCM: 86, FocalLengthPX: 686},
	}
}

// Validate ensures every known class has a usable entry.
func (t Table) Validate() error {
	for _, c := range KnownClasses {
		cal, ok := t[c]
		if !ok {
			return fmt.Errorf("%w for class %s", ErrMissingCalibration, c)
		}
		if err := cal.Validate(); err != nil {
			return fmt.Errorf("class %s: %w", c, err)
		}
	}
	if _, ok := t[ClassUnknown]; ok {
		return fmt.Errorf("%w: entry for unknown class", ErrInvalidCalibration)
	}
	return nil
}

// Clone returns an independent copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// FocalLength fits a focal length from one reference observation: an object
// of physicalWidthCM seen pixelWidth pixels wide at a known distance.
func FocalLength(pixelWidth, distanceCM, physicalWidthCM float64) (float64, error) {
	if !positiveFinite(pixelWidth) || !positiveFinite(distanceCM) || !positiveFinite(physicalWidthCM) {
		return 0, fmt.Errorf("%w: width=%vpx distance=%vcm physical=%vcm",
			ErrInvalidCalibration, pixelWidth, distanceCM, physicalWidthCM)
	}
	return pixelWidth * distanceCM / physicalWidthCM, nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
