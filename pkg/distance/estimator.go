package distance

import (
	"fmt"
	"math"
)

// Estimate is the distance derived for one detection.
// The distance is optional: zero-width boxes and uncalibrated classes
// produce an estimate with no distance rather than an error.
type Estimate struct {
	Class Class
	Label string

	cm    float64
	known bool
}

// Distance returns the estimated distance in centimetres and whether it is known.
func (e Estimate) Distance() (float64, bool) {
	return e.cm, e.known
}

// Known reports whether a distance could be computed.
func (e Estimate) Known() bool {
	return e.known
}

// String formats the distance for overlays and logs.
func (e Estimate) String() string {
	if !e.known {
		return "Unknown"
	}
	return fmt.Sprintf("%.1fcm", e.cm)
}

// Estimator converts pixel widths to distances with a fixed calibration table.
// It is safe for concurrent use; the table is copied at construction.
type Estimator struct {
	table Table
}

// NewEstimator validates and copies the table.
func NewEstimator(table Table) (*Estimator, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Estimator{table: table.Clone()}, nil
}

// Table returns a copy of the calibration in use.
func (e *Estimator) Table() Table {
	return e.table.Clone()
}

// Estimate resolves the label and estimates its distance.
func (e *Estimator) Estimate(label string, pixelWidth float64) Estimate {
	est := e.EstimateClass(ParseClass(label), pixelWidth)
	est.Label = label
	return est
}

// EstimateClass applies distance = width_cm * focal_px / pixel_width.
func (e *Estimator) EstimateClass(class Class, pixelWidth float64) Estimate {
	est := Estimate{Class: class, Label: class.String()}

	if pixelWidth <= 0 || math.IsNaN(pixelWidth) || math.IsInf(pixelWidth, 0) {
		return est
	}
	cal, ok := e.table[class]
	if !ok {
		return est
	}

	d := cal.PhysicalWidthCM * cal.FocalLengthPX / pixelWidth
	if math.IsInf(d, 0) || math.IsNaN(d) {
		return est
	}
	est.cm = d
	est.known = true
	return est
}

// Known builds an estimate with a known distance.
// Used by callers that already hold a distance, e.g. replayed telemetry.
// Non-finite distances are treated as unknown.
func Known(class Class, cm float64) Estimate {
	if math.IsInf(cm, 0) || math.IsNaN(cm) {
		return Unknown(class)
	}
	return Estimate{Class: class, Label: class.String(), cm: cm, known: true}
}

// Unknown builds an estimate without a distance.
func Unknown(class Class) Estimate {
	return Estimate{Class: class, Label: class.String()}
}
