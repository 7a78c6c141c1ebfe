// Package distance estimates how far away a detected object is from the
// width of its bounding box, using a per-class pinhole calibration.
package distance

import "strings"

// Class is an object class the vehicle knows how to reason about.
// Labels reported by the detector that have no mapping become ClassUnknown.
type Class int

const (
	ClassUnknown Class = iota
	ClassCylinder
	ClassGate
)

// KnownClasses lists every class that must carry a calibration entry.
var KnownClasses = []Class{ClassCylinder, ClassGate}

// String returns the detector label for the class.
func (c Class) String() string {
	switch c {
	case ClassCylinder:
		return "Cylinder"
	case ClassGate:
		return "Gate"
	default:
		return "Unknown"
	}
}

// ParseClass maps a detector label to a Class.
// Matching ignores case and surrounding whitespace.
func ParseClass(label string) Class {
	label = strings.TrimSpace(label)
	for _, c := range KnownClasses {
		if strings.EqualFold(label, c.String()) {
			return c
		}
	}
	return ClassUnknown
}

// MarshalText implements encoding.TextMarshaler so classes render by name in JSON.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
