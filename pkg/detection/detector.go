// Package detection holds the detector-facing types shared by the vehicle:
// pixel-space detections, model metadata and per-class selection.
// The OpenCV backed detector lives in the yolo subpackage.
package detection

import (
	"image"
	"math"

	"github.com/teslashibe/go-polrov/pkg/distance"
)

// Detection is one object found in a frame, in source-image pixels.
// Box is not clipped to the frame, so an object cut by the frame edge
// keeps its full estimated width.
type Detection struct {
	Label      string          `json:"label"`
	ClassID    int             `json:"class_id"`
	Confidence float64         `json:"confidence"`
	Box        image.Rectangle `json:"box"`
}

// PixelWidth returns the box width in pixels.
func (d Detection) PixelWidth() float64 {
	return float64(d.Box.Dx())
}

// Visible returns the part of the box inside bounds.
func (d Detection) Visible(bounds image.Rectangle) image.Rectangle {
	return d.Box.Intersect(bounds)
}

// Class maps the detector label to a known class.
func (d Detection) Class() distance.Class {
	return distance.ParseClass(d.Label)
}

// Center returns the center point of the box.
func (d Detection) Center() image.Point {
	return image.Pt(d.Box.Min.X+d.Box.Dx()/2, d.Box.Min.Y+d.Box.Dy()/2)
}

// Config holds detector configuration
type Config struct {
	ModelDir         string  `yaml:"model_dir"`  // Directory with the model and metadata.yaml
	ConfidenceThresh float64 `yaml:"confidence"` // Minimum score kept before NMS
	NMSThresh        float64 `yaml:"iou"`        // IoU threshold for NMS
	ModelFile        string  `yaml:"model_file"` // Model file name inside ModelDir
}

// DefaultConfig returns production defaults for the obstacle model
func DefaultConfig() Config {
	return Config{
		ModelDir:         "obstacle_model",
		ConfidenceThresh: 0.5,
		NMSThresh:        0.45,
		ModelFile:        "model.onnx",
	}
}

// BestPerClass picks the highest-confidence detection of each label.
// NaN confidences are skipped. Ties keep the first detection seen.
func BestPerClass(dets []Detection) map[string]Detection {
	best := make(map[string]Detection)
	for _, d := range dets {
		if math.IsNaN(d.Confidence) {
			continue
		}
		if cur, ok := best[d.Label]; !ok || d.Confidence > cur.Confidence {
			best[d.Label] = d
		}
	}
	return best
}

// FilterClass returns the detections carrying the given class.
func FilterClass(dets []Detection, class distance.Class) []Detection {
	var out []Detection
	for _, d := range dets {
		if d.Class() == class {
			out = append(out, d)
		}
	}
	return out
}
