package detection

import (
	"fmt"
	"image"
	"math"
)

// Letterbox describes how a source frame was scaled and padded to fit the
// model input while keeping its aspect ratio.
type Letterbox struct {
	Ratio                    float64 // model pixels per source pixel
	Width, Height            int     // scaled size before padding
	Top, Bottom, Left, Right int     // padding in model pixels
}

// NewLetterbox computes the transform from a srcW x srcH frame to a
// dstW x dstH model input.
func NewLetterbox(srcW, srcH, dstW, dstH int) Letterbox {
	r := math.Min(float64(dstH)/float64(srcH), float64(dstW)/float64(srcW))
	w := int(math.Round(float64(srcW) * r))
	h := int(math.Round(float64(srcH) * r))
	dw := float64(dstW-w) / 2
	dh := float64(dstH-h) / 2
	return Letterbox{
		Ratio:  r,
		Width:  w,
		Height: h,
		Top:    int(math.Round(dh - 0.1)),
		Bottom: int(math.Round(dh + 0.1)),
		Left:   int(math.Round(dw - 0.1)),
		Right:  int(math.Round(dw + 0.1)),
	}
}

// ToSource maps a center-format box in model pixels back to a source rectangle.
func (l Letterbox) ToSource(cx, cy, w, h float64) image.Rectangle {
	x1 := (cx - w/2 - float64(l.Left)) / l.Ratio
	y1 := (cy - h/2 - float64(l.Top)) / l.Ratio
	x2 := (cx + w/2 - float64(l.Left)) / l.Ratio
	y2 := (cy + h/2 - float64(l.Top)) / l.Ratio
	return image.Rect(int(math.Round(x1)), int(math.Round(y1)), int(math.Round(x2)), int(math.Round(y2)))
}

// Candidate is a decoded box before non-maximum suppression.
type Candidate struct {
	Box     image.Rectangle
	Score   float32
	ClassID int
}

// DecodeOutput parses a YOLOv8-style head: shape [1, 4+classes, anchors],
// rows cx, cy, w, h followed by one score per class. When transposed is
// true the layout is [1, anchors, 4+classes].
func DecodeOutput(data []float32, attrs, anchors int, transposed bool, minScore float32, lb Letterbox) ([]Candidate, error) {
	if attrs < 5 || anchors <= 0 {
		return nil, fmt.Errorf("unexpected output shape: attrs=%d anchors=%d", attrs, anchors)
	}
	if len(data) < attrs*anchors {
		return nil, fmt.Errorf("output has %d values, want %d", len(data), attrs*anchors)
	}

	at := func(attr, i int) float32 {
		if transposed {
			return data[i*attrs+attr]
		}
		return data[attr*anchors+i]
	}

	var out []Candidate
	for i := 0; i < anchors; i++ {
		maxScore := float32(0)
		classID := 0
		for c := 4; c < attrs; c++ {
			if s := at(c, i); s > maxScore {
				maxScore = s
				classID = c - 4
			}
		}
		if maxScore < minScore {
			continue
		}
		box := lb.ToSource(float64(at(0, i)), float64(at(1, i)), float64(at(2, i)), float64(at(3, i)))
		out = append(out, Candidate{Box: box, Score: maxScore, ClassID: classID})
	}
	return out, nil
}

// Select turns the candidates kept by NMS into labelled detections.
// Out-of-range indices are ignored.
func Select(cands []Candidate, keep []int, meta *Metadata) []Detection {
	dets := make([]Detection, 0, len(keep))
	for _, idx := range keep {
		if idx < 0 || idx >= len(cands) {
			continue
		}
		c := cands[idx]
		dets = append(dets, Detection{
			Label:      meta.Label(c.ClassID),
			ClassID:    c.ClassID,
			Confidence: float64(c.Score),
			Box:        c.Box,
		})
	}
	return dets
}
