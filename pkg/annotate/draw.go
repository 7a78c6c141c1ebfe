// Package annotate draws detections onto frames, saves screenshots and
// produces the downscaled dashboard preview.
package annotate

import (
	"fmt"
	"image"
	"image/color"

	"github.com/teslashibe/go-polrov/pkg/distance"
	"gocv.io/x/gocv"
)

var (
	boxColor  = color.RGBA{0, 255, 0, 0}
	textColor = color.RGBA{12, 255, 36, 0}
	hudColor  = color.RGBA{150, 150, 150, 0}
)

// Item is one detection as it is drawn.
type Item struct {
	Box        image.Rectangle
	Label      string
	Confidence float64
	Distance   distance.Estimate
}

// Text is the caption drawn above the box. The width is the full box
// width, including any part outside the frame.
func (it Item) Text() string {
	return fmt.Sprintf("%s | %.2f | w:%dpx | d:%s", it.Label, it.Confidence, it.Box.Dx(), it.Distance)
}

// HUD is the status line in the top-left corner.
type HUD struct {
	FPS         float64
	Screenshots bool
	Mode        string
}

// Text renders the status line.
func (h HUD) Text() string {
	status := "Screenshot: OFF"
	if h.Screenshots {
		status = "Screenshot: ON"
	}
	if h.Mode == "" {
		return fmt.Sprintf("FPS: %.2f | %s", h.FPS, status)
	}
	return fmt.Sprintf("FPS: %.2f | %s | %s", h.FPS, status, h.Mode)
}

// Draw annotates img in place. Boxes are clipped to the frame for drawing.
func Draw(img *gocv.Mat, items []Item, hud HUD) {
	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	for _, it := range items {
		box := it.Box.Intersect(bounds)
		if box.Empty() {
			continue
		}
		gocv.Rectangle(img, box, boxColor, 2)
		gocv.PutText(img, it.Text(), captionAt(box), gocv.FontHersheySimplex, 0.6, textColor, 2)
	}
	gocv.PutText(img, hud.Text(), image.Pt(10, 30), gocv.FontHersheySimplex, 0.5, hudColor, 2)
}

func captionAt(box image.Rectangle) image.Point {
	return image.Pt(box.Min.X, max(box.Min.Y-10, 12))
}
