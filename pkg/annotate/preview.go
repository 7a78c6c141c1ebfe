package annotate

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// Preview downsizes frames and encodes them as JPEG for the dashboard.
type Preview struct {
	MaxWidth int
	Quality  int
}

// DefaultPreview returns 640px wide previews at quality 70.
func DefaultPreview() Preview {
	return Preview{MaxWidth: 640, Quality: 70}
}

// Encode converts a BGR Mat into a preview JPEG.
func (p Preview) Encode(img gocv.Mat) ([]byte, error) {
	src, err := img.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return p.EncodeImage(src)
}

// EncodeImage resizes src to MaxWidth, keeping aspect, and encodes it.
func (p Preview) EncodeImage(src image.Image) ([]byte, error) {
	if p.MaxWidth > 0 && src.Bounds().Dx() > p.MaxWidth {
		src = imaging.Resize(src, p.MaxWidth, 0, imaging.Linear)
	}
	q := p.Quality
	if q <= 0 || q > 100 {
		q = 70
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}
