package camera

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// ErrReadFailed is returned when the device stops delivering frames.
var ErrReadFailed = errors.New("camera: failed to read frame")

// Source delivers frames. It is satisfied by *Capture and by test fakes.
type Source interface {
	Read(dst *gocv.Mat) error
	Close() error
}

// Capture wraps a gocv.VideoCapture.
type Capture struct {
	cfg Config
	vc  *gocv.VideoCapture
	mu  sync.Mutex
}

// Open opens the camera and applies the requested resolution and frame rate.
func Open(cfg Config) (*Capture, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera config: %v", errs)
	}

	vc, err := gocv.OpenVideoCapture(cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", cfg.Index, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("camera %d did not open", cfg.Index)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	return &Capture{cfg: cfg, vc: vc}, nil
}

// Config returns the configuration the capture was opened with.
func (c *Capture) Config() Config {
	return c.cfg
}

// Actual reports the resolution the driver actually negotiated.
func (c *Capture) Actual() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.vc.Get(gocv.VideoCaptureFrameWidth)), int(c.vc.Get(gocv.VideoCaptureFrameHeight))
}

// Read grabs the next frame into dst.
func (c *Capture) Read(dst *gocv.Mat) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok := c.vc.Read(dst); !ok || dst.Empty() {
		return ErrReadFailed
	}
	return nil
}

// Close releases the device.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vc.Close()
}
