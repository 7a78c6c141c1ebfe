// Package camera opens the forward-looking camera and holds its capture
// settings. Frames are read as BGR gocv.Mat.
package camera

import "fmt"

// Config holds the capture parameters.
type Config struct {
	// Index is the OpenCV device index (0 is the first camera).
	Index int `json:"index" yaml:"index"`

	Width     int `json:"width" yaml:"width"`         // Frame width in pixels
	Height    int `json:"height" yaml:"height"`       // Frame height in pixels
	Framerate int `json:"framerate" yaml:"framerate"` // Requested FPS
	Quality   int `json:"quality" yaml:"quality"`     // JPEG quality for dashboard preview 1-100
}

// Limits for capture resolution.
const (
	MinWidth  = 160
	MinHeight = 120
	MaxWidth  = 3840
	MaxHeight = 2160
)

// DefaultConfig returns 1280x720 at 30 FPS, the USB camera the vehicle ships with.
func DefaultConfig() Config {
	return Config{
		Index:     0,
		Width:     1280,
		Height:    720,
		Framerate: 30,
		Quality:   75,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errs []string

	if c.Index < 0 {
		errs = append(errs, "index must not be negative")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errs = append(errs, fmt.Sprintf("width must be between %d and %d", MinWidth, MaxWidth))
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errs = append(errs, fmt.Sprintf("height must be between %d and %d", MinHeight, MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > 120 {
		errs = append(errs, "framerate must be between 1 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, "quality must be between 1 and 100")
	}

	return errs
}
