package annotate

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"
)

// DefaultSaveThreshold is the minimum confidence that triggers a screenshot.
const DefaultSaveThreshold = 0.6

// TimestampLayout formats screenshot timestamps as YYYYmmdd-HHMMSS.
const TimestampLayout = "20060102-150405"

// Saver writes annotated frames to disk when screenshots are enabled.
type Saver struct {
	dir       string
	threshold float64
	enabled   atomic.Bool
	now       func() time.Time
}

// NewSaver creates the output directory if needed.
func NewSaver(dir string, threshold float64, enabled bool) (*Saver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	s := &Saver{dir: dir, threshold: threshold, now: time.Now}
	s.enabled.Store(enabled)
	return s, nil
}

// Dir returns the output directory.
func (s *Saver) Dir() string { return s.dir }

// Enabled reports whether screenshots are on.
func (s *Saver) Enabled() bool { return s.enabled.Load() }

// SetEnabled turns screenshots on or off.
func (s *Saver) SetEnabled(on bool) { s.enabled.Store(on) }

// Toggle flips the screenshot flag and returns the new value.
func (s *Saver) Toggle() bool {
	for {
		cur := s.enabled.Load()
		if s.enabled.CompareAndSwap(cur, !cur) {
			return !cur
		}
	}
}

// Paths returns the files Save would write for items, one per label.
func (s *Saver) Paths(items []Item) []string {
	if !s.Enabled() {
		return nil
	}
	stamp := s.now().Format(TimestampLayout)
	seen := make(map[string]bool)
	var out []string
	for _, it := range items {
		if it.Confidence < s.threshold {
			continue
		}
		path := filepath.Join(s.dir, fmt.Sprintf("detected_%s_%s.jpg", it.Label, stamp))
		if seen[path] {
			continue
		}
		seen[path] = true
		out = append(out, path)
	}
	return out
}

// Save writes img once per qualifying label and returns the written paths.
func (s *Saver) Save(img gocv.Mat, items []Item) ([]string, error) {
	paths := s.Paths(items)
	for i, p := range paths {
		if ok := gocv.IMWrite(p, img); !ok {
			return paths[:i], fmt.Errorf("write %s failed", p)
		}
	}
	return paths, nil
}
