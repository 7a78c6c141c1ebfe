package pilot

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultStatsWindow is the number of frames kept for rolling FPS.
const DefaultStatsWindow = 60

// FrameStats tracks instantaneous and rolling frame rate.
// Not safe for concurrent use; the frame loop owns it.
type FrameStats struct {
	window  int
	samples []float64
	next    int
	last    time.Time
	frames  uint64
}

// FPSSummary is a snapshot of frame timing.
type FPSSummary struct {
	Instant float64 `json:"instant"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"stddev"`
	Frames  uint64  `json:"frames"`
}

// NewFrameStats keeps the last window samples.
func NewFrameStats(window int) *FrameStats {
	if window <= 0 {
		window = DefaultStatsWindow
	}
	return &FrameStats{window: window, samples: make([]float64, 0, window)}
}

// Observe records the duration of one frame and returns its instant FPS.
func (s *FrameStats) Observe(d time.Duration) float64 {
	s.frames++
	if d <= 0 {
		return s.instant()
	}
	fps := 1 / d.Seconds()
	if len(s.samples) < s.window {
		s.samples = append(s.samples, fps)
	} else {
		s.samples[s.next] = fps
	}
	s.next = (s.next + 1) % s.window
	return fps
}

// Tick records a frame boundary at now. The first call only sets the origin.
func (s *FrameStats) Tick(now time.Time) float64 {
	if s.last.IsZero() {
		s.last = now
		s.frames++
		return 0
	}
	d := now.Sub(s.last)
	s.last = now
	return s.Observe(d)
}

func (s *FrameStats) instant() float64 {
	if len(s.samples) == 0 {
		return 0
	}
	i := (s.next - 1 + s.window) % s.window
	if i >= len(s.samples) {
		i = len(s.samples) - 1
	}
	return s.samples[i]
}

// Summary returns the latest and rolling FPS.
func (s *FrameStats) Summary() FPSSummary {
	out := FPSSummary{Instant: s.instant(), Frames: s.frames}
	switch len(s.samples) {
	case 0:
	case 1:
		out.Mean = s.samples[0]
	default:
		out.Mean, out.StdDev = stat.MeanStdDev(s.samples, nil)
	}
	return out
}
