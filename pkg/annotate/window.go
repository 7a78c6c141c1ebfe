package annotate

import "gocv.io/x/gocv"

// Keys handled by the preview window.
const (
	KeyNone       = -1
	KeyQuit       = 'q'
	KeyScreenshot = 's'
)

// Window is the local preview window.
type Window struct {
	w *gocv.Window
}

// NewWindow opens a named preview window.
func NewWindow(title string) *Window {
	return &Window{w: gocv.NewWindow(title)}
}

// Show displays img and polls the keyboard for 1ms.
// It returns the pressed key or KeyNone.
func (w *Window) Show(img gocv.Mat) int {
	w.w.IMShow(img)
	key := w.w.WaitKey(1)
	if key < 0 {
		return KeyNone
	}
	return key & 0xFF
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.w.Close()
}
