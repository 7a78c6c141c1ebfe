package detection

import (
	"image"
	"testing"
)

func TestNewLetterbox_Landscape(t *testing.T) {
	lb := NewLetterbox(1280, 720, 640, 640)

	if lb.Ratio != 0.5 {
		t.Errorf("Ratio: got %v, want 0.5", lb.Ratio)
	}
	if lb.Width != 640 || lb.Height != 360 {
		t.Errorf("scaled size: got %dx%d, want 640x360", lb.Width, lb.Height)
	}
	if lb.Left != 0 || lb.Right != 0 {
		t.Errorf("horizontal pad: got %d/%d, want 0/0", lb.Left, lb.Right)
	}
	if lb.Top != 140 || lb.Bottom != 140 {
		t.Errorf("vertical pad: got %d/%d, want 140/140", lb.Top, lb.Bottom)
	}
}

func TestLetterbox_ToSource(t *testing.T) {
	lb := NewLetterbox(1280, 720, 640, 640)

	// A 100x50 model box centred at (320, 320) is the frame centre.
	got := lb.ToSource(320, 320, 100, 50)
	want := image.Rect(540, 310, 740, 410)
	if got != want {
		t.Errorf("ToSource: got %v, want %v", got, want)
	}
}

func TestDecodeOutput_ChannelFirst(t *testing.T) {
	lb := NewLetterbox(640, 640, 640, 640)
	// attrs = 4 + 2 classes, 3 anchors, laid out [attr][anchor].
	data := []float32{
		100, 200, 300, // cx
		100, 200, 300, // cy
		20, 40, 60, // w
		20, 40, 60, // h
		0.9, 0.1, 0.3, // Cylinder score
		0.05, 0.7, 0.2, // Gate score
	}

	got, err := DecodeOutput(data, 6, 3, false, 0.5, lb)
	if err != nil {
		t.Fatalf("DecodeOutput: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates above 0.5, got %d", len(got))
	}
	if got[0].ClassID != 0 || got[0].Box != image.Rect(90, 90, 110, 110) {
		t.Errorf("candidate 0: %+v", got[0])
	}
	if got[1].ClassID != 1 || got[1].Box.Dx() != 40 {
		t.Errorf("candidate 1: %+v", got[1])
	}
}

func TestDecodeOutput_Transposed(t *testing.T) {
	lb := NewLetterbox(640, 640, 640, 640)
	data := []float32{
		50, 60, 10, 12, 0.2, 0.95,
		70, 80, 10, 12, 0.1, 0.1,
	}
	got, err := DecodeOutput(data, 6, 2, true, 0.5, lb)
	if err != nil {
		t.Fatalf("DecodeOutput: %v", err)
	}
	if len(got) != 1 || got[0].ClassID != 1 || got[0].Score != 0.95 {
		t.Errorf("got %+v", got)
	}
}

func TestDecodeOutput_BadShape(t *testing.T) {
	lb := NewLetterbox(640, 640, 640, 640)
	if _, err := DecodeOutput(make([]float32, 10), 6, 3, false, 0.5, lb); err == nil {
		t.Error("expected error for short buffer")
	}
	if _, err := DecodeOutput(nil, 4, 3, false, 0.5, lb); err == nil {
		t.Error("expected error for missing class scores")
	}
}

func TestSelect_KeepsBoxesPastFrameEdge(t *testing.T) {
	meta := &Metadata{ImageSize: []int{640, 640}, Names: map[int]string{0: "Cylinder", 1: "Gate"}}
	cands := []Candidate{
		{Box: image.Rect(-100, 50, 256, 250), Score: 0.9, ClassID: 0},
		{Box: image.Rect(10, 10, 50, 50), Score: 0.4, ClassID: 1},
	}

	dets := Select(cands, []int{0, 7}, meta)

	if len(dets) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(dets))
	}
	d := dets[0]
	if d.Label != "Cylinder" || d.PixelWidth() != 356 {
		t.Errorf("got %s width %v, want Cylinder width 356", d.Label, d.PixelWidth())
	}
	if got := d.Visible(image.Rect(0, 0, 640, 480)); got != image.Rect(0, 50, 256, 250) {
		t.Errorf("Visible: got %v", got)
	}
}
