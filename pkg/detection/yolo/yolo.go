// Package yolo runs an exported YOLO ONNX model with OpenCV DNN.
package yolo

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"github.com/teslashibe/go-polrov/pkg/debug"
	"github.com/teslashibe/go-polrov/pkg/detection"
	"gocv.io/x/gocv"
)

// PadValue is the gray used to fill letterbox borders.
const PadValue = 114

// ErrEmptyFrame is returned when Detect is given an empty image.
var ErrEmptyFrame = errors.New("yolo: empty frame")

// Detector is an OpenCV DNN backed object detector.
type Detector struct {
	net    gocv.Net
	meta   *detection.Metadata
	config detection.Config
	mu     sync.Mutex
}

// New loads the model and its metadata.yaml from cfg.ModelDir.
func New(cfg detection.Config) (*Detector, error) {
	meta, err := detection.LoadMetadata(cfg.ModelDir)
	if err != nil {
		return nil, err
	}

	modelPath := filepath.Join(cfg.ModelDir, cfg.ModelFile)
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model from %s", modelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &Detector{net: net, meta: meta, config: cfg}, nil
}

// Metadata returns the labels and input size read at load time.
func (d *Detector) Metadata() *detection.Metadata {
	return d.meta
}

// Detect finds objects in a BGR frame. Boxes are in frame pixels.
func (d *Detector) Detect(img gocv.Mat) ([]detection.Detection, error) {
	if img.Empty() {
		return nil, ErrEmptyFrame
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	inW, inH := d.meta.InputSize()
	lb := detection.NewLetterbox(img.Cols(), img.Rows(), inW, inH)

	padded := letterbox(img, lb)
	defer padded.Close()

	blob := gocv.BlobFromImage(padded, 1.0/255.0, image.Pt(inW, inH), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	// [1, 4+nc, anchors], some exports emit [1, anchors, 4+nc]
	dims := output.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output dims %v", dims)
	}
	attrs, anchors, transposed := dims[1], dims[2], false
	if attrs > anchors {
		attrs, anchors, transposed = anchors, attrs, true
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	thresh := float32(d.config.ConfidenceThresh)
	cands, err := detection.DecodeOutput(data, attrs, anchors, transposed, thresh, lb)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, nil
	}

	boxes := make([]image.Rectangle, len(cands))
	scores := make([]float32, len(cands))
	for i, c := range cands {
		boxes[i] = c.Box
		scores[i] = c.Score
	}
	keep := gocv.NMSBoxes(boxes, scores, thresh, float32(d.config.NMSThresh))

	dets := detection.Select(cands, keep, d.meta)

	if len(dets) > 0 {
		debug.Log("🔍 YOLO found %d object(s)\n", len(dets))
	}
	return dets, nil
}

// DetectJPEG decodes a JPEG and runs Detect on it.
func (d *Detector) DetectJPEG(jpeg []byte) ([]detection.Detection, error) {
	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()
	return d.Detect(img)
}

// Close releases the network.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

func letterbox(img gocv.Mat, lb detection.Letterbox) gocv.Mat {
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Pt(lb.Width, lb.Height), 0, 0, gocv.InterpolationLinear)

	padded := gocv.NewMat()
	gocv.CopyMakeBorder(resized, &padded, lb.Top, lb.Bottom, lb.Left, lb.Right,
		gocv.BorderConstant, color.RGBA{PadValue, PadValue, PadValue, 0})
	return padded
}
