// Calibrate - fit the pinhole focal length for one object class
//
// Place the object at a measured distance, then either pass the box width
// you read off a screenshot (-width-px) or let the detector measure it in
// an image (-image).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/teslashibe/go-polrov/pkg/detection"
	"github.com/teslashibe/go-polrov/pkg/detection/yolo"
	"github.com/teslashibe/go-polrov/pkg/distance"
	"gocv.io/x/gocv"
	"gopkg.in/yaml.v3"
)

func main() {
	className := flag.String("class", "Cylinder", "Object class: Cylinder or Gate")
	distanceCM := flag.Float64("distance", 0, "Measured distance to the object in cm")
	widthCM := flag.Float64("width-cm", 0, "Physical object width in cm (default from the pool table)")
	widthPx := flag.Float64("width-px", 0, "Bounding box width in pixels")
	imagePath := flag.String("image", "", "Image to measure the box width in")
	modelDir := flag.String("model", detection.DefaultConfig().ModelDir, "Model directory for -image")
	flag.Parse()

	fmt.Println("📏 PolROV Distance Calibration")
	fmt.Println("==============================")

	class := distance.ParseClass(*className)
	if class == distance.ClassUnknown {
		fail("unknown class %q", *className)
	}
	if *distanceCM <= 0 {
		fail("-distance is required")
	}
	if *widthCM <= 0 {
		*widthCM = distance.DefaultTable()[class].PhysicalWidthCM
	}

	px := *widthPx
	if px <= 0 {
		if *imagePath == "" {
			fail("pass -width-px or -image")
		}
		px = measure(*imagePath, *modelDir, class)
	}

	focal, err := distance.FocalLength(px, *distanceCM, *widthCM)
	if err != nil {
		fail("%v", err)
	}

	fmt.Printf("   Class:     %s\n", class)
	fmt.Printf("   Distance:  %.1f cm\n", *distanceCM)
	fmt.Printf("   Width:     %.1f cm / %.0f px\n", *widthCM, px)
	fmt.Printf("✅ Focal length: %.1f px\n\n", focal)

	out, err := yaml.Marshal(map[string]map[string]distance.Calibration{
		"calibration": {class.String(): {PhysicalWidthCM: *widthCM, FocalLengthPX: focal}},
	})
	if err != nil {
		fail("%v", err)
	}
	fmt.Println("Add to your config:")
	fmt.Print(string(out))
}

// measure returns the box width of the most confident detection of class.
func measure(path, modelDir string, class distance.Class) float64 {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		fail("cannot read image %s", path)
	}
	defer img.Close()

	cfg := detection.DefaultConfig()
	cfg.ModelDir = modelDir
	det, err := yolo.New(cfg)
	if err != nil {
		fail("load model: %v", err)
	}
	defer det.Close()

	dets, err := det.Detect(img)
	if err != nil {
		fail("detect: %v", err)
	}
	var best detection.Detection
	found := false
	for _, d := range detection.FilterClass(dets, class) {
		if !found || d.Confidence > best.Confidence {
			best, found = d, true
		}
	}
	if !found {
		fail("no %s found in %s (%d other detections)", class, path, len(dets))
	}
	fmt.Printf("🔍 %s at %v, confidence %.2f\n", best.Label, best.Box, best.Confidence)
	return best.PixelWidth()
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "❌ "+format+"\n", args...)
	os.Exit(1)
}
