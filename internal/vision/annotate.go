package vision

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

var (
	markerColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	textColor   = color.RGBA{R: 0, G: 0, B: 128, A: 255}
)

const (
	textScale  = 0.4
	lineHeight = 16
)

// Annotate draws the detected circle and one status line per entry onto frame.
// It is a presentation helper; detection results never depend on it.
func Annotate(frame *gocv.Mat, det DetectionResult, lines []string) {
	if frame == nil || frame.Empty() {
		return
	}
	if det.Found {
		center := image.Pt(int(math.Round(det.Center.X)), int(math.Round(det.Center.Y)))
		gocv.Circle(frame, center, int(math.Round(det.Radius)), markerColor, 2)
	}
	for i, line := range lines {
		gocv.PutText(frame, line, image.Pt(8, lineHeight*(i+1)), gocv.FontHersheySimplex, textScale, textColor, 1)
	}
}
