// Package vision finds a colored circular marker in a camera frame.
package vision

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

var (
	ErrEmptyFrame  = errors.New("empty frame")
	ErrFrameFormat = errors.New("unsupported frame format")
	ErrBufferAlloc = errors.New("working buffer allocation failed")
)

// Point is a pixel coordinate with sub-pixel precision.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DetectionResult describes the largest matching blob of one frame.
type DetectionResult struct {
	Found  bool    `json:"found"`
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
	Area   float64 `json:"area"`
}

// Detector runs the color threshold pipeline. It holds no per-frame state and
// never retains the frames it is given.
type Detector struct {
	cfg   Config
	lower gocv.Scalar
	upper gocv.Scalar
}

// NewDetector validates cfg and returns a detector.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("detector config: %w", err)
	}
	return &Detector{
		cfg:   cfg,
		lower: gocv.NewScalar(cfg.Lower[0], cfg.Lower[1], cfg.Lower[2], cfg.Lower[3]),
		upper: gocv.NewScalar(cfg.Upper[0], cfg.Upper[1], cfg.Upper[2], cfg.Upper[3]),
	}, nil
}

// Config returns the detector configuration.
func (d *Detector) Config() Config { return d.cfg }

// Detect thresholds the frame in HSV, cleans the mask with an open/close pass
// and fits the minimum enclosing circle of the largest external contour.
func (d *Detector) Detect(frame gocv.Mat) (DetectionResult, error) {
	if err := d.checkFrame(frame); err != nil {
		return DetectionResult{}, err
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	if err := d.toHSV(frame, &hsv); err != nil {
		return DetectionResult{}, err
	}

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv, d.lower, d.upper, &mask)
	if mask.Empty() {
		return DetectionResult{}, fmt.Errorf("threshold mask: %w", ErrBufferAlloc)
	}

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(d.cfg.KernelSize, d.cfg.KernelSize))
	defer kernel.Close()

	opened := gocv.NewMat()
	defer opened.Close()
	gocv.MorphologyEx(mask, &opened, gocv.MorphOpen, kernel)

	cleaned := gocv.NewMat()
	defer cleaned.Close()
	gocv.MorphologyEx(opened, &cleaned, gocv.MorphClose, kernel)
	if cleaned.Empty() {
		return DetectionResult{}, fmt.Errorf("morphology: %w", ErrBufferAlloc)
	}

	contours := gocv.FindContours(cleaned, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	return largestCircle(contours), nil
}

func (d *Detector) checkFrame(frame gocv.Mat) error {
	if frame.Empty() {
		return ErrEmptyFrame
	}
	if frame.Type() != d.cfg.Order.MatType() {
		return fmt.Errorf("%w: got %d channels of type %v, order %s wants %d 8-bit channels",
			ErrFrameFormat, frame.Channels(), frame.Type(), d.cfg.Order, d.cfg.Order.Channels())
	}
	return nil
}

func (d *Detector) toHSV(frame gocv.Mat, dst *gocv.Mat) error {
	switch d.cfg.Order {
	case OrderRGB:
		gocv.CvtColor(frame, dst, gocv.ColorRGBToHSV)
	case OrderBGR:
		gocv.CvtColor(frame, dst, gocv.ColorBGRToHSV)
	case OrderRGBA, OrderBGRA:
		code := gocv.ColorRGBAToBGR
		if d.cfg.Order == OrderBGRA {
			code = gocv.ColorBGRAToBGR
		}
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(frame, &bgr, code)
		if bgr.Empty() {
			return fmt.Errorf("color conversion: %w", ErrBufferAlloc)
		}
		gocv.CvtColor(bgr, dst, gocv.ColorBGRToHSV)
	default:
		return fmt.Errorf("%w: order %q", ErrFrameFormat, d.cfg.Order)
	}
	if dst.Empty() {
		return fmt.Errorf("hsv conversion: %w", ErrBufferAlloc)
	}
	return nil
}

// largestCircle picks the contour with strictly the largest area; ties keep
// the first seen. Zero-area contours never win.
func largestCircle(contours gocv.PointsVector) DetectionResult {
	best := -1
	maxArea := 0.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > maxArea {
			maxArea = area
			best = i
		}
	}
	if best < 0 {
		return DetectionResult{}
	}
	x, y, r := gocv.MinEnclosingCircle(contours.At(best))
	return DetectionResult{
		Found:  true,
		Center: Point{X: float64(x), Y: float64(y)},
		Radius: float64(r),
		Area:   maxArea,
	}
}
