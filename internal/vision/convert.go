package vision

import (
	"fmt"

	"gocv.io/x/gocv"
)

var (
	toBGR = map[ChannelOrder]gocv.ColorConversionCode{
		OrderRGB:  gocv.ColorRGBToBGR,
		OrderRGBA: gocv.ColorRGBAToBGR,
		OrderBGRA: gocv.ColorBGRAToBGR,
	}
	fromBGR = map[ChannelOrder]gocv.ColorConversionCode{
		OrderRGB:  gocv.ColorBGRToRGB,
		OrderRGBA: gocv.ColorBGRToRGBA,
		OrderBGRA: gocv.ColorBGRToBGRA,
	}
)

// ToBGR converts a frame in order to the 3-channel BGR layout that
// gocv.IMWrite expects. The caller owns the returned Mat.
func ToBGR(frame gocv.Mat, order ChannelOrder) (gocv.Mat, error) {
	return convert(frame, order, toBGR)
}

// FromBGR converts a BGR image, as returned by gocv.IMRead, to order. The
// caller owns the returned Mat.
func FromBGR(img gocv.Mat, order ChannelOrder) (gocv.Mat, error) {
	return convert(img, order, fromBGR)
}

func convert(src gocv.Mat, order ChannelOrder, codes map[ChannelOrder]gocv.ColorConversionCode) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.NewMat(), ErrEmptyFrame
	}
	if order == OrderBGR {
		return src.Clone(), nil
	}
	code, ok := codes[order]
	if !ok {
		return gocv.NewMat(), fmt.Errorf("%w: order %q", ErrFrameFormat, order)
	}
	dst := gocv.NewMat()
	gocv.CvtColor(src, &dst, code)
	if dst.Empty() {
		dst.Close()
		return gocv.NewMat(), fmt.Errorf("color conversion: %w", ErrBufferAlloc)
	}
	return dst, nil
}
