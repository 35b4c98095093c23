package vision

import (
	"fmt"

	"gocv.io/x/gocv"
)

// ChannelOrder names the channel layout of incoming frames.
type ChannelOrder string

const (
	OrderRGB  ChannelOrder = "rgb"
	OrderBGR  ChannelOrder = "bgr"
	OrderRGBA ChannelOrder = "rgba"
	OrderBGRA ChannelOrder = "bgra"
)

// Channels returns the channel count implied by the order, or 0 when unknown.
func (o ChannelOrder) Channels() int {
	switch o {
	case OrderRGB, OrderBGR:
		return 3
	case OrderRGBA, OrderBGRA:
		return 4
	}
	return 0
}

// MatType is the 8-bit matrix type frames in this order must have.
func (o ChannelOrder) MatType() gocv.MatType {
	if o.Channels() == 4 {
		return gocv.MatTypeCV8UC4
	}
	return gocv.MatTypeCV8UC3
}

// Config selects the target color and the frame layout.
// Bounds are HSV in OpenCV's 8-bit scale (H 0..180) plus an unused fourth channel.
type Config struct {
	Lower      [4]float64   `yaml:"lower" json:"lower"`
	Upper      [4]float64   `yaml:"upper" json:"upper"`
	Order      ChannelOrder `yaml:"order" json:"order"`
	KernelSize int          `yaml:"kernel_size" json:"kernel_size"`
}

// DefaultConfig detects saturated red in RGBA frames.
func DefaultConfig() Config {
	return Config{
		Lower:      [4]float64{0, 100, 100, 255},
		Upper:      [4]float64{10, 255, 255, 255},
		Order:      OrderRGBA,
		KernelSize: 5,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Order.Channels() == 0 {
		return fmt.Errorf("unknown channel order %q", c.Order)
	}
	if c.KernelSize <= 0 {
		return fmt.Errorf("kernel_size must be positive, got %d", c.KernelSize)
	}
	for i := range c.Lower {
		if c.Lower[i] > c.Upper[i] {
			return fmt.Errorf("lower bound %v exceeds upper bound %v at channel %d", c.Lower[i], c.Upper[i], i)
		}
	}
	return nil
}
