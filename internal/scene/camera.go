// Package scene renders the synthetic bottom camera: a white ground plane
// with a red disc marker seen through a downward pinhole lens.
package scene

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r3"
	"gocv.io/x/gocv"

	"quadsim/internal/flight"
	"quadsim/internal/vision"
)

// Marker is the landing target lying on the ground plane.
type Marker struct {
	Position r3.Vector `yaml:"position" json:"position"`
	Radius   float64   `yaml:"radius" json:"radius"`
}

// Config describes the camera and the ground it looks at.
type Config struct {
	Width       int                 `yaml:"width" json:"width"`
	Height      int                 `yaml:"height" json:"height"`
	FOVDegrees  float64             `yaml:"fov_deg" json:"fov_deg"`
	MountOffset float64             `yaml:"mount_offset" json:"mount_offset"`
	Order       vision.ChannelOrder `yaml:"order" json:"order"`
	GroundY     float64             `yaml:"ground_y" json:"ground_y"`
	Marker      Marker              `yaml:"marker" json:"marker"`
}

// DefaultConfig is a 240×240 RGBA camera with a 90° field of view mounted
// just above the airframe, looking at a 0.1 radius marker at the origin.
func DefaultConfig() Config {
	return Config{
		Width:       240,
		Height:      240,
		FOVDegrees:  90,
		MountOffset: 0.02,
		Order:       vision.OrderRGBA,
		Marker:      Marker{Radius: 0.1},
	}
}

func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("camera size must be positive, got %dx%d", c.Width, c.Height)
	case c.FOVDegrees <= 0 || c.FOVDegrees >= 180:
		return fmt.Errorf("fov_deg must be in (0, 180), got %v", c.FOVDegrees)
	case c.Order.Channels() == 0:
		return fmt.Errorf("unknown channel order %q", c.Order)
	case c.Marker.Radius <= 0:
		return fmt.Errorf("marker radius must be positive, got %v", c.Marker.Radius)
	}
	return nil
}

var (
	ground = gocv.NewScalar(255, 255, 255, 255)
	red    = color.RGBA{R: 255, A: 255}
)

// Camera produces frames for a pose. Image right is +X and image down is +Z.
type Camera struct {
	cfg   Config
	focal float64
}

func NewCamera(cfg Config) (*Camera, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("camera config: %w", err)
	}
	half := cfg.FOVDegrees * math.Pi / 360
	return &Camera{cfg: cfg, focal: float64(cfg.Width) / 2 / math.Tan(half)}, nil
}

func (c *Camera) Config() Config { return c.cfg }

// Project maps a ground point to pixel coordinates for pose. ok is false when
// the camera is at or below the ground.
func (c *Camera) Project(pose flight.Pose, p r3.Vector) (x, y, scale float64, ok bool) {
	h := pose.Position.Y + c.cfg.MountOffset - c.cfg.GroundY
	if h <= 0 {
		return 0, 0, 0, false
	}
	scale = c.focal / h
	x = float64(c.cfg.Width)/2 + (p.X-pose.Position.X)*scale
	y = float64(c.cfg.Height)/2 + (p.Z-pose.Position.Z)*scale
	return x, y, scale, true
}

// Capture renders the view from pose. The caller owns the returned Mat.
func (c *Camera) Capture(pose flight.Pose) (gocv.Mat, error) {
	frame := gocv.NewMatWithSizeFromScalar(ground, c.cfg.Height, c.cfg.Width, c.cfg.Order.MatType())
	if frame.Empty() {
		frame.Close()
		return gocv.NewMat(), fmt.Errorf("allocate %dx%d frame: %w", c.cfg.Width, c.cfg.Height, vision.ErrBufferAlloc)
	}
	x, y, scale, ok := c.Project(pose, c.cfg.Marker.Position)
	if !ok {
		return frame, nil
	}
	r := c.cfg.Marker.Radius * scale
	if r < 0.5 {
		return frame, nil
	}
	gocv.Circle(&frame, image.Pt(int(math.Round(x)), int(math.Round(y))), int(math.Round(r)), paint(c.cfg.Order, red), -1)
	return frame, nil
}

// paint adapts c to gocv, which always writes colors in BGR channel order.
func paint(order vision.ChannelOrder, c color.RGBA) color.RGBA {
	if order == vision.OrderRGB || order == vision.OrderRGBA {
		c.R, c.B = c.B, c.R
	}
	return c
}
