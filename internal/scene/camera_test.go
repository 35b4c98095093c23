package scene

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quadsim/internal/flight"
	"quadsim/internal/vision"
)

func newCamera(t *testing.T, order vision.ChannelOrder) *Camera {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Order = order
	cam, err := NewCamera(cfg)
	require.NoError(t, err)
	return cam
}

func TestProjectMapsAxes(t *testing.T) {
	cam := newCamera(t, vision.OrderRGBA)
	pose := flight.Pose{Position: r3.Vector{Y: 0.98}}

	x, y, scale, ok := cam.Project(pose, r3.Vector{X: 0.5, Z: -0.25})
	require.True(t, ok)
	// One unit below the lens spans focal length pixels; 90° gives W/2.
	assert.InDelta(t, 120, scale, 1e-9)
	assert.InDelta(t, 180, x, 1e-9)
	assert.InDelta(t, 90, y, 1e-9)

	_, _, _, ok = cam.Project(flight.Pose{Position: r3.Vector{Y: -0.5}}, r3.Vector{})
	assert.False(t, ok)
}

func TestCaptureRendersDetectableMarker(t *testing.T) {
	for _, order := range []vision.ChannelOrder{vision.OrderRGBA, vision.OrderBGR} {
		t.Run(string(order), func(t *testing.T) {
			cam := newCamera(t, order)
			frame, err := cam.Capture(flight.Pose{Position: r3.Vector{X: -0.2, Y: 0.98, Z: 0.1}})
			require.NoError(t, err)
			defer frame.Close()
			assert.Equal(t, 240, frame.Cols())
			assert.Equal(t, 240, frame.Rows())

			dcfg := vision.DefaultConfig()
			dcfg.Order = order
			det, err := vision.NewDetector(dcfg)
			require.NoError(t, err)
			res, err := det.Detect(frame)
			require.NoError(t, err)
			require.True(t, res.Found)
			assert.InDelta(t, 144, res.Center.X, 1.5)
			assert.InDelta(t, 108, res.Center.Y, 1.5)
			assert.InDelta(t, 12, res.Radius, 1.5)
		})
	}
}

func TestCaptureMarkerOutOfView(t *testing.T) {
	cam := newCamera(t, vision.OrderRGBA)
	frame, err := cam.Capture(flight.Pose{Position: r3.Vector{X: 3, Y: 0.98}})
	require.NoError(t, err)
	defer frame.Close()

	det, err := vision.NewDetector(vision.DefaultConfig())
	require.NoError(t, err)
	res, err := det.Detect(frame)
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	cfg := DefaultConfig()
	cfg.FOVDegrees = 180
	assert.Error(t, cfg.Validate())
	cfg = DefaultConfig()
	cfg.Order = "grey"
	_, err := NewCamera(cfg)
	assert.Error(t, err)
}
