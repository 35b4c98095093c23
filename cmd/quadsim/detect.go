package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"quadsim/internal/vision"
)

var (
	detectAnnotate string
	detectLower    []float64
	detectUpper    []float64
)

// detectReport is the JSON printed by the detect command.
type detectReport struct {
	Image     string                 `json:"image"`
	Width     int                    `json:"width"`
	Height    int                    `json:"height"`
	Detection vision.DetectionResult `json:"detection"`
	XOffset   float64                `json:"x_offset,omitempty"`
	YOffset   float64                `json:"y_offset,omitempty"`
}

var detectCmd = &cobra.Command{
	Use:   "detect IMAGE",
	Short: "Run the marker detector on an image file",
	Long:  "detect loads an image, runs the red marker detector configured by --config and prints the result as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dcfg := cfg.Detector
		if len(detectLower) > 0 {
			if dcfg.Lower, err = scalarFlag("lower", detectLower); err != nil {
				return err
			}
		}
		if len(detectUpper) > 0 {
			if dcfg.Upper, err = scalarFlag("upper", detectUpper); err != nil {
				return err
			}
		}
		detector, err := vision.NewDetector(dcfg)
		if err != nil {
			return err
		}

		img := gocv.IMRead(args[0], gocv.IMReadColor)
		if img.Empty() {
			img.Close()
			return fmt.Errorf("cannot read image %s", args[0])
		}
		defer img.Close()
		frame, err := vision.FromBGR(img, dcfg.Order)
		if err != nil {
			return err
		}
		defer frame.Close()

		det, err := detector.Detect(frame)
		if err != nil {
			return err
		}
		report := detectReport{Image: args[0], Width: frame.Cols(), Height: frame.Rows(), Detection: det}
		if det.Found {
			report.XOffset = det.Center.X - float64(frame.Cols())/2
			report.YOffset = det.Center.Y - float64(frame.Rows())/2
		}

		if detectAnnotate != "" {
			vision.Annotate(&img, det, nil)
			if !gocv.IMWrite(detectAnnotate, img) {
				return fmt.Errorf("cannot write %s", detectAnnotate)
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func scalarFlag(name string, v []float64) ([4]float64, error) {
	var s [4]float64
	if len(v) < 3 || len(v) > 4 {
		return s, fmt.Errorf("--%s wants 3 or 4 values (h,s,v[,a]), got %d", name, len(v))
	}
	s[3] = 255
	copy(s[:], v)
	return s, nil
}

func init() {
	f := detectCmd.Flags()
	f.StringVar(&detectAnnotate, "annotate", "", "Write the image with the detected circle drawn to this path")
	f.Float64SliceVar(&detectLower, "lower", nil, "Lower HSV bound override, e.g. 0,100,100")
	f.Float64SliceVar(&detectUpper, "upper", nil, "Upper HSV bound override, e.g. 10,255,255")
}
