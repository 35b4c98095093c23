// ColorStdoutWriter prints human-friendly, colorized telemetry to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"quadsim/internal/config"
	"quadsim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

var modeColors = map[string]string{
	"search":  colorYellow,
	"climb":   colorBlue,
	"align":   colorCyan,
	"descend": colorMagenta,
	"landed":  colorGreen,
	"script":  colorCyan,
	"idle":    colorGray,
}

// ColorStdoutWriter prints telemetry rows using ANSI colors.
type ColorStdoutWriter struct {
	cfg  *config.FlightConfig
	out  io.Writer
	once sync.Once
	mu   sync.Mutex
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(cfg *config.FlightConfig) *ColorStdoutWriter {
	return &ColorStdoutWriter{cfg: cfg, out: os.Stdout}
}

func modeColor(mode string) string {
	if c, ok := modeColors[mode]; ok {
		return c
	}
	return colorReset
}

func (w *ColorStdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}
	c := w.cfg.Controller

	fmt.Fprintln(w.out, "Flight Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Profile:\t%s\n", w.cfg.Profile)
	fmt.Fprintf(tw, "Rate (Hz):\t%.0f\n", w.cfg.RateHz)
	fmt.Fprintf(tw, "Start:\t(%.2f, %.2f, %.2f)\n", w.cfg.Start.X, w.cfg.Start.Y, w.cfg.Start.Z)
	fmt.Fprintf(tw, "Align Threshold (px):\t%.0f\n", c.AlignThreshold)
	fmt.Fprintf(tw, "Proportional Speed:\t%t\n", c.Proportional)
	fmt.Fprintf(tw, "Climb First:\t%t\n", c.ClimbFirst)
	fmt.Fprintf(tw, "Search/Descent Alt:\t%.2f / %.2f\n", c.SearchAltitude, c.DescentAltitude)
	fmt.Fprintf(tw, "Search Step:\t%s x %d\n", c.Search.StepDuration, len(c.Search.Steps))
	tw.Flush()
	fmt.Fprintln(w.out)
}

// Write outputs a single telemetry row in colorized format.
func (w *ColorStdoutWriter) Write(row telemetry.TelemetryRow) error {
	w.once.Do(w.printOverview)
	w.mu.Lock()
	defer w.mu.Unlock()

	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, row.Timestamp.Format(time.RFC3339Nano), colorReset)
	fmt.Fprintf(w.out, "%sflight=%s%s ", colorBlue, row.FlightID, colorReset)
	fmt.Fprintf(w.out, "tick=%d ", row.Tick)
	fmt.Fprintf(w.out, "%smode=%s%s ", modeColor(row.Mode), row.Mode, colorReset)
	fmt.Fprintf(w.out, "%spos=(%.3f,%.3f,%.3f)%s ", colorGreen, row.X, row.Y, row.Z, colorReset)
	fmt.Fprintf(w.out, "%shdg=%.2f%s ", colorCyan, row.Heading, colorReset)
	if row.Hover {
		fmt.Fprintf(w.out, "%scmd=hover alt=%.2f%s", colorMagenta, row.CmdAltitude, colorReset)
	} else {
		fmt.Fprintf(w.out, "%scmd=angle=%.2f spd=%.2f alt=%.2f%s", colorYellow, row.CmdAngle, row.CmdSpeed, row.CmdAltitude, colorReset)
	}
	if row.Mode == "align" || row.Aligned {
		fmt.Fprintf(w.out, " off=(%.1f,%.1f)", row.XOffset, row.YOffset)
	}
	if row.Action != "" {
		fmt.Fprintf(w.out, " action=%s", row.Action)
	}
	if row.Error != "" {
		fmt.Fprintf(w.out, " %serr=%s%s", colorRed, row.Error, colorReset)
	}
	fmt.Fprintln(w.out)
	return nil
}

// WriteBatch outputs multiple telemetry rows.
func (w *ColorStdoutWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteDetection prints a marker detection to STDOUT.
func (w *ColorStdoutWriter) WriteDetection(d telemetry.DetectionRow) error {
	w.once.Do(w.printOverview)
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "%s[%s]%s %sDETECTION%s flight=%s tick=%d center=(%.1f,%.1f) r=%.1f area=%.0f\n",
		colorGray, d.Timestamp.Format(time.RFC3339Nano), colorReset,
		colorRed, colorReset, d.FlightID, d.Tick, d.CenterX, d.CenterY, d.Radius, d.Area)
	return nil
}
