package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"quadsim/internal/config"
	"quadsim/internal/logging"
	"quadsim/internal/sim"
)

// Console output formats.
const (
	outputAuto  = "auto"
	outputJSON  = "json"
	outputColor = "color"
	outputTUI   = "tui"
	outputNone  = "none"
)

type writerOptions struct {
	Output   string
	LogFile  string
	Env      config.RuntimeEnv
	Sinks    bool
	RedisTTL time.Duration
}

// writerSet bundles the writers the simulator fans out to.
type writerSet struct {
	Telemetry sim.TelemetryWriter
	Detection sim.DetectionWriter
	Admin     sim.AdminStatusWriter

	closers []io.Closer
}

// Close releases every writer that holds a resource.
func (ws *writerSet) Close() {
	for i := len(ws.closers) - 1; i >= 0; i-- {
		ws.closers[i].Close()
	}
}

// resolveOutput picks the console format; auto means color on a terminal and
// JSON otherwise.
func resolveOutput(output string, isTTY bool) (string, error) {
	switch output {
	case "", outputAuto:
		if isTTY {
			return outputColor, nil
		}
		return outputJSON, nil
	case outputJSON, outputColor, outputTUI, outputNone:
		return output, nil
	}
	return "", fmt.Errorf("unknown output %q (want auto, json, color, tui or none)", output)
}

type fullWriter interface {
	sim.TelemetryWriter
	sim.DetectionWriter
}

func consoleWriter(cfg *config.FlightConfig, output string) fullWriter {
	switch output {
	case outputColor:
		return sim.NewColorStdoutWriter(cfg)
	case outputTUI:
		return sim.NewTUIWriter(cfg)
	case outputJSON:
		return sim.NewJSONStdoutWriter()
	}
	return nil
}

// newWriters builds the console writer, the optional JSONL log files and,
// when opts.Sinks is set, every sink configured in the environment.
func newWriters(ctx context.Context, cfg *config.FlightConfig, opts writerOptions) (*writerSet, error) {
	log := logging.FromContext(ctx)
	output, err := resolveOutput(opts.Output, term.IsTerminal(int(os.Stdout.Fd())))
	if err != nil {
		return nil, err
	}

	ws := &writerSet{}
	var writers []fullWriter
	add := func(w fullWriter) {
		writers = append(writers, w)
		if c, ok := w.(io.Closer); ok {
			ws.closers = append(ws.closers, c)
		}
		if a, ok := w.(sim.AdminStatusWriter); ok {
			ws.Admin = a
		}
	}

	if cw := consoleWriter(cfg, output); cw != nil {
		add(cw)
	}
	if opts.LogFile != "" {
		fw, err := sim.NewFileWriter(opts.LogFile, opts.LogFile+".detections")
		if err != nil {
			ws.Close()
			return nil, err
		}
		add(fw)
	}
	if opts.Sinks {
		e := opts.Env
		if e.GreptimeEndpoint != "" {
			gw, err := sim.NewGreptimeDBWriter(e.GreptimeEndpoint, e.GreptimeDatabase, e.GreptimeTable, e.DetectionTable)
			if err != nil {
				ws.Close()
				return nil, err
			}
			log.Info("writing telemetry to greptimedb", "endpoint", e.GreptimeEndpoint, "table", e.GreptimeTable)
			add(gw)
		}
		if e.NATSURL != "" {
			nw, err := sim.NewNATSWriter(ctx, e.NATSURL, e.NATSSubject)
			if err != nil {
				ws.Close()
				return nil, err
			}
			add(nw)
		}
		if e.RedisAddr != "" {
			rw, err := sim.NewRedisWriter(ctx, e.RedisAddr, e.RedisPrefix, opts.RedisTTL)
			if err != nil {
				ws.Close()
				return nil, err
			}
			log.Info("caching latest telemetry in redis", "addr", e.RedisAddr, "prefix", e.RedisPrefix)
			add(rw)
		}
	}

	switch len(writers) {
	case 0:
	case 1:
		ws.Telemetry = writers[0]
		ws.Detection = writers[0]
	default:
		tws := make([]sim.TelemetryWriter, len(writers))
		dws := make([]sim.DetectionWriter, len(writers))
		for i, w := range writers {
			tws[i] = w
			dws[i] = w
		}
		mw := sim.NewMultiWriter(tws, dws)
		ws.Telemetry = mw
		ws.Detection = mw
	}
	return ws, nil
}
