package sim

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"quadsim/internal/telemetry"
)

const defaultGreptimePort = 4001

type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes telemetry and detections to GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client         greptimeClient
	table          string
	detectionTable string
	timeout        time.Duration
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port"). Tables are
// created by GreptimeDB on first write.
func NewGreptimeDBWriter(endpoint, database, tableName, detectionTable string) (*GreptimeDBWriter, error) {
	host, port, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	if tableName == "" {
		tableName = telemetry.TelemetryTableName
	}
	if detectionTable == "" {
		detectionTable = telemetry.DetectionTableName
	}
	return &GreptimeDBWriter{client: client, table: tableName, detectionTable: detectionTable, timeout: 5 * time.Second}, nil
}

func splitEndpoint(endpoint string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		// No port given.
		return endpoint, defaultGreptimePort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid greptime port %q: %w", portStr, err)
	}
	return host, port, nil
}

func (w *GreptimeDBWriter) write(name string, tbl *table.Table) error {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	if _, err := w.client.Write(ctx, tbl); err != nil {
		return fmt.Errorf("greptime write %s: %w", name, err)
	}
	return nil
}

// Write inserts a single telemetry row.
func (w *GreptimeDBWriter) Write(row telemetry.TelemetryRow) error {
	return w.WriteBatch([]telemetry.TelemetryRow{row})
}

// WriteBatch inserts multiple telemetry rows in one request.
func (w *GreptimeDBWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := telemetryTable(w.table)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(
			r.FlightID, r.Mode,
			r.Tick, r.X, r.Y, r.Z, r.Heading,
			r.Hover, r.CmdAngle, r.CmdSpeed, r.CmdAltitude,
			r.XOffset, r.YOffset, r.Aligned, int64(r.SearchStep),
			r.Action, r.Error,
			r.Timestamp,
		); err != nil {
			return fmt.Errorf("add telemetry row: %w", err)
		}
	}
	return w.write(w.table, tbl)
}

// WriteDetection inserts a single detection row.
func (w *GreptimeDBWriter) WriteDetection(d telemetry.DetectionRow) error {
	return w.WriteDetections([]telemetry.DetectionRow{d})
}

// WriteDetections inserts multiple detection rows in one request.
func (w *GreptimeDBWriter) WriteDetections(rows []telemetry.DetectionRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.detectionTable)
	if err != nil {
		return err
	}
	columns := []func() error{
		func() error { return tbl.AddTagColumn("flight_id", types.STRING) },
		func() error { return tbl.AddFieldColumn("tick", types.INT64) },
		func() error { return tbl.AddFieldColumn("center_x", types.FLOAT64) },
		func() error { return tbl.AddFieldColumn("center_y", types.FLOAT64) },
		func() error { return tbl.AddFieldColumn("radius", types.FLOAT64) },
		func() error { return tbl.AddFieldColumn("area", types.FLOAT64) },
		func() error { return tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND) },
	}
	for _, add := range columns {
		if err := add(); err != nil {
			return fmt.Errorf("detection schema: %w", err)
		}
	}
	for _, d := range rows {
		if err := tbl.AddRow(d.FlightID, d.Tick, d.CenterX, d.CenterY, d.Radius, d.Area, d.Timestamp); err != nil {
			return fmt.Errorf("add detection row: %w", err)
		}
	}
	return w.write(w.detectionTable, tbl)
}

func telemetryTable(name string) (*table.Table, error) {
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	tags := []string{"flight_id", "mode"}
	fields := []struct {
		name string
		typ  types.ColumnType
	}{
		{"tick", types.INT64},
		{"x", types.FLOAT64},
		{"y", types.FLOAT64},
		{"z", types.FLOAT64},
		{"heading", types.FLOAT64},
		{"hover", types.BOOLEAN},
		{"cmd_angle", types.FLOAT64},
		{"cmd_speed", types.FLOAT64},
		{"cmd_altitude", types.FLOAT64},
		{"x_offset", types.FLOAT64},
		{"y_offset", types.FLOAT64},
		{"aligned", types.BOOLEAN},
		{"search_step", types.INT64},
		{"action", types.STRING},
		{"error", types.STRING},
	}
	for _, t := range tags {
		if err := tbl.AddTagColumn(t, types.STRING); err != nil {
			return nil, fmt.Errorf("telemetry schema: %w", err)
		}
	}
	for _, f := range fields {
		if err := tbl.AddFieldColumn(f.name, f.typ); err != nil {
			return nil, fmt.Errorf("telemetry schema: %w", err)
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, fmt.Errorf("telemetry schema: %w", err)
	}
	return tbl, nil
}
