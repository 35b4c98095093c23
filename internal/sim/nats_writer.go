package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"quadsim/internal/logging"
	"quadsim/internal/telemetry"
)

type natsPublisher interface {
	Publish(subj string, data []byte) error
}

// NATSWriter publishes telemetry as JSON to <subject>.<flight_id> and
// detections to <subject>.<flight_id>.detections.
type NATSWriter struct {
	pub     natsPublisher
	conn    *nats.Conn
	subject string
}

// NewNATSWriter connects to url with unlimited reconnects.
func NewNATSWriter(ctx context.Context, url, subject string) (*NATSWriter, error) {
	log := logging.FromContext(ctx)
	opts := []nats.Option{
		nats.Name("quadsim-telemetry"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	log.Info("nats connected", "url", url, "subject", subject)
	return &NATSWriter{pub: nc, conn: nc, subject: subject}, nil
}

func (w *NATSWriter) publish(subj string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := w.pub.Publish(subj, data); err != nil {
		return fmt.Errorf("publish %s: %w", subj, err)
	}
	return nil
}

// Write publishes a telemetry row.
func (w *NATSWriter) Write(row telemetry.TelemetryRow) error {
	return w.publish(w.subject+"."+row.FlightID, row)
}

// WriteDetection publishes a detection row.
func (w *NATSWriter) WriteDetection(d telemetry.DetectionRow) error {
	return w.publish(w.subject+"."+d.FlightID+".detections", d)
}

// Close flushes pending messages and closes the connection.
func (w *NATSWriter) Close() error {
	if w.conn == nil {
		return nil
	}
	err := w.conn.Flush()
	w.conn.Close()
	return err
}
