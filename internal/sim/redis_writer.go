package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"quadsim/internal/telemetry"
)

type redisSetter interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisWriter caches the latest telemetry and detection of each flight under
// <prefix>:flight:<id>:latest and <prefix>:flight:<id>:detection.
type RedisWriter struct {
	client redisSetter
	closer func() error
	prefix string
	ttl    time.Duration
}

// NewRedisWriter connects to addr and verifies the connection with PING.
func NewRedisWriter(ctx context.Context, addr, prefix string, ttl time.Duration) (*RedisWriter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &RedisWriter{client: client, closer: client.Close, prefix: prefix, ttl: ttl}, nil
}

func (w *RedisWriter) key(flightID, suffix string) string {
	return fmt.Sprintf("%s:flight:%s:%s", w.prefix, flightID, suffix)
}

func (w *RedisWriter) set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.client.Set(ctx, key, data, w.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Write replaces the cached latest row of the flight.
func (w *RedisWriter) Write(row telemetry.TelemetryRow) error {
	return w.set(w.key(row.FlightID, "latest"), row)
}

// WriteDetection replaces the cached latest detection of the flight.
func (w *RedisWriter) WriteDetection(d telemetry.DetectionRow) error {
	return w.set(w.key(d.FlightID, "detection"), d)
}

func (w *RedisWriter) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer()
}
