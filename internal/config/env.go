package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// RuntimeEnv holds deployment settings read from the environment.
type RuntimeEnv struct {
	FlightID     string        `env:"FLIGHT_ID"`
	TickInterval time.Duration `env:"TICK_INTERVAL"`

	GreptimeEndpoint string `env:"GREPTIMEDB_ENDPOINT"`
	GreptimeDatabase string `env:"GREPTIMEDB_DATABASE" envDefault:"public"`
	GreptimeTable    string `env:"GREPTIMEDB_TABLE" envDefault:"flight_telemetry"`
	DetectionTable   string `env:"GREPTIMEDB_DETECTION_TABLE" envDefault:"flight_detections"`

	NATSURL     string `env:"NATS_URL"`
	NATSSubject string `env:"NATS_SUBJECT" envDefault:"quadsim.telemetry"`

	RedisAddr   string `env:"REDIS_ADDR"`
	RedisPrefix string `env:"REDIS_PREFIX" envDefault:"quadsim"`

	AdminAddr string `env:"ADMIN_ADDR" envDefault:":8080"`
}

// LoadEnv parses RuntimeEnv from the process environment.
func LoadEnv() (RuntimeEnv, error) {
	var e RuntimeEnv
	if err := env.Parse(&e); err != nil {
		return RuntimeEnv{}, fmt.Errorf("parse environment: %w", err)
	}
	return e, nil
}
