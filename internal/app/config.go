package app

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Env       string   `env:"APP_ENV" envDefault:"dev"`
	HTTPAddr  string   `env:"HTTP_ADDR" envDefault:":8080"`
	CORSAllow []string `env:"CORS_ALLOW" envDefault:"http://localhost:5173"`

	// Room policy. DefaultCapacity matches what the reference client asks
	// for; ROOM_TTL bounds how long an unredeemed code stays live.
	DefaultCapacity int           `env:"DEFAULT_CAPACITY" envDefault:"2"`
	MaxCapacity     int           `env:"MAX_CAPACITY" envDefault:"16"`
	RoomTTL         time.Duration `env:"ROOM_TTL" envDefault:"5m"`

	// Per-connection outbound queue; a member that overflows it is
	// treated as unreachable and disconnected.
	SendBuffer int `env:"SEND_BUFFER" envDefault:"64"`

	RateMax    int           `env:"RATE_MAX" envDefault:"120"`
	RateWindow time.Duration `env:"RATE_WINDOW" envDefault:"1m"`
}

// LoadConfig parses configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
