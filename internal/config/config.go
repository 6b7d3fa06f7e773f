package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is shared by every service binary; each reads the parts it needs
type Config struct {
	// HTTPPort overrides the binary's own default port when set
	HTTPPort    string        `yaml:"httpPort"`
	LogLevel    string        `yaml:"logLevel"`
	LogFormat   string        `yaml:"logFormat"`
	JWTSecret   string        `yaml:"jwtSecret"`
	TokenTTL    time.Duration `yaml:"tokenTTL"`
	NATSURL     string        `yaml:"natsUrl"`
	RedisAddr   string        `yaml:"redisAddr"`
	MongoURI    string        `yaml:"mongoUri"`
	MongoDB     string        `yaml:"mongoDb"`
	CORSOrigins string        `yaml:"corsOrigins"`
	Room        RoomConfig    `yaml:"room"`
	Race        RaceConfig    `yaml:"race"`
	Gateway     GatewayConfig `yaml:"gateway"`
}

// RoomConfig tunes the room coordinator
type RoomConfig struct {
	DefaultMaxPlayers int           `yaml:"defaultMaxPlayers"`
	MaxPlayersLimit   int           `yaml:"maxPlayersLimit"`
	DefaultCountdown  int           `yaml:"defaultCountdown"`
	MaxCountdown      int           `yaml:"maxCountdown"`
	MinPlayers        int           `yaml:"minPlayers"`
	TickInterval      time.Duration `yaml:"tickInterval"`
	EngineTimeout     time.Duration `yaml:"engineTimeout"`
}

// RaceConfig tunes race session retention
type RaceConfig struct {
	SessionTTL    time.Duration `yaml:"sessionTTL"`
	MaxSessionAge time.Duration `yaml:"maxSessionAge"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
	ResultsTTL    time.Duration `yaml:"resultsTTL"`
}

type GatewayConfig struct {
	AuthURL   string `yaml:"authUrl"`
	RoomsURL  string `yaml:"roomsUrl"`
	EngineURL string `yaml:"engineUrl"`
}

func Default() *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		JWTSecret:   "super-secret-key-change-in-production",
		TokenTTL:    24 * time.Hour,
		NATSURL:     "nats://localhost:4222",
		RedisAddr:   "localhost:6379",
		MongoURI:    "mongodb://localhost:27017",
		MongoDB:     "typerace",
		CORSOrigins: "*",
		Room: RoomConfig{
			DefaultMaxPlayers: 2,
			MaxPlayersLimit:   8,
			DefaultCountdown:  3,
			MaxCountdown:      30,
			MinPlayers:        2,
			TickInterval:      time.Second,
			EngineTimeout:     5 * time.Second,
		},
		Race: RaceConfig{
			SessionTTL:    10 * time.Minute,
			MaxSessionAge: 30 * time.Minute,
			SweepInterval: time.Minute,
			ResultsTTL:    time.Hour,
		},
		Gateway: GatewayConfig{
			AuthURL:   "http://localhost:8081",
			RoomsURL:  "http://localhost:8082",
			EngineURL: "http://localhost:8083",
		},
	}
}

// Load builds the config from defaults, then the YAML file at path (if any),
// then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.NATSURL = getEnv("NATS_URL", cfg.NATSURL)
	cfg.RedisAddr = strings.TrimPrefix(getEnv("REDIS_URI", cfg.RedisAddr), "redis://")
	cfg.MongoURI = getEnv("MONGO_URI", cfg.MongoURI)
	cfg.MongoDB = getEnv("MONGO_DB", cfg.MongoDB)
	cfg.CORSOrigins = getEnv("CORS_ALLOWED_ORIGINS", cfg.CORSOrigins)
	cfg.Gateway.AuthURL = getEnv("AUTH_URL", cfg.Gateway.AuthURL)
	cfg.Gateway.RoomsURL = getEnv("ROOMS_URL", cfg.Gateway.RoomsURL)
	cfg.Gateway.EngineURL = getEnv("ENGINE_URL", cfg.Gateway.EngineURL)

	var err error
	if cfg.Room.TickInterval, err = getDuration("ROOM_TICK_INTERVAL", cfg.Room.TickInterval); err != nil {
		return nil, err
	}
	if cfg.Room.EngineTimeout, err = getDuration("ENGINE_TIMEOUT", cfg.Room.EngineTimeout); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	r := c.Room
	if r.MaxPlayersLimit < 1 {
		return fmt.Errorf("room.maxPlayersLimit must be positive, got %d", r.MaxPlayersLimit)
	}
	if r.DefaultMaxPlayers < 1 || r.DefaultMaxPlayers > r.MaxPlayersLimit {
		return fmt.Errorf("room.defaultMaxPlayers must be within 1..%d, got %d", r.MaxPlayersLimit, r.DefaultMaxPlayers)
	}
	if r.DefaultCountdown < 1 || r.DefaultCountdown > r.MaxCountdown {
		return fmt.Errorf("room.defaultCountdown must be within 1..%d, got %d", r.MaxCountdown, r.DefaultCountdown)
	}
	if r.TickInterval <= 0 || r.EngineTimeout <= 0 {
		return fmt.Errorf("room.tickInterval and room.engineTimeout must be positive")
	}
	if c.Race.SweepInterval <= 0 {
		return fmt.Errorf("race.sweepInterval must be positive")
	}
	return nil
}

// Addr is the listen address, using fallbackPort when no port is configured
func (c *Config) Addr(fallbackPort string) string {
	if c.HTTPPort != "" {
		return ":" + c.HTTPPort
	}
	return ":" + fallbackPort
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
