// Package config loads relay settings from an optional YAML file, a .env
// file and the process environment, in increasing order of precedence.
package config

import "time"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Relay     RelayConfig     `yaml:"relay"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Auth      AuthConfig      `yaml:"auth"`
	Producer  ProducerConfig  `yaml:"producer"`
}

type ServerConfig struct {
	Port              string        `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RelayConfig.StatusInterval defaults when zero; a negative value turns the
// periodic status log off.
type RelayConfig struct {
	StatusInterval time.Duration `yaml:"status_interval"`
}

type WebSocketConfig struct {
	WriteWait      time.Duration `yaml:"write_wait"`
	PongWait       time.Duration `yaml:"pong_wait"`
	MaxMessageSize int64         `yaml:"max_message_size"`
	SendBuffer     int           `yaml:"send_buffer"`
}

// AuthConfig enables token authentication on sockets when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// ProducerConfig guards POST /api/events. An empty key leaves it open.
type ProducerConfig struct {
	Key string `yaml:"key"`
}
