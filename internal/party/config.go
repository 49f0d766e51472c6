// Package party implements a terminal chat participant. It connects to the
// relay, prefixes submissions with a nickname, and renders what it receives.
package party

import (
	"github.com/kelseyhightower/envconfig"
)

// Config holds the terminal party settings, read from CHAT_* variables.
type Config struct {
	ServerURL string `envconfig:"CHAT_SERVER_URL" default:"ws://localhost:8080/ws"`
	// CHAT_ORIGIN must be an allowed origin of the relay or name its own host
	Origin   string `envconfig:"CHAT_ORIGIN" default:"http://localhost:8080"`
	Nickname string `envconfig:"CHAT_NICKNAME" default:"Guest"`
	// CHAT_COLOURS enables colorized output for own and other messages
	Colours  bool   `envconfig:"CHAT_COLOURS" default:"true"`
	LogLevel string `envconfig:"CHAT_LOG_LEVEL" default:"WARN"`
}

// LoadConfig reads Config from the environment, applying defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
