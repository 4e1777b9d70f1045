package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port     string
		LogLevel string
	}
	Room struct {
		DefaultLanguage string
	}
}

// Load reads configuration from the environment, falling back to
// defaults. Missing variables never fail; clients get a runnable server
// with no configuration at all.
func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("room.default_language", "javascript")

	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")
	v.BindEnv("room.default_language", "DEFAULT_LANGUAGE")

	var c Config
	c.Server.Port = v.GetString("server.port")
	c.Server.LogLevel = v.GetString("server.log_level")
	c.Room.DefaultLanguage = v.GetString("room.default_language")
	return c
}
