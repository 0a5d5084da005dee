// ABOUTME: Server configuration loading
// ABOUTME: Merges viper defaults, an optional YAML file, and VOICECAST_* env vars
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the voicecast server configuration.
type Config struct {
	Port       int    `mapstructure:"port"`
	Name       string `mapstructure:"name"`
	EnableMDNS bool   `mapstructure:"mdns"`
	Debug      bool   `mapstructure:"debug"`
	AudioFile  string `mapstructure:"audio_file"`
	OpusLib    string `mapstructure:"opus_lib"`
	LogFile    string `mapstructure:"log_file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8927)
	v.SetDefault("name", "")
	v.SetDefault("mdns", true)
	v.SetDefault("debug", false)
	v.SetDefault("audio_file", "")
	v.SetDefault("opus_lib", "")
	v.SetDefault("log_file", "voicecast-server.log")
}

// Load reads configuration from the given file path (optional; empty means
// defaults only), with VOICECAST_* environment variables taking precedence
// over the file.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VOICECAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
