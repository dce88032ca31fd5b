package config

import (
	"fmt"

	"github.com/creasty/defaults"
	"github.com/spf13/viper"
)

// Load reads configuration from path (if non-empty) and the
// PKGBROKERD_-prefixed environment, applying struct-tag defaults for
// anything neither source sets.
func Load(path string) (*Configuration, error) {
	v := viper.New()
	v.SetEnvPrefix("PKGBROKERD")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Configuration{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("config: apply defaults: %w", err)
	}
	return cfg, nil
}
