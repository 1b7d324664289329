package config

import "github.com/caarlos0/env/v10"

// parseEnv overlays environment variables onto the config using the `env`
// struct tags. Unset variables leave the current values untouched.
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
