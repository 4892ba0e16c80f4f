package config

import (
	"os"
	"time"
)

// Getter is the subset of *viper.Viper the loaders read from.
type Getter interface {
	GetString(key string) string
	GetStringMapString(key string) map[string]string
	GetBool(key string) bool
	GetInt(key string) int
	GetFloat64(key string) float64
	GetDuration(key string) time.Duration
}

// stringOr returns the viper value, then the first non-empty env variable.
func stringOr(v Getter, key string, envs ...string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	for _, env := range envs {
		if s := os.Getenv(env); s != "" {
			return s
		}
	}
	return ""
}
