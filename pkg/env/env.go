package env

import (
	"os"
	"strings"
)

// Get returns the value of the given environment variable or a fallback.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// InstanceID identifies the running process for lock ownership and logs.
// WORKER_ID wins over the platform-provided DYNO name.
func InstanceID() string {
	if id := Get("WORKER_ID", ""); id != "" {
		return id
	}
	return Get("DYNO", "local")
}
