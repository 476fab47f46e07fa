// Package config provides configuration helpers for bionic-eye commands.
package config

import (
	"os"
	"strconv"
)

// Default runtime configuration.
const (
	DefaultWebPort     = "8080"
	DefaultSnapshotDir = "snapshots"
	DefaultLogLevel    = "info"
)

// CameraDevice returns the webcam index from BIONIC_CAMERA env var.
// Falls back to the provided default if not set or not a number.
func CameraDevice(defaultDevice int) int {
	if v := os.Getenv("BIONIC_CAMERA"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultDevice
}

// WebPort returns the dashboard port from BIONIC_WEB_PORT env var or default.
func WebPort() string {
	if port := os.Getenv("BIONIC_WEB_PORT"); port != "" {
		return port
	}
	return DefaultWebPort
}

// SnapshotDir returns the snapshot directory from BIONIC_SNAPSHOT_DIR env var or default.
func SnapshotDir() string {
	if dir := os.Getenv("BIONIC_SNAPSHOT_DIR"); dir != "" {
		return dir
	}
	return DefaultSnapshotDir
}

// FeedEndpoint returns the ZMQ bind address from BIONIC_FEED_ENDPOINT env var.
// Empty means the grid feed is disabled.
func FeedEndpoint() string {
	return os.Getenv("BIONIC_FEED_ENDPOINT")
}

// LogLevel returns the log level from BIONIC_LOG_LEVEL env var or default.
func LogLevel() string {
	if level := os.Getenv("BIONIC_LOG_LEVEL"); level != "" {
		return level
	}
	return DefaultLogLevel
}
