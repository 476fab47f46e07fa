// Package debug provides global debug logging flags
package debug

import "fmt"

// Enabled controls whether debug logging is active
var Enabled bool

// Stages controls whether per-stage pipeline traces are shown (sizes, crop branch, timings)
// Use --debug-stages flag to enable these very verbose logs
var Stages bool

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		fmt.Printf(format, args...)
	}
}

// Logln prints a message with newline only if debug mode is enabled
func Logln(msg string) {
	if Enabled {
		fmt.Println(msg)
	}
}

// StageLog prints a message only if stage debug mode is enabled
func StageLog(format string, args ...interface{}) {
	if Stages {
		fmt.Printf(format, args...)
	}
}
