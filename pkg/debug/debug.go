// Package debug provides global debug logging flags
package debug

import "fmt"

// Enabled controls whether debug logging is active
var Enabled bool

// Decisions controls whether every per-frame decision is printed.
// Use --debug-decisions to enable; this is very verbose at camera rate.
var Decisions bool

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

// DecisionLog prints a message only if decision tracing is enabled
func DecisionLog(format string, args ...interface{}) {
	if Decisions {
		fmt.Printf(format, args...)
	}
}
