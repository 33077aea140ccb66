// Package config builds the runtime configuration of the disassembler.
package config

import (
	"github.com/retroenv/retrogolib/log"
)

// CreateLogger creates the application logger. Debug lowers the level to
// include the analysis traces, quiet raises it so that only errors reach
// the console; debug wins if both are set.
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	switch {
	case debug:
		cfg.Level = log.DebugLevel
	case quiet:
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}
