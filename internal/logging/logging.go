// SPDX-License-Identifier: Apache-2.0

// Package logging builds the structured loggers used across the module.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the logger type accepted by every component. A nil Logger is
// valid and discards everything.
type Logger = logiface.Logger[logiface.Event]

// New returns a JSON logger writing to w at the given level. A nil w selects
// os.Stderr.
func New(w io.Writer, level logiface.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	).Logger()
}

// Component returns a sub-logger of l that tags every event with the given
// component name.
func Component(l *Logger, name string) *Logger {
	return l.Clone().Str("component", name).Logger()
}

// ParseLevel maps a level name to a logiface.Level. It accepts the syslog
// keywords produced by logiface.Level.String, plus a few common aliases.
func ParseLevel(s string) (logiface.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled", "off", "none":
		return logiface.LevelDisabled, nil
	case "emerg", "emergency":
		return logiface.LevelEmergency, nil
	case "alert":
		return logiface.LevelAlert, nil
	case "crit", "critical":
		return logiface.LevelCritical, nil
	case "err", "error":
		return logiface.LevelError, nil
	case "warning", "warn":
		return logiface.LevelWarning, nil
	case "notice":
		return logiface.LevelNotice, nil
	case "info", "informational":
		return logiface.LevelInformational, nil
	case "debug":
		return logiface.LevelDebug, nil
	case "trace":
		return logiface.LevelTrace, nil
	default:
		return logiface.LevelDisabled, fmt.Errorf("logging: unknown level %q", s)
	}
}
