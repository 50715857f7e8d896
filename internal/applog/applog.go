// Package applog constructs the daemon's structured logger.
//
// IntuitionEngine logs via plain fmt.Printf gated by package-level bool
// flags (see main.go's verbose/debug switches); this upgrades that to a
// single explicitly-constructed *slog.Logger passed into every component
// constructor, with enabled/verbose mapped onto Info/Debug levels.
package applog

import (
	"log/slog"
	"os"
)

// New builds a logger per the two severity channels named in the original
// design: enabled gates Info-and-above output entirely (a disabled logger
// discards everything), verbose additionally unlocks Debug.
func New(enabled, verbose bool) *slog.Logger {
	if !enabled {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: disabledLevel}))
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// disabledLevel is above any level slog emits by default, effectively
// silencing the handler without a separate no-op Handler implementation.
const disabledLevel = slog.Level(1 << 20)
