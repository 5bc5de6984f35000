// Package log wraps [log/slog] with a trace level, typed attributes and
// functional options.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//	logger.Debug("schema applied", slog.Int("structs", 3))
//
// A zero [Logger] discards all records, which lets library packages accept
// one through an option without requiring it.
//
// The package-level functions write through a default logger on stderr that
// the command line reconfigures with [Config].
//
// Text output is colorized with lipgloss when [WithPretty] is set and the
// destination supports color. JSON output is never colorized.
package log
