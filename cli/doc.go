// Package cli contains the command line interface for datalit.
//
// # Usage
//
//	datalit [flags] <type> [<literal>]      parse a literal (default command)
//	datalit types [<pattern>]               list schema types
//	datalit repl [<type>]                   parse literals interactively
//	datalit init [--force] [--example]      write the configuration file
//
// The target type is a type name or a bracketed vector type such as
// "[Point]". Without a literal argument the literal is read from --source,
// which defaults to standard input.
//
// # Schemas
//
// Types other than int, float, string, nil and any are declared in YAML
// schema documents named with --schema. A name that is not an existing file
// is searched for, with and without a .yaml or .yml extension, in the
// schema subdirectory of the configuration directory and then in each
// directory listed in DATALIT_PATH.
//
// # Configuration
//
// Flag defaults are read from config.yaml in the user configuration
// directory. Keys are flag names; nested mappings join their keys with "-":
//
//	schema: [shapes]
//	log:
//	  level: debug
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, none, ...)
//   - --[no-]log-caller: Include caller information in log output
//   - --[no-]log-pretty: Colorize text output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o datalit .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default:
//     ~/.cache/datalit/pprof)
//
// # Examples
//
//	# Parse a vector of points as YAML
//	datalit -s shapes -o yaml '[Point]' '[Point{1, 2}, Point{3, 4}]'
//
//	# Sum the radii of a file of circles
//	datalit -s shapes -f circles.lit -q 'sum(it, .r)' '[Circle]'
package cli
