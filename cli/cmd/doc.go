// Package cmd implements the datalit subcommands: parse, types, init and
// repl.
//
// Commands receive a [context.Context] carrying the [kong.Context] of the
// invocation ([WithContext]) and the schema documents named on the command
// line ([WithSchemas]).
package cmd

var (
	// CacheIdentifier is the kong variable holding the cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable holding the configuration file
	// path.
	ConfigIdentifier = "config"

	// SchemaDirIdentifier is the kong variable holding the configuration
	// schema directory.
	SchemaDirIdentifier = "schemaDir"
)
