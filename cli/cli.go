package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/datalit/cli/cmd"
	"github.com/ardnew/datalit/pkg"
)

// CLI is the top-level command-line interface for datalit.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version kong.VersionFlag `help:"Print version and exit." short:"V"`

	Schema []string `help:"Schema file(s), or names searched for in the schema directory and ${pathEnv}." name:"schema" sep:"," short:"s"`

	Parse cmd.Parse `cmd:"" default:"withargs" help:"Parse a literal against a type"`
	Types cmd.Types `cmd:""                    help:"List schema types"`
	Repl  cmd.Repl  `cmd:""                    help:"Parse literals interactively"`
	Init  cmd.Init  `cmd:""                    help:"Initialize configuration file"`
}

// Run executes the datalit CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := kong.Vars{
		"version":               pkg.Name + " " + pkg.Version,
		"pathEnv":               pathEnv(),
		cmd.ConfigIdentifier:    configFilePath,
		cmd.CacheIdentifier:     cacheDir(),
		cmd.SchemaDirIdentifier: configPath(baseSchema),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags so that configuration loading and schema
	// resolution log at the requested level regardless of flag position.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(resolve(ctx), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSchemas(ctx, cli.Schema, schemaPath())

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	defer cli.Log.start(ctx)()

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
