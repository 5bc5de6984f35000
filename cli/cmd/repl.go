package cmd

import (
	"context"

	"github.com/ardnew/datalit/cli/cmd/repl"
	"github.com/ardnew/datalit/log"
)

// Repl starts an interactive session that parses each line against a type.
type Repl struct {
	Type string `arg:"" help:"Initial target type." optional:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	reg, err := loadRegistry(ctx)
	if err != nil {
		return err
	}

	if err := repl.Run(ctx, reg, r.Type, kongVar(ctx, CacheIdentifier), log.Default()); err != nil {
		return ErrRepl.Wrap(err)
	}

	return nil
}
