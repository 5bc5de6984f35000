package repl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ardnew/datalit/lang"
	"github.com/ardnew/datalit/lang/heap"
	"github.com/ardnew/datalit/lang/types"
	"github.com/ardnew/datalit/log"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "type", "types", "stats", "clear", "quit"}

// action is a side effect of a command that the UI must perform.
type action int

const (
	actNone action = iota
	actClear
	actQuit
)

// session parses REPL input against the selected target type. Each parsed
// value is released as soon as it has been printed.
type session struct {
	reg    *types.Registry
	target types.Type
	arena  *heap.Arena
	logger log.Logger
	parsed int
	failed int
}

func newSession(reg *types.Registry, logger log.Logger) *session {
	return &session{reg: reg, arena: heap.New(), logger: logger}
}

// setType selects the type expression typ as the parse target.
func (s *session) setType(typ string) error {
	t, err := s.reg.Resolve(typ)
	if err != nil {
		return err
	}

	s.target = t

	return nil
}

// evaluate parses input against the target type and returns its rendering
// as a tree.
func (s *session) evaluate(ctx context.Context, input string) (string, error) {
	if s.target == nil {
		return "", ErrNoType
	}

	v, err := lang.Parse(ctx, s.reg, s.target, input,
		lang.WithAllocator(s.arena), lang.WithLogger(s.logger))
	if err != nil {
		s.failed++

		return "", err
	}

	defer s.arena.ReleaseValue(v)

	s.parsed++

	var sb strings.Builder
	if err := lang.FormatTree(ctx, &sb, v); err != nil {
		return "", err
	}

	return strings.TrimRight(sb.String(), "\n"), nil
}

// command runs one control-mode command line.
func (s *session) command(ctx context.Context, input string) (string, action, error) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return "", actNone, nil
	}

	name, args := parts[0], parts[1:]

	s.logger.TraceContext(ctx, "repl exec command",
		slog.String("command", name),
		slog.Any("args", args))

	switch name {
	case "q", "quit", "exit":
		return "", actQuit, nil

	case "h", "help":
		return helpMessage(), actNone, nil

	case "c", "clear":
		return "", actClear, nil

	case "t", "type":
		if len(args) == 0 {
			if s.target == nil {
				return "", actNone, ErrNoType
			}

			return types.Describe(s.target), actNone, nil
		}

		if err := s.setType(strings.Join(args, " ")); err != nil {
			return "", actNone, err
		}

		return "target: " + s.target.String(), actNone, nil

	case "types":
		return s.listTypes(), actNone, nil

	case "stats":
		return s.stats(), actNone, nil

	default:
		return "", actNone, fmt.Errorf("%w: %s (try 'help')", ErrUnknownCmd, name)
	}
}

func (s *session) listTypes() string {
	var b strings.Builder

	for _, name := range s.reg.Names() {
		t, _ := s.reg.Lookup(name)
		fmt.Fprintf(&b, "  %s %s\n", name, hintStyle.Render(types.Describe(t)))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (s *session) stats() string {
	return fmt.Sprintf("parsed %d, failed %d, objects allocated %d, released %d, live %d",
		s.parsed, s.failed,
		s.arena.Allocated(), s.arena.Released(), s.arena.Live())
}

// prompt returns the name of the current target, or "" when none is set.
func (s *session) prompt() string {
	if s.target == nil {
		return ""
	}

	return s.target.String()
}

// names returns the completion candidates of parse mode: type names and
// the constants of every enumeration.
func (s *session) names() []string {
	names := s.reg.Names()

	for _, name := range s.reg.Names() {
		t, _ := s.reg.Lookup(name)
		if e, ok := t.(*types.Enum); ok {
			for _, ev := range s.reg.EnumValues(e.Table) {
				names = append(names, ev.Name)
			}
		}
	}

	return names
}
