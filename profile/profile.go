// Package profile starts runtime profiling with [github.com/pkg/profile].
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	datalit --pprof-mode cpu parse Point 'Point{1, 2}'
//
// Without the tag, [Modes] is empty and [Profiler.Start] does nothing.
package profile

// Tag names both the build tag and the default output subdirectory.
const Tag = "pprof"

// Stopper ends a running profile and flushes its output.
type Stopper interface{ Stop() }

// Profiler selects one profiling mode and where its output goes.
type Profiler struct {
	Mode  string
	Dir   string
	Quiet bool
}

// Option modifies a Profiler.
type Option func(Profiler) Profiler

// Make returns a Profiler configured by opts.
func Make(opts ...Option) Profiler {
	var p Profiler
	for _, opt := range opts {
		p = opt(p)
	}

	return p
}

// WithMode selects the profile kind; see [Modes].
func WithMode(mode string) Option {
	return func(p Profiler) Profiler {
		p.Mode = mode

		return p
	}
}

// WithDir sets the output directory.
func WithDir(dir string) Option {
	return func(p Profiler) Profiler {
		p.Dir = dir

		return p
	}
}

// WithQuiet suppresses the profiler's own log lines.
func WithQuiet(quiet bool) Option {
	return func(p Profiler) Profiler {
		p.Quiet = quiet

		return p
	}
}

// Start begins profiling. An empty or unsupported mode returns a Stopper
// that does nothing.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
