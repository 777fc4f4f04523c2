package graph

import (
	"github.com/leofalp/localgraph/providers/observability"
)

// Option configures a StateGraph. Options are applied by NewStateGraph and
// carried into the compiled graph.
type Option func(*graphConfig)

type graphConfig struct {
	name           string
	recursionLimit int
	observer       observability.Provider
}

// WithName sets the name reported in logs and spans. Defaults to
// "LangGraph".
func WithName(name string) Option {
	return func(c *graphConfig) {
		c.name = name
	}
}

// WithRecursionLimit sets the default number of node executions per run.
// Non-positive values keep DefaultRecursionLimit.
func WithRecursionLimit(limit int) Option {
	return func(c *graphConfig) {
		if limit > 0 {
			c.recursionLimit = limit
		}
	}
}

// WithObserver attaches an observability provider. Without one, the
// provider found on the run context (if any) is used.
func WithObserver(provider observability.Provider) Option {
	return func(c *graphConfig) {
		c.observer = provider
	}
}

// RunOption adjusts a single Invoke or Stream call.
type RunOption func(*runConfig)

type runConfig struct {
	recursionLimit int
	modes          []StreamMode
}

// WithRunRecursionLimit overrides the graph's recursion limit for one run.
func WithRunRecursionLimit(limit int) RunOption {
	return func(c *runConfig) {
		if limit > 0 {
			c.recursionLimit = limit
		}
	}
}

// WithStreamModes selects the events a Stream emits. Defaults to values.
// Invoke ignores it.
func WithStreamModes(modes ...StreamMode) RunOption {
	return func(c *runConfig) {
		c.modes = append(c.modes, modes...)
	}
}

func (g *CompiledGraph[S]) resolveRun(opts []RunOption) runConfig {
	rc := runConfig{recursionLimit: g.config.recursionLimit}
	for _, opt := range opts {
		opt(&rc)
	}
	if len(rc.modes) == 0 {
		rc.modes = []StreamMode{StreamModeValues}
	}
	return rc
}
