package main

import (
	"fmt"
	"net"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leofalp/localgraph/agent"
	"github.com/leofalp/localgraph/internal/config"
	"github.com/leofalp/localgraph/providers/observability"
	"github.com/leofalp/localgraph/providers/observability/slogobs"
	"github.com/leofalp/localgraph/server"
)

type serveOptions struct {
	configPath string
	host       string
	port       int
	logLevel   string
	logFormat  string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"dev"},
		Short:   "Serve the configured graphs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "project file (default ./langgraph.json when present)")
	f.StringVar(&opts.host, "host", "127.0.0.1", "interface to listen on")
	f.IntVar(&opts.port, "port", 2024, "port to listen on")
	f.StringVar(&opts.logLevel, "log-level", "", "trace, debug, info, warn or error (default from LOCALGRAPH_LOG_LEVEL)")
	f.StringVar(&opts.logFormat, "log-format", "", "compact, pretty or json (default from LOCALGRAPH_LOG_FORMAT)")
	return cmd
}

func newObserver(level, format string) (*slogobs.Observer, error) {
	var opts []slogobs.Option
	if level != "" {
		l, err := slogobs.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		opts = append(opts, slogobs.WithLevel(l))
	}
	if format != "" {
		opts = append(opts, slogobs.WithFormat(slogobs.ParseFormat(format)))
	}
	return slogobs.New(opts...), nil
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	observer, err := newObserver(opts.logLevel, opts.logFormat)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := cfg.LoadEnv(); err != nil {
		return err
	}

	registry, err := buildRegistry(cfg, observer)
	if err != nil {
		return err
	}

	srv := server.New(registry,
		server.WithAddr(net.JoinHostPort(opts.host, strconv.Itoa(opts.port))),
		server.WithObserver(observer),
		server.WithVersion(version))
	return srv.Run(cmd.Context())
}

// buildRegistry compiles every graph listed in cfg. The agent graph is
// known as "agent" and, for project files written for the Python
// toolchain, as "graph" (the "./graph.py:graph" reference).
func buildRegistry(cfg *config.Config, observer observability.Provider) (*server.Registry, error) {
	registry := server.NewRegistry()

	ids := make([]string, 0, len(cfg.Graphs))
	for id := range cfg.Graphs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		ref := cfg.Graphs[id]
		switch config.GraphName(ref) {
		case agent.Name, "graph":
		default:
			return nil, fmt.Errorf("graph %q: unknown reference %q", id, ref)
		}

		compiled, err := agent.NewFromConfig(agent.Config{
			Model:      cfg.Model,
			MaxResults: cfg.MaxResults,
			Observer:   observer,
		})
		if err != nil {
			return nil, fmt.Errorf("graph %q: %w", id, err)
		}
		if _, err := registry.Register(id, compiled); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
