// Command localgraph serves agent graphs locally and streams runs from them.
//
//	localgraph serve                      # serve langgraph.json on 127.0.0.1:2024
//	localgraph stream --message "Hello"   # stream one threadless run
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "localgraph",
		Short:         "Run agent graphs on a local server",
		Long:          `localgraph hosts the graphs listed in langgraph.json behind an HTTP API and streams their runs as Server-Sent Events.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newStreamCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
