package main

import (
	"github.com/spf13/cobra"

	"github.com/leofalp/localgraph/internal/utils"
	"github.com/leofalp/localgraph/sdk"
)

type streamOptions struct {
	url         string
	assistant   string
	thread      string
	message     string
	streamModes []string
	apiKey      string
	indent      bool
}

func newStreamCmd() *cobra.Command {
	opts := &streamOptions{}
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Stream one run and print every event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStream(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.url, "url", sdk.DefaultURL, "server address")
	f.StringVarP(&opts.assistant, "assistant", "a", "agent", "assistant id or graph id")
	f.StringVar(&opts.thread, "thread", "", "thread id; empty starts a threadless run")
	f.StringVarP(&opts.message, "message", "m", "What is LangGraph?", "human message sent as input")
	f.StringSliceVar(&opts.streamModes, "stream-mode", nil, "values and/or updates (default values)")
	f.StringVar(&opts.apiKey, "api-key", "", "value of the X-Api-Key header")
	f.BoolVar(&opts.indent, "indent", false, "pretty-print event payloads")
	return cmd
}

func runStream(cmd *cobra.Command, opts *streamOptions) error {
	var clientOpts []sdk.ClientOption
	if opts.apiKey != "" {
		clientOpts = append(clientOpts, sdk.WithAPIKey(opts.apiKey))
	}
	client := sdk.NewClient(opts.url, clientOpts...)

	input := map[string]any{
		"messages": []map[string]string{{"role": "human", "content": opts.message}},
	}
	var runOpts []sdk.RunOption
	if len(opts.streamModes) > 0 {
		runOpts = append(runOpts, sdk.WithStreamMode(opts.streamModes...))
	}

	var threadID *string
	if opts.thread != "" {
		threadID = utils.Ptr(opts.thread)
	}

	stream, err := client.Runs.Stream(cmd.Context(), threadID, opts.assistant, input, runOpts...)
	if err != nil {
		return err
	}
	_, err = sdk.NewPrinter(cmd.OutOrStdout(), sdk.WithIndent(opts.indent)).PrintAll(stream)
	return err
}
