package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/localgraph/internal/config"
	"github.com/leofalp/localgraph/patterns/graph"
	"github.com/leofalp/localgraph/providers/ai"
	"github.com/leofalp/localgraph/server"
)

func TestBuildRegistry(t *testing.T) {
	registry, err := buildRegistry(&config.Config{
		Graphs:     map[string]string{"agent": "./graph.py:graph", "research": "agent"},
		MaxResults: 2,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"agent", "research"}, registry.GraphIDs())

	_, err = buildRegistry(&config.Config{Graphs: map[string]string{"agent": "./other.py:workflow"}}, nil)
	assert.ErrorContains(t, err, "unknown reference")
}

func TestStreamCommand(t *testing.T) {
	g := graph.NewStateGraph(graph.AddMessages)
	g.AddNode("chatbot", func(context.Context, graph.MessagesState) (graph.MessagesState, error) {
		return graph.MessagesState{Messages: []ai.Message{ai.NewAssistantMessage("hello")}}, nil
	})
	g.AddEdge(graph.Start, "chatbot")
	g.AddEdge("chatbot", graph.End)
	compiled, err := g.Compile()
	require.NoError(t, err)
	registry := server.NewRegistry()
	_, err = registry.Register("agent", compiled)
	require.NoError(t, err)
	ts := httptest.NewServer(server.New(registry).Handler())
	defer ts.Close()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"stream", "--url", ts.URL, "--stream-mode", "updates"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Equal(t, 2, strings.Count(out.String(), "Receiving new event of type:"))
	assert.Contains(t, out.String(), "Receiving new event of type: metadata...\n")
	assert.Contains(t, out.String(), "Receiving new event of type: updates...\n")

	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"stream", "--url", ts.URL, "--thread", "t-1"})
	assert.ErrorContains(t, root.ExecuteContext(context.Background()), "threads are not supported")
}

func TestServeAlias(t *testing.T) {
	cmd, _, err := newRootCmd().Find([]string{"dev"})
	require.NoError(t, err)
	assert.Equal(t, "serve", cmd.Name())
}
