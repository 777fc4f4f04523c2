package graph

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/leofalp/localgraph/providers/ai"
	"github.com/leofalp/localgraph/providers/observability"
	"github.com/leofalp/localgraph/providers/observability/slogobs"
)

// trail is a test state recording which nodes ran.
type trail struct {
	Visited []string
}

func appendTrail(current, delta trail) trail {
	return trail{Visited: append(slices.Clone(current.Visited), delta.Visited...)}
}

func visit(name string) NodeFunc[trail] {
	return func(context.Context, trail) (trail, error) {
		return trail{Visited: []string{name}}, nil
	}
}

func TestCompile_Validation(t *testing.T) {
	tests := []struct {
		name  string
		build func(g *StateGraph[trail])
		want  string
	}{
		{"no entry", func(g *StateGraph[trail]) {
			g.AddNode("a", visit("a")).AddEdge("a", End)
		}, "no entry point"},
		{"unknown target", func(g *StateGraph[trail]) {
			g.AddNode("a", visit("a")).AddEdge(Start, "a").AddEdge("a", "b")
		}, `edge target "b"`},
		{"dangling node", func(g *StateGraph[trail]) {
			g.AddNode("a", visit("a")).AddNode("b", visit("b")).AddEdge(Start, "a").AddEdge("a", End)
		}, `node "b" has no outgoing edge`},
		{"reserved name", func(g *StateGraph[trail]) {
			g.AddNode(End, visit("x")).AddEdge(Start, End)
		}, "reserved"},
		{"duplicate", func(g *StateGraph[trail]) {
			g.AddNode("a", visit("a")).AddNode("a", visit("a")).AddEdge(Start, "a").AddEdge("a", End)
		}, "duplicate node"},
		{"fixed and conditional", func(g *StateGraph[trail]) {
			g.AddNode("a", visit("a")).AddEdge(Start, "a").AddEdge("a", End).
				AddConditionalEdges("a", func(context.Context, trail) (string, error) { return End, nil }, nil)
		}, "both a fixed and a conditional"},
		{"bad path map", func(g *StateGraph[trail]) {
			g.AddNode("a", visit("a")).AddEdge(Start, "a").
				AddConditionalEdges("a", func(context.Context, trail) (string, error) { return "x", nil }, map[string]string{"x": "nowhere"})
		}, `unknown node "nowhere"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewStateGraph(appendTrail)
			tt.build(g)
			_, err := g.Compile()
			if !errors.Is(err, ErrInvalidGraph) {
				t.Fatalf("expected ErrInvalidGraph, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

// TestInvoke_Loop runs a -> b -> a -> b -> End with a router counting visits.
func TestInvoke_Loop(t *testing.T) {
	g := NewStateGraph(appendTrail)
	g.AddNode("a", visit("a"))
	g.AddNode("b", visit("b"))
	g.AddEdge(Start, "a")
	g.AddEdge("a", "b")
	g.AddConditionalEdges("b", func(_ context.Context, s trail) (string, error) {
		if len(s.Visited) < 4 {
			return "again", nil
		}
		return "done", nil
	}, map[string]string{"again": "a", "done": End})

	compiled, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	final, err := compiled.Invoke(context.Background(), trail{Visited: []string{"input"}})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	want := []string{"input", "a", "b", "a", "b"}
	if !slices.Equal(final.Visited, want) {
		t.Errorf("Visited = %v, want %v", final.Visited, want)
	}
}

func TestInvoke_RecursionLimit(t *testing.T) {
	g := NewStateGraph(appendTrail, WithRecursionLimit(3))
	g.AddNode("spin", visit("spin"))
	g.AddEdge(Start, "spin")
	g.AddConditionalEdges("spin", func(context.Context, trail) (string, error) { return "spin", nil }, nil)
	compiled, err := g.Compile()
	if err != nil {
		t.Fatal(err)
	}

	final, err := compiled.Invoke(context.Background(), trail{})
	if !errors.Is(err, ErrRecursionLimit) {
		t.Fatalf("expected ErrRecursionLimit, got %v", err)
	}
	if len(final.Visited) != 3 {
		t.Errorf("ran %d nodes, want 3", len(final.Visited))
	}

	_, err = compiled.Invoke(context.Background(), trail{}, WithRunRecursionLimit(5))
	if !strings.Contains(err.Error(), "limit 5") {
		t.Errorf("per-run limit not applied: %v", err)
	}
}

func TestInvoke_NodeErrorAndPanic(t *testing.T) {
	boom := errors.New("boom")
	g := NewStateGraph(appendTrail)
	g.AddNode("ok", visit("ok"))
	g.AddNode("fail", func(context.Context, trail) (trail, error) { return trail{}, boom })
	g.AddEdge(Start, "ok")
	g.AddEdge("ok", "fail")
	g.AddEdge("fail", End)
	compiled, _ := g.Compile()

	final, err := compiled.Invoke(context.Background(), trail{})
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), `node "fail"`) {
		t.Errorf("err = %v", err)
	}
	if !slices.Equal(final.Visited, []string{"ok"}) {
		t.Errorf("partial state = %v", final.Visited)
	}

	p := NewStateGraph(appendTrail)
	p.AddNode("panic", func(context.Context, trail) (trail, error) { panic("bad") })
	p.AddEdge(Start, "panic")
	p.AddEdge("panic", End)
	compiledPanic, _ := p.Compile()
	if _, err := compiledPanic.Invoke(context.Background(), trail{}); err == nil || !strings.Contains(err.Error(), "panic: bad") {
		t.Errorf("panic not converted: %v", err)
	}
}

func TestInvoke_UnknownRoute(t *testing.T) {
	g := NewStateGraph(appendTrail)
	g.AddNode("a", visit("a"))
	g.AddEdge(Start, "a")
	g.AddConditionalEdges("a", func(context.Context, trail) (string, error) { return "elsewhere", nil }, nil)
	compiled, _ := g.Compile()
	if _, err := compiled.Invoke(context.Background(), trail{}); !errors.Is(err, ErrUnknownRoute) {
		t.Errorf("expected ErrUnknownRoute, got %v", err)
	}
}

func TestInvoke_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := NewStateGraph(appendTrail)
	g.AddNode("a", func(context.Context, trail) (trail, error) {
		cancel()
		return trail{Visited: []string{"a"}}, nil
	})
	g.AddNode("b", visit("b"))
	g.AddEdge(Start, "a")
	g.AddEdge("a", "b")
	g.AddEdge("b", End)
	compiled, _ := g.Compile()

	if _, err := compiled.Invoke(ctx, trail{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInvoke_DeadlineCountsAsCancelled(t *testing.T) {
	var buf bytes.Buffer
	observer := slogobs.New(slogobs.WithOutput(&buf), slogobs.WithLevel(slogobs.LevelTrace), slogobs.WithFormat(slogobs.FormatJSON))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	g := NewStateGraph(appendTrail, WithObserver(observer))
	g.AddNode("a", func(ctx context.Context, _ trail) (trail, error) {
		<-ctx.Done()
		return trail{Visited: []string{"a"}}, nil
	})
	g.AddNode("b", visit("b"))
	g.AddEdge(Start, "a")
	g.AddEdge("a", "b")
	g.AddEdge("b", End)
	compiled, _ := g.Compile()

	_, err := compiled.Invoke(ctx, trail{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if !IsCancelled(err) {
		t.Error("deadline should count as cancellation")
	}
	if out := buf.String(); !strings.Contains(out, "graph run cancelled") || strings.Contains(out, "graph run failed") {
		t.Errorf("unexpected run outcome in log: %s", out)
	}
}

func TestIsCancelled(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{context.Canceled, true},
		{fmt.Errorf("node %q: %w", "a", context.DeadlineExceeded), true},
		{errConsumerStopped, true},
		{ErrRecursionLimit, false},
		{errors.New("boom"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsCancelled(tt.err); got != tt.want {
			t.Errorf("IsCancelled(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestAddMessages(t *testing.T) {
	existing := MessagesState{Messages: []ai.Message{ai.NewUserMessage("q")}}
	delta := MessagesState{Messages: []ai.Message{
		ai.NewAssistantMessage("", ai.ToolCall{ID: "1", Name: "t", Arguments: "{}"}),
		ai.NewToolMessage("1", "t", "r", ai.ToolStatusSuccess),
	}}

	merged := AddMessages(existing, delta)
	if len(merged.Messages) != 3 {
		t.Fatalf("len = %d", len(merged.Messages))
	}
	for i, want := range []ai.MessageRole{ai.RoleUser, ai.RoleAssistant, ai.RoleTool} {
		if merged.Messages[i].Role != want {
			t.Errorf("message %d role = %s, want %s", i, merged.Messages[i].Role, want)
		}
	}

	merged.Messages[1].ToolCalls[0].Name = "changed"
	merged.Messages[0].Content = "changed"
	if delta.Messages[0].ToolCalls[0].Name != "t" || existing.Messages[0].Content != "q" {
		t.Error("merge must not alias its inputs")
	}

	if last, ok := merged.Last(); !ok || last.Role != ai.RoleTool {
		t.Errorf("Last = %+v, %v", last, ok)
	}
	if _, ok := (MessagesState{}).Last(); ok {
		t.Error("empty state has no last message")
	}
}

// TestInvoke_Observed checks spans, metrics and logs reach the provider.
func TestInvoke_Observed(t *testing.T) {
	var buf bytes.Buffer
	observer := slogobs.New(slogobs.WithOutput(&buf), slogobs.WithLevel(slogobs.LevelTrace), slogobs.WithFormat(slogobs.FormatJSON))

	g := NewStateGraph(appendTrail, WithName("agent"), WithObserver(observer))
	g.AddNode("a", func(ctx context.Context, _ trail) (trail, error) {
		if observability.SpanFromContext(ctx) == nil {
			t.Error("node context carries no span")
		}
		return trail{Visited: []string{"a"}}, nil
	})
	g.AddEdge(Start, "a")
	g.AddConditionalEdges("a", func(context.Context, trail) (string, error) { return End, nil }, nil)
	compiled, _ := g.Compile()

	if _, err := compiled.Invoke(context.Background(), trail{}); err != nil {
		t.Fatal(err)
	}
	if observer.CounterValue(observability.MetricGraphRunCount) != 1 {
		t.Error("run counter not incremented")
	}
	if observer.CounterValue(observability.MetricGraphNodeCount) != 1 {
		t.Error("node counter not incremented")
	}
	if observer.HistogramCount(observability.MetricGraphNodeDuration) != 1 {
		t.Error("node duration not recorded")
	}
	out := buf.String()
	for _, want := range []string{"graph run completed", "route selected", `"graph.name":"agent"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q", want)
		}
	}
}
