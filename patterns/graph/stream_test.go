package graph

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/leofalp/localgraph/providers/ai"
)

func linearGraph(t *testing.T) *CompiledGraph[trail] {
	t.Helper()
	g := NewStateGraph(appendTrail)
	g.AddNode("a", visit("a"))
	g.AddNode("b", visit("b"))
	g.AddEdge(Start, "a")
	g.AddEdge("a", "b")
	g.AddEdge("b", End)
	compiled, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return compiled
}

func collect(t *testing.T, s *Stream[trail]) []Event[trail] {
	t.Helper()
	var events []Event[trail]
	for ev, err := range s.Iter() {
		if err != nil {
			t.Fatalf("stream error: %v", err)
		}
		events = append(events, ev)
	}
	return events
}

// TestStream_Values checks one event for the input and one per node.
func TestStream_Values(t *testing.T) {
	events := collect(t, linearGraph(t).Stream(context.Background(), trail{Visited: []string{"in"}}))

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	wantStates := [][]string{{"in"}, {"in", "a"}, {"in", "a", "b"}}
	for i, ev := range events {
		if ev.Mode != StreamModeValues {
			t.Errorf("event %d mode = %s", i, ev.Mode)
		}
		if !slices.Equal(ev.State.Visited, wantStates[i]) {
			t.Errorf("event %d state = %v, want %v", i, ev.State.Visited, wantStates[i])
		}
	}
	if events[0].Step != -1 || events[2].Node != "b" || events[2].Step != 1 {
		t.Errorf("unexpected metadata: %+v", events)
	}
}

func TestStream_Updates(t *testing.T) {
	events := collect(t, linearGraph(t).Stream(context.Background(), trail{}, WithStreamModes(StreamModeUpdates)))

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	data, ok := events[0].Data().(map[string]trail)
	if !ok || !slices.Equal(data["a"].Visited, []string{"a"}) {
		t.Errorf("updates payload = %#v", events[0].Data())
	}
}

func TestStream_BothModes(t *testing.T) {
	s := linearGraph(t).Stream(context.Background(), trail{}, WithStreamModes(StreamModeValues, StreamModeUpdates))
	var modes []StreamMode
	for _, ev := range collect(t, s) {
		modes = append(modes, ev.Mode)
	}
	want := []StreamMode{StreamModeValues, StreamModeUpdates, StreamModeValues, StreamModeUpdates, StreamModeValues}
	if !slices.Equal(modes, want) {
		t.Errorf("modes = %v, want %v", modes, want)
	}
}

func TestStream_SinglePass(t *testing.T) {
	s := linearGraph(t).Stream(context.Background(), trail{})
	collect(t, s)

	var errs []error
	for _, err := range s.Iter() {
		errs = append(errs, err)
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrStreamConsumed) {
		t.Errorf("second pass yielded %v", errs)
	}
}

// TestStream_EarlyBreak checks that breaking out stops the run.
func TestStream_EarlyBreak(t *testing.T) {
	ran := 0
	g := NewStateGraph(appendTrail)
	g.AddNode("a", func(context.Context, trail) (trail, error) {
		ran++
		return trail{Visited: []string{"a"}}, nil
	})
	g.AddEdge(Start, "a")
	g.AddConditionalEdges("a", func(context.Context, trail) (string, error) { return "a", nil }, nil)
	compiled, _ := g.Compile()

	for ev, err := range compiled.Stream(context.Background(), trail{}, WithStreamModes(StreamModeUpdates)).Iter() {
		if err != nil {
			t.Fatal(err)
		}
		if ev.Step == 1 {
			break
		}
	}
	if ran != 2 {
		t.Errorf("node ran %d times after break, want 2", ran)
	}
}

func TestStream_ErrorIsLast(t *testing.T) {
	boom := errors.New("boom")
	g := NewStateGraph(appendTrail)
	g.AddNode("a", visit("a"))
	g.AddNode("b", func(context.Context, trail) (trail, error) { return trail{}, boom })
	g.AddEdge(Start, "a")
	g.AddEdge("a", "b")
	g.AddEdge("b", End)
	compiled, _ := g.Compile()

	var events int
	var last error
	for _, err := range compiled.Stream(context.Background(), trail{}).Iter() {
		if err != nil {
			last = err
			continue
		}
		events++
	}
	if events != 2 || !errors.Is(last, boom) {
		t.Errorf("events = %d, last error = %v", events, last)
	}
}

// TestEvent_DataJSON checks the wire shape of message-state events.
func TestEvent_DataJSON(t *testing.T) {
	msg := ai.NewUserMessage("What is LangGraph?")
	msg.ID = "m1"
	ev := Event[MessagesState]{Mode: StreamModeUpdates, Node: "chatbot", State: MessagesState{Messages: []ai.Message{msg}}}

	raw, err := json.Marshal(ev.Data())
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]map[string][]map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	got := decoded["chatbot"]["messages"][0]
	if got["type"] != "human" || got["content"] != "What is LangGraph?" || got["id"] != "m1" {
		t.Errorf("payload = %s", raw)
	}
}

func TestParseStreamMode(t *testing.T) {
	if m, err := ParseStreamMode("updates"); err != nil || m != StreamModeUpdates {
		t.Errorf("ParseStreamMode(updates) = %q, %v", m, err)
	}
	if _, err := ParseStreamMode("messages"); err == nil {
		t.Error("messages mode should be rejected")
	}
}
