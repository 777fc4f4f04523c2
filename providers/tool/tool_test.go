package tool

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/leofalp/localgraph/providers/observability"
)

// testSpan records event names and attributes.
type testSpan struct {
	events     []string
	attributes []observability.Attribute
	errs       []error
}

func (s *testSpan) End() {}

func (s *testSpan) SetAttributes(attrs ...observability.Attribute) {
	s.attributes = append(s.attributes, attrs...)
}

func (s *testSpan) SetStatus(observability.StatusCode, string) {}

func (s *testSpan) RecordError(err error) { s.errs = append(s.errs, err) }

func (s *testSpan) AddEvent(name string, _ ...observability.Attribute) {
	s.events = append(s.events, name)
}

type calcInput struct {
	Value int `json:"value" jsonschema:"description=Number to double,required"`
}

type calcOutput struct {
	Result int `json:"result"`
}

func double(_ context.Context, in calcInput) (calcOutput, error) {
	return calcOutput{Result: in.Value * 2}, nil
}

func TestNewTool_Info(t *testing.T) {
	calc, err := NewTool("calc", double, WithDescription("doubles a number"))
	if err != nil {
		t.Fatalf("NewTool: %v", err)
	}
	info := calc.ToolInfo()
	if info.Name != "calc" || info.Description != "doubles a number" {
		t.Errorf("info = %+v", info)
	}
	if info.Parameters == nil || info.Parameters.Properties["value"] == nil {
		t.Fatalf("parameters = %+v", info.Parameters)
	}
	if !slices.Contains(info.Parameters.Required, "value") {
		t.Errorf("required = %v", info.Parameters.Required)
	}
}

func TestTool_Call(t *testing.T) {
	calc, _ := NewTool("calc", double)
	span := &testSpan{}
	ctx := observability.ContextWithSpan(context.Background(), span)

	out, err := calc.Call(ctx, `{"value": 21}`)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out != `{"result":42}` {
		t.Errorf("out = %s", out)
	}
	want := []string{observability.EventToolExecutionStart, observability.EventToolExecutionEnd}
	if !slices.Equal(span.events, want) {
		t.Errorf("events = %v, want %v", span.events, want)
	}
}

// TestTool_CallRepairsArguments checks that trailing commas and fences are tolerated.
func TestTool_CallRepairsArguments(t *testing.T) {
	calc, _ := NewTool("calc", double)
	out, err := calc.Call(context.Background(), "```json\n{\"value\": 2,}\n```")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out != `{"result":4}` {
		t.Errorf("out = %s", out)
	}
}

func TestTool_CallStringOutput(t *testing.T) {
	echo, _ := NewTool("echo", func(_ context.Context, in struct {
		Text string `json:"text"`
	}) (string, error) {
		return in.Text, nil
	})
	out, err := echo.Call(context.Background(), `{"text":"plain"}`)
	if err != nil || out != "plain" {
		t.Errorf("out = %q, err = %v", out, err)
	}
}

func TestTool_CallError(t *testing.T) {
	boom := errors.New("boom")
	failing, _ := NewTool("fail", func(context.Context, calcInput) (calcOutput, error) {
		return calcOutput{}, boom
	})
	span := &testSpan{}
	_, err := failing.Call(observability.ContextWithSpan(context.Background(), span), `{}`)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if len(span.errs) != 1 {
		t.Errorf("recorded errors = %v", span.errs)
	}
}

func TestCatalog(t *testing.T) {
	calc, _ := NewTool("Calc", double)
	echo, _ := NewTool("echo", func(context.Context, struct{}) (string, error) { return "", nil })

	c := NewCatalog(calc, echo)
	if c.Size() != 2 {
		t.Fatalf("Size = %d", c.Size())
	}
	if got, ok := c.Get("CALC"); !ok || got != calc {
		t.Error("lookup must be case-insensitive")
	}

	descs := c.Descriptions()
	if len(descs) != 2 || descs[0].Name != "Calc" || descs[1].Name != "echo" {
		t.Errorf("Descriptions = %+v", descs)
	}

	if !c.Remove("calc") || c.Has("calc") || c.Remove("calc") {
		t.Error("Remove did not behave")
	}
	if descs := c.Descriptions(); len(descs) != 1 || descs[0].Name != "echo" {
		t.Errorf("Descriptions after remove = %+v", descs)
	}
}
