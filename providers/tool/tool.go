package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leofalp/localgraph/core/parse"
	"github.com/leofalp/localgraph/internal/jsonschema"
	"github.com/leofalp/localgraph/providers/ai"
	"github.com/leofalp/localgraph/providers/observability"
)

// GenericTool is what the tool-execution node dispatches on. It hides the
// type parameters of [Tool].
type GenericTool interface {
	// ToolInfo is the schema advertised to the model.
	ToolInfo() ai.ToolDescription

	// Call runs the tool on the model-supplied JSON arguments and returns
	// the text placed in the tool message.
	Call(ctx context.Context, inputJSON string) (string, error)
}

// Tool binds a name and description to a typed Go function. The parameter
// schema is derived from I.
type Tool[I, O any] struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Function    func(ctx context.Context, input I) (O, error)
}

var _ GenericTool = (*Tool[struct{}, string])(nil)

type funcToolOptions struct {
	Description string
}

// WithDescription sets the description the model sees.
func WithDescription(description string) func(*funcToolOptions) {
	return func(o *funcToolOptions) {
		o.Description = description
	}
}

// NewTool builds a Tool for function. It fails when no schema can be
// derived for I.
//
//	search, err := tool.NewTool("search", searchFunc,
//	    tool.WithDescription("Searches the web for a query."))
func NewTool[I, O any](name string, function func(ctx context.Context, input I) (O, error), options ...func(*funcToolOptions)) (*Tool[I, O], error) {
	opts := &funcToolOptions{}
	for _, option := range options {
		option(opts)
	}

	params, err := jsonschema.Generate[I]()
	if err != nil {
		return nil, fmt.Errorf("tool %q: parameters schema: %w", name, err)
	}
	return &Tool[I, O]{
		Name:        name,
		Description: opts.Description,
		Parameters:  params,
		Function:    function,
	}, nil
}

func (t *Tool[I, O]) ToolInfo() ai.ToolDescription {
	return ai.ToolDescription{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// Call decodes inputJSON leniently into I, runs the function and encodes
// the result. A string result is returned as is; anything else as JSON.
func (t *Tool[I, O]) Call(ctx context.Context, inputJSON string) (string, error) {
	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.AddEvent(observability.EventToolExecutionStart,
			observability.String(observability.AttrToolName, t.Name),
			observability.String(observability.AttrToolInput, observability.TruncateString(inputJSON, observability.DefaultMaxStringLength)),
		)
		defer span.AddEvent(observability.EventToolExecutionEnd)
	}

	start := time.Now()

	input, err := parse.Arguments[I](inputJSON)
	if err != nil {
		recordToolError(span, err)
		return "", fmt.Errorf("tool %q: %w", t.Name, err)
	}

	output, err := t.Function(ctx, input)
	duration := time.Since(start)
	if err != nil {
		recordToolError(span, err)
		return "", err
	}

	var text string
	if s, ok := any(output).(string); ok {
		text = s
	} else {
		raw, err := json.Marshal(output)
		if err != nil {
			recordToolError(span, err)
			return "", fmt.Errorf("tool %q: encode output: %w", t.Name, err)
		}
		text = string(raw)
	}

	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrToolOutput, observability.TruncateString(text, observability.DefaultMaxStringLength)),
			observability.Duration(observability.AttrToolDuration, duration),
		)
	}
	return text, nil
}

func recordToolError(span observability.Span, err error) {
	if span == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(observability.String(observability.AttrToolError, err.Error()))
}
