package parse

import (
	"errors"
	"testing"
)

type searchArgs struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

func TestArguments(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    searchArgs
		wantErr bool
	}{
		{name: "strict json", input: `{"query":"langgraph","max_results":2}`, want: searchArgs{"langgraph", 2}},
		{name: "blank is empty object", input: "  ", want: searchArgs{}},
		{name: "fenced", input: "```json\n{\"query\":\"go\"}\n```", want: searchArgs{Query: "go"}},
		{name: "single quotes and trailing comma", input: `{'query': 'go', 'max_results': 1,}`, want: searchArgs{"go", 1}},
		{name: "schema envelopes", input: `{"query":{"type":"string","value":"go"},"max_results":{"type":"integer","value":2}}`, want: searchArgs{"go", 2}},
		{name: "wrong type", input: `{"query": 5}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Arguments[searchArgs](tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Arguments() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Arguments() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestArguments_Map(t *testing.T) {
	got, err := Arguments[map[string]any](`{"a": 1}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["a"] != float64(1) {
		t.Errorf("got %v", got)
	}
}

func TestValue_RejectsBlank(t *testing.T) {
	if _, err := Value[searchArgs](""); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
	got, err := Value[searchArgs](`{"query":"x"}`)
	if err != nil || got.Query != "x" {
		t.Errorf("got %+v, %v", got, err)
	}
}
