package server

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leofalp/localgraph/patterns/graph"
)

// ErrUnknownAssistant is returned when neither an assistant id nor a graph
// id matches the requested assistant.
var ErrUnknownAssistant = errors.New("assistant not found")

// assistantNamespace derives stable assistant ids from graph ids, so the
// same graph gets the same id across restarts.
var assistantNamespace = uuid.MustParse("6ba7b821-9dad-11d1-80b4-00c04fd430c8")

// Assistant is a registered graph as seen by clients.
type Assistant struct {
	AssistantID string         `json:"assistant_id"`
	GraphID     string         `json:"graph_id"`
	Name        string         `json:"name"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`

	graph *graph.CompiledGraph[graph.MessagesState]
}

// Graph returns the compiled graph the assistant runs.
func (a *Assistant) Graph() *graph.CompiledGraph[graph.MessagesState] {
	return a.graph
}

// Registry maps graph ids and assistant ids to compiled graphs. It is safe
// for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	byGraph    map[string]*Assistant
	byID       map[string]*Assistant
	registered []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byGraph: make(map[string]*Assistant),
		byID:    make(map[string]*Assistant),
	}
}

// Register exposes g under graphID. Registering the same graph id twice is
// an error.
func (r *Registry) Register(graphID string, g *graph.CompiledGraph[graph.MessagesState]) (*Assistant, error) {
	graphID = strings.TrimSpace(graphID)
	if graphID == "" {
		return nil, errors.New("register: empty graph id")
	}
	if g == nil {
		return nil, fmt.Errorf("register %q: nil graph", graphID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byGraph[graphID]; exists {
		return nil, fmt.Errorf("register %q: graph already registered", graphID)
	}

	a := &Assistant{
		AssistantID: uuid.NewSHA1(assistantNamespace, []byte(graphID)).String(),
		GraphID:     graphID,
		Name:        graphID,
		Metadata:    map[string]any{"created_by": "system"},
		CreatedAt:   time.Now().UTC(),
		graph:       g,
	}
	r.byGraph[graphID] = a
	r.byID[a.AssistantID] = a
	r.registered = append(r.registered, graphID)
	return a, nil
}

// Lookup resolves id as an assistant id first and as a graph id second.
func (r *Registry) Lookup(id string) (*Assistant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.byID[id]; ok {
		return a, nil
	}
	if a, ok := r.byGraph[id]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAssistant, id)
}

// List returns the assistants in registration order, optionally filtered
// by graph id.
func (r *Registry) List(graphID string) []*Assistant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Assistant, 0, len(r.registered))
	for _, id := range r.registered {
		if graphID != "" && id != graphID {
			continue
		}
		out = append(out, r.byGraph[id])
	}
	return out
}

// GraphIDs returns the registered graph ids, sorted.
func (r *Registry) GraphIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := slices.Clone(r.registered)
	slices.Sort(ids)
	return ids
}
