package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// AssistantSearch is the body of POST /assistants/search.
type AssistantSearch struct {
	GraphID string `json:"graph_id,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

func (s *Server) handleGetAssistant(w http.ResponseWriter, r *http.Request) {
	a, err := s.registry.Lookup(r.PathValue("assistant_id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleSearchAssistants(w http.ResponseWriter, r *http.Request) {
	var q AssistantSearch
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodySize)).Decode(&q); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Detail: "invalid search request: " + err.Error()})
		return
	}

	found := s.registry.List(q.GraphID)
	if q.Offset > 0 {
		found = found[min(q.Offset, len(found)):]
	}
	if q.Limit > 0 && q.Limit < len(found) {
		found = found[:q.Limit]
	}
	writeJSON(w, http.StatusOK, found)
}

func (s *Server) handleOK(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Info is the body of GET /info.
type Info struct {
	Version string          `json:"version"`
	Graphs  []string        `json:"graphs"`
	Flags   map[string]bool `json:"flags"`
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Info{
		Version: s.version,
		Graphs:  s.registry.GraphIDs(),
		Flags:   map[string]bool{"assistants": true, "threads": false, "crons": false},
	})
}
