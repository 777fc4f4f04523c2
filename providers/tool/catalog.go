package tool

import (
	"slices"
	"strings"
	"sync"

	"github.com/leofalp/localgraph/providers/ai"
)

// Catalog is a concurrency-safe, case-insensitive registry of tools keyed
// by ToolInfo().Name. Registration order is kept for Descriptions.
type Catalog struct {
	mu    sync.RWMutex
	tools map[string]GenericTool
	order []string
}

// NewCatalog indexes tools by name. A later tool replaces an earlier one
// with the same name.
func NewCatalog(tools ...GenericTool) *Catalog {
	c := &Catalog{tools: make(map[string]GenericTool)}
	c.Add(tools...)
	return c
}

// Add registers tools, replacing any tool with the same name.
func (c *Catalog) Add(tools ...GenericTool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tools {
		key := strings.ToLower(t.ToolInfo().Name)
		if _, exists := c.tools[key]; !exists {
			c.order = append(c.order, key)
		}
		c.tools[key] = t
	}
}

func (c *Catalog) Get(name string) (GenericTool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tools[strings.ToLower(name)]
	return t, ok
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Remove reports whether a tool was removed.
func (c *Catalog) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := strings.ToLower(name)
	if _, ok := c.tools[key]; !ok {
		return false
	}
	delete(c.tools, key)
	c.order = slices.DeleteFunc(c.order, func(k string) bool { return k == key })
	return true
}

func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tools)
}

// Descriptions returns the schemas of all tools in registration order,
// ready to be bound to a chat request.
func (c *Catalog) Descriptions() []ai.ToolDescription {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ai.ToolDescription, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.tools[key].ToolInfo())
	}
	return out
}
