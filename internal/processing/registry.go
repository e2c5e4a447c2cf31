// Package processing registers named geometry operations against the
// document model: remote SFCGAL operations, GDAL-style SQL operations
// and local vector operations. Results always land as new source+layer
// pairs; existing document content is never mutated in place.
package processing

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lbartoletti/jupytergis/internal/document"
	"github.com/lbartoletti/jupytergis/internal/geojson"
	"github.com/lbartoletti/jupytergis/internal/sfcgal"
)

// Params carries operation parameters collected from the user.
type Params map[string]interface{}

// Float reads a numeric parameter with a fallback.
func (p Params) Float(key string, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

// String reads a string parameter with a fallback.
func (p Params) String(key, fallback string) string {
	if p == nil {
		return fallback
	}
	if v, ok := p[key].(string); ok {
		return v
	}
	return fallback
}

// Context bundles the collaborators a command execution needs.
type Context struct {
	Doc    *document.Document
	Client *sfcgal.Client
	GDAL   GDALEngine

	// OutputDir receives file-backed result artifacts; when empty,
	// results are embedded inline in the document.
	OutputDir string
}

// Command is one registered operation.
type Command struct {
	Name    string
	Title   string
	Enabled func(doc *document.Document) bool
	Run     func(ctx context.Context, pc *Context, params Params) error
}

// Registry holds the registered commands.
type Registry struct {
	mu       sync.Mutex
	commands map[string]Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command; a duplicate name is a programming error.
func (r *Registry) Register(cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cmd.Name == "" {
		return fmt.Errorf("command has no name")
	}
	if _, ok := r.commands[cmd.Name]; ok {
		return fmt.Errorf("command %q already registered", cmd.Name)
	}
	r.commands[cmd.Name] = cmd
	return nil
}

// Get returns a command by name.
func (r *Registry) Get(name string) (Command, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// List returns the registered command names, sorted.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs a registered command, re-checking its enablement.
func (r *Registry) Execute(ctx context.Context, name string, pc *Context, params Params) error {
	cmd, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	if cmd.Enabled != nil && !cmd.Enabled(pc.Doc) {
		return fmt.Errorf("command %q is not applicable to the current selection", name)
	}
	return cmd.Run(ctx, pc, params)
}

// singleVectorLayer implements the shared enablement rule: exactly one
// selected layer, and it is a vector layer.
func singleVectorLayer(doc *document.Document) (document.Layer, bool) {
	selected := doc.SelectedLayers()
	if len(selected) != 1 || selected[0].Type != document.LayerVector {
		return document.Layer{}, false
	}
	return selected[0], true
}

// selectedCollection resolves the selected layer and loads its GeoJSON.
func selectedCollection(doc *document.Document) (document.Layer, *geojson.FeatureCollection, error) {
	layer, ok := singleVectorLayer(doc)
	if !ok {
		return document.Layer{}, nil, fmt.Errorf("exactly one vector layer must be selected")
	}
	src, ok := doc.GetSource(layer.SourceID)
	if !ok {
		return document.Layer{}, nil, fmt.Errorf("layer %q references unknown source %q", layer.ID, layer.SourceID)
	}
	fc, err := src.Collection()
	if err != nil {
		return document.Layer{}, nil, err
	}
	return layer, fc, nil
}

// RegisterBuiltins registers the SFCGAL, GDAL and local vector
// commands.
func RegisterBuiltins(r *Registry) error {
	for _, cmd := range sfcgalCommands() {
		if err := r.Register(cmd); err != nil {
			return err
		}
	}
	for _, cmd := range gdalCommands() {
		if err := r.Register(cmd); err != nil {
			return err
		}
	}
	for _, cmd := range vectorCommands() {
		if err := r.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}
