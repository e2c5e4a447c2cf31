// Package document implements the shared project model: sources,
// layers referencing them, change notification and selection state.
package document

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/lbartoletti/jupytergis/internal/geojson"
)

// Model type names.
const (
	SourceGeoJSON = "GeoJSONSource"
	LayerVector   = "VectorLayer"
)

// Source provides GeoJSON data, either file-backed or inline.
type Source struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name,omitempty" json:"name,omitempty"`
	Type   string `yaml:"type" json:"type"`
	Path   string `yaml:"path,omitempty" json:"path,omitempty"`
	Inline string `yaml:"inline,omitempty" json:"inline,omitempty"`
}

// Collection loads and parses the source's GeoJSON.
func (s *Source) Collection() (*geojson.FeatureCollection, error) {
	if s.Inline != "" {
		return geojson.Parse([]byte(s.Inline))
	}
	if s.Path == "" {
		return nil, fmt.Errorf("source %q has neither path nor inline data", s.ID)
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read source %q: %w", s.ID, err)
	}
	return geojson.Parse(data)
}

// Layer references a source and carries display parameters.
type Layer struct {
	ID            string  `yaml:"id" json:"id"`
	Name          string  `yaml:"name,omitempty" json:"name,omitempty"`
	Type          string  `yaml:"type" json:"type"`
	SourceID      string  `yaml:"source" json:"source"`
	Visible       bool    `yaml:"visible" json:"visible"`
	Opacity       float64 `yaml:"opacity" json:"opacity"`
	Color         string  `yaml:"color,omitempty" json:"color,omitempty"`
	Extrude       bool    `yaml:"extrude,omitempty" json:"extrude,omitempty"`
	ExtrudeHeight float64 `yaml:"extrudeHeight,omitempty" json:"extrudeHeight,omitempty"`
}

// LayerChange is one record of a layer change batch. NewValue is nil
// for removed layers.
type LayerChange struct {
	ID       string
	NewValue *Layer
}

// SourceChange is one record of a source change batch.
type SourceChange struct {
	ID       string
	NewValue *Source
}

// Document is the in-memory shared model. Mutations are additive for
// sources and layers; subscribers get synchronous change batches.
type Document struct {
	mu sync.Mutex

	sources map[string]*Source
	layers  map[string]*Layer
	order   []string

	layerSubs  map[int]func([]LayerChange)
	sourceSubs map[int]func([]SourceChange)
	nextSub    int

	selection []string
}

// New returns an empty document.
func New() *Document {
	return &Document{
		sources:    make(map[string]*Source),
		layers:     make(map[string]*Layer),
		layerSubs:  make(map[int]func([]LayerChange)),
		sourceSubs: make(map[int]func([]SourceChange)),
	}
}

// AddSource registers a new source. Existing sources are never
// replaced.
func (d *Document) AddSource(src Source) error {
	d.mu.Lock()
	if src.ID == "" {
		d.mu.Unlock()
		return fmt.Errorf("source has no id")
	}
	if _, ok := d.sources[src.ID]; ok {
		d.mu.Unlock()
		return fmt.Errorf("source %q already exists", src.ID)
	}
	if src.Type == "" {
		src.Type = SourceGeoJSON
	}
	copied := src
	d.sources[src.ID] = &copied
	subs := d.sourceSubscribers()
	d.mu.Unlock()

	notifySources(subs, []SourceChange{{ID: src.ID, NewValue: &copied}})
	return nil
}

// AddLayer registers a new layer referencing an existing source.
func (d *Document) AddLayer(layer Layer) error {
	d.mu.Lock()
	if layer.ID == "" {
		d.mu.Unlock()
		return fmt.Errorf("layer has no id")
	}
	if _, ok := d.layers[layer.ID]; ok {
		d.mu.Unlock()
		return fmt.Errorf("layer %q already exists", layer.ID)
	}
	if _, ok := d.sources[layer.SourceID]; !ok {
		d.mu.Unlock()
		return fmt.Errorf("layer %q references unknown source %q", layer.ID, layer.SourceID)
	}
	if layer.Type == "" {
		layer.Type = LayerVector
	}
	if layer.Opacity == 0 {
		layer.Opacity = 1
	}
	copied := layer
	d.layers[layer.ID] = &copied
	d.order = append(d.order, layer.ID)
	subs := d.layerSubscribers()
	d.mu.Unlock()

	notifyLayers(subs, []LayerChange{{ID: layer.ID, NewValue: &copied}})
	return nil
}

// UpdateLayer mutates a layer through fn and notifies subscribers.
func (d *Document) UpdateLayer(id string, fn func(*Layer)) error {
	d.mu.Lock()
	layer, ok := d.layers[id]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("unknown layer %q", id)
	}
	fn(layer)
	snapshot := *layer
	subs := d.layerSubscribers()
	d.mu.Unlock()

	notifyLayers(subs, []LayerChange{{ID: id, NewValue: &snapshot}})
	return nil
}

// UpdateSource mutates a source through fn and notifies subscribers.
// Binding layers treat this as "the data changed" and reload.
func (d *Document) UpdateSource(id string, fn func(*Source)) error {
	d.mu.Lock()
	src, ok := d.sources[id]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("unknown source %q", id)
	}
	fn(src)
	snapshot := *src
	subs := d.sourceSubscribers()
	d.mu.Unlock()

	notifySources(subs, []SourceChange{{ID: id, NewValue: &snapshot}})
	return nil
}

// GetLayer returns a copy of the layer.
func (d *Document) GetLayer(id string) (Layer, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	layer, ok := d.layers[id]
	if !ok {
		return Layer{}, false
	}
	return *layer, true
}

// GetLayers returns a copy of the id -> layer mapping.
func (d *Document) GetLayers() map[string]Layer {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]Layer, len(d.layers))
	for id, layer := range d.layers {
		out[id] = *layer
	}
	return out
}

// LayerOrder returns the layer ids in insertion order.
func (d *Document) LayerOrder() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// GetSource returns a copy of the source.
func (d *Document) GetSource(id string) (Source, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	src, ok := d.sources[id]
	if !ok {
		return Source{}, false
	}
	return *src, true
}

// SubscribeLayers registers a callback for layer change batches and
// returns an unsubscribe function.
func (d *Document) SubscribeLayers(fn func([]LayerChange)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextSub
	d.nextSub++
	d.layerSubs[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.layerSubs, id)
	}
}

// SubscribeSources registers a callback for source change batches.
func (d *Document) SubscribeSources(fn func([]SourceChange)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextSub
	d.nextSub++
	d.sourceSubs[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.sourceSubs, id)
	}
}

// SetSelection replaces the current selection (awareness state).
func (d *Document) SetSelection(layerIDs []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selection = append([]string(nil), layerIDs...)
}

// Selection returns the selected layer ids.
func (d *Document) Selection() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.selection...)
}

// SelectedLayers resolves the selection to layer copies, skipping ids
// that no longer exist.
func (d *Document) SelectedLayers() []Layer {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Layer
	for _, id := range d.selection {
		if layer, ok := d.layers[id]; ok {
			out = append(out, *layer)
		}
	}
	return out
}

func (d *Document) layerSubscribers() []func([]LayerChange) {
	out := make([]func([]LayerChange), 0, len(d.layerSubs))
	keys := make([]int, 0, len(d.layerSubs))
	for k := range d.layerSubs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		out = append(out, d.layerSubs[k])
	}
	return out
}

func (d *Document) sourceSubscribers() []func([]SourceChange) {
	out := make([]func([]SourceChange), 0, len(d.sourceSubs))
	keys := make([]int, 0, len(d.sourceSubs))
	for k := range d.sourceSubs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		out = append(out, d.sourceSubs[k])
	}
	return out
}

func notifyLayers(subs []func([]LayerChange), batch []LayerChange) {
	for _, fn := range subs {
		fn(batch)
	}
}

func notifySources(subs []func([]SourceChange), batch []SourceChange) {
	for _, fn := range subs {
		fn(batch)
	}
}

// file is the persisted YAML shape of a document.
type file struct {
	Sources []Source `yaml:"sources"`
	Layers  []Layer  `yaml:"layers"`
	Order   []string `yaml:"order,omitempty"`
}

// Load reads a project file from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse project file: %w", err)
	}

	d := New()
	for _, src := range f.Sources {
		if err := d.AddSource(src); err != nil {
			return nil, err
		}
	}

	ordered := f.Layers
	if len(f.Order) > 0 {
		byID := make(map[string]Layer, len(f.Layers))
		for _, l := range f.Layers {
			byID[l.ID] = l
		}
		ordered = ordered[:0]
		for _, id := range f.Order {
			if l, ok := byID[id]; ok {
				ordered = append(ordered, l)
			}
		}
	}
	for _, layer := range ordered {
		if err := d.AddLayer(layer); err != nil {
			return nil, err
		}
	}

	log.Debug().Str("path", path).
		Int("sources", len(f.Sources)).Int("layers", len(f.Layers)).
		Msg("Project loaded")

	return d, nil
}

// Save writes the document to a project file.
func (d *Document) Save(path string) error {
	d.mu.Lock()
	f := file{Order: append([]string(nil), d.order...)}
	for _, id := range d.order {
		if layer, ok := d.layers[id]; ok {
			f.Layers = append(f.Layers, *layer)
		}
	}
	ids := make([]string, 0, len(d.sources))
	for id := range d.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		f.Sources = append(f.Sources, *d.sources[id])
	}
	d.mu.Unlock()

	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
