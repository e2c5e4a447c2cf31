// Package binding feeds a viewer from the shared document model and
// keeps it in sync with live layer property changes.
package binding

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/lbartoletti/jupytergis/internal/document"
	"github.com/lbartoletti/jupytergis/internal/scene"
	"github.com/lbartoletti/jupytergis/internal/viewer"
)

// Binding connects one document layer to a viewer. The displayed layer
// is explicit: it is set when the binding is created and changed only
// through SetDisplayedLayer, never inferred from change events.
type Binding struct {
	doc  *document.Document
	view *viewer.Viewer

	mu               sync.Mutex
	displayedLayerID string
	displayedSource  string

	unsubLayers  func()
	unsubSources func()
}

// Bind attaches the viewer to the document and displays the given
// layer. Property changes to that layer mutate the live scene; source
// data changes trigger a full reload.
func Bind(doc *document.Document, view *viewer.Viewer, layerID string) (*Binding, error) {
	b := &Binding{doc: doc, view: view}

	if layerID != "" {
		if err := b.SetDisplayedLayer(layerID); err != nil {
			return nil, err
		}
	}

	b.unsubLayers = doc.SubscribeLayers(b.onLayerChanges)
	b.unsubSources = doc.SubscribeSources(b.onSourceChanges)
	return b, nil
}

// DisplayedLayer returns the id of the currently displayed layer.
func (b *Binding) DisplayedLayer() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.displayedLayerID
}

// SetDisplayedLayer loads the layer's source into the viewer and makes
// it the binding target.
func (b *Binding) SetDisplayedLayer(layerID string) error {
	layer, ok := b.doc.GetLayer(layerID)
	if !ok {
		return fmt.Errorf("unknown layer %q", layerID)
	}

	src, ok := b.doc.GetSource(layer.SourceID)
	if !ok {
		return fmt.Errorf("layer %q references unknown source %q", layerID, layer.SourceID)
	}

	fc, err := src.Collection()
	if err != nil {
		return err
	}

	opts := scene.Options{
		Extrude:       layer.Extrude,
		ExtrudeHeight: layer.ExtrudeHeight,
		Wireframe:     true,
	}
	if layer.Color != "" {
		if c, err := scene.ParseColor(layer.Color); err == nil {
			opts.Color = &c
		} else {
			log.Warn().Err(err).Str("layer", layerID).Msg("Ignoring invalid layer color")
		}
	}

	if err := b.view.LoadGeoJSON(fc, opts); err != nil {
		return err
	}

	b.view.SetWireframeVisible(layer.Visible)
	b.view.SetOpacity(layer.Opacity)

	b.mu.Lock()
	b.displayedLayerID = layerID
	b.displayedSource = layer.SourceID
	b.mu.Unlock()

	log.Debug().Str("layer", layerID).Str("source", layer.SourceID).
		Msg("Displayed layer set")
	return nil
}

// onLayerChanges pushes property edits of the displayed layer into the
// viewer without rebuilding geometry.
func (b *Binding) onLayerChanges(batch []document.LayerChange) {
	b.mu.Lock()
	displayed := b.displayedLayerID
	b.mu.Unlock()

	if displayed == "" {
		return
	}

	for _, change := range batch {
		if change.ID != displayed || change.NewValue == nil {
			continue
		}
		layer := change.NewValue

		b.view.SetWireframeVisible(layer.Visible)
		b.view.SetOpacity(layer.Opacity)
		if layer.Color != "" {
			if c, err := scene.ParseColor(layer.Color); err == nil {
				b.view.SetColor(c)
			} else {
				log.Warn().Err(err).Str("layer", change.ID).Msg("Ignoring invalid layer color")
			}
		}
	}
}

// onSourceChanges reloads the scene when the displayed layer's data
// changes.
func (b *Binding) onSourceChanges(batch []document.SourceChange) {
	b.mu.Lock()
	displayed := b.displayedLayerID
	source := b.displayedSource
	b.mu.Unlock()

	if displayed == "" {
		return
	}

	for _, change := range batch {
		if change.ID != source {
			continue
		}
		if err := b.SetDisplayedLayer(displayed); err != nil {
			log.Error().Err(err).Str("layer", displayed).
				Msg("Failed to reload displayed layer after source change")
		}
		return
	}
}

// Dispose detaches the binding from the document. The viewer is left
// untouched; its owner disposes it.
func (b *Binding) Dispose() {
	if b.unsubLayers != nil {
		b.unsubLayers()
		b.unsubLayers = nil
	}
	if b.unsubSources != nil {
		b.unsubSources()
		b.unsubSources = nil
	}
}
