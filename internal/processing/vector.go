package processing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
	"github.com/rs/zerolog/log"

	"github.com/lbartoletti/jupytergis/internal/document"
	"github.com/lbartoletti/jupytergis/internal/geojson"
)

// Local vector operations run in-process on standard GeoJSON
// geometries; they are the fallback for documents with no processing
// endpoint at all.
type vectorOp struct {
	command string
	title   string
	apply   func(g orb.Geometry, params Params) orb.Geometry
}

var vectorOps = []vectorOp{
	{
		command: "vector:centroid",
		title:   "Centroid",
		apply: func(g orb.Geometry, _ Params) orb.Geometry {
			c, _ := planar.CentroidArea(g)
			return c
		},
	},
	{
		command: "vector:envelope",
		title:   "Envelope",
		apply: func(g orb.Geometry, _ Params) orb.Geometry {
			return g.Bound().ToPolygon()
		},
	},
	{
		command: "vector:simplify",
		title:   "Simplify",
		apply: func(g orb.Geometry, params Params) orb.Geometry {
			tolerance := params.Float("tolerance", 0.001)
			return simplify.DouglasPeucker(tolerance).Simplify(g)
		},
	},
}

func vectorCommands() []Command {
	cmds := make([]Command, 0, len(vectorOps))
	for _, op := range vectorOps {
		op := op
		cmds = append(cmds, Command{
			Name:  op.command,
			Title: op.title,
			Enabled: func(doc *document.Document) bool {
				_, ok := singleVectorLayer(doc)
				return ok
			},
			Run: func(ctx context.Context, pc *Context, params Params) error {
				return runVector(pc, op, params)
			},
		})
	}
	return cmds
}

func runVector(pc *Context, op vectorOp, params Params) error {
	layer, fc, err := selectedCollection(pc.Doc)
	if err != nil {
		return err
	}

	out, err := applyVectorOp(fc, op, params)
	if err != nil {
		return err
	}

	log.Info().Str("command", op.command).Str("layer", layer.ID).
		Int("features", len(out.Features)).Msg("Vector processing finished")

	return ingestResult(pc, layer, op.title, out)
}

// applyVectorOp round-trips the collection through orb geometries,
// applying the operation per feature. TIN and PolyhedralSurface input
// is not standard GeoJSON and is rejected here.
func applyVectorOp(fc *geojson.FeatureCollection, op vectorOp, params Params) (*geojson.FeatureCollection, error) {
	for i := range fc.Features {
		if g := fc.Features[i].Geometry; g != nil {
			if g.Type == geojson.TypeTIN || g.Type == geojson.TypePolyhedralSurface {
				return nil, fmt.Errorf("operation %q does not support %s geometries", op.command, g.Type)
			}
		}
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return nil, err
	}

	collection, err := orbjson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}

	for _, f := range collection.Features {
		if f.Geometry == nil {
			continue
		}
		f.Geometry = op.apply(f.Geometry, params)
	}

	result, err := collection.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return geojson.Parse(result)
}
