package processing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/lbartoletti/jupytergis/internal/document"
	"github.com/lbartoletti/jupytergis/internal/geojson"
)

// sfcgalOp maps a command to a remote operation and its default
// parameters.
type sfcgalOp struct {
	command   string
	title     string
	operation string
	defaults  Params
}

var sfcgalOps = []sfcgalOp{
	{"sfcgal:triangulate", "Delaunay triangulation", "triangulate_2dz", nil},
	{"sfcgal:straight-skeleton", "Straight skeleton", "straight_skeleton", nil},
	{"sfcgal:offset-polygon", "Offset polygon", "offset_polygon", Params{"offsetDistance": 1.0}},
	{"sfcgal:extrude", "Extrude", "extrude", Params{"extrudeHeight": 10.0}},
}

func sfcgalCommands() []Command {
	cmds := make([]Command, 0, len(sfcgalOps))
	for _, op := range sfcgalOps {
		op := op
		cmds = append(cmds, Command{
			Name:  op.command,
			Title: op.title,
			Enabled: func(doc *document.Document) bool {
				_, ok := singleVectorLayer(doc)
				return ok
			},
			Run: func(ctx context.Context, pc *Context, params Params) error {
				return runSFCGAL(ctx, pc, op, params)
			},
		})
	}
	return cmds
}

func runSFCGAL(ctx context.Context, pc *Context, op sfcgalOp, params Params) error {
	if pc.Client == nil {
		return fmt.Errorf("no processing endpoint configured")
	}

	layer, fc, err := selectedCollection(pc.Doc)
	if err != nil {
		return err
	}

	status, err := pc.Client.Fetch(ctx)
	if err != nil {
		return err
	}
	if !status.Available {
		return fmt.Errorf("processing backend is not available")
	}
	if !contains(status.Operations, op.operation) {
		return fmt.Errorf("operation %q is not supported by the endpoint", op.operation)
	}

	merged := make(Params, len(op.defaults)+len(params))
	for k, v := range op.defaults {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}

	payload, err := json.Marshal(fc)
	if err != nil {
		return err
	}

	result, err := pc.Client.Process(ctx, op.operation, payload, merged)
	if err != nil {
		return err
	}

	out, err := geojson.Parse(result)
	if err != nil {
		return fmt.Errorf("endpoint returned invalid geojson: %w", err)
	}

	log.Info().Str("operation", op.operation).Str("layer", layer.ID).
		Int("features", len(out.Features)).Msg("Remote processing finished")

	return ingestResult(pc, layer, op.title, out)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
