package processing

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/lbartoletti/jupytergis/internal/document"
	"github.com/lbartoletti/jupytergis/internal/geojson"
)

// GDALEngine runs a GDAL vector translation with the given extra
// arguments over a GeoJSON payload. The engine is external; commands
// only build argument lists.
type GDALEngine interface {
	Run(ctx context.Context, args []string, input []byte) ([]byte, error)
}

// ExecEngine shells out to an ogr2ogr binary.
type ExecEngine struct {
	Binary string
}

// Run writes the input to a scratch file, invokes the binary and reads
// the translated output back.
func (e ExecEngine) Run(ctx context.Context, args []string, input []byte) ([]byte, error) {
	binary := e.Binary
	if binary == "" {
		binary = "ogr2ogr"
	}

	dir, err := os.MkdirTemp("", "jupytergis-gdal-")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	inPath := filepath.Join(dir, "input.geojson")
	outPath := filepath.Join(dir, "output.geojson")
	if err := os.WriteFile(inPath, input, 0644); err != nil {
		return nil, err
	}

	full := append([]string{"-f", "GeoJSON", outPath, inPath}, args...)
	cmd := exec.CommandContext(ctx, binary, full...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", binary, err, out)
	}

	return os.ReadFile(outPath)
}

type gdalOp struct {
	command string
	title   string
	sql     func(layer string, params Params) string
}

// SQL templates use the SQLite dialect so they run unchanged against
// any OGR source.
var gdalOps = []gdalOp{
	{
		command: "gdal:buffer",
		title:   "Buffer",
		sql: func(layer string, params Params) string {
			return fmt.Sprintf(
				"SELECT ST_Buffer(geometry, %g) AS geometry, * FROM %q",
				params.Float("distance", 1), layer)
		},
	},
	{
		command: "gdal:convex-hull",
		title:   "Convex hull",
		sql: func(layer string, params Params) string {
			return fmt.Sprintf("SELECT ST_ConvexHull(geometry) AS geometry, * FROM %q", layer)
		},
	},
	{
		command: "gdal:dissolve",
		title:   "Dissolve",
		sql: func(layer string, params Params) string {
			field := params.String("field", "")
			if field == "" {
				return fmt.Sprintf("SELECT ST_Union(geometry) AS geometry FROM %q", layer)
			}
			return fmt.Sprintf(
				"SELECT ST_Union(geometry) AS geometry, %q FROM %q GROUP BY %q",
				field, layer, field)
		},
	},
}

// BuildSQLArgs assembles the CLI argument list for one GDAL operation.
func BuildSQLArgs(command, layerName string, params Params) ([]string, error) {
	for _, op := range gdalOps {
		if op.command == command {
			return []string{"-dialect", "SQLite", "-sql", op.sql(layerName, params)}, nil
		}
	}
	return nil, fmt.Errorf("unknown GDAL command %q", command)
}

func gdalCommands() []Command {
	cmds := make([]Command, 0, len(gdalOps))
	for _, op := range gdalOps {
		op := op
		cmds = append(cmds, Command{
			Name:  op.command,
			Title: op.title,
			Enabled: func(doc *document.Document) bool {
				_, ok := singleVectorLayer(doc)
				return ok
			},
			Run: func(ctx context.Context, pc *Context, params Params) error {
				return runGDAL(ctx, pc, op, params)
			},
		})
	}
	return cmds
}

func runGDAL(ctx context.Context, pc *Context, op gdalOp, params Params) error {
	if pc.GDAL == nil {
		return fmt.Errorf("no GDAL engine configured")
	}

	layer, fc, err := selectedCollection(pc.Doc)
	if err != nil {
		return err
	}

	layerName := layer.Name
	if layerName == "" {
		layerName = "input"
	}

	args, err := BuildSQLArgs(op.command, layerName, params)
	if err != nil {
		return err
	}

	input, err := jsonMarshal(fc)
	if err != nil {
		return err
	}

	output, err := pc.GDAL.Run(ctx, args, input)
	if err != nil {
		return err
	}

	out, err := geojson.Parse(output)
	if err != nil {
		return fmt.Errorf("GDAL engine returned invalid geojson: %w", err)
	}

	log.Info().Str("command", op.command).Str("layer", layer.ID).
		Int("features", len(out.Features)).Msg("GDAL processing finished")

	return ingestResult(pc, layer, op.title, out)
}
