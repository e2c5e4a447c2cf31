package main

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lbartoletti/jupytergis/internal/document"
	"github.com/lbartoletti/jupytergis/internal/logger"
	"github.com/lbartoletti/jupytergis/internal/processing"
	"github.com/lbartoletti/jupytergis/internal/sfcgal"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Input     string   `short:"i" long:"input"     description:"Input GeoJSON file" required:"true"`
	Operation string   `short:"O" long:"operation" description:"Processing command to run" required:"true"`
	Params    []string `short:"P" long:"param"     description:"Operation parameter as key=value"`
	Endpoint  string   `short:"e" long:"endpoint"  env:"PROCESSING_ENDPOINT" description:"Remote processing endpoint URL"`
	GDALBin   string   `long:"gdal-bin"            env:"GDAL_BIN" description:"ogr2ogr binary for GDAL commands" default:"ogr2ogr"`
	OutputDir string   `short:"d" long:"output-dir" description:"Directory for result artifacts" default:"."`
	Timeout   int      `short:"t" long:"timeout"   description:"Remote request timeout in seconds" default:"30"`
	List      bool     `short:"l" long:"list"      description:"List available commands and exit"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	registry := processing.NewRegistry()
	if err := processing.RegisterBuiltins(registry); err != nil {
		log.Fatal().Err(err).Msg("Failed to register commands")
	}

	if opts.List {
		for _, name := range registry.List() {
			log.Info().Str("command", name).Msg("Available")
		}
		return
	}

	data, err := os.ReadFile(opts.Input)
	if err != nil {
		log.Fatal().Err(err).Str("path", opts.Input).Msg("Failed to read input")
	}

	// Stage the input as a single selected layer, the same shape the
	// commands see inside a full project.
	doc := document.New()
	if err := doc.AddSource(document.Source{ID: "input-source", Name: "input", Inline: string(data)}); err != nil {
		log.Fatal().Err(err).Msg("Failed to stage input")
	}
	if err := doc.AddLayer(document.Layer{
		ID:       "input",
		Name:     "input",
		SourceID: "input-source",
		Visible:  true,
		Opacity:  1,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to stage input layer")
	}
	doc.SetSelection([]string{"input"})

	pc := &processing.Context{
		Doc:       doc,
		GDAL:      processing.ExecEngine{Binary: opts.GDALBin},
		OutputDir: opts.OutputDir,
	}
	if opts.Endpoint != "" {
		pc.Client = sfcgal.NewClient(opts.Endpoint, time.Duration(opts.Timeout)*time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(opts.Timeout)*time.Second)
	defer cancel()

	if err := registry.Execute(ctx, opts.Operation, pc, parseParams(opts.Params)); err != nil {
		log.Fatal().Err(err).Str("command", opts.Operation).Msg("Processing failed")
	}

	for id, layer := range doc.GetLayers() {
		if id == "input" {
			continue
		}
		src, _ := doc.GetSource(layer.SourceID)
		log.Info().
			Str("layer", id).
			Str("artifact", src.Path).
			Msg("Processing finished")
	}
}

func parseParams(pairs []string) processing.Params {
	if len(pairs) == 0 {
		return nil
	}
	params := make(processing.Params, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			log.Warn().Str("param", pair).Msg("Ignoring malformed parameter, expected key=value")
			continue
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			params[key] = f
		} else {
			params[key] = value
		}
	}
	return params
}
