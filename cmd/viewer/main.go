package main

import (
	"os"

	"github.com/lbartoletti/jupytergis/internal/config"
	"github.com/lbartoletti/jupytergis/internal/geojson"
	"github.com/lbartoletti/jupytergis/internal/logger"
	"github.com/lbartoletti/jupytergis/internal/reproject"
	"github.com/lbartoletti/jupytergis/internal/scene"
	"github.com/lbartoletti/jupytergis/internal/viewer"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile    string  `short:"c" long:"config"         env:"CONFIG_FILE" description:"Path to configuration file"`
	Input         string  `short:"i" long:"input"          description:"Input GeoJSON file" required:"true"`
	Output        string  `short:"o" long:"output"         description:"Output webp screenshot" default:"scene.webp"`
	Width         int     `short:"W" long:"width"          description:"Render width"  default:"1280"`
	Height        int     `short:"H" long:"height"         description:"Render height" default:"960"`
	Color         string  `long:"color"                    description:"Fill color" default:"#3388ff"`
	Background    string  `long:"background"               description:"Background color" default:"#1e1e1e"`
	Extrude       bool    `long:"extrude"                  description:"Extrude polygons into prisms"`
	ExtrudeHeight float64 `long:"extrude-height"           description:"Extrusion height" default:"10"`
	Wireframe     bool    `long:"wireframe"                description:"Overlay mesh edges"`
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

	reprojector := reproject.New()
	displayCRS := ""
	if opts.ConfigFile != "" {
		cfg, err := config.Load(opts.ConfigFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
		cfg.Apply(reprojector)
		displayCRS = cfg.DisplayCRS
	}

	data, err := os.ReadFile(opts.Input)
	if err != nil {
		log.Fatal().Err(err).Str("path", opts.Input).Msg("Failed to read input")
	}

	fc, err := geojson.Parse(data)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse GeoJSON")
	}

	color, err := scene.ParseColor(opts.Color)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid fill color")
	}
	background, err := scene.ParseColor(opts.Background)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid background color")
	}

	v := viewer.New(viewer.Config{
		Width:      opts.Width,
		Height:     opts.Height,
		Background: background,
	})
	defer v.Dispose()

	err = v.LoadGeoJSON(fc, scene.Options{
		Color:         &color,
		Extrude:       opts.Extrude,
		ExtrudeHeight: opts.ExtrudeHeight,
		Wireframe:     opts.Wireframe,
		DisplayCRS:    displayCRS,
		Reprojector:   reprojector,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load scene")
	}

	out, err := os.Create(opts.Output)
	if err != nil {
		log.Fatal().Err(err).Str("path", opts.Output).Msg("Failed to create output")
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Failed to close output file")
		}
	}()

	if err := v.WriteScreenshot(out, opts.Width, opts.Height); err != nil {
		log.Fatal().Err(err).Msg("Failed to write screenshot")
	}

	bounds := v.Bounds()
	size := scene.BoxSize(bounds)
	log.Info().
		Str("output", opts.Output).
		Int("features", len(fc.Features)).
		Floats64("extent", []float64{size[0], size[1], size[2]}).
		Msg("Screenshot written")
}
