// Package reproject converts coordinates between coordinate reference
// systems using proj4 definitions from a static registry.
package reproject

import (
	"fmt"
	"sync"

	"github.com/ctessum/geom/proj"
	"github.com/rs/zerolog/log"

	"github.com/lbartoletti/jupytergis/internal/geojson"
)

// DisplayCRS is the geographic CRS the 3D view works in.
const DisplayCRS = "EPSG:4326"

// Built-in proj4 definitions, keyed by AUTHORITY:CODE.
var definitions = map[string]string{
	"EPSG:4326":  "+proj=longlat +datum=WGS84 +no_defs",
	"EPSG:3857":  "+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +nadgrids=@null +no_defs",
	"EPSG:2154":  "+proj=lcc +lat_1=49 +lat_2=44 +lat_0=46.5 +lon_0=3 +x_0=700000 +y_0=6600000 +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs",
	"EPSG:3946":  "+proj=lcc +lat_1=45.25 +lat_2=46.75 +lat_0=46 +lon_0=3 +x_0=1700000 +y_0=5200000 +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs",
	"EPSG:32633": "+proj=utm +zone=33 +datum=WGS84 +units=m +no_defs",
	"EPSG:25832": "+proj=utm +zone=32 +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs",
}

// Reprojector caches compiled transforms between registered CRS codes.
// Unknown codes and transform failures are non-fatal: the input
// coordinate is returned unchanged and a warning is logged once per
// code, so a conversion proceeds with un-reprojected data instead of
// aborting.
type Reprojector struct {
	mu         sync.Mutex
	defs       map[string]string
	transforms map[string]proj.Transformer
	warned     map[string]bool
}

// New returns a Reprojector seeded with the built-in definitions.
func New() *Reprojector {
	defs := make(map[string]string, len(definitions))
	for code, def := range definitions {
		defs[code] = def
	}
	return &Reprojector{
		defs:       defs,
		transforms: make(map[string]proj.Transformer),
		warned:     make(map[string]bool),
	}
}

// Register adds or replaces a proj4 definition for a CRS code.
func (r *Reprojector) Register(code, proj4 string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[code] = proj4
	// a new definition invalidates cached transforms touching the code
	for key := range r.transforms {
		delete(r.transforms, key)
	}
}

// Known reports whether a definition is registered for the code.
func (r *Reprojector) Known(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.defs[code]
	return ok
}

// Transform converts a coordinate tuple from src to dst. The Z
// component, when present, is carried through untouched. On any
// failure the input is returned unchanged.
func (r *Reprojector) Transform(c geojson.Position, src, dst string) geojson.Position {
	if len(c) < 2 || src == "" || src == dst {
		return c
	}

	t, err := r.transformer(src, dst)
	if err != nil {
		r.warnOnce(src+">"+dst, err)
		return c
	}
	// equal source and destination definitions yield a nil transformer
	// with a nil error
	if t == nil {
		return c
	}

	x, y, err := apply(t, c.X(), c.Y())
	if err != nil {
		r.warnOnce(src+">"+dst, err)
		return c
	}

	out := make(geojson.Position, len(c))
	copy(out, c)
	out[0], out[1] = x, y
	return out
}

// apply runs the transformer, converting a panic inside the proj
// library into an error so a bad definition degrades instead of
// crashing the conversion.
func apply(t proj.Transformer, x, y float64) (ox, oy float64, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("transform panicked: %v", p)
		}
	}()
	return t(x, y)
}

func (r *Reprojector) transformer(src, dst string) (proj.Transformer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := src + "|" + dst
	if t, ok := r.transforms[key]; ok {
		return t, nil
	}

	srcDef, ok := r.defs[src]
	if !ok {
		return nil, fmt.Errorf("unregistered CRS %q", src)
	}
	dstDef, ok := r.defs[dst]
	if !ok {
		return nil, fmt.Errorf("unregistered CRS %q", dst)
	}

	srcSR, err := proj.Parse(srcDef)
	if err != nil {
		return nil, fmt.Errorf("parse %s definition: %w", src, err)
	}
	dstSR, err := proj.Parse(dstDef)
	if err != nil {
		return nil, fmt.Errorf("parse %s definition: %w", dst, err)
	}

	t, err := srcSR.NewTransform(dstSR)
	if err != nil {
		return nil, fmt.Errorf("build transform %s -> %s: %w", src, dst, err)
	}

	r.transforms[key] = t
	return t, nil
}

func (r *Reprojector) warnOnce(key string, err error) {
	r.mu.Lock()
	seen := r.warned[key]
	r.warned[key] = true
	r.mu.Unlock()

	if !seen {
		log.Warn().Err(err).Str("transform", key).
			Msg("Reprojection unavailable, keeping original coordinates")
	}
}
