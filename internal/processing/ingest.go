package processing

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	minify "github.com/tdewolff/minify/v2"
	minjson "github.com/tdewolff/minify/v2/json"

	"github.com/lbartoletti/jupytergis/internal/document"
	"github.com/lbartoletti/jupytergis/internal/geojson"
)

var minifier = func() *minify.M {
	m := minify.New()
	m.AddFunc("application/json", minjson.Minify)
	return m
}()

func jsonMarshal(fc *geojson.FeatureCollection) ([]byte, error) {
	return json.Marshal(fc)
}

// ingestResult attaches a processing result to the document as a fresh
// source+layer pair. Nothing is added before this point, so a failed
// operation never leaves partial document state behind.
func ingestResult(pc *Context, origin document.Layer, title string, fc *geojson.FeatureCollection) error {
	data, err := jsonMarshal(fc)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := minifier.Minify("application/json", &buf, bytes.NewReader(data)); err != nil {
		// fall back to the unminified artifact
		buf.Reset()
		buf.Write(data)
	}

	name := resultName(origin, title)
	id := newID(name)

	src := document.Source{
		ID:   id + "-source",
		Name: name,
		Type: document.SourceGeoJSON,
	}

	if pc.OutputDir != "" {
		if err := os.MkdirAll(pc.OutputDir, 0755); err != nil {
			return err
		}
		path := filepath.Join(pc.OutputDir, id+".geojson")
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("write result artifact: %w", err)
		}
		src.Path = path
	} else {
		src.Inline = buf.String()
	}

	if err := pc.Doc.AddSource(src); err != nil {
		return err
	}

	return pc.Doc.AddLayer(document.Layer{
		ID:       id,
		Name:     name,
		Type:     document.LayerVector,
		SourceID: src.ID,
		Visible:  true,
		Opacity:  1,
		Color:    origin.Color,
	})
}

func resultName(origin document.Layer, title string) string {
	base := origin.Name
	if base == "" {
		base = origin.ID
	}
	return fmt.Sprintf("%s (%s)", base, title)
}

func newID(name string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, name)
	slug = strings.Trim(slug, "-")

	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return slug + "-" + hex.EncodeToString(buf)
}
