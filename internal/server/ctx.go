package server

import (
	"github.com/rs/zerolog/log"
)

const defaultMaxBodyBytes = 32 << 20 // GeoJSON payloads can be large

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Engine       Engine
	MaxBodyBytes int64
}

// NewServerContext initializes the context. A nil engine is valid: the
// endpoint then reports itself unavailable, mirroring a missing
// processing backend.
func NewServerContext(engine Engine) *ServerContext {
	ctx := &ServerContext{
		Engine:       engine,
		MaxBodyBytes: defaultMaxBodyBytes,
	}

	if engine == nil {
		log.Warn().Msg("No processing engine configured, endpoint will report unavailable")
	} else {
		log.Info().
			Strs("operations", engine.Operations()).
			Msg("Processing engine initialized")
	}

	return ctx
}

func (s *ServerContext) supports(operation string) bool {
	if s.Engine == nil {
		return false
	}
	for _, op := range s.Engine.Operations() {
		if op == operation {
			return true
		}
	}
	return false
}
