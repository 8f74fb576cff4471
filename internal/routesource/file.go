package routesource

import (
	"context"

	"github.com/vyrodovalexey/gwcore/internal/config"
	"github.com/vyrodovalexey/gwcore/internal/route"
	"github.com/vyrodovalexey/gwcore/internal/routedef"
	"github.com/vyrodovalexey/gwcore/internal/util"
)

// FileSource loads routes from the routes section of a gateway
// configuration file. The file is read again on every fetch, so a
// refresh picks up edits.
type FileSource struct {
	path    string
	builder *routedef.Builder
}

// NewFileSource creates a source reading the configuration at path.
func NewFileSource(path string, builder *routedef.Builder) *FileSource {
	return &FileSource{path: path, builder: builder}
}

// FetchAll loads, validates and compiles the routes in the file.
func (s *FileSource) FetchAll(ctx context.Context) ([]*route.Route, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(s.path)
	if err != nil {
		return nil, util.WrapError(err, s.Name())
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, util.WrapError(err, s.Name())
	}

	return s.builder.BuildAll(cfg.Spec.Routes)
}

// Name returns the source name used in logs and errors.
func (s *FileSource) Name() string {
	return "file:" + s.path
}

// StaticSource serves a fixed list of route definitions.
type StaticSource struct {
	defs    []config.RouteDefinition
	builder *routedef.Builder
}

// NewStaticSource creates a source serving defs.
func NewStaticSource(defs []config.RouteDefinition, builder *routedef.Builder) *StaticSource {
	return &StaticSource{defs: defs, builder: builder}
}

// FetchAll compiles the definitions.
func (s *StaticSource) FetchAll(ctx context.Context) ([]*route.Route, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.builder.BuildAll(s.defs)
}

// Name returns the source name used in logs and errors.
func (s *StaticSource) Name() string {
	return "static"
}
