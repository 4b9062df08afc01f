// Package injector wires the vectorlab components together.
package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/vectorlab/internal/config"
	"github.com/zeusync/vectorlab/internal/core/events/bus"
	"github.com/zeusync/vectorlab/internal/core/observability/log"
	"github.com/zeusync/vectorlab/internal/core/scene"
	"github.com/zeusync/vectorlab/internal/server"
)

// RendererSet builds a scene renderer from the configuration.
var RendererSet = wire.NewSet(ProvideSceneOptions, scene.NewRenderer)

// ServerSet builds a ready to start server.
var ServerSet = wire.NewSet(
	RendererSet,
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	bus.New,
	server.NewServer,
)

// ProvideLogger builds the process logger; the cleanup flushes it.
func ProvideLogger(cfg *config.Config) (*log.Logger, func(), error) {
	logger, err := log.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideSceneOptions converts the scene section of cfg.
func ProvideSceneOptions(cfg *config.Config) (scene.Options, error) {
	return cfg.Scene.Options()
}
