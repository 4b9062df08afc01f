//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/vectorlab/internal/config"
	"github.com/zeusync/vectorlab/internal/core/scene"
	"github.com/zeusync/vectorlab/internal/server"
)

func InitializeServer(cfg *config.Config) (*server.Server, func(), error) {
	wire.Build(ServerSet)
	return nil, nil, nil
}

func InitializeRenderer(cfg *config.Config) (*scene.Renderer, error) {
	wire.Build(RendererSet)
	return nil, nil
}
