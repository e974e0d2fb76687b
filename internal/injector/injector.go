//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/slicer/internal/core/events/bus"
	"github.com/zeusync/slicer/internal/core/level"
	"github.com/zeusync/slicer/internal/core/observability/log"
	"github.com/zeusync/slicer/internal/server"
)

var loggerSet = wire.NewSet(log.Provide, wire.Bind(new(log.Log), new(*log.Logger)))

func InitializeLevel(cfg level.Config) (*level.Level, error) {
	wire.Build(loggerSet, bus.New, level.New)
	return nil, nil
}

func InitializeServer(cfg server.Config) (*server.Server, error) {
	wire.Build(loggerSet, server.New)
	return nil, nil
}
