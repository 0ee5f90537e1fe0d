//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"conference-rag/internal/config"
)

// InitializeApp 初始化 Web 应用
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		InfraSet,
		ApplicationSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeDoctor 初始化命令行诊断
func InitializeDoctor(ctx context.Context, cfg *config.Config) (*Doctor, func(), error) {
	wire.Build(
		InfraSet,
		ApplicationSet,
		wire.Struct(new(Doctor), "*"),
	)
	return nil, nil, nil
}
