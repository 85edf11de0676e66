package shared

import (
	"go.uber.org/fx"
)

var NewSharedModule = fx.Options(
	fx.Invoke(LoadEnv),
	fx.Provide(NewKoanfInstance),
	fx.Provide(NewLogger),
	fx.Provide(NewRedisClient),
)
