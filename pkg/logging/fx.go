package logging

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("logging",
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, m *Manager) {
		lc.Append(fx.StopHook(func(context.Context) error {
			return m.Close()
		}))
	}),
)
