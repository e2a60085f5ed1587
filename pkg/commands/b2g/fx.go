package b2g

import "go.uber.org/fx"

var Module = fx.Module("b2g",
	fx.Provide(
		fx.Annotate(build, fx.ResultTags(`group:"providers"`)),
		fx.Annotate(emulator, fx.ResultTags(`group:"providers"`)),
		fx.Annotate(flash, fx.ResultTags(`group:"providers"`)),
	),
)
