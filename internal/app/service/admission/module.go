package admission

import "go.uber.org/fx"

// Module exposes the upload admission controller via Fx.
var Module = fx.Options(
	fx.Provide(NewController),
)
