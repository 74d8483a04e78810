package payment

import "go.uber.org/fx"

// Module exposes the payment gate via Fx.
var Module = fx.Options(
	fx.Provide(NewVerifier),
	fx.Provide(NewService),
)
