package ledger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module exposes the ledger store via Fx and initializes its schema on start.
var Module = fx.Options(
	fx.Provide(NewStore),
	fx.Invoke(initializeSchema),
)

func initializeSchema(lc fx.Lifecycle, l *zap.SugaredLogger, s *Store) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := s.InitializeSchema(ctx); err != nil {
				l.Errorw("ledger schema initialization failed", "error", err)
				return err
			}
			l.Infow("ledger schema ready")
			return nil
		},
	})
}
