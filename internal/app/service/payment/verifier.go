package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fatflowers/paygate/pkg/config"
)

// Verifier confirms that reference is a real payment of amount to recipient.
// A false result is a rejection; an error means the check could not be made.
type Verifier interface {
	Verify(ctx context.Context, reference string, amount decimal.Decimal, recipient string) (bool, error)
}

// AcceptAllVerifier treats every well-formed reference as paid. It stands in
// until a network-backed verifier is configured.
type AcceptAllVerifier struct{}

func (AcceptAllVerifier) Verify(context.Context, string, decimal.Decimal, string) (bool, error) {
	return true, nil
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, reference string, amount decimal.Decimal, recipient string) (bool, error)

func (f VerifierFunc) Verify(ctx context.Context, reference string, amount decimal.Decimal, recipient string) (bool, error) {
	return f(ctx, reference, amount, recipient)
}

// NewVerifier selects the verifier named by payment.verifier.
func NewVerifier(cfg *config.Config, log *zap.SugaredLogger) (Verifier, error) {
	switch cfg.Payment.Verifier {
	case config.VerifierAcceptAll, "":
		log.Warnw("payment verifier accepts any well-formed reference; on-chain verification is not configured",
			"verifier", config.VerifierAcceptAll)
		return AcceptAllVerifier{}, nil
	default:
		return nil, fmt.Errorf("unsupported payment verifier: %s", cfg.Payment.Verifier)
	}
}
