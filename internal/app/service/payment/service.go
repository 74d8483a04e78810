package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/fatflowers/paygate/internal/app/service/ledger"
	"github.com/fatflowers/paygate/pkg/config"
)

const maxFieldLen = 128

type ledgerInserter interface {
	InsertVerified(ctx context.Context, reference string, amount decimal.Decimal, payerAddress string) error
}

type Service struct {
	price     decimal.Decimal
	recipient string
	verifier  Verifier
	ledger    ledgerInserter
}

func NewService(cfg *config.Config, verifier Verifier, store *ledger.Store) Gate {
	return newService(cfg, verifier, store)
}

func newService(cfg *config.Config, verifier Verifier, store ledgerInserter) *Service {
	return &Service{
		price:     cfg.Payment.Price(),
		recipient: cfg.Payment.RecipientAddress,
		verifier:  verifier,
		ledger:    store,
	}
}

// ValidateField trims s and checks it is a usable reference or address.
func ValidateField(name, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: missing %s", ErrInvalidRequest, name)
	}
	if len(s) > maxFieldLen {
		return "", fmt.Errorf("%w: %s longer than %d characters", ErrInvalidRequest, name, maxFieldLen)
	}
	if strings.IndexFunc(s, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return "", fmt.Errorf("%w: %s contains whitespace", ErrInvalidRequest, name)
	}
	return s, nil
}

func (s *Service) Verify(ctx context.Context, req *VerifyRequest) (*VerifyResult, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	reference, err := ValidateField("reference", req.Reference)
	if err != nil {
		return nil, err
	}
	payer, err := ValidateField("payerAddress", req.PayerAddress)
	if err != nil {
		return nil, err
	}

	ok, err := s.verifier.Verify(ctx, reference, s.price, s.recipient)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPaymentRejected, reference)
	}

	if err := s.ledger.InsertVerified(ctx, reference, s.price, payer); err != nil {
		if errors.Is(err, ledger.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateReference, reference)
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return &VerifyResult{Reference: reference, Amount: s.price, ReadyToUpload: true}, nil
}
