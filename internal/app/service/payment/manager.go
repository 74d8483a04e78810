package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRequest      = errors.New("invalid payment request")
	ErrDuplicateReference  = errors.New("payment reference already used")
	ErrPaymentRejected     = errors.New("payment could not be verified")
	ErrVerifierUnavailable = errors.New("payment verifier unavailable")
	ErrStorageFailure      = errors.New("payment ledger unavailable")
)

type VerifyRequest struct {
	Reference    string `json:"reference"`
	PayerAddress string `json:"payerAddress"`
}

type VerifyResult struct {
	Reference     string          `json:"reference"`
	Amount        decimal.Decimal `json:"amount"`
	ReadyToUpload bool            `json:"readyToUpload"`
}

// Gate turns a payment claim into a verified ledger entry, exactly once per reference.
type Gate interface {
	Verify(ctx context.Context, req *VerifyRequest) (*VerifyResult, error)
}
