package admission

import (
	"context"
	"errors"
)

var (
	ErrInvalidRequest         = errors.New("invalid upload request")
	ErrUnsupportedType        = errors.New("unsupported file type")
	ErrQuotaExceeded          = errors.New("image quota exceeded")
	ErrPaymentNotVerified     = errors.New("payment not verified")
	ErrPaymentAlreadyConsumed = errors.New("payment already consumed")
	ErrInvalidImageData       = errors.New("invalid image data")
	ErrStorageFailure         = errors.New("storage unavailable")
)

// Stage is the point an admission attempt reached.
type Stage string

const (
	StageValidating   Stage = "validating"
	StageQuotaCheck   Stage = "quota_check"
	StagePaymentCheck Stage = "payment_check"
	StageWriting      Stage = "writing"
	StageRolledBack   Stage = "rolled_back"
	// StageLinking marks a failed link whose rollback also failed.
	StageLinking      Stage = "linking"
)

// AdmitRequest is one upload attempt. Extension may carry a leading dot and
// any case.
type AdmitRequest struct {
	Reference    string
	PayerAddress string
	Data         []byte
	Extension    string
}

// StoredImage describes a committed upload.
type StoredImage struct {
	Filename  string `json:"filename"`
	Reference string `json:"reference"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Size      int    `json:"size"`
	// Stored is the image count including this one, as seen at admission.
	Stored    int    `json:"-"`
}

// StageError records where a failed attempt stopped. It unwraps to the
// category sentinel.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return string(e.Stage) + ": " + e.Err.Error() }
func (e *StageError) Unwrap() error { return e.Err }

// Admitter accepts a file only against an unconsumed verified payment.
type Admitter interface {
	Admit(ctx context.Context, req *AdmitRequest) (*StoredImage, error)
}
