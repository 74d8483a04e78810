package handlers

import (
	"errors"
	"net/http"

	"github.com/fatflowers/paygate/internal/app/service/admission"
	"github.com/fatflowers/paygate/internal/app/service/payment"
	"github.com/fatflowers/paygate/pkg/response"
)

// Error categories returned to clients. The strings are part of the API.
const (
	CategoryValidation       = "validation_error"
	CategoryDuplicate        = "duplicate_reference"
	CategoryRejected         = "payment_rejected"
	CategoryNotVerified      = "payment_not_verified"
	CategoryAlreadyConsumed  = "payment_already_consumed"
	CategoryQuotaExceeded    = "quota_exceeded"
	CategoryUnsupportedType  = "unsupported_type"
	CategoryInvalidImageData = "invalid_image_data"
	CategoryStorageFailure   = "storage_failure"
)

const internalErrorMessage = "internal server error"

var categories = []struct {
	err      error
	status   int
	category string
}{
	{payment.ErrInvalidRequest, http.StatusBadRequest, CategoryValidation},
	{payment.ErrDuplicateReference, http.StatusBadRequest, CategoryDuplicate},
	{payment.ErrPaymentRejected, http.StatusBadRequest, CategoryRejected},
	{payment.ErrVerifierUnavailable, http.StatusInternalServerError, CategoryStorageFailure},
	{payment.ErrStorageFailure, http.StatusInternalServerError, CategoryStorageFailure},
	{admission.ErrInvalidRequest, http.StatusBadRequest, CategoryValidation},
	{admission.ErrUnsupportedType, http.StatusBadRequest, CategoryUnsupportedType},
	{admission.ErrQuotaExceeded, http.StatusBadRequest, CategoryQuotaExceeded},
	{admission.ErrPaymentNotVerified, http.StatusBadRequest, CategoryNotVerified},
	{admission.ErrPaymentAlreadyConsumed, http.StatusBadRequest, CategoryAlreadyConsumed},
	{admission.ErrInvalidImageData, http.StatusBadRequest, CategoryInvalidImageData},
	{admission.ErrStorageFailure, http.StatusInternalServerError, CategoryStorageFailure},
}

// classify maps a service error to its HTTP status and client body. Internal
// failures get a fixed message so paths and driver errors stay in the logs.
func classify(err error) (int, *response.ErrorBody) {
	for _, c := range categories {
		if !errors.Is(err, c.err) {
			continue
		}
		if c.status >= http.StatusInternalServerError {
			return c.status, response.Fail(c.category, internalErrorMessage)
		}
		msg := c.err.Error()
		if c.category == CategoryValidation {
			msg = detail(err)
		}
		return c.status, response.Fail(c.category, msg)
	}
	return http.StatusInternalServerError, response.Fail(CategoryStorageFailure, internalErrorMessage)
}

// detail drops the admission stage prefix from validation messages.
func detail(err error) string {
	var se *admission.StageError
	if errors.As(err, &se) {
		return se.Err.Error()
	}
	return err.Error()
}
