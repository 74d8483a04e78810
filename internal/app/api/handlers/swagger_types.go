package handlers

import (
	"github.com/fatflowers/paygate/internal/app/service/ledger"
	"github.com/fatflowers/paygate/pkg/response"
)

// RespListPayments wraps ledger.ScanResponse in the standard envelope.
type RespListPayments struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    ledger.ScanResponse      `json:"data"`
}

// RespStats wraps StatsResponse in the standard envelope.
type RespStats struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    StatsResponse            `json:"data"`
}
