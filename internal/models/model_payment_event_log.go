package models

import (
	"time"

	"github.com/fatflowers/paygate/pkg/types"
	"gorm.io/datatypes"
)

type PaymentEventLogStatus string

const (
	PaymentEventLogStatusHandled      PaymentEventLogStatus = "handled"
	PaymentEventLogStatusHandleFailed PaymentEventLogStatus = "handle_failed"
)

// PaymentEventLog is the audit trail of verify/upload requests.
type PaymentEventLog struct {
	ID           string                `gorm:"column:id;type:varchar(36);primary_key" json:"id"`
	Kind         types.EventKind       `gorm:"column:kind;type:varchar(32);not null" json:"kind"`
	Reference    string                `gorm:"column:reference;type:varchar(128);index" json:"reference"`
	PayerAddress string                `gorm:"column:payer_address;type:varchar(128)" json:"payer_address"`
	TraceID      string                `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	Category     string                `gorm:"column:category;type:varchar(64)" json:"category"`
	Data         datatypes.JSON        `gorm:"column:data" json:"data"`
	Result       *datatypes.JSON       `gorm:"column:result" json:"result"`
	Status       PaymentEventLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt    time.Time             `json:"created_at"`
}

func (PaymentEventLog) TableName() string { return "payment_event_log" }
