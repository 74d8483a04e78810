package models

import (
	"time"

	"github.com/fatflowers/paygate/pkg/types"
	"github.com/shopspring/decimal"
)

// PaymentRecord is one ledger row. Reference is immutable once created and
// LinkedFile is set exactly when Status is consumed. Rows are never deleted.
type PaymentRecord struct {
	Reference    string              `gorm:"column:reference;type:varchar(128);primaryKey" json:"reference"`
	Amount       decimal.Decimal     `gorm:"column:amount;type:decimal(20,8);not null" json:"amount"`
	PayerAddress string              `gorm:"column:payer_address;type:varchar(128);not null;index" json:"payer_address"`
	Status       types.PaymentStatus `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	// LinkedFile 绑定的图片文件名，仅在 consumed 状态下存在
	LinkedFile *string    `gorm:"column:linked_file;type:varchar(128);uniqueIndex" json:"linked_file"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	ConsumedAt *time.Time `gorm:"column:consumed_at;default:null" json:"consumed_at"`
}

func (PaymentRecord) TableName() string {
	return "payment_record"
}

func (r *PaymentRecord) IsConsumed() bool {
	return r != nil && r.Status == types.PaymentStatusConsumed
}
