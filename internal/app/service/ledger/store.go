package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/pkg/types"
)

var (
	// ErrAlreadyExists is returned by InsertVerified when the reference is
	// already in the ledger, verified or consumed.
	ErrAlreadyExists = errors.New("payment reference already exists")
	// ErrNotFoundOrAlreadyConsumed is returned by MarkConsumed when no
	// verified row matched.
	ErrNotFoundOrAlreadyConsumed = errors.New("payment reference not found or already consumed")
)

// Store is the payment ledger. Every state change is a single conditional
// statement so the database, not the process, arbitrates concurrent callers.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// InitializeSchema creates the ledger table and indexes if absent. Existing
// rows are never touched.
func (s *Store) InitializeSchema(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&models.PaymentRecord{}); err != nil {
		return fmt.Errorf("failed to migrate ledger: %w", err)
	}
	return nil
}

func (s *Store) InsertVerified(ctx context.Context, reference string, amount decimal.Decimal, payerAddress string) error {
	rec := &models.PaymentRecord{
		Reference:    reference,
		Amount:       amount,
		PayerAddress: payerAddress,
		Status:       types.PaymentStatusVerified,
		CreatedAt:    s.now().UTC(),
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "reference"}}, DoNothing: true}).
		Create(rec)
	if res.Error != nil {
		return fmt.Errorf("failed to insert payment record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, reference)
	}
	return nil
}

func (s *Store) FindUnconsumed(ctx context.Context, reference string) (*models.PaymentRecord, error) {
	var rec models.PaymentRecord
	err := s.db.WithContext(ctx).
		Where("reference = ? AND status = ?", reference, types.PaymentStatusVerified).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find payment record: %w", err)
	}
	return &rec, nil
}

func (s *Store) MarkConsumed(ctx context.Context, reference string, filename string) error {
	res := s.db.WithContext(ctx).
		Model(&models.PaymentRecord{}).
		Where("reference = ? AND status = ?", reference, types.PaymentStatusVerified).
		Updates(map[string]any{
			"status":      types.PaymentStatusConsumed,
			"linked_file": filename,
			"consumed_at": s.now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to consume payment record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFoundOrAlreadyConsumed, reference)
	}
	return nil
}

// Get returns the record in any state, or nil when absent.
func (s *Store) Get(ctx context.Context, reference string) (*models.PaymentRecord, error) {
	var rec models.PaymentRecord
	if err := s.db.WithContext(ctx).Where("reference = ?", reference).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment record: %w", err)
	}
	return &rec, nil
}
