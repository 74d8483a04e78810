package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/pkg/types"
)

// Scan request/response for the admin listing.
type ScanRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanResponse struct {
	Items []*models.PaymentRecord `json:"items"`
	Total int64                   `json:"total"`
}

const maxScanSize = 200

// ErrInvalidScan reports a filter or sort the listing does not support.
var ErrInvalidScan = errors.New("invalid scan request")

// scannableColumns limits filter and sort columns to real ledger columns.
var scannableColumns = []string{"reference", "payer_address", "status", "linked_file", "amount", "created_at", "consumed_at"}

// filtersAnd is a helper to combine multiple CommonFilter into a single clause.Expression
type filtersAnd struct{ filters []*types.CommonFilter }

func (w filtersAnd) Build(builder clause.Builder) {
	exprs := make([]clause.Expression, 0, len(w.filters))
	for _, f := range w.filters {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

func (s *Store) Scan(ctx context.Context, req *ScanRequest) (*ScanResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidScan)
	}
	for _, f := range req.Filters {
		if !f.Valid() || !lo.Contains(scannableColumns, f.Field) {
			return nil, fmt.Errorf("%w: unsupported filter", ErrInvalidScan)
		}
	}
	if req.SortBy != "" && !lo.Contains(scannableColumns, req.SortBy) {
		return nil, fmt.Errorf("%w: unsupported sort field %q", ErrInvalidScan, req.SortBy)
	}
	size := req.Size
	if size <= 0 {
		size = 10
	}
	size = min(size, maxScanSize)
	from := max(req.From, 0)

	tx := s.db.WithContext(ctx).Model(&models.PaymentRecord{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count payment records: %w", err)
	}

	sortBy := lo.Ternary(req.SortBy != "", req.SortBy, "created_at")
	q := tx.Limit(size).Offset(from).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: sortBy}, Desc: req.SortOrder != "asc"}}})

	var rows []*models.PaymentRecord
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list payment records: %w", err)
	}
	return &ScanResponse{Items: rows, Total: total}, nil
}

// Stats summarizes the ledger.
type Stats struct {
	Verified  int64           `json:"verified"`
	Consumed  int64           `json:"consumed"`
	Collected decimal.Decimal `json:"collected"`
}

func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var rows []struct {
		Status types.PaymentStatus
		Cnt    int64
	}
	if err := s.db.WithContext(ctx).Model(&models.PaymentRecord{}).
		Select("status, count(*) as cnt").Group("status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count payment records: %w", err)
	}

	out := &Stats{}
	if err := s.db.WithContext(ctx).Model(&models.PaymentRecord{}).
		Select("COALESCE(SUM(amount), 0)").Row().Scan(&out.Collected); err != nil {
		return nil, fmt.Errorf("failed to sum payment amounts: %w", err)
	}
	for _, r := range rows {
		switch r.Status {
		case types.PaymentStatusVerified:
			out.Verified = r.Cnt
		case types.PaymentStatusConsumed:
			out.Consumed = r.Cnt
		}
	}
	return out, nil
}
