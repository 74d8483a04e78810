package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/paygate/internal/app/service/ledger"
	"github.com/fatflowers/paygate/pkg/metrics"
	"github.com/fatflowers/paygate/pkg/response"
)

type LedgerReader interface {
	Scan(ctx context.Context, req *ledger.ScanRequest) (*ledger.ScanResponse, error)
	Stats(ctx context.Context) (*ledger.Stats, error)
}

type ImageCounter interface {
	Count(ctx context.Context) (int, error)
}

type StatsResponse struct {
	Payments       *ledger.Stats `json:"payments"`
	StoredImages   int           `json:"stored_images"`
	MaxImages      int           `json:"max_images"`
	RemainingQuota int           `json:"remaining_quota"`
}

// @Summary      List Payments (Admin)
// @Description  Retrieves a paginated and filterable list of ledger entries.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body ledger.ScanRequest true "Filters, pagination and sorting"
// @Success      200  {object}  handlers.RespListPayments
// @Router       /api/v1/admin/list_payments [post]
func ApiListPayments(l LedgerReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ledger.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := l.Scan(c.Request.Context(), &req)
		if errors.Is(err, ledger.ErrInvalidScan) {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, "failed to list payments"))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Ledger Statistics (Admin)
// @Description  Counts verified and consumed payments, the amount collected and the remaining image quota.
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  handlers.RespStats
// @Router       /api/v1/admin/stats [get]
func ApiStats(l LedgerReader, images ImageCounter, maxImages int, rec *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		st, err := l.Stats(ctx)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, "failed to load ledger stats"))
			return
		}
		n, err := images.Count(ctx)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, "failed to count stored images"))
			return
		}
		rec.SetStored(n)
		c.JSON(http.StatusOK, response.OKT(&StatsResponse{
			Payments:       st,
			StoredImages:   n,
			MaxImages:      maxImages,
			RemainingQuota: max(maxImages-n, 0),
		}))
	}
}

func RegisterAdminRoutes(r gin.IRouter, l LedgerReader, images ImageCounter, maxImages int, rec *metrics.Recorder) {
	r.POST("/list_payments", ApiListPayments(l))
	r.GET("/stats", ApiStats(l, images, maxImages, rec))
}
