package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/paygate/internal/app/service/event_log"
	"github.com/fatflowers/paygate/internal/app/service/payment"
	"github.com/fatflowers/paygate/pkg/logctx"
	"github.com/fatflowers/paygate/pkg/metrics"
	"github.com/fatflowers/paygate/pkg/response"
	"github.com/fatflowers/paygate/pkg/types"
)

type VerifyPaymentResponse struct {
	Status        string `json:"status"`
	ReadyToUpload bool   `json:"readyToUpload"`
}

// @Summary      Verify Payment
// @Description  Records a payment reference as verified so it can pay for exactly one upload.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request body payment.VerifyRequest true "Payment claim"
// @Success      200  {object}  handlers.VerifyPaymentResponse
// @Failure      400  {object}  response.ErrorBody
// @Failure      500  {object}  response.ErrorBody
// @Router       /verify-payment [post]
func ApiVerifyPayment(gate payment.Gate, obs *Observers) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()
		log := logctx.FromGin(c, obs.logger())
		defer obs.recorder().Observe("payment", "verify", start)

		var req payment.VerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			obs.recorder().Verify(CategoryValidation)
			c.JSON(http.StatusBadRequest, response.Fail(CategoryValidation, "request body must be a JSON object with reference and payerAddress"))
			return
		}

		res, err := gate.Verify(ctx, &req)
		if err != nil {
			status, body := classify(err)
			if status >= http.StatusInternalServerError {
				log.Errorw("verify payment failed", "reference", req.Reference, "error", err)
			} else {
				log.Infow("verify payment refused", "reference", req.Reference, "category", body.Category, "error", err)
			}
			obs.recorder().Verify(body.Category)
			obs.record(ctx, event_log.Entry{Kind: types.EventKindVerify, Reference: req.Reference, PayerAddress: req.PayerAddress, Category: body.Category, Request: req})
			c.JSON(status, body)
			return
		}

		log.Infow("payment verified", "reference", res.Reference, "amount", res.Amount.String())
		obs.recorder().Verify(metrics.ResultOK)
		out := VerifyPaymentResponse{Status: "verified", ReadyToUpload: res.ReadyToUpload}
		obs.record(ctx, event_log.Entry{Kind: types.EventKindVerify, Reference: res.Reference, PayerAddress: req.PayerAddress, Request: req, Result: res})
		c.JSON(http.StatusOK, out)
	}
}
