package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/paygate/internal/app/service/admission"
	"github.com/fatflowers/paygate/internal/app/service/event_log"
	"github.com/fatflowers/paygate/internal/app/service/payment"
	"github.com/fatflowers/paygate/pkg/logctx"
	"github.com/fatflowers/paygate/pkg/metrics"
	"github.com/fatflowers/paygate/pkg/response"
	"github.com/fatflowers/paygate/pkg/types"
)

// multipartOverhead is the allowance for form fields and boundaries on top
// of the file itself.
const multipartOverhead = 64 << 10

type UploadResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
}

type uploadAudit struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// @Summary      Upload Image
// @Description  Stores one image against a verified, unconsumed payment reference. The image is resized to fit the configured bound.
// @Tags         Upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        file          formData  file    true  "Image (jpg, jpeg or png)"
// @Param        reference     formData  string  true  "Verified payment reference"
// @Param        payerAddress  formData  string  false "Payer address used at verification"
// @Success      200  {object}  handlers.UploadResponse
// @Failure      400  {object}  response.ErrorBody
// @Failure      500  {object}  response.ErrorBody
// @Router       /upload [post]
func ApiUpload(adm admission.Admitter, maxFileBytes int64, obs *Observers) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()
		log := logctx.FromGin(c, obs.logger())
		defer obs.recorder().Observe("upload", "admit", start)

		reject := func(category, msg string) {
			obs.recorder().Admit(category)
			c.JSON(http.StatusBadRequest, response.Fail(category, msg))
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFileBytes+multipartOverhead)
		fh, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				reject(CategoryValidation, fmt.Sprintf("file larger than %d bytes", maxFileBytes))
				return
			}
			reject(CategoryValidation, "no file part")
			return
		}
		if fh.Filename == "" {
			reject(CategoryValidation, "no selected file")
			return
		}
		if fh.Size > maxFileBytes {
			reject(CategoryValidation, fmt.Sprintf("file larger than %d bytes", maxFileBytes))
			return
		}

		f, err := fh.Open()
		if err != nil {
			log.Errorw("failed to open uploaded file", "error", err)
			obs.recorder().Admit(CategoryStorageFailure)
			c.JSON(http.StatusInternalServerError, response.Fail(CategoryStorageFailure, internalErrorMessage))
			return
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxFileBytes+1))
		if err != nil {
			log.Errorw("failed to read uploaded file", "error", err)
			obs.recorder().Admit(CategoryStorageFailure)
			c.JSON(http.StatusInternalServerError, response.Fail(CategoryStorageFailure, internalErrorMessage))
			return
		}
		if int64(len(data)) > maxFileBytes {
			reject(CategoryValidation, fmt.Sprintf("file larger than %d bytes", maxFileBytes))
			return
		}

		req := &admission.AdmitRequest{
			Reference:    c.PostForm("reference"),
			PayerAddress: c.PostForm("payerAddress"),
			Data:         data,
			Extension:    filepath.Ext(fh.Filename),
		}
		entry := event_log.Entry{
			Kind:         types.EventKindUpload,
			Reference:    req.Reference,
			PayerAddress: req.PayerAddress,
			Request:      uploadAudit{Filename: fh.Filename, Size: int64(len(data))},
		}

		img, err := adm.Admit(ctx, req)
		if err != nil {
			status, body := classify(err)
			if status >= http.StatusInternalServerError {
				log.Errorw("upload failed", "reference", req.Reference, "error", err)
			} else {
				log.Infow("upload refused", "reference", req.Reference, "category", body.Category, "error", err)
			}
			obs.recorder().Admit(body.Category)
			entry.Category = body.Category
			obs.record(ctx, entry)
			c.JSON(status, body)
			return
		}

		log.Infow("upload stored", "reference", img.Reference, "filename", img.Filename, "width", img.Width, "height", img.Height, "bytes", img.Size)
		obs.recorder().Admit(metrics.ResultOK)
		obs.recorder().SetStored(img.Stored)
		entry.Result = img
		obs.record(ctx, entry)
		c.JSON(http.StatusOK, UploadResponse{Success: true, Filename: img.Filename})
	}
}

func RegisterPaymentRoutes(r gin.IRouter, gate payment.Gate, adm admission.Admitter, maxFileBytes int64, obs *Observers) {
	r.POST("/verify-payment", ApiVerifyPayment(gate, obs))
	r.POST("/upload", ApiUpload(adm, maxFileBytes, obs))
}
