package admission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatflowers/paygate/internal/app/service/ledger"
	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/internal/platform/imaging"
	"github.com/fatflowers/paygate/internal/platform/storage"
	"github.com/fatflowers/paygate/pkg/config"
	"github.com/fatflowers/paygate/pkg/tool"
	"github.com/fatflowers/paygate/pkg/types"
)

type paymentLedger interface {
	FindUnconsumed(ctx context.Context, reference string) (*models.PaymentRecord, error)
	MarkConsumed(ctx context.Context, reference string, filename string) error
	Get(ctx context.Context, reference string) (*models.PaymentRecord, error)
}

type imageStore interface {
	Count(ctx context.Context) (int, error)
	Save(ctx context.Context, name string, data []byte) error
	Remove(ctx context.Context, name string) error
}

// Controller admits uploads. The quota check is a plain count and may let a
// few concurrent uploads past the limit; the payment consumption is the only
// serialized step and is arbitrated by the ledger.
type Controller struct {
	maxImages   int
	limits      imaging.Limits
	ledger      paymentLedger
	images      imageStore
	newFilename func(ext string) string
}

func NewController(cfg *config.Config, store *ledger.Store, area *storage.Area) Admitter {
	return newController(cfg, store, area)
}

func newController(cfg *config.Config, l paymentLedger, images imageStore) *Controller {
	return &Controller{
		maxImages: cfg.Upload.MaxImages,
		limits: imaging.Limits{
			MaxDimension: cfg.Upload.MaxDimension,
			MaxPixels:    cfg.Upload.MaxPixels,
		},
		ledger:      l,
		images:      images,
		newFilename: tool.GenerateFilename,
	}
}

// NormalizeExtension lower-cases ext and strips a leading dot.
func NormalizeExtension(ext string) types.ImageExtension {
	return types.ImageExtension(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), ".")))
}

func fail(stage Stage, sentinel error, format string, args ...any) error {
	return &StageError{Stage: stage, Err: fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)}
}

// missingPayment tells a consumed reference apart from one never verified.
func (c *Controller) missingPayment(ctx context.Context, reference string) error {
	rec, err := c.ledger.Get(ctx, reference)
	if err != nil {
		return fail(StagePaymentCheck, ErrStorageFailure, "%v", err)
	}
	if rec != nil && rec.IsConsumed() {
		return fail(StagePaymentCheck, ErrPaymentAlreadyConsumed, "%s", reference)
	}
	return fail(StagePaymentCheck, ErrPaymentNotVerified, "%s", reference)
}

func (c *Controller) Admit(ctx context.Context, req *AdmitRequest) (*StoredImage, error) {
	if req == nil {
		return nil, fail(StageValidating, ErrInvalidRequest, "nil request")
	}
	ext := NormalizeExtension(req.Extension)
	if !ext.Allowed() {
		return nil, fail(StageValidating, ErrUnsupportedType, "%q", string(ext))
	}
	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		return nil, fail(StageValidating, ErrInvalidRequest, "missing reference")
	}

	count, err := c.images.Count(ctx)
	if err != nil {
		return nil, fail(StageQuotaCheck, ErrStorageFailure, "%v", err)
	}
	if count >= c.maxImages {
		return nil, fail(StageQuotaCheck, ErrQuotaExceeded, "%d of %d stored", count, c.maxImages)
	}

	rec, err := c.ledger.FindUnconsumed(ctx, reference)
	if err != nil {
		return nil, fail(StagePaymentCheck, ErrStorageFailure, "%v", err)
	}
	if rec == nil {
		return nil, c.missingPayment(ctx, reference)
	}
	if payer := strings.TrimSpace(req.PayerAddress); payer != "" && !strings.EqualFold(payer, rec.PayerAddress) {
		return nil, fail(StagePaymentCheck, ErrPaymentNotVerified, "payer address does not match %s", reference)
	}

	filename := c.newFilename(string(ext))
	img, err := imaging.Normalize(req.Data, ext, c.limits)
	if err != nil {
		if errors.Is(err, imaging.ErrDecode) {
			return nil, fail(StageWriting, ErrInvalidImageData, "%v", err)
		}
		return nil, fail(StageWriting, ErrStorageFailure, "%v", err)
	}
	if err := c.images.Save(ctx, filename, img.Data); err != nil {
		return nil, fail(StageWriting, ErrStorageFailure, "%v", err)
	}

	// Once the file exists the attempt must end linked or rolled back, even if
	// the caller goes away.
	finishCtx := context.WithoutCancel(ctx)
	if err := c.ledger.MarkConsumed(finishCtx, reference, filename); err != nil {
		sentinel := ErrStorageFailure
		if errors.Is(err, ledger.ErrNotFoundOrAlreadyConsumed) {
			sentinel = ErrPaymentAlreadyConsumed
		}
		if rmErr := c.images.Remove(finishCtx, filename); rmErr != nil {
			// the file is left behind unlinked
			return nil, fail(StageLinking, sentinel, "%v (rollback of %s failed: %v)", err, filename, rmErr)
		}
		return nil, fail(StageRolledBack, sentinel, "%v", err)
	}

	return &StoredImage{
		Filename:  filename,
		Reference: reference,
		Width:     img.Width,
		Height:    img.Height,
		Size:      len(img.Data),
		Stored:    count + 1,
	}, nil
}
