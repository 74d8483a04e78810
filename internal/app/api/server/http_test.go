package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/fatflowers/paygate/internal/app/service/admission"
	"github.com/fatflowers/paygate/internal/app/service/event_log"
	"github.com/fatflowers/paygate/internal/app/service/ledger"
	"github.com/fatflowers/paygate/internal/app/service/payment"
	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/internal/platform/db"
	"github.com/fatflowers/paygate/internal/platform/storage"
	cfgpkg "github.com/fatflowers/paygate/pkg/config"
	"github.com/fatflowers/paygate/pkg/metrics"
)

type app struct {
	r      *gin.Engine
	area   *storage.Area
	store  *ledger.Store
	events *event_log.Service
	h      *db.Handle
}

func newTestApp(t *testing.T, mutate func(*cfgpkg.Config)) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop().Sugar()

	cfg := &cfgpkg.Config{}
	cfg.Upload.Dir = "/uploads"
	cfg.Upload.MaxImages = 10
	cfg.Upload.MaxDimension = 800
	cfg.Upload.MaxPixels = 40_000_000
	cfg.Upload.MaxFileBytes = 1 << 20
	cfg.Payment.PricePerItem = "5.00"
	cfg.Payment.Verifier = cfgpkg.VerifierAcceptAll
	cfg.Admin.Accounts = map[string]string{"admin": "secret"}
	if mutate != nil {
		mutate(cfg)
	}

	h, err := db.Open(log, db.DriverSQLite, "file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := h.DB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(log, h.DB))

	store := ledger.NewStore(h.DB)
	require.NoError(t, store.InitializeSchema(context.Background()))
	area, err := storage.NewArea(afero.NewMemMapFs(), cfg.Upload.Dir)
	require.NoError(t, err)
	verifier, err := payment.NewVerifier(cfg, log)
	require.NoError(t, err)
	events := event_log.New(h.DB, log)
	t.Cleanup(events.Wait)

	r := newEngine(cfg)
	lc := fxtest.NewLifecycle(t)
	registerRoutes(lc, r, log, cfg, h,
		payment.NewService(cfg, verifier, store),
		admission.NewController(cfg, store, area),
		store, area,
		metrics.NewRecorder(prometheus.NewRegistry(), "", nil),
		events,
	)
	return &app{r: r, area: area, store: store, events: events, h: h}
}

func (a *app) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func verifyReq(reference, payer string) *http.Request {
	body, _ := json.Marshal(map[string]string{"reference": reference, "payerAddress": payer})
	req := httptest.NewRequest(http.MethodPost, "/verify-payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadReq(t *testing.T, reference, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("reference", reference))
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func category(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Category string `json:"category"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Category
}

func TestPaidUploadFlow(t *testing.T) {
	a := newTestApp(t, nil)

	w := a.do(verifyReq("tx1", "0xABC"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.JSONEq(t, `{"status":"verified","readyToUpload":true}`, w.Body.String())
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = a.do(verifyReq("tx1", "0xABC"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "duplicate_reference", category(t, w))

	w = a.do(uploadReq(t, "tx1", "photo.png", pngBytes(t, 1600, 400)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var up struct {
		Success  bool   `json:"success"`
		Filename string `json:"filename"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &up))
	require.True(t, up.Success)
	require.True(t, strings.HasSuffix(up.Filename, ".png"))

	data, err := a.area.ReadFile(context.Background(), up.Filename)
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 800, cfg.Width)
	require.Equal(t, 200, cfg.Height)

	w = a.do(uploadReq(t, "tx1", "again.png", pngBytes(t, 10, 10)))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "payment_already_consumed", category(t, w))

	w = a.do(uploadReq(t, "never", "x.png", pngBytes(t, 10, 10)))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "payment_not_verified", category(t, w))

	w = a.do(uploadReq(t, "tx1", "anim.gif", []byte("GIF89a")))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "unsupported_type", category(t, w))

	n, err := a.area.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	a.events.Wait()
	var logged int64
	require.NoError(t, a.h.DB.Model(&models.PaymentEventLog{}).Count(&logged).Error)
	require.Equal(t, int64(6), logged)
}

func TestAdminRequiresCredentials(t *testing.T) {
	a := newTestApp(t, nil)
	require.Equal(t, http.StatusOK, a.do(verifyReq("tx1", "0xABC")).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	require.Equal(t, http.StatusUnauthorized, a.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.SetBasicAuth("admin", "secret")
	w := a.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Code int `json:"code"`
		Data struct {
			Payments struct {
				Verified int64 `json:"verified"`
			} `json:"payments"`
			RemainingQuota int `json:"remaining_quota"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, int64(1), resp.Data.Payments.Verified)
	require.Equal(t, 10, resp.Data.RemainingQuota)
}

func TestAdminDisabledWithoutAccounts(t *testing.T) {
	a := newTestApp(t, func(c *cfgpkg.Config) { c.Admin.Accounts = nil })
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.SetBasicAuth("admin", "secret")
	require.Equal(t, http.StatusNotFound, a.do(req).Code)
}

func TestHealthAndIndex(t *testing.T) {
	a := newTestApp(t, nil)
	w := a.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"healthy","database":"sqlite"}`, w.Body.String())

	w = a.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"price_per_image":"5.00"`)
}

func TestRateLimit(t *testing.T) {
	a := newTestApp(t, func(c *cfgpkg.Config) {
		c.RateLimit.Enabled = true
		c.RateLimit.RPS = 0.001
		c.RateLimit.Burst = 1
	})
	require.Equal(t, http.StatusOK, a.do(verifyReq("tx1", "0xABC")).Code)
	require.Equal(t, http.StatusTooManyRequests, a.do(verifyReq("tx2", "0xABC")).Code)

	// health checks are not limited
	require.Equal(t, http.StatusOK, a.do(httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
}

func TestCORSConfig(t *testing.T) {
	require.True(t, corsConfig([]string{"*"}).AllowAllOrigins)
	c := corsConfig([]string{"https://app.example"})
	require.False(t, c.AllowAllOrigins)
	require.Equal(t, []string{"https://app.example"}, c.AllowOrigins)
}
