package metrics

/* adapted from https://github.com/zsais/go-gin-prometheus
edits:
- logger interface instead of the std logger
- registerer is injectable
- no push gateway, metrics served from a separate listener or the main engine
*/

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var reqCnt = &Metric{
	ID:          "reqCnt",
	Name:        "req_total",
	Description: "How many HTTP requests processed, partitioned by status code and HTTP method.",
	Type:        "counter_vec",
	Args:        []string{"code", "method", "url", "ref"},
}

var reqDur = &Metric{
	ID:          "reqDur",
	Name:        "req_dur_ms",
	Description: "The HTTP request latencies in milliseconds.",
	Type:        "histogram_vec",
	Args:        []string{"code", "method", "url", "ref"},
}

var reqSz = &Metric{
	ID:          "reqSz",
	Name:        "req_sz_bytes",
	Description: "The HTTP request sizes in bytes.",
	Type:        "summary_vec",
	Args:        []string{"code", "method", "url", "ref"},
}

var defaultMetricPath = "/metrics"

type Logger interface {
	Errorf(format string, v ...interface{})
}

// Prometheus contains the request metrics and the path they are served on.
type Prometheus struct {
	reqCnt *prometheus.CounterVec
	reqDur *prometheus.HistogramVec
	reqSz  *prometheus.SummaryVec

	gatherer      prometheus.Gatherer
	listenAddress string
	server        *http.Server

	MetricsPath string
	// URLLabel maps a request to its "url" label. Defaults to the matched
	// route template so path parameters do not explode cardinality.
	URLLabel func(c *gin.Context) string

	logger Logger
}

type NewPrometheusOptions struct {
	Subsystem   string
	MetricsPath string
	URLLabel    func(c *gin.Context) string
	Registerer  prometheus.Registerer
	Gatherer    prometheus.Gatherer
	Logger      Logger
}

// NewPrometheus registers the request metrics with a certain subsystem name
func NewPrometheus(options NewPrometheusOptions) *Prometheus {
	p := &Prometheus{
		MetricsPath: options.MetricsPath,
		URLLabel:    options.URLLabel,
		gatherer:    options.Gatherer,
		logger:      options.Logger,
	}
	if p.MetricsPath == "" {
		p.MetricsPath = defaultMetricPath
	}
	if p.URLLabel == nil {
		p.URLLabel = func(c *gin.Context) string {
			if fp := c.FullPath(); fp != "" {
				return fp
			}
			return "unmatched"
		}
	}
	reg := options.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if p.gatherer == nil {
		p.gatherer = prometheus.DefaultGatherer
	}

	p.reqCnt = register(reg, NewMetric(reqCnt, options.Subsystem), p.logger, reqCnt.Name).(*prometheus.CounterVec)
	p.reqDur = register(reg, NewMetric(reqDur, options.Subsystem), p.logger, reqDur.Name).(*prometheus.HistogramVec)
	p.reqSz = register(reg, NewMetric(reqSz, options.Subsystem), p.logger, reqSz.Name).(*prometheus.SummaryVec)
	return p
}

// SetListenAddress exposes metrics on their own listener instead of the
// application engine.
func (p *Prometheus) SetListenAddress(address string) {
	p.listenAddress = address
}

func (p *Prometheus) handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
	return func(c *gin.Context) { h.ServeHTTP(c.Writer, c.Request) }
}

// Use adds the middleware to a gin engine and mounts the metrics path, on e
// itself when no listen address is set.
func (p *Prometheus) Use(e *gin.Engine) {
	e.Use(p.HandlerFunc())
	if p.listenAddress == "" {
		e.GET(p.MetricsPath, p.handler())
		return
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET(p.MetricsPath, p.handler())
	p.server = &http.Server{Addr: p.listenAddress, Handler: r, ReadHeaderTimeout: 5 * time.Second}
}

// Start serves the separate metrics listener, if any.
func (p *Prometheus) Start() {
	if p.server == nil {
		return
	}
	go func() {
		if err := p.server.ListenAndServe(); err != nil && err != http.ErrServerClosed && p.logger != nil {
			p.logger.Errorf("metrics server error: %v", err)
		}
	}()
}

// Close stops the separate metrics listener, if any.
func (p *Prometheus) Close() error {
	if p.server == nil {
		return nil
	}
	return p.server.Close()
}

// HandlerFunc defines handler function for middleware
func (p *Prometheus) HandlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == p.MetricsPath {
			c.Next()
			return
		}

		start := time.Now()
		size := computeApproximateRequestSize(c.Request)

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		url := p.URLLabel(c)
		ref := c.Request.Header.Get(RefererKey)

		p.reqDur.WithLabelValues(status, c.Request.Method, url, ref).Observe(MillisecondsSince(start))
		p.reqCnt.WithLabelValues(status, c.Request.Method, url, ref).Inc()
		p.reqSz.WithLabelValues(status, c.Request.Method, url, ref).Observe(float64(size))
	}
}

// MillisecondsSince returns the elapsed time since start in milliseconds.
func MillisecondsSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

func computeApproximateRequestSize(r *http.Request) int {
	s := len(r.Method) + len(r.Proto)
	if r.URL != nil {
		s += len(r.URL.String())
	}
	for name, values := range r.Header {
		s += len(name)
		for _, v := range values {
			s += len(v)
		}
	}
	s += len(r.Host)
	if r.ContentLength > 0 {
		s += int(r.ContentLength)
	}
	return s
}
