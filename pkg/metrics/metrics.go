package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// HistogramBuckets are millisecond buckets. Uploads include decode and
// resize, so the tail reaches into seconds.
var HistogramBuckets = []float64{
	5, 10, 25, 50, 100, 150, 250, 400, 500,
	750, 1000, 1500, 2000, 3000, 5000, 10000, 30000,
}

// Metric is a definition for the name, description, type, ID, and
// prometheus.Collector type (i.e. CounterVec, Summary, etc) of each metric
type Metric struct {
	MetricCollector prometheus.Collector
	ID              string
	Name            string
	Description     string
	Type            string
	Args            []string
}

// NewMetric associates prometheus.Collector based on Metric.Type
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	switch m.Type {
	case "counter_vec":
		return prometheus.NewCounterVec(prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description}, m.Args)
	case "gauge":
		return prometheus.NewGauge(prometheus.GaugeOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description})
	case "histogram_vec":
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description, Buckets: HistogramBuckets}, m.Args)
	case "summary_vec":
		return prometheus.NewSummaryVec(prometheus.SummaryOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description}, m.Args)
	}
	return nil
}

var MetricsBusinessProcess = &Metric{
	ID:          "bpDur",
	Name:        "bp_dur",
	Description: "process latency in milliseconds",
	Type:        "histogram_vec",
	Args:        []string{"type", "subtype"},
}

var verifyTotal = &Metric{
	ID:          "verifyTotal",
	Name:        "payment_verify_total",
	Description: "Payment verifications partitioned by result category.",
	Type:        "counter_vec",
	Args:        []string{"result"},
}

var admitTotal = &Metric{
	ID:          "admitTotal",
	Name:        "upload_admit_total",
	Description: "Upload admissions partitioned by result category.",
	Type:        "counter_vec",
	Args:        []string{"result"},
}

var storedImages = &Metric{
	ID:          "storedImages",
	Name:        "stored_images",
	Description: "Images in the storage area at the last count.",
	Type:        "gauge",
}

const (
	RefererKey = "X-Referer"

	// ResultOK is the result label for successful operations.
	ResultOK = "ok"
)

// Recorder holds the business metrics. A nil *Recorder records nothing.
type Recorder struct {
	verify *prometheus.CounterVec
	admit  *prometheus.CounterVec
	bp     *prometheus.HistogramVec
	stored prometheus.Gauge
}

// NewRecorder registers the business metrics on reg. Collectors already
// registered by a previous Recorder are reused.
func NewRecorder(reg prometheus.Registerer, subsystem string, log Logger) *Recorder {
	r := &Recorder{}
	for _, def := range []*Metric{verifyTotal, admitTotal, MetricsBusinessProcess, storedImages} {
		c := register(reg, NewMetric(def, subsystem), log, def.Name)
		switch def {
		case verifyTotal:
			r.verify = c.(*prometheus.CounterVec)
		case admitTotal:
			r.admit = c.(*prometheus.CounterVec)
		case MetricsBusinessProcess:
			r.bp = c.(*prometheus.HistogramVec)
		case storedImages:
			r.stored = c.(prometheus.Gauge)
		}
	}
	return r
}

func register(reg prometheus.Registerer, c prometheus.Collector, log Logger, name string) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		if log != nil {
			log.Errorf("%s could not be registered in Prometheus, err=%v", name, err)
		}
	}
	return c
}

func (r *Recorder) Verify(result string) {
	if r != nil {
		r.verify.WithLabelValues(result).Inc()
	}
}

func (r *Recorder) Admit(result string) {
	if r != nil {
		r.admit.WithLabelValues(result).Inc()
	}
}

// Observe records the time since start under bp_dur.
func (r *Recorder) Observe(typ, subtype string, start time.Time) {
	if r != nil {
		r.bp.WithLabelValues(typ, subtype).Observe(MillisecondsSince(start))
	}
}

func (r *Recorder) SetStored(n int) {
	if r != nil {
		r.stored.Set(float64(n))
	}
}

func newRecorder(log *zap.SugaredLogger) *Recorder {
	return NewRecorder(prometheus.DefaultRegisterer, "", log)
}

var Module = fx.Options(
	fx.Provide(newRecorder),
)
