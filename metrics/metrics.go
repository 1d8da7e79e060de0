package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/krisalay/expiry-cache/types"
)

type Option func(*opts)

type opts struct {
	registerer prometheus.Registerer
	namespace  string
	subsystem  string
	labels     prometheus.Labels
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *opts) {
		if reg != nil {
			o.registerer = reg
		}
	}
}

func WithNamespace(name string) Option {
	return func(o *opts) { o.namespace = name }
}

func WithSubsystem(name string) Option {
	return func(o *opts) { o.subsystem = name }
}

// WithLabel adds a constant label, e.g. the policy a cache runs with.
func WithLabel(name, value string) Option {
	return func(o *opts) {
		if o.labels == nil {
			o.labels = prometheus.Labels{}
		}

		o.labels[name] = value
	}
}

// Collector exposes cache events as Prometheus metrics. It implements types.Metrics.
type Collector struct {
	lookups  *prometheus.CounterVec
	expired  *prometheus.CounterVec
	sweeps   prometheus.Counter
	duration prometheus.Histogram
}

var _ types.Metrics = (*Collector)(nil)

// New registers the collector's metrics. It panics if they are already
// registered with the same registerer.
func New(options ...Option) *Collector {
	o := opts{
		registerer: prometheus.DefaultRegisterer,
		namespace:  "expiry_cache",
	}

	for _, opt := range options {
		opt(&o)
	}

	factory := promauto.With(o.registerer)

	return &Collector{
		lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        prometheus.BuildFQName(o.namespace, o.subsystem, "lookups_total"),
			Help:        "Count of Get calls by result.",
			ConstLabels: o.labels,
		}, []string{"result"}),
		expired: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        prometheus.BuildFQName(o.namespace, o.subsystem, "expired_total"),
			Help:        "Count of expired entries removed, by the path that removed them.",
			ConstLabels: o.labels,
		}, []string{"path"}),
		sweeps: factory.NewCounter(prometheus.CounterOpts{
			Name:        prometheus.BuildFQName(o.namespace, o.subsystem, "sweeps_total"),
			Help:        "Count of completed sweep passes.",
			ConstLabels: o.labels,
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        prometheus.BuildFQName(o.namespace, o.subsystem, "sweep_duration_seconds"),
			Help:        "Duration of sweep passes.",
			ConstLabels: o.labels,
			Buckets: []float64{
				0.000001, // 1µs
				0.00001,  // 10µs
				0.0001,   // 100µs
				0.001,    // 1ms
				0.01,     // 10ms
				0.1,      // 100ms
				1.0,      // 1s
			},
		}),
	}
}

func (c *Collector) Hit()  { c.lookups.WithLabelValues("hit").Inc() }
func (c *Collector) Miss() { c.lookups.WithLabelValues("miss").Inc() }

func (c *Collector) Expire() { c.expired.WithLabelValues("read").Inc() }

func (c *Collector) Sweep(removed int, took time.Duration) {
	c.sweeps.Inc()
	c.duration.Observe(took.Seconds())
	c.expired.WithLabelValues("sweep").Add(float64(removed))
}
