package vecdb

import (
	"log/slog"

	"github.com/Schromeo/VecDBMVP/distance"
	"github.com/Schromeo/VecDBMVP/index/hnsw"
)

type options struct {
	metric  distance.Metric
	params  hnsw.Params
	logger  *Logger
	metrics MetricsCollector
}

// Option configures Create/Open behavior.
type Option func(*options)

// WithMetric sets the distance metric (default L2).
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithHNSWParams sets the index construction parameters
// (default hnsw.DefaultParams).
func WithHNSWParams(p hnsw.Params) Option {
	return func(o *options) {
		o.params = p
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metric:  distance.MetricL2,
		params:  hnsw.DefaultParams,
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
