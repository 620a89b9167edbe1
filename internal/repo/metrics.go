// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file exposes Prometheus instrumentation for the store
// as a GORM plugin. Statements are measured by operation and table:
//
//   - operation: create, query, update, delete, row, raw
//   - table:     the statement's table ("" for raw statements)
//   - kind:      error kind on failures (duplicate, missing_reference,
//     not_found, unavailable)
//
// Table names come from the fixed schema, so label cardinality stays bounded.
package repo

import (
	"time"

	"emperror.dev/errors"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

var (
	// dbOps records statement duration in seconds by operation and table.
	dbOps = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_statement_duration_seconds",
			Help:    "Duration of store statements in seconds.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "table"},
	)

	// dbErrs counts failed statements by operation and error kind.
	dbErrs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_statement_errors_total",
			Help: "Total number of failed store statements.",
		},
		[]string{"operation", "kind"},
	)
)

func init() {
	prometheus.MustRegister(dbOps, dbErrs)
}

const startedKey = "store:metrics_started"

// MetricsPlugin records statement latency and failures.
type MetricsPlugin struct{}

// NewMetricsPlugin returns the plugin, ready for db.Use.
func NewMetricsPlugin() *MetricsPlugin { return &MetricsPlugin{} }

// Name implements gorm.Plugin.
func (*MetricsPlugin) Name() string { return "store:metrics" }

// Initialize implements gorm.Plugin.
func (p *MetricsPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	for _, err := range []error{
		cb.Create().Before("gorm:create").Register("store:before_create", p.before),
		cb.Create().After("gorm:create").Register("store:after_create", p.after("create")),
		cb.Query().Before("gorm:query").Register("store:before_query", p.before),
		cb.Query().After("gorm:query").Register("store:after_query", p.after("query")),
		cb.Update().Before("gorm:update").Register("store:before_update", p.before),
		cb.Update().After("gorm:update").Register("store:after_update", p.after("update")),
		cb.Delete().Before("gorm:delete").Register("store:before_delete", p.before),
		cb.Delete().After("gorm:delete").Register("store:after_delete", p.after("delete")),
		cb.Row().Before("gorm:row").Register("store:before_row", p.before),
		cb.Row().After("gorm:row").Register("store:after_row", p.after("row")),
		cb.Raw().Before("gorm:raw").Register("store:before_raw", p.before),
		cb.Raw().After("gorm:raw").Register("store:after_raw", p.after("raw")),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func (*MetricsPlugin) before(db *gorm.DB) {
	db.InstanceSet(startedKey, time.Now())
}

func (*MetricsPlugin) after(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(startedKey)
		if !ok {
			return
		}
		started, ok := v.(time.Time)
		if !ok {
			return
		}
		dbOps.WithLabelValues(op, db.Statement.Table).Observe(time.Since(started).Seconds())

		if db.Error != nil {
			dbErrs.WithLabelValues(op, errorKind(db.Error)).Inc()
		}
	}
}

// errorKind names the classification of err for metric labels.
func errorKind(err error) string {
	switch c := Classify(err); {
	case errors.Is(c, ErrNotFound):
		return "not_found"
	case errors.Is(c, ErrDuplicate):
		return "duplicate"
	case errors.Is(c, ErrMissingReference):
		return "missing_reference"
	case errors.Is(c, ErrStorageUnavailable):
		return "unavailable"
	default:
		return "other"
	}
}
