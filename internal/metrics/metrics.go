// Package metrics records pool, ledger and API measurements.
//
// Code reports through the Metrics interface and never knows which backends
// are attached. A Collection fans one call out to several backends, such as
// LogMetrics for local runs and PrometheusMetrics for scraping.
package metrics

import (
	"context"
	"sort"
	"strings"
)

// Label is a metric dimension.
type Label struct {
	Name  string
	Value string
}

// L builds a Label.
func L(name, value string) Label {
	return Label{Name: name, Value: value}
}

type Metrics interface {
	Initialize(ctx context.Context) error
	// Flush reports buffered values, if the backend buffers.
	Flush(ctx context.Context) error
	Shutdown(ctx context.Context) error

	// UpdateGauge sets a value that can go up or down, like a pool reserve.
	UpdateGauge(ctx context.Context, name string, value float64, labels ...Label) error
	// IncrementCounter adds to a value that only grows, like executed swaps.
	IncrementCounter(ctx context.Context, name string, value uint64, labels ...Label) error
	// RecordHistogram observes one sample, like a transaction latency.
	RecordHistogram(ctx context.Context, name string, value float64, labels ...Label) error
}

// SeriesKey renders name{k="v",...} with labels sorted by name.
func SeriesKey(name string, labels []Label) string {
	if len(labels) == 0 {
		return name
	}
	sorted := append([]Label(nil), labels...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	parts := make([]string, len(sorted))
	for i, lb := range sorted {
		parts[i] = lb.Name + `="` + lb.Value + `"`
	}
	return name + "{" + strings.Join(parts, ",") + "}"
}

// Metric names.
const (
	MetricPoolOperations     = "pool_operations_total"
	MetricPoolNativeReserve  = "pool_native_reserve"
	MetricPoolTokenReserve   = "pool_token_reserve"
	MetricPoolReserveDrift   = "pool_reserve_drift"
	MetricSwapVolume         = "pool_swap_volume_total"
	MetricLedgerTransactions = "ledger_transactions_total"
	MetricLedgerTxDuration   = "ledger_transaction_duration_seconds"
	MetricJournalOperations  = "journal_operations_recorded_total"
	MetricJournalErrors      = "journal_errors_total"
	MetricAPIRequests        = "api_requests_total"
	MetricAPIRequestDuration = "api_request_duration_seconds"
)

// Label names.
const (
	LabelPool      = "pool"
	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelAsset     = "asset"
	LabelRoute     = "route"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)
