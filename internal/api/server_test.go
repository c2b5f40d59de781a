package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-swappool/internal/metrics"
	"github.com/lugondev/go-swappool/internal/storage"
	"github.com/lugondev/go-swappool/internal/storage/memory"
)

type testServer struct {
	*Server
	repo    *memory.MemoryRepository
	metrics *metrics.LogMetrics
	pool    string
	actor   string
	sig     string
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	ctx := context.Background()

	ts := &testServer{
		repo:    memory.NewMemoryRepository(),
		metrics: metrics.NewLogMetrics(nil),
		pool:    solana.NewWallet().PublicKey().String(),
		actor:   solana.NewWallet().PublicKey().String(),
		sig:     solana.SignatureFromBytes(make([]byte, 64)).String(),
	}

	require.NoError(t, ts.repo.Pools().Save(ctx, &storage.PoolModel{
		ID: ts.pool, Address: ts.pool, Authority: ts.actor, NativeReserve: 1_000_000, TokenReserve: 5_000_000,
	}))
	require.NoError(t, ts.repo.Operations().SaveBatch(ctx, []*storage.OperationModel{
		{ID: "a", Signature: ts.sig, Slot: 1, EventIndex: 0, Pool: ts.pool, Operation: "create_pool", Actor: ts.actor},
		{ID: "b", Signature: ts.sig, Slot: 1, EventIndex: 1, Pool: ts.pool, Operation: "deposit_native", Actor: ts.actor, AmountIn: 1_000_000},
	}))
	require.NoError(t, ts.repo.Transactions().Save(ctx, &storage.TransactionModel{
		ID: ts.sig, Signature: ts.sig, Slot: 1, Success: true, Instructions: []string{"CreatePool", "DepositNative"},
	}))

	opts = append([]Option{WithMetrics(ts.metrics)}, opts...)
	ts.Server = NewServer(ts.repo, opts...)
	return ts
}

func (ts *testServer) get(t *testing.T, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec, body := ts.get(t, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestGetPools(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.get(t, "/api/v1/pools")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	rec, body = ts.get(t, "/api/v1/pools?authority=nobody")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["count"])

	rec, _ = ts.get(t, "/api/v1/pools?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPool(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.get(t, "/api/v1/pools/"+ts.pool)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1_000_000), body["native_reserve"])
	assert.Equal(t, float64(5_000_000), body["token_reserve"])

	rec, _ = ts.get(t, "/api/v1/pools/"+solana.NewWallet().PublicKey().String())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = ts.get(t, "/api/v1/pools/not-a-key")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOperations(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.get(t, "/api/v1/pools/"+ts.pool+"/operations?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	ops := body["operations"].([]any)
	require.Len(t, ops, 1)
	assert.Equal(t, "deposit_native", ops[0].(map[string]any)["operation"])

	rec, body = ts.get(t, "/api/v1/operations?actor="+ts.actor)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])

	rec, _ = ts.get(t, "/api/v1/operations")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTransaction(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.get(t, "/api/v1/transactions/"+ts.sig)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["operations"].([]any), 2)

	rec, body = ts.get(t, "/api/v1/transactions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	rec, _ = ts.get(t, "/api/v1/transactions/xyz")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestsAreCounted(t *testing.T) {
	ts := newTestServer(t)
	ts.get(t, "/api/v1/pools/"+ts.pool)
	ts.get(t, "/api/v1/pools/"+ts.pool)

	assert.Equal(t, uint64(2), ts.metrics.Counter(metrics.MetricAPIRequests,
		metrics.L(metrics.LabelRoute, "/api/v1/pools/:address"), metrics.L(metrics.LabelStatus, "200")))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom := metrics.NewPrometheusMetrics(metrics.PrometheusConfig{Namespace: "swappool", Registerer: reg})
	require.NoError(t, prom.UpdateGauge(context.Background(), metrics.MetricPoolNativeReserve, 42, metrics.L(metrics.LabelPool, "p")))

	ts := newTestServer(t, WithGatherer(reg))
	rec, _ := ts.get(t, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "swappool_pool_native_reserve")

	rec, _ = ts.get(t, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
