package controller

import (
	"context"

	"github.com/lugondev/go-swappool/internal/metrics"
	"github.com/lugondev/go-swappool/internal/pool"
)

// ReserveReport compares recorded reserves with custody balances.
type ReserveReport struct {
	Pool          pool.PoolID `json:"pool"`
	NativeReserve uint64      `json:"native_reserve"`
	NativeBalance uint64      `json:"native_balance"`
	TokenReserve  uint64      `json:"token_reserve"`
	TokenBalance  uint64      `json:"token_balance"`
	NativeInSync  bool        `json:"native_in_sync"`
	TokenInSync   bool        `json:"token_in_sync"`
}

// InSync reports whether both reserves equal their custody balances.
func (r *ReserveReport) InSync() bool {
	return r.NativeInSync && r.TokenInSync
}

// VerifyReserves checks that a pool's reserves equal its custody balances and
// publishes the difference as a gauge.
func (c *Controller) VerifyReserves(ctx context.Context, reader AccountReader, id pool.PoolID) (*ReserveReport, error) {
	rec, err := c.Pool(reader, id)
	if err != nil {
		return nil, err
	}
	native, err := reader.GetAccount(rec.NativeCustody)
	if err != nil {
		return nil, err
	}
	tokens, err := reader.GetTokenAccount(rec.TokenCustody)
	if err != nil {
		return nil, err
	}

	report := &ReserveReport{
		Pool:          id,
		NativeReserve: rec.NativeReserve,
		NativeBalance: native.Lamports,
		TokenReserve:  rec.TokenReserve,
		TokenBalance:  tokens.Amount,
		NativeInSync:  rec.NativeReserve == native.Lamports,
		TokenInSync:   rec.TokenReserve == tokens.Amount,
	}

	poolLabel := metrics.L(metrics.LabelPool, id.String())
	_ = c.metrics.UpdateGauge(ctx, metrics.MetricPoolReserveDrift,
		float64(native.Lamports)-float64(rec.NativeReserve), poolLabel, metrics.L(metrics.LabelAsset, "native"))
	_ = c.metrics.UpdateGauge(ctx, metrics.MetricPoolReserveDrift,
		float64(tokens.Amount)-float64(rec.TokenReserve), poolLabel, metrics.L(metrics.LabelAsset, "token"))

	if !report.InSync() {
		c.GetLogger().Warn("pool reserves out of sync", "pool", id,
			"native_reserve", rec.NativeReserve, "native_balance", native.Lamports,
			"token_reserve", rec.TokenReserve, "token_balance", tokens.Amount)
	}
	return report, nil
}
