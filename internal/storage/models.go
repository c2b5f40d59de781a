package storage

import (
	"time"

	"github.com/lugondev/go-swappool/internal/pool"
)

type PoolModel struct {
	ID            string    `json:"id" bson:"_id,omitempty" db:"id"`
	Address       string    `json:"address" bson:"address" db:"address"`
	ProgramID     string    `json:"program_id" bson:"program_id" db:"program_id"`
	Authority     string    `json:"authority" bson:"authority" db:"authority"`
	TokenMint     string    `json:"token_mint" bson:"token_mint" db:"token_mint"`
	NativeCustody string    `json:"native_custody" bson:"native_custody" db:"native_custody"`
	TokenCustody  string    `json:"token_custody" bson:"token_custody" db:"token_custody"`
	NativeReserve uint64    `json:"native_reserve" bson:"native_reserve" db:"native_reserve"`
	TokenReserve  uint64    `json:"token_reserve" bson:"token_reserve" db:"token_reserve"`
	Paused        bool      `json:"paused" bson:"paused" db:"paused"`
	Slot          uint64    `json:"slot" bson:"slot" db:"slot"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at" db:"updated_at"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" db:"created_at"`
}

// OperationModel is one committed pool operation, recorded from its event.
type OperationModel struct {
	ID            string    `json:"id" bson:"_id,omitempty" db:"id"`
	Signature     string    `json:"signature" bson:"signature" db:"signature"`
	Slot          uint64    `json:"slot" bson:"slot" db:"slot"`
	EventIndex    int       `json:"event_index" bson:"event_index" db:"event_index"`
	Pool          string    `json:"pool" bson:"pool" db:"pool"`
	Operation     string    `json:"operation" bson:"operation" db:"operation"`
	Actor         string    `json:"actor" bson:"actor" db:"actor"`
	Direction     string    `json:"direction,omitempty" bson:"direction,omitempty" db:"direction"`
	AmountIn      uint64    `json:"amount_in" bson:"amount_in" db:"amount_in"`
	AmountOut     uint64    `json:"amount_out" bson:"amount_out" db:"amount_out"`
	NativeReserve uint64    `json:"native_reserve" bson:"native_reserve" db:"native_reserve"`
	TokenReserve  uint64    `json:"token_reserve" bson:"token_reserve" db:"token_reserve"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" db:"created_at"`
}

type TransactionModel struct {
	ID           string    `json:"id" bson:"_id,omitempty" db:"id"`
	Signature    string    `json:"signature" bson:"signature" db:"signature"`
	Slot         uint64    `json:"slot" bson:"slot" db:"slot"`
	FeePayer     string    `json:"fee_payer" bson:"fee_payer" db:"fee_payer"`
	Success      bool      `json:"success" bson:"success" db:"success"`
	ErrorCode    string    `json:"error_code,omitempty" bson:"error_code,omitempty" db:"error_code"`
	ErrorMessage string    `json:"error_message,omitempty" bson:"error_message,omitempty" db:"error_message"`
	Instructions []string  `json:"instructions" bson:"instructions" db:"instructions"`
	LogMessages  []string  `json:"log_messages,omitempty" bson:"log_messages,omitempty" db:"log_messages"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" db:"created_at"`
}

func PoolToModel(address, programID pool.PoolID, rec *pool.LiquidityPool, slot uint64) *PoolModel {
	now := time.Now()
	return &PoolModel{
		ID:            address.String(),
		Address:       address.String(),
		ProgramID:     programID.String(),
		Authority:     rec.Authority.String(),
		TokenMint:     rec.TokenMint.String(),
		NativeCustody: rec.NativeCustody.String(),
		TokenCustody:  rec.TokenCustody.String(),
		NativeReserve: rec.NativeReserve,
		TokenReserve:  rec.TokenReserve,
		Paused:        rec.Paused,
		Slot:          slot,
		UpdatedAt:     now,
		CreatedAt:     now,
	}
}
