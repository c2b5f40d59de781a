// Package events defines the events the pool program writes to transaction
// logs. Each event is an Anchor-style discriminator followed by its borsh
// encoding and travels in a "Program data:" log line.
package events

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-swappool/pkg/decoder"
)

// Event names.
const (
	NamePoolCreated     = "PoolCreated"
	NameNativeDeposited = "NativeDeposited"
	NameTokenDeposited  = "TokenDeposited"
	NameSwapped         = "Swapped"
	NamePauseChanged    = "PauseChanged"
)

// Discriminators.
var (
	PoolCreatedDiscriminator     = decoder.ComputeDiscriminator(decoder.NamespaceEvent, NamePoolCreated)
	NativeDepositedDiscriminator = decoder.ComputeDiscriminator(decoder.NamespaceEvent, NameNativeDeposited)
	TokenDepositedDiscriminator  = decoder.ComputeDiscriminator(decoder.NamespaceEvent, NameTokenDeposited)
	SwappedDiscriminator         = decoder.ComputeDiscriminator(decoder.NamespaceEvent, NameSwapped)
	PauseChangedDiscriminator    = decoder.ComputeDiscriminator(decoder.NamespaceEvent, NamePauseChanged)
)

// Direction of a swap.
type Direction uint8

const (
	TokenToNative Direction = iota
	NativeToToken
)

func (d Direction) String() string {
	switch d {
	case TokenToNative:
		return "token_to_native"
	case NativeToToken:
		return "native_to_token"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// Event is implemented by every pool event.
type Event interface {
	Name() string
	Discriminator() decoder.AnchorDiscriminator
	PoolID() solana.PublicKey
}

// PoolCreated is emitted by create_pool.
type PoolCreated struct {
	Pool              solana.PublicKey `json:"pool"`
	Authority         solana.PublicKey `json:"authority"`
	TokenMint         solana.PublicKey `json:"token_mint"`
	NativeCustody     solana.PublicKey `json:"native_custody"`
	TokenCustody      solana.PublicKey `json:"token_custody"`
	NativeCustodyBump uint8            `json:"native_custody_bump"`
	PoolSignerBump    uint8            `json:"pool_signer_bump"`
}

func (e *PoolCreated) Name() string                               { return NamePoolCreated }
func (e *PoolCreated) Discriminator() decoder.AnchorDiscriminator { return PoolCreatedDiscriminator }
func (e *PoolCreated) PoolID() solana.PublicKey                   { return e.Pool }

// NativeDeposited is emitted by deposit_native.
type NativeDeposited struct {
	Pool          solana.PublicKey `json:"pool"`
	Depositor     solana.PublicKey `json:"depositor"`
	Amount        uint64           `json:"amount"`
	NativeReserve uint64           `json:"native_reserve"`
}

func (e *NativeDeposited) Name() string { return NameNativeDeposited }
func (e *NativeDeposited) Discriminator() decoder.AnchorDiscriminator {
	return NativeDepositedDiscriminator
}
func (e *NativeDeposited) PoolID() solana.PublicKey { return e.Pool }

// TokenDeposited is emitted by deposit_token.
type TokenDeposited struct {
	Pool         solana.PublicKey `json:"pool"`
	Depositor    solana.PublicKey `json:"depositor"`
	Source       solana.PublicKey `json:"source"`
	Amount       uint64           `json:"amount"`
	TokenReserve uint64           `json:"token_reserve"`
}

func (e *TokenDeposited) Name() string { return NameTokenDeposited }
func (e *TokenDeposited) Discriminator() decoder.AnchorDiscriminator {
	return TokenDepositedDiscriminator
}
func (e *TokenDeposited) PoolID() solana.PublicKey { return e.Pool }

// Swapped is emitted by both swap directions.
type Swapped struct {
	Pool          solana.PublicKey `json:"pool"`
	Trader        solana.PublicKey `json:"trader"`
	Direction     Direction        `json:"direction"`
	AmountIn      uint64           `json:"amount_in"`
	AmountOut     uint64           `json:"amount_out"`
	NativeReserve uint64           `json:"native_reserve"`
	TokenReserve  uint64           `json:"token_reserve"`
}

func (e *Swapped) Name() string                               { return NameSwapped }
func (e *Swapped) Discriminator() decoder.AnchorDiscriminator { return SwappedDiscriminator }
func (e *Swapped) PoolID() solana.PublicKey                   { return e.Pool }

// PauseChanged is emitted by pause_pool and unpause_pool.
type PauseChanged struct {
	Pool      solana.PublicKey `json:"pool"`
	Authority solana.PublicKey `json:"authority"`
	Paused    bool             `json:"paused"`
}

func (e *PauseChanged) Name() string                               { return NamePauseChanged }
func (e *PauseChanged) Discriminator() decoder.AnchorDiscriminator { return PauseChangedDiscriminator }
func (e *PauseChanged) PoolID() solana.PublicKey                   { return e.Pool }

// Encode returns the discriminator followed by the borsh encoding of ev.
func Encode(ev Event) ([]byte, error) {
	body, err := bin.MarshalBorsh(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", ev.Name(), err)
	}
	return append(ev.Discriminator().Bytes(), body...), nil
}

func decodeInto[T any](body []byte) (any, error) {
	v := new(T)
	if err := bin.UnmarshalBorsh(v, body); err != nil {
		return nil, err
	}
	return v, nil
}

// NewRegistry returns a decoder registry for the events of programID.
func NewRegistry(programID solana.PublicKey) *decoder.Registry {
	r := decoder.NewRegistry()
	r.Register(decoder.NewAnchorDecoder(NamePoolCreated, programID, PoolCreatedDiscriminator, decodeInto[PoolCreated]))
	r.Register(decoder.NewAnchorDecoder(NameNativeDeposited, programID, NativeDepositedDiscriminator, decodeInto[NativeDeposited]))
	r.Register(decoder.NewAnchorDecoder(NameTokenDeposited, programID, TokenDepositedDiscriminator, decodeInto[TokenDeposited]))
	r.Register(decoder.NewAnchorDecoder(NameSwapped, programID, SwappedDiscriminator, decodeInto[Swapped]))
	r.Register(decoder.NewAnchorDecoder(NamePauseChanged, programID, PauseChangedDiscriminator, decodeInto[PauseChanged]))
	return r
}

// FromDecoded returns the pool event carried by a decoded event.
func FromDecoded(ev *decoder.Event) (Event, bool) {
	e, ok := ev.Data.(Event)
	return e, ok
}
