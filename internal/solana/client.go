package solana

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/lugondev/go-swappool/internal/pool"
	"github.com/lugondev/go-swappool/pkg/types"
)

// Client reads balances and pool accounts from a cluster.
type Client struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
}

type ClientOption func(*Client)

// WithCommitment sets the commitment of every read. The default is finalized.
func WithCommitment(c rpc.CommitmentType) ClientOption {
	return func(cl *Client) { cl.commitment = c }
}

func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{rpc: rpc.New(endpoint), commitment: rpc.CommitmentFinalized}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetBalance returns the balance of an account in lamports.
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error) {
	result, err := c.rpc.GetBalance(ctx, pubkey, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return result.Value, nil
}

func (c *Client) GetBalanceSOL(ctx context.Context, pubkey solana.PublicKey) (float64, error) {
	lamports, err := c.GetBalance(ctx, pubkey)
	if err != nil {
		return 0, err
	}
	return types.LamportsToSOL(lamports), nil
}

// FetchPool reads and decodes the pool record stored at address. The account
// must be owned by programID.
func (c *Client) FetchPool(ctx context.Context, programID, address solana.PublicKey) (*pool.LiquidityPool, error) {
	result, err := c.rpc.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get account info for %s: %w", address, err)
	}
	if !result.Value.Owner.Equals(programID) {
		return nil, fmt.Errorf("account %s is owned by %s, not %s", address, result.Value.Owner, programID)
	}
	return pool.Decode(result.Value.Data.GetBinary())
}

// PoolAccount is a pool record and its address.
type PoolAccount struct {
	Address solana.PublicKey    `json:"address"`
	Pool    *pool.LiquidityPool `json:"pool"`
}

// FetchPools lists the pool records of programID, matched by account discriminator.
func (c *Client) FetchPools(ctx context.Context, programID solana.PublicKey) ([]PoolAccount, error) {
	result, err := c.rpc.GetProgramAccountsWithOpts(ctx, programID, &rpc.GetProgramAccountsOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
		Filters: []rpc.RPCFilter{{
			Memcmp: &rpc.RPCFilterMemcmp{
				Offset: 0,
				Bytes:  solana.Base58(pool.AccountDiscriminator.Bytes()),
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get program accounts: %w", err)
	}

	out := make([]PoolAccount, 0, len(result))
	for _, keyed := range result {
		rec, err := pool.Decode(keyed.Account.Data.GetBinary())
		if err != nil {
			return nil, fmt.Errorf("pool %s: %w", keyed.Pubkey, err)
		}
		out = append(out, PoolAccount{Address: keyed.Pubkey, Pool: rec})
	}
	return out, nil
}
