package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/spf13/cobra"

	"github.com/lugondev/go-swappool/internal/instruction"
	"github.com/lugondev/go-swappool/internal/pool"
	swsolana "github.com/lugondev/go-swappool/internal/solana"
)

var (
	poolAddress     string
	poolAuthority   string
	poolMint        string
	poolKeypairOut  string
	poolActor       string
	poolAmount      uint64
	poolSource      string
	poolDestination string
	poolFromRPC     bool
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Liquidity pool commands",
	Long:  `Commands for creating, funding, trading against and administering pools.`,
}

var poolCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a pool for a token mint",
	RunE: func(cmd *cobra.Command, args []string) error {
		authority, err := loadSigner("authority", poolAuthority)
		if err != nil {
			return err
		}
		mint, err := parseKey("mint", poolMint)
		if err != nil {
			return err
		}

		poolWallet := swsolana.NewWallet()
		if poolKeypairOut != "" {
			if err := poolWallet.SaveToFile(poolKeypairOut); err != nil {
				return err
			}
		}
		id := poolWallet.PublicKey()

		return withSession(cmd.Context(), true, func(s *session) error {
			signer, err := pool.FindPoolSigner(s.programID, id)
			if err != nil {
				return err
			}
			native, err := pool.FindNativeCustody(s.programID, id)
			if err != nil {
				return err
			}
			custody, err := ensureTokenAccount(s.ledger, signer.Address, mint)
			if err != nil {
				return err
			}

			allocate := system.NewCreateAccountInstruction(0, pool.DefaultAllocation, s.programID,
				authority.PublicKey(), id).Build()
			create := instruction.NewCreatePool(s.programID, instruction.CreatePoolAccounts{
				Pool:          id,
				Authority:     authority.PublicKey(),
				NativeCustody: native.Address,
				TokenMint:     mint,
				TokenCustody:  custody,
			}, instruction.CreatePoolArgs{
				PoolSignerBump:    signer.Bump,
				NativeCustodyBump: native.Bump,
			})

			if err := runTx(cmd, s, []solana.PrivateKey{authority, poolWallet.PrivateKey()}, allocate, create); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pool: %s\n", id)
			return nil
		})
	},
}

var poolDepositNativeCmd = &cobra.Command{
	Use:   "deposit-native",
	Short: "Deposit lamports into a pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		return poolTx(cmd, "depositor", func(s *session, id pool.PoolID, rec *pool.LiquidityPool, actor solana.PublicKey) (solana.Instruction, error) {
			return instruction.NewDepositNative(s.programID, instruction.DepositNativeAccounts{
				Pool:          id,
				Depositor:     actor,
				NativeCustody: rec.NativeCustody,
				TokenCustody:  rec.TokenCustody,
			}, poolAmount), nil
		})
	},
}

var poolDepositTokenCmd = &cobra.Command{
	Use:   "deposit-token",
	Short: "Deposit tokens into a pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		return poolTx(cmd, "depositor", func(s *session, id pool.PoolID, rec *pool.LiquidityPool, actor solana.PublicKey) (solana.Instruction, error) {
			source, err := tokenAccountFlag("source", poolSource, actor, rec.TokenMint)
			if err != nil {
				return nil, err
			}
			return instruction.NewDepositToken(s.programID, instruction.DepositTokenAccounts{
				Pool:          id,
				Depositor:     actor,
				Source:        source,
				NativeCustody: rec.NativeCustody,
				TokenCustody:  rec.TokenCustody,
			}, poolAmount), nil
		})
	},
}

var poolSwapTokenCmd = &cobra.Command{
	Use:   "swap-token",
	Short: "Swap tokens for lamports at 10 tokens per lamport",
	RunE: func(cmd *cobra.Command, args []string) error {
		return poolTx(cmd, "trader", func(s *session, id pool.PoolID, rec *pool.LiquidityPool, actor solana.PublicKey) (solana.Instruction, error) {
			source, err := tokenAccountFlag("source", poolSource, actor, rec.TokenMint)
			if err != nil {
				return nil, err
			}
			destination := actor
			if poolDestination != "" {
				if destination, err = parseKey("destination", poolDestination); err != nil {
					return nil, err
				}
			}
			return instruction.NewSwapTokenForNative(s.programID, instruction.SwapTokenForNativeAccounts{
				Pool:          id,
				Trader:        actor,
				Source:        source,
				Destination:   destination,
				NativeCustody: rec.NativeCustody,
				TokenCustody:  rec.TokenCustody,
			}, poolAmount), nil
		})
	},
}

var poolSwapNativeCmd = &cobra.Command{
	Use:   "swap-native",
	Short: "Swap lamports for tokens at 10 tokens per lamport",
	RunE: func(cmd *cobra.Command, args []string) error {
		return poolTx(cmd, "trader", func(s *session, id pool.PoolID, rec *pool.LiquidityPool, actor solana.PublicKey) (solana.Instruction, error) {
			var destination solana.PublicKey
			var err error
			if poolDestination != "" {
				destination, err = parseKey("destination", poolDestination)
			} else {
				destination, err = ensureTokenAccount(s.ledger, actor, rec.TokenMint)
			}
			if err != nil {
				return nil, err
			}
			return instruction.NewSwapNativeForToken(s.programID, instruction.SwapNativeForTokenAccounts{
				Pool:          id,
				Trader:        actor,
				Destination:   destination,
				NativeCustody: rec.NativeCustody,
				TokenCustody:  rec.TokenCustody,
			}, poolAmount), nil
		})
	},
}

var poolPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause deposits and swaps",
	RunE: func(cmd *cobra.Command, args []string) error {
		return poolTx(cmd, "authority", func(s *session, id pool.PoolID, _ *pool.LiquidityPool, actor solana.PublicKey) (solana.Instruction, error) {
			return instruction.NewPausePool(s.programID, id, actor), nil
		})
	},
}

var poolUnpauseCmd = &cobra.Command{
	Use:   "unpause",
	Short: "Resume deposits and swaps",
	RunE: func(cmd *cobra.Command, args []string) error {
		return poolTx(cmd, "authority", func(s *session, id pool.PoolID, _ *pool.LiquidityPool, actor solana.PublicKey) (solana.Instruction, error) {
			return instruction.NewUnpausePool(s.programID, id, actor), nil
		})
	},
}

var poolShowCmd = &cobra.Command{
	Use:   "show [pool]",
	Short: "Show a pool record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseKey("pool", args[0])
		if err != nil {
			return err
		}

		if poolFromRPC {
			programID, err := cfg.ProgramID()
			if err != nil {
				return err
			}
			ctx, cancel := rpcContext(cmd.Context())
			defer cancel()
			rec, err := rpcClient().FetchPool(ctx, programID, id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), swsolana.PoolAccount{Address: id, Pool: rec})
		}

		return withSession(cmd.Context(), true, func(s *session) error {
			rec, err := s.ctrl.Pool(s.ledger, id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), swsolana.PoolAccount{Address: id, Pool: rec})
		})
	},
}

var poolListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pools of the configured program",
	RunE: func(cmd *cobra.Command, args []string) error {
		if poolFromRPC {
			programID, err := cfg.ProgramID()
			if err != nil {
				return err
			}
			ctx, cancel := rpcContext(cmd.Context())
			defer cancel()
			pools, err := rpcClient().FetchPools(ctx, programID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pools)
		}

		return withSession(cmd.Context(), true, func(s *session) error {
			accounts := s.ledger.ProgramAccounts(s.programID, pool.AccountDiscriminator)
			pools := make([]swsolana.PoolAccount, 0, len(accounts))
			for _, acct := range accounts {
				rec, err := pool.Decode(acct.Account.Data)
				if err != nil {
					return fmt.Errorf("pool %s: %w", acct.Address, err)
				}
				pools = append(pools, swsolana.PoolAccount{Address: acct.Address, Pool: rec})
			}
			return printJSON(cmd.OutOrStdout(), pools)
		})
	},
}

var poolVerifyCmd = &cobra.Command{
	Use:   "verify [pool]",
	Short: "Check that reserves equal custody balances",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseKey("pool", args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), true, func(s *session) error {
			report, err := s.ctrl.VerifyReserves(cmdContext(cmd), s.ledger, id)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.InSync() {
				return fmt.Errorf("pool %s reserves out of sync", id)
			}
			return nil
		})
	},
}

type poolInstruction func(s *session, id pool.PoolID, rec *pool.LiquidityPool, actor solana.PublicKey) (solana.Instruction, error)

// poolTx loads the --pool record and submits the instruction build returns,
// signed by the keypair given as --<role>.
func poolTx(cmd *cobra.Command, role string, build poolInstruction) error {
	actor, err := loadSigner(role, poolActor)
	if err != nil {
		return err
	}
	id, err := parseKey("pool", poolAddress)
	if err != nil {
		return err
	}

	return withSession(cmd.Context(), true, func(s *session) error {
		rec, err := s.ctrl.Pool(s.ledger, id)
		if err != nil {
			return err
		}
		ix, err := build(s, id, rec, actor.PublicKey())
		if err != nil {
			return err
		}
		return runTx(cmd, s, []solana.PrivateKey{actor}, ix)
	})
}

func runTx(cmd *cobra.Command, s *session, signers []solana.PrivateKey, ixs ...solana.Instruction) error {
	receipt, err := s.submit(cmdContext(cmd), signers, ixs...)
	if receipt != nil {
		printReceipt(cmd.OutOrStdout(), receipt)
	}
	return err
}

// tokenAccountFlag parses value, defaulting to owner's associated token account.
func tokenAccountFlag(flag, value string, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	if value != "" {
		return parseKey(flag, value)
	}
	address, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive token account: %w", err)
	}
	return address, nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(poolCmd)
	poolCmd.AddCommand(poolCreateCmd, poolDepositNativeCmd, poolDepositTokenCmd,
		poolSwapTokenCmd, poolSwapNativeCmd, poolPauseCmd, poolUnpauseCmd,
		poolShowCmd, poolListCmd, poolVerifyCmd)

	poolCreateCmd.Flags().StringVar(&poolAuthority, "authority", "", "pool authority keypair file or base58 key")
	poolCreateCmd.Flags().StringVar(&poolMint, "mint", "", "token mint the pool trades")
	poolCreateCmd.Flags().StringVar(&poolKeypairOut, "keypair-out", "", "save the generated pool keypair to this file")

	for _, c := range []struct {
		cmd  *cobra.Command
		role string
	}{
		{poolDepositNativeCmd, "depositor"},
		{poolDepositTokenCmd, "depositor"},
		{poolSwapTokenCmd, "trader"},
		{poolSwapNativeCmd, "trader"},
		{poolPauseCmd, "authority"},
		{poolUnpauseCmd, "authority"},
	} {
		c.cmd.Flags().StringVar(&poolAddress, "pool", "", "pool address")
		c.cmd.Flags().StringVar(&poolActor, c.role, "", c.role+" keypair file or base58 key")
	}
	for _, c := range []*cobra.Command{poolDepositNativeCmd, poolDepositTokenCmd, poolSwapTokenCmd, poolSwapNativeCmd} {
		c.Flags().Uint64Var(&poolAmount, "amount", 0, "amount in the input asset's base units")
	}
	poolDepositTokenCmd.Flags().StringVar(&poolSource, "source", "", "source token account (default: depositor's associated account)")
	poolSwapTokenCmd.Flags().StringVar(&poolSource, "source", "", "source token account (default: trader's associated account)")
	poolSwapTokenCmd.Flags().StringVar(&poolDestination, "destination", "", "lamport destination (default: trader)")
	poolSwapNativeCmd.Flags().StringVar(&poolDestination, "destination", "", "token destination (default: trader's associated account)")

	poolShowCmd.Flags().BoolVar(&poolFromRPC, "rpc", false, "read from the configured cluster instead of the local ledger")
	poolListCmd.Flags().BoolVar(&poolFromRPC, "rpc", false, "read from the configured cluster instead of the local ledger")
}
