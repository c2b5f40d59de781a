package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/lugondev/go-swappool/internal/ledger"
	"github.com/lugondev/go-swappool/internal/pool"
	"github.com/lugondev/go-swappool/pkg/types"
)

var (
	ledgerForce bool

	mintAuthority string
	mintDecimals  uint8
	mintAddress   string
	mintOwner     string
	mintAmount    uint64
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Local ledger commands",
	Long:  `Commands for managing the local ledger state: accounts, airdrops and mints.`,
}

var ledgerInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty ledger state file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfg.Ledger.StateFile); err == nil && !ledgerForce {
			return fmt.Errorf("ledger state %s already exists (use --force to overwrite)", cfg.Ledger.StateFile)
		}
		l := ledger.New(ledger.WithLogger(logger))
		if err := l.SaveFile(cfg.Ledger.StateFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Ledger initialized at %s\n", cfg.Ledger.StateFile)
		return nil
	},
}

var ledgerAirdropCmd = &cobra.Command{
	Use:   "airdrop [address] [lamports]",
	Short: "Credit lamports to an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseKey("address", args[0])
		if err != nil {
			return err
		}
		lamports, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid lamports %q: %w", args[1], err)
		}

		return withSession(cmd.Context(), true, func(s *session) error {
			if err := s.ledger.Airdrop(key, lamports); err != nil {
				return err
			}
			if err := s.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Balance of %s: %d lamports\n", key, s.ledger.GetBalance(key))
			return nil
		})
	},
}

var ledgerMintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Token mint commands",
}

var ledgerMintCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a token mint",
	RunE: func(cmd *cobra.Command, args []string) error {
		authority, err := loadSigner("authority", mintAuthority)
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), true, func(s *session) error {
			mint := s.ledger.CreateMint(authority.PublicKey(), mintDecimals)
			if err := s.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mint: %s\n", mint)
			return nil
		})
	},
}

var ledgerMintToCmd = &cobra.Command{
	Use:   "to",
	Short: "Mint tokens to an owner's associated token account",
	RunE: func(cmd *cobra.Command, args []string) error {
		authority, err := loadSigner("authority", mintAuthority)
		if err != nil {
			return err
		}
		mint, err := parseKey("mint", mintAddress)
		if err != nil {
			return err
		}
		owner, err := parseKey("to-owner", mintOwner)
		if err != nil {
			return err
		}

		return withSession(cmd.Context(), true, func(s *session) error {
			account, err := ensureTokenAccount(s.ledger, owner, mint)
			if err != nil {
				return err
			}
			if err := s.ledger.MintTo(mint, account, authority.PublicKey(), mintAmount); err != nil {
				return err
			}
			if err := s.save(); err != nil {
				return err
			}
			t, err := s.ledger.GetTokenAccount(account)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token account %s: %d\n", account, t.Amount)
			return nil
		})
	},
}

var ledgerAccountCmd = &cobra.Command{
	Use:   "account [address]",
	Short: "Show a ledger account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseKey("address", args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), true, func(s *session) error {
			acct, err := s.ledger.GetAccount(key)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Address:  %s\n", key)
			fmt.Fprintf(out, "Owner:    %s\n", acct.Owner)
			fmt.Fprintf(out, "Lamports: %d (%.9f SOL)\n", acct.Lamports, types.LamportsToSOL(acct.Lamports))
			fmt.Fprintf(out, "Data:     %d bytes\n", len(acct.Data))

			if t, err := s.ledger.GetTokenAccount(key); err == nil {
				fmt.Fprintf(out, "Token:    mint %s, owner %s, amount %d\n", t.Mint, t.Owner, t.Amount)
			}
			if m, err := s.ledger.GetMint(key); err == nil {
				fmt.Fprintf(out, "Mint:     authority %s, supply %d, decimals %d\n", m.MintAuthority, m.Supply, m.Decimals)
			}
			if pool.IsPoolAccount(acct.Data) {
				fmt.Fprintln(out, "Pool:     yes (see `swappool pool show`)")
			}
			return nil
		})
	},
}

// ensureTokenAccount returns owner's associated token account for mint,
// creating it when missing.
func ensureTokenAccount(l *ledger.Ledger, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive token account: %w", err)
	}
	if _, err := l.GetTokenAccount(address); err == nil {
		return address, nil
	} else if !errors.Is(err, ledger.ErrNotTokenAccount) {
		return solana.PublicKey{}, err
	}
	return address, l.CreateTokenAccountAt(address, owner, mint)
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerInitCmd)
	ledgerCmd.AddCommand(ledgerAirdropCmd)
	ledgerCmd.AddCommand(ledgerMintCmd)
	ledgerCmd.AddCommand(ledgerAccountCmd)
	ledgerMintCmd.AddCommand(ledgerMintCreateCmd)
	ledgerMintCmd.AddCommand(ledgerMintToCmd)

	ledgerInitCmd.Flags().BoolVar(&ledgerForce, "force", false, "overwrite an existing state file")

	ledgerMintCmd.PersistentFlags().StringVar(&mintAuthority, "authority", "", "mint authority keypair file or base58 key")
	ledgerMintCreateCmd.Flags().Uint8Var(&mintDecimals, "decimals", 6, "mint decimals")
	ledgerMintToCmd.Flags().StringVar(&mintAddress, "mint", "", "mint address")
	ledgerMintToCmd.Flags().StringVar(&mintOwner, "to-owner", "", "owner of the receiving token account")
	ledgerMintToCmd.Flags().Uint64Var(&mintAmount, "amount", 0, "amount to mint")
}
