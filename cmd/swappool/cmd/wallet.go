package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"

	swsolana "github.com/lugondev/go-swappool/internal/solana"
	"github.com/lugondev/go-swappool/pkg/types"
)

var walletOut string

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Wallet management commands",
	Long:  `Commands for generating keypairs and checking balances.`,
}

var walletNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a new wallet",
	Long:  `Generate a new keypair, optionally saving it as a Solana CLI keypair file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := swsolana.NewWallet()
		out := cmd.OutOrStdout()

		if walletOut != "" {
			if err := w.SaveToFile(walletOut); err != nil {
				return err
			}
			fmt.Fprintf(out, "Public Key: %s\n", w.PublicKey())
			fmt.Fprintf(out, "Saved to:   %s\n", walletOut)
			return nil
		}

		fmt.Fprintf(out, "Public Key:  %s\n", w.PublicKey())
		fmt.Fprintf(out, "Private Key: %s\n", w.PrivateKey())
		fmt.Fprintln(out, "\nWARNING: Save your private key securely. Never share it with anyone!")
		return nil
	},
}

var walletShowCmd = &cobra.Command{
	Use:   "show [keypair]",
	Short: "Show the public key of a keypair",
	Long:  `Show the public key of a keypair file or base58 private key.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := swsolana.LoadWallet(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), w.PublicKey())
		return nil
	},
}

var walletBalanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Check wallet balance on the configured cluster",
	Long:  `Check the SOL balance of a wallet address over RPC.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pubKey, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return fmt.Errorf("invalid address: %w", err)
		}

		ctx, cancel := rpcContext(cmd.Context())
		defer cancel()

		lamports, err := rpcClient().GetBalance(ctx, pubKey)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Address: %s\n", pubKey)
		fmt.Fprintf(out, "Balance: %d lamports (%.9f SOL)\n", lamports, types.LamportsToSOL(lamports))
		return nil
	},
}

// rpcContext bounds an RPC call by solana.timeout.
func rpcContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, time.Duration(cfg.Solana.Timeout)*time.Second)
}

// rpcClient reads the configured cluster at the configured commitment.
func rpcClient() *swsolana.Client {
	return swsolana.NewClient(cfg.Solana.GetRPCEndpoint(),
		swsolana.WithCommitment(rpc.CommitmentType(cfg.Solana.Commitment)))
}

// loadSigner loads a keypair flag value.
func loadSigner(flag, source string) (solana.PrivateKey, error) {
	if source == "" {
		return nil, fmt.Errorf("--%s is required", flag)
	}
	w, err := swsolana.LoadWallet(source)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flag, err)
	}
	return w.PrivateKey(), nil
}

func parseKey(flag, value string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid %s %q: %w", flag, value, err)
	}
	return key, nil
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletNewCmd)
	walletCmd.AddCommand(walletShowCmd)
	walletCmd.AddCommand(walletBalanceCmd)

	walletNewCmd.Flags().StringVar(&walletOut, "out", "", "write the keypair to this file")
}
