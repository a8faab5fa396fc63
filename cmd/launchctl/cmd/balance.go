package cmd

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/launchpad/internal/client"
)

var (
	balanceMint  string
	balanceOwner string

	balanceCmd = &cobra.Command{
		Use:   "balance",
		Short: "Show the wallet's SOL balance and launch-token holdings",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			owner, ok := application.Client.Owner()
			if balanceOwner != "" {
				pk, err := parseKey(balanceOwner)
				if err != nil {
					return err
				}
				owner, ok = pk, true
			}
			if !ok {
				return fmt.Errorf("no wallet configured, pass --wallet or --owner: %w", client.ErrNoSigner)
			}

			var mint solana.PublicKey
			if balanceMint != "" {
				pk, err := parseKey(balanceMint)
				if err != nil {
					return err
				}
				mint = pk
			}

			h, err := application.Client.Holdings(c.Context(), owner, mint)
			if err != nil {
				return err
			}
			fields := []field{{"SOL", sol(h.Lamports)}}
			if !h.Mint.IsZero() {
				fields = append(fields,
					field{"mint", h.Mint},
					field{"token account", h.TokenAccount},
					field{"tokens", tokens(h.Tokens)},
				)
			}
			printFields(c.OutOrStdout(), "Wallet "+h.Owner.String(), fields...)
			return nil
		},
	}
)

func init() {
	balanceCmd.Flags().StringVar(&balanceMint, "mint", "", "also show holdings of this launch token")
	balanceCmd.Flags().StringVar(&balanceOwner, "owner", "", "address to inspect instead of the wallet")
}
