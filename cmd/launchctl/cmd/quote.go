package cmd

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

func runQuote(c *cobra.Command, side string, mint solana.PublicKey, amount string) error {
	ctx := c.Context()
	out := c.OutOrStdout()

	switch side {
	case "buy":
		lamports, err := parseSOL(amount)
		if err != nil {
			return err
		}
		q, err := application.Client.QuoteBuy(ctx, mint, lamports, slippageBps)
		if err != nil {
			return err
		}
		printFields(out, "Buy quote",
			field{"spend", sol(q.AmountInGross)},
			field{"fee", sol(q.Fee)},
			field{"tokens out", tokens(q.TokensOut)},
			field{"min tokens", fmt.Sprintf("%s (%d bps)", tokens(q.MinTokensOut), q.SlippageBps)},
			field{"graduates", q.Graduated},
		)
	case "sell":
		units, err := parseTokens(amount)
		if err != nil {
			return err
		}
		q, err := application.Client.QuoteSell(ctx, mint, units, slippageBps)
		if err != nil {
			return err
		}
		printFields(out, "Sell quote",
			field{"tokens in", tokens(q.TokensIn)},
			field{"gross", sol(q.SolOutGross)},
			field{"fee", sol(q.Fee)},
			field{"net", sol(q.SolOutNet)},
			field{"min SOL", fmt.Sprintf("%s (%d bps)", sol(q.MinSolOut), q.SlippageBps)},
		)
	default:
		return fmt.Errorf("unknown side %q, want buy or sell", side)
	}
	return nil
}
