package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/launchpad/internal/client"
)

var (
	buyCmd = &cobra.Command{
		Use:   "buy <mint> <sol>",
		Short: "Buy tokens for an amount of SOL",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			if err := application.RequireSharedState(); err != nil {
				return err
			}
			mint, err := mintArg(args)
			if err != nil {
				return err
			}
			lamports, err := parseSOL(args[1])
			if err != nil {
				return err
			}
			res, err := application.Client.Buy(c.Context(), mint, lamports, slippageBps)
			if err != nil {
				return err
			}
			printTrade(c, "Buy submitted", res, tokens(res.MinAmountOut)+" tokens")
			return nil
		},
	}

	sellCmd = &cobra.Command{
		Use:   "sell <mint> <tokens>",
		Short: "Sell whole tokens for SOL",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			if err := application.RequireSharedState(); err != nil {
				return err
			}
			mint, err := mintArg(args)
			if err != nil {
				return err
			}
			units, err := parseTokens(args[1])
			if err != nil {
				return err
			}
			res, err := application.Client.Sell(c.Context(), mint, units, slippageBps)
			if err != nil {
				return err
			}
			printTrade(c, "Sell submitted", res, sol(res.MinAmountOut))
			return nil
		},
	}

	quoteCmd = &cobra.Command{
		Use:   "quote <buy|sell> <mint> <amount>",
		Short: "Price a trade against current reserves without sending it",
		Args:  cobra.ExactArgs(3),
		RunE: func(c *cobra.Command, args []string) error {
			if err := application.RequireSharedState(); err != nil {
				return err
			}
			mint, err := parseKey(args[1])
			if err != nil {
				return err
			}
			return runQuote(c, args[0], mint, args[2])
		},
	}
)

func printTrade(c *cobra.Command, title string, res *client.TradeResult, floor string) {
	printFields(c.OutOrStdout(), title,
		field{"signature", res.Signature},
		field{"min out", floor},
	)
}
