package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/launchpad/internal/client"
)

var showCmd = &cobra.Command{
	Use:   "show <mint>",
	Short: "Show launch state, spot price and bonding progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		if err := application.RequireSharedState(); err != nil {
			return err
		}
		mint, err := mintArg(args)
		if err != nil {
			return err
		}
		l, err := application.Client.FetchLaunch(c.Context(), mint)
		if err != nil {
			return err
		}
		return printLaunch(c.OutOrStdout(), l)
	},
}

func printLaunch(w io.Writer, l *client.Launch) error {
	price, err := application.Client.PriceSOL(l)
	if err != nil {
		return err
	}
	application.Metrics.UpdateReserves(l.Address.String(), l.SolReserve, l.TokenReserve)

	printFields(w, "Launch "+l.Address.String(),
		field{"mint", l.Mint},
		field{"creator", l.Creator},
		field{"fee authority", l.FeeAuthority},
		field{"fee", fmt.Sprintf("%d bps", l.FeeRateBps)},
		field{"SOL reserve", sol(l.SolReserve)},
		field{"token reserve", tokens(l.TokenReserve)},
		field{"price", price.String() + " SOL/token"},
		field{"progress", application.Client.Progress(l).StringFixed(2) + "%"},
		field{"graduated", l.Graduated},
	)
	return nil
}
