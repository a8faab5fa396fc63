package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/launchpad/internal/client"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <step>...",
	Short: "Create a launch and run trades against it in one process",
	Long: `Creates a launch, runs each step in order, archives the resulting events and
prints the final state and history. Steps are buy:<SOL> or sell:<tokens>, for
example: launchctl simulate buy:0.05 buy:0.02 sell:1000000

This is the way to exercise localnet, whose state does not outlive the process.`,
	RunE: func(c *cobra.Command, args []string) error {
		ctx := c.Context()
		out := c.OutOrStdout()

		params, err := createParams()
		if err != nil {
			return err
		}
		created, err := application.Client.CreateLaunch(ctx, params, application.Mints(), application.Issuer())
		if err != nil {
			return err
		}
		printCreated(c, params, created)
		mint := created.Addresses.Mint

		for i, step := range args {
			side, amount, ok := strings.Cut(step, ":")
			if !ok {
				return fmt.Errorf("step %d: want buy:<SOL> or sell:<tokens>, got %q", i+1, step)
			}

			var res *client.TradeResult
			switch side {
			case "buy":
				lamports, err := parseSOL(amount)
				if err != nil {
					return fmt.Errorf("step %d: %w", i+1, err)
				}
				res, err = application.Client.Buy(ctx, mint, lamports, slippageBps)
				if err != nil {
					return fmt.Errorf("step %d: %w", i+1, err)
				}
			case "sell":
				units, err := parseTokens(amount)
				if err != nil {
					return fmt.Errorf("step %d: %w", i+1, err)
				}
				res, err = application.Client.Sell(ctx, mint, units, slippageBps)
				if err != nil {
					return fmt.Errorf("step %d: %w", i+1, err)
				}
			default:
				return fmt.Errorf("step %d: unknown side %q", i+1, side)
			}
			fmt.Fprintf(out, "%s %s -> %s\n", side, amount, res.Signature)
		}

		ix, err := application.Indexer(ctx)
		if err != nil {
			return err
		}
		if _, err := ix.Sync(ctx, created.Addresses.Launch); err != nil {
			return err
		}

		l, err := application.Client.FetchLaunch(ctx, mint)
		if err != nil {
			return err
		}
		if err := printLaunch(out, l); err != nil {
			return err
		}
		records, err := ix.History(ctx, created.Addresses.Launch)
		if err != nil {
			return err
		}
		if err := printHistory(c, records); err != nil {
			return err
		}
		if simulateExport {
			return exportRecords(c, created.Addresses.Launch.String(), records)
		}
		return nil
	},
}

var simulateExport bool

func init() {
	addCreateFlags(simulateCmd)
	simulateCmd.Flags().BoolVar(&simulateExport, "export", false, "also export the history, see the export command for --format and --out")
	simulateCmd.Flags().StringVar(&exportFormat, "format", "csv", "export format: csv or json")
	simulateCmd.Flags().StringVar(&exportDir, "out", "exports", "export output directory")
}
