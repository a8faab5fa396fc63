package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/launchpad/internal/eventlog"
	"github.com/rovshanmuradov/launchpad/internal/launch"
)

var (
	fromArchive bool

	historyCmd = &cobra.Command{
		Use:   "history <mint>",
		Short: "List launch events with the price after each one",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if err := application.RequireSharedState(); err != nil {
				return err
			}
			mint, err := mintArg(args)
			if err != nil {
				return err
			}
			addrs, err := launch.Derive(application.Config.ProgramKey(), mint)
			if err != nil {
				return err
			}

			var records []eventlog.Record
			if fromArchive {
				ix, err := application.Indexer(c.Context())
				if err != nil {
					return err
				}
				records, err = ix.History(c.Context(), addrs.Launch)
				if err != nil {
					return err
				}
			} else {
				records, err = eventlog.Collect(application.Reader.Events(c.Context(), addrs.Launch))
				if err != nil {
					return err
				}
			}
			return printHistory(c, records)
		},
	}
)

func init() {
	historyCmd.Flags().BoolVar(&fromArchive, "archive", false, "read from the event archive instead of the cluster")
}

func printHistory(c *cobra.Command, records []eventlog.Record) error {
	points, err := eventlog.PriceSeries(application.Config.Curve, records)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Fprintln(c.OutOrStdout(), "no events")
		return nil
	}

	rows := make([][]string, 0, len(records))
	for i, rec := range records {
		rows = append(rows, []string{
			strconv.FormatUint(rec.Slot, 10),
			blockTime(rec.BlockTime),
			string(rec.Event.Kind()),
			describe(rec.Event),
			sol(points[i].SolReserve),
			points[i].SOLPerToken.String(),
			shortSig(rec.Signature.String()),
		})
	}
	printTable(c.OutOrStdout(), []string{"slot", "time", "event", "amount", "SOL reserve", "price", "signature"}, rows)
	return nil
}

func describe(ev launch.Event) string {
	switch e := ev.(type) {
	case *launch.Created:
		return tokens(e.TokenReserve) + " tokens"
	case *launch.Bought:
		return fmt.Sprintf("%s -> %s tokens", sol(e.SolIn), tokens(e.TokensOut))
	case *launch.Sold:
		return fmt.Sprintf("%s tokens -> %s", tokens(e.TokensIn), sol(e.SolOutNet))
	}
	return ""
}

func blockTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.DateTime)
}

func shortSig(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:6] + "…" + s[len(s)-6:]
}
