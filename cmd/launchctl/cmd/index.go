package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/launchpad/internal/launch"
)

var (
	follow        bool
	indexInterval time.Duration
	listArchived  bool

	indexCmd = &cobra.Command{
		Use:   "index <mint>... | index --list",
		Short: "Archive launch events into the configured store",
		Args: func(c *cobra.Command, args []string) error {
			if listArchived {
				return cobra.NoArgs(c, args)
			}
			return cobra.MinimumNArgs(1)(c, args)
		},
		RunE: func(c *cobra.Command, args []string) error {
			if listArchived {
				return listIndexed(c)
			}
			if err := application.RequireSharedState(); err != nil {
				return err
			}
			launches := make([]solana.PublicKey, 0, len(args))
			for _, arg := range args {
				mint, err := parseKey(arg)
				if err != nil {
					return err
				}
				addr, _, err := launch.DeriveLaunchAddress(application.Config.ProgramKey(), mint)
				if err != nil {
					return err
				}
				launches = append(launches, addr)
			}

			ix, err := application.Indexer(c.Context())
			if err != nil {
				return err
			}
			if follow {
				err := ix.Run(c.Context(), indexInterval, launches...)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}

			rows := make([][]string, 0, len(launches))
			for i, addr := range launches {
				n, err := ix.Sync(c.Context(), addr)
				if err != nil {
					return err
				}
				rows = append(rows, []string{args[i], addr.String(), strconv.Itoa(n)})
			}
			printTable(c.OutOrStdout(), []string{"mint", "launch", "new events"}, rows)
			return nil
		},
	}
)

// listIndexed prints what the archive holds. It reads only the store, so it
// also works on localnet against a postgres archive.
func listIndexed(c *cobra.Command) error {
	ix, err := application.Indexer(c.Context())
	if err != nil {
		return err
	}
	summaries, err := ix.Archived(c.Context())
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(c.OutOrStdout(), "archive is empty")
		return nil
	}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Launch,
			strconv.Itoa(s.Events),
			strconv.FormatUint(s.LastSlot, 10),
			sol(s.SolReserve),
			strconv.FormatBool(s.Graduated),
		})
	}
	printTable(c.OutOrStdout(), []string{"launch", "events", "last slot", "SOL reserve", "graduated"}, rows)
	return nil
}

func init() {
	indexCmd.Flags().BoolVar(&listArchived, "list", false, "list archived launches instead of syncing")
	indexCmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep syncing until interrupted")
	indexCmd.Flags().DurationVar(&indexInterval, "interval", 10*time.Second, "sync interval with --follow")
}
