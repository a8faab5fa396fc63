package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/launchpad/internal/eventlog"
	"github.com/rovshanmuradov/launchpad/internal/export"
	"github.com/rovshanmuradov/launchpad/internal/launch"
)

var (
	exportFormat  string
	exportDir     string
	exportKind    string
	exportArchive bool

	exportCmd = &cobra.Command{
		Use:   "export <mint>",
		Short: "Write the event history of a launch to CSV or JSON",
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
			if exportArchive {
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
			return exportRecords(c, addrs.Launch.String(), records)
		},
	}
)

func init() {
	flags := exportCmd.Flags()
	flags.StringVar(&exportFormat, "format", string(export.FormatCSV), "csv or json")
	flags.StringVar(&exportDir, "out", "exports", "output directory")
	flags.StringVar(&exportKind, "kind", "", "only export events of this kind: created, bought or sold")
	flags.BoolVar(&exportArchive, "archive", false, "read from the event archive instead of the cluster")
}

func exportRecords(c *cobra.Command, launchAddr string, records []eventlog.Record) error {
	opts := export.ExportOptions{
		Format:    export.ExportFormat(exportFormat),
		OutputDir: exportDir,
	}
	switch kind := launch.EventKind(exportKind); kind {
	case "", launch.EventCreated, launch.EventBought, launch.EventSold:
		opts.KindFilter = kind
	default:
		return fmt.Errorf("unknown event kind %q", exportKind)
	}

	exporter := export.NewEventExporter(application.Config.Curve, application.Logger.Named("export"))
	path, err := exporter.ExportEvents(launchAddr, records, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.OutOrStdout(), "exported %d events to %s\n", len(records), path)
	return nil
}
