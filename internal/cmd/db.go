package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/database"
)

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbCheckCmd)
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the results database.",
}

var dbCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Connect to the results database, apply migrations and print its contents summary.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg, err := config.Load(settings)
		if err != nil {
			return err
		}
		if !cfg.PersistResults() {
			return errors.New("results are disabled: set --database-url or BLOCKFALL_DATABASE_URL")
		}

		start := time.Now()
		db, _, err := openResults(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		elapsed := time.Since(start)

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s in %d ms.\n", emph(cfg.DatabaseDriver), elapsed.Milliseconds())

		tbl := table.New("Property", "Value")
		tbl.WithWriter(cmd.OutOrStdout())
		tbl.WithFirstColumnFormatter(color.New(color.FgBlue, color.Bold).SprintfFunc())
		tbl.AddRow("url", database.Redact(cfg.DatabaseURL))
		tbl.AddRow("results", humanize.Comma(stats.Results))
		tbl.AddRow("players", humanize.Comma(stats.Players))
		tbl.Print()
		return nil
	},
}
