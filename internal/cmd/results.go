package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models"
)

var (
	resultsLimit int
	resultsMine  bool
)

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.Flags().IntVar(&resultsLimit, "limit", 10, "number of results to show (1-100)")
	resultsCmd.Flags().BoolVar(&resultsMine, "mine", false, "show only your best result and rank")
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show the leaderboard of finished games.",
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
		if resultsLimit < 1 || resultsLimit > 100 {
			return fmt.Errorf("--limit must be between 1 and 100, got %d", resultsLimit)
		}

		db, repo, err := openResults(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		out := cmd.OutOrStdout()
		if resultsMine {
			best, err := repo.GetUserRanking(cmd.Context(), cfg.User)
			if err != nil {
				return err
			}
			if best == nil {
				fmt.Fprintf(out, "No results for %s yet.\n", emph(cfg.User))
				return nil
			}
			fmt.Fprintf(out, "%s is ranked #%d with score %d.\n", emph(cfg.User), best.Rank, best.Score)
			printResults(out, []models.ResultResponse{*best})
			return nil
		}

		top, err := repo.GetTopResults(cmd.Context(), resultsLimit)
		if err != nil {
			return err
		}
		if len(top) == 0 {
			fmt.Fprintln(out, "No results yet. Play a game with `blockfall play`.")
			return nil
		}
		printResults(out, top)
		return nil
	},
}

func printResults(w io.Writer, results []models.ResultResponse) {
	data := make([][]string, 0, len(results))
	for _, r := range results {
		data = append(data, []string{
			strconv.Itoa(r.Rank),
			r.UserID,
			strconv.Itoa(r.Score),
			strconv.Itoa(r.LinesCleared),
			strconv.Itoa(r.Pieces),
			strconv.Itoa(r.Level),
			formatDuration(r.Duration()),
			humanize.Time(r.CreatedAt),
		})
	}
	printTable(w, []string{"Rank", "Player", "Score", "Lines", "Pieces", "Level", "Time", "Played"}, data)
}
