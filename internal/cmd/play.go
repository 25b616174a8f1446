package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
	gameservice "github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/tui"
)

func init() {
	rootCmd.AddCommand(playCmd)
	flags := playCmd.Flags()
	flags.Int(config.KeyWidth, 0, "board width in cells (default 10)")
	flags.Int(config.KeyHeight, 0, "board height in cells (default 20)")
	flags.Int64(config.KeySeed, 0, "random seed for the piece sequence (0 picks one from the clock)")
	flags.Duration(config.KeyTickInterval, 0, "gravity interval at level 1 (default 200ms)")
	flags.String(config.KeyListen, "", "also serve the spectator and results API on this address, e.g. :8080")
	flags.StringSlice(config.KeyAllowedOrigins, nil, "origins allowed to use the API")
	flags.String(config.KeyLogFile, "", "file that receives logs while the game owns the terminal (default blockfall.log)")
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a game in the terminal.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg, err := config.Load(settings)
		if err != nil {
			return err
		}

		restoreLog, err := redirectLog(cfg.LogFile)
		if err != nil {
			return err
		}
		defer restoreLog()

		db, repo, err := openResults(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}

		final, err := runGame(cmd.Context(), cfg, db, repo)
		if err != nil {
			return err
		}
		return printSummary(cmd.Context(), cmd.OutOrStdout(), final, repo)
	},
}

// runGame はセッションマネージャー・端末UI・（指定があれば）HTTPサーバーを並行して動かし、
// ゲームが終わるとすべてを停止します。
func runGame(ctx context.Context, cfg *config.Config, db *database.DatabaseService, repo database.ResultRepository) (*gameservice.LightweightPlayerState, error) {
	sm := gameservice.NewSessionManager(repo)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sm.Run(ctx) })

	abort := func(err error) (*gameservice.LightweightPlayerState, error) {
		sm.Shutdown()
		g.Wait()
		return nil, err
	}

	created, err := sm.CreateSession(cfg.User, cfg.GameConfig())
	if err != nil {
		return abort(fmt.Errorf("ゲームの作成に失敗しました: %w", err))
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return abort(fmt.Errorf("端末の初期化に失敗しました: %w", err))
	}
	if err := screen.Init(); err != nil {
		return abort(fmt.Errorf("端末の初期化に失敗しました: %w", err))
	}

	serverCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()
	if cfg.Listen != "" {
		srv := newServer(cfg.Listen, cfg, sm, db, repo)
		g.Go(func() error { return serveHTTP(serverCtx, srv) })
	}

	var final *gameservice.LightweightPlayerState
	g.Go(func() error {
		defer sm.Shutdown()
		defer stopServer()
		state, err := tui.Play(ctx, screen, sm, created.GameID)
		screen.Fini()
		final = state
		return err
	})

	err = g.Wait()
	return final, err
}

// redirectLog は端末を使っている間のログをファイルに書き出します。
// path が空の場合はログを捨てます。
func redirectLog(path string) (func(), error) {
	if path == "" {
		log.SetOutput(io.Discard)
		return func() { log.SetOutput(os.Stderr) }, nil
	}
	logFile, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("ログファイルを開けませんでした: %w", err)
	}
	log.SetOutput(logFile)
	return func() {
		log.SetOutput(os.Stderr)
		logFile.Close()
	}, nil
}

// printSummary はゲーム終了後の結果を表示します。
func printSummary(ctx context.Context, w io.Writer, final *gameservice.LightweightPlayerState, repo database.ResultRepository) error {
	if final == nil {
		return nil
	}
	snapshot := final.Snapshot
	ended := final.EndedAt
	if ended.IsZero() {
		ended = time.Now()
	}

	if snapshot.Phase == tetris.PhaseGameOver {
		fmt.Fprintln(w, warn("GAME OVER"))
	} else {
		fmt.Fprintln(w, "Game ended.")
	}

	tbl := table.New("Stat", "Value")
	tbl.WithWriter(w)
	tbl.WithHeaderFormatter(color.New(color.FgGreen, color.Underline).SprintfFunc())
	tbl.WithFirstColumnFormatter(color.New(color.FgBlue, color.Bold).SprintfFunc())

	tbl.AddRow("player", final.UserID)
	tbl.AddRow("score", snapshot.Score)
	tbl.AddRow("lines", snapshot.Lines)
	tbl.AddRow("pieces", snapshot.Pieces)
	tbl.AddRow("level", final.Level)
	tbl.AddRow("time", formatDuration(ended.Sub(final.StartedAt)))

	if repo != nil && snapshot.Pieces > 0 {
		best, err := repo.GetUserRanking(ctx, final.UserID)
		if err != nil {
			return err
		}
		if best != nil {
			tbl.AddRow("best", fmt.Sprintf("%d (rank #%d)", best.Score, best.Rank))
		}
	}
	tbl.Print()
	return nil
}
