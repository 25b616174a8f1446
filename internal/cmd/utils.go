package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/api"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/database"
	gameservice "github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

// Color function for emphasising text.
var emph = color.New(color.FgBlue, color.Bold).SprintFunc()

var warn = color.New(color.FgYellow, color.Bold).SprintFunc()

const shutdownTimeout = 5 * time.Second

// openResults は設定に従って結果用のデータベースを開きます。
// 保存しない設定の場合はすべて nil を返します。
func openResults(ctx context.Context, cfg *config.Config) (*database.DatabaseService, database.ResultRepository, error) {
	if !cfg.PersistResults() {
		return nil, nil, nil
	}
	db, err := database.NewDatabaseService(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return db, database.NewResultRepository(db), nil
}

// newServer は観戦・結果取得用のHTTPサーバーを作成します。
func newServer(addr string, cfg *config.Config, sm *gameservice.SessionManager, db *database.DatabaseService, repo database.ResultRepository) *http.Server {
	return &http.Server{
		Addr: addr,
		Handler: api.NewRouter(api.Dependencies{
			SessionManager:  sm,
			DatabaseService: db,
			ResultRepo:      repo,
			AllowedOrigins:  cfg.AllowedOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// serveHTTP は ctx がキャンセルされるまで srv を動かします。
func serveHTTP(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTPサーバーの起動に失敗しました: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTPサーバーの停止に失敗しました: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Printf("[Server] Stopped")
	return nil
}

func printTable(w io.Writer, header []string, data [][]string) {
	table := tablewriter.NewWriter(w)

	table.SetHeader(header)
	table.SetHeaderLine(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(true)

	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnSeparator("  ")
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("     ")

	table.AppendBulk(data)

	table.Render()
}

// formatDuration はプレイ時間を秒単位に丸めて表示します。
func formatDuration(d time.Duration) string {
	return d.Round(time.Second).String()
}
