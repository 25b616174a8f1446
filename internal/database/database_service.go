package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQLドライバー
	_ "modernc.org/sqlite" // SQLiteドライバー (cgo不要)
)

// サポートするドライバー名です。database/sql に登録されている名前と一致します。
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrUnsupportedDriver は未対応のドライバー名が指定された場合に返されます。
var ErrUnsupportedDriver = errors.New("database: unsupported driver")

// DatabaseService はデータベース接続とスキーマの管理を行います。
type DatabaseService struct {
	DB     *sql.DB
	Driver string
}

var migrations = map[string][]string{
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS results (
			id            BIGSERIAL PRIMARY KEY,
			game_id       TEXT NOT NULL UNIQUE,
			user_id       TEXT NOT NULL,
			score         INTEGER NOT NULL,
			lines_cleared INTEGER NOT NULL,
			pieces        INTEGER NOT NULL,
			level         INTEGER NOT NULL,
			duration_ms   BIGINT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS results_ranking_idx ON results (score DESC, lines_cleared DESC, created_at ASC)`,
		`CREATE INDEX IF NOT EXISTS results_user_idx ON results (user_id)`,
	},
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS results (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id       TEXT NOT NULL UNIQUE,
			user_id       TEXT NOT NULL,
			score         INTEGER NOT NULL,
			lines_cleared INTEGER NOT NULL,
			pieces        INTEGER NOT NULL,
			level         INTEGER NOT NULL,
			duration_ms   INTEGER NOT NULL,
			created_at    DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS results_ranking_idx ON results (score DESC, lines_cleared DESC, created_at ASC)`,
		`CREATE INDEX IF NOT EXISTS results_user_idx ON results (user_id)`,
	},
}

// NewDatabaseService はデータベースに接続し、Pingとマイグレーションを行った DatabaseService を返します。
//
// Parameters:
//   ctx         : 接続確認とマイグレーションに使うコンテキスト
//   driver      : "postgres" または "sqlite"
//   databaseURL : 接続文字列 (sqliteの場合はファイルパスまたは ":memory:")
// Returns:
//   *DatabaseService: 接続済みのサービス
//   error: 接続・マイグレーションに失敗した場合
func NewDatabaseService(ctx context.Context, driver, databaseURL string) (*DatabaseService, error) {
	if _, ok := migrations[driver]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	log.Printf("[DatabaseService] データベース接続を試行中 (driver=%s): %s...", driver, Redact(databaseURL))

	db, err := sql.Open(driver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("データベースへの接続オブジェクト作成に失敗しました: %w", err)
	}
	if driver == DriverSQLite {
		// SQLiteは書き込みが直列化されるため接続は1本で十分。":memory:" を共有するためでもある
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("データベースのPingに失敗しました。接続情報やネットワークを確認してください: %w", err)
	}

	s := &DatabaseService{DB: db, Driver: driver}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.Println("[DatabaseService] データベースに正常に接続しました。")
	return s, nil
}

// Migrate はresultsテーブルとインデックスを作成します。何度実行しても安全です。
func (s *DatabaseService) Migrate(ctx context.Context) error {
	for _, stmt := range migrations[s.Driver] {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("マイグレーションに失敗しました: %w", err)
		}
	}
	return nil
}

// Close はデータベース接続を閉じます。
func (s *DatabaseService) Close() error {
	return s.DB.Close()
}

// Stats はresultsテーブルの件数です。
type Stats struct {
	Results int64
	Players int64
}

// Stats は保存済みの結果の件数とプレイヤー数を数えます。
func (s *DatabaseService) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(DISTINCT user_id) FROM results`).Scan(&stats.Results, &stats.Players)
	if err != nil {
		return Stats{}, fmt.Errorf("結果の件数取得に失敗しました: %w", err)
	}
	return stats, nil
}

// Redact はログ出力用に接続文字列の認証情報を伏せます。
func Redact(databaseURL string) string {
	if at := strings.LastIndex(databaseURL, "@"); at >= 0 {
		if scheme := strings.Index(databaseURL, "://"); scheme >= 0 && scheme < at {
			return databaseURL[:scheme+3] + "***" + databaseURL[at:]
		}
	}
	return databaseURL[:min(len(databaseURL), 50)]
}
