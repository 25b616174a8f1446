package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models"
)

// ResultRepository はゲーム結果関連のデータベース操作を定義するインターフェースです。
type ResultRepository interface {
	// CreateResult は新しいゲーム結果レコードを作成し、採番されたIDを result に設定します
	CreateResult(ctx context.Context, result *models.Result) error

	// GetTopResults は上位N件の結果を取得します（ランキング用）
	GetTopResults(ctx context.Context, limit int) ([]models.ResultResponse, error)

	// GetUserBestScore は指定したユーザーの最高スコアを取得します
	GetUserBestScore(ctx context.Context, userID string) (*models.Result, error)

	// GetUserRanking は指定したユーザーの最高スコアとその順位を取得します
	GetUserRanking(ctx context.Context, userID string) (*models.ResultResponse, error)
}

// resultRepositoryImpl はResultRepositoryインターフェースの実装です。
type resultRepositoryImpl struct {
	db     *sql.DB
	driver string
}

// NewResultRepository はResultRepositoryの新しいインスタンスを作成します。
func NewResultRepository(s *DatabaseService) ResultRepository {
	return &resultRepositoryImpl{db: s.DB, driver: s.Driver}
}

var placeholderPattern = regexp.MustCompile(`\$\d+`)

// rebind は $1 形式のプレースホルダーをドライバーに合わせて書き換えます。
// クエリ内で各プレースホルダーは番号順に1回ずつ使う前提です。
func (r *resultRepositoryImpl) rebind(query string) string {
	if r.driver == DriverSQLite {
		return placeholderPattern.ReplaceAllString(query, "?")
	}
	return query
}

const resultColumns = `id, game_id, user_id, score, lines_cleared, pieces, level, duration_ms, created_at`

func scanResult(row interface{ Scan(...any) error }, result *models.Result, extra ...any) error {
	dest := []any{
		&result.ID, &result.GameID, &result.UserID, &result.Score,
		&result.LinesCleared, &result.Pieces, &result.Level, &result.DurationMs, &result.CreatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// CreateResult は新しいゲーム結果レコードを作成します。
// CreatedAt が未設定の場合は現在時刻 (UTC) を使います。
func (r *resultRepositoryImpl) CreateResult(ctx context.Context, result *models.Result) error {
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	row := r.db.QueryRowContext(ctx, r.rebind(`
		INSERT INTO results (game_id, user_id, score, lines_cleared, pieces, level, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`),
		result.GameID, result.UserID, result.Score, result.LinesCleared,
		result.Pieces, result.Level, result.DurationMs, result.CreatedAt,
	)
	if err := row.Scan(&result.ID); err != nil {
		return fmt.Errorf("ゲーム結果レコードの作成に失敗しました: %w", err)
	}
	return nil
}

// GetTopResults は上位N件の結果を取得します（ランキング用）。
// 順位はスコアの降順、同点ならライン数の降順、さらに同じなら先に記録された方が上です。
func (r *resultRepositoryImpl) GetTopResults(ctx context.Context, limit int) ([]models.ResultResponse, error) {
	query := r.rebind(`
		SELECT ` + resultColumns + `,
			ROW_NUMBER() OVER (ORDER BY score DESC, lines_cleared DESC, created_at ASC) AS rank
		FROM results
		ORDER BY score DESC, lines_cleared DESC, created_at ASC
		LIMIT $1
	`)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ゲーム結果取得に失敗しました: %w", err)
	}
	defer rows.Close()

	results := []models.ResultResponse{}
	for rows.Next() {
		var result models.ResultResponse
		if err := scanResult(rows, &result.Result, &result.Rank); err != nil {
			return nil, fmt.Errorf("ゲーム結果データのスキャンに失敗しました: %w", err)
		}
		results = append(results, result)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ゲーム結果取得中にエラーが発生しました: %w", err)
	}

	return results, nil
}

// GetUserBestScore は指定したユーザーの最高スコアを取得します。
// 結果が1件もない場合は nil, nil を返します。
func (r *resultRepositoryImpl) GetUserBestScore(ctx context.Context, userID string) (*models.Result, error) {
	query := r.rebind(`
		SELECT ` + resultColumns + `
		FROM results
		WHERE user_id = $1
		ORDER BY score DESC, lines_cleared DESC, created_at ASC
		LIMIT 1
	`)

	var result models.Result
	err := scanResult(r.db.QueryRowContext(ctx, query, userID), &result)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // ユーザーのスコアが存在しない場合はnilを返す
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの最高スコア取得に失敗しました: %w", err)
	}

	return &result, nil
}

// GetUserRanking は指定したユーザーの最高スコアと、全結果の中での順位を取得します。
func (r *resultRepositoryImpl) GetUserRanking(ctx context.Context, userID string) (*models.ResultResponse, error) {
	// ユーザーの最高スコアを先に取得
	best, err := r.GetUserBestScore(ctx, userID)
	if err != nil {
		return nil, err
	}
	if best == nil {
		return nil, nil // ユーザーのスコアが存在しない
	}

	// その結果より上位にある件数 + 1 が順位
	query := r.rebind(`
		SELECT COUNT(*) + 1 AS rank
		FROM results
		WHERE score > $1
			OR (score = $2 AND lines_cleared > $3)
			OR (score = $4 AND lines_cleared = $5 AND created_at < $6)
	`)

	var rank int
	err = r.db.QueryRowContext(ctx, query,
		best.Score,
		best.Score, best.LinesCleared,
		best.Score, best.LinesCleared, best.CreatedAt,
	).Scan(&rank)
	if err != nil {
		return nil, fmt.Errorf("ユーザーランキング順位の計算に失敗しました: %w", err)
	}

	return &models.ResultResponse{Result: *best, Rank: rank}, nil
}
