package models

import (
	"time"
)

// Result はresultsテーブルのレコードに対応する構造体です。
// 終了したゲームの最終結果のみを保存し、プレイ中の盤面は保存しません。
type Result struct {
	ID           int64     `json:"id"`
	GameID       string    `json:"game_id"` // UUID
	UserID       string    `json:"user_id"`
	Score        int       `json:"score"`
	LinesCleared int       `json:"lines_cleared"`
	Pieces       int       `json:"pieces"`
	Level        int       `json:"level"`
	DurationMs   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// Duration はプレイ時間を返します。
func (r *Result) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

// ResultResponse はAPI レスポンス用の構造体です。
type ResultResponse struct {
	Result
	Rank int `json:"rank"` // ランキング順位
}
