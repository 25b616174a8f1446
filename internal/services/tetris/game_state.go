package tetris

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
)

// GameConfig は1ゲーム分の設定です。
type GameConfig struct {
	Width        int           // ボードの幅
	Height       int           // ボードの高さ
	Seed         int64         // ピース生成の乱数シード (0なら現在時刻から決める)
	TickInterval time.Duration // レベル1での自動落下間隔
}

// DefaultGameConfig は10x20のボード、200msの落下間隔の設定を返します。
func DefaultGameConfig() GameConfig {
	return GameConfig{
		Width:        tetris.DefaultBoardWidth,
		Height:       tetris.DefaultBoardHeight,
		TickInterval: DefaultTickInterval,
	}
}

// PlayerGameState は単一プレイヤーのゲーム状態です。
// コアの tetris.Game を包み、ゲームID・レベル・落下タイマーなどドライバー側の情報を持ちます。
// SessionManager のイベントループからのみ変更されます。
type PlayerGameState struct {
	GameID    string    `json:"game_id"`
	UserID    string    `json:"user_id"`
	Seed      int64     `json:"seed"`
	Level     int       `json:"level"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	game         *tetris.Game
	config       GameConfig
	lastFallTime time.Time // 最後の自動落下またはドロップの時刻
}

// NewPlayerGameState は新しいプレイヤーのゲーム状態を初期化して返します。
//
// Parameters:
//   userID : プレイヤーのユーザーID
//   cfg    : ボードの大きさ・シード・落下間隔
//   now    : ゲーム開始時刻
// Returns:
//   *PlayerGameState: 初期化されたゲーム状態のポインタ
//   error: ボードの大きさが不正な場合
func NewPlayerGameState(userID string, cfg GameConfig, now time.Time) (*PlayerGameState, error) {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	seed := cfg.Seed
	if seed == 0 {
		// シード未指定の場合は現在時刻で初期化
		seed = now.UnixNano()
	}

	game, err := tetris.New(cfg.Width, cfg.Height, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, fmt.Errorf("ゲームの初期化に失敗しました: %w", err)
	}

	return &PlayerGameState{
		GameID:       uuid.New().String(),
		UserID:       userID,
		Seed:         seed,
		Level:        1,
		StartedAt:    now,
		game:         game,
		config:       cfg,
		lastFallTime: now,
	}, nil
}

// Game はコアのゲーム状態を返します。
func (s *PlayerGameState) Game() *tetris.Game {
	return s.game
}

// IsGameOver はゲームオーバーかどうかを返します。
func (s *PlayerGameState) IsGameOver() bool {
	return s.game.Phase() == tetris.PhaseGameOver
}

// FallInterval は現在のレベルでの自動落下間隔を返します。
func (s *PlayerGameState) FallInterval() time.Duration {
	return GetFallInterval(s.config.TickInterval, s.Level)
}

// LightweightPlayerState は描画・送信用の軽量なゲーム状態です。
// 一度作られたら変更されないので、複数のゴルーチンから読んでも安全です。
type LightweightPlayerState struct {
	GameID    string          `json:"game_id"`
	UserID    string          `json:"user_id"`
	Level     int             `json:"level"`
	Finished  bool            `json:"finished"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   time.Time       `json:"ended_at,omitempty"`
	Snapshot  tetris.Snapshot `json:"snapshot"`
}

// ToLightweight は現在の状態から LightweightPlayerState を作ります。
func (s *PlayerGameState) ToLightweight() *LightweightPlayerState {
	return &LightweightPlayerState{
		GameID:    s.GameID,
		UserID:    s.UserID,
		Level:     s.Level,
		Finished:  !s.EndedAt.IsZero(),
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		Snapshot:  s.game.Snapshot(),
	}
}

// GameSummary はセッション一覧用の概要です。
type GameSummary struct {
	GameID    string       `json:"game_id"`
	UserID    string       `json:"user_id"`
	Phase     tetris.Phase `json:"phase"`
	Score     int          `json:"score"`
	Lines     int          `json:"lines_cleared"`
	Level     int          `json:"level"`
	StartedAt time.Time    `json:"started_at"`
}

// Summary は LightweightPlayerState から一覧用の概要を作ります。
func (l *LightweightPlayerState) Summary() GameSummary {
	return GameSummary{
		GameID:    l.GameID,
		UserID:    l.UserID,
		Phase:     l.Snapshot.Phase,
		Score:     l.Snapshot.Score,
		Lines:     l.Snapshot.Lines,
		Level:     l.Level,
		StartedAt: l.StartedAt,
	}
}

// ToResult は終了したゲームを結果レコードに変換します。
func (s *PlayerGameState) ToResult() *models.Result {
	ended := s.EndedAt
	if ended.IsZero() {
		ended = time.Now()
	}
	return &models.Result{
		GameID:       s.GameID,
		UserID:       s.UserID,
		Score:        s.game.Score(),
		LinesCleared: s.game.LinesCleared(),
		Pieces:       s.game.PiecesLocked(),
		Level:        s.Level,
		DurationMs:   ended.Sub(s.StartedAt).Milliseconds(),
		CreatedAt:    ended.UTC(),
	}
}
