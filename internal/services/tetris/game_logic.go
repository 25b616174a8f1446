package tetris

import (
	"errors"
	"log"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
)

// ゲーム全体の速度に関わる定数です。
const (
	DefaultTickInterval = 200 * time.Millisecond // レベル1での自動落下間隔
	MinFallInterval     = 50 * time.Millisecond  // 落下間隔の下限
	LevelUpLines        = 10                     // レベルアップに必要なライン数
)

// プレイヤーが送信できるアクションです。
const (
	ActionMoveLeft    = "move_left"
	ActionMoveRight   = "move_right"
	ActionRotate      = "rotate"
	ActionSoftDrop    = "soft_drop"
	ActionHardDrop    = "hard_drop"
	ActionPause       = "pause"
	ActionResume      = "resume"
	ActionTogglePause = "toggle_pause"
)

// ErrUnknownAction は未知のアクションが渡された場合に返されます。
var ErrUnknownAction = errors.New("unknown action")

// IsValidAction は action が受け付け可能なアクションかどうかを返します。
func IsValidAction(action string) bool {
	switch action {
	case ActionMoveLeft, ActionMoveRight, ActionRotate, ActionSoftDrop, ActionHardDrop,
		ActionPause, ActionResume, ActionTogglePause:
		return true
	}
	return false
}

// GetFallInterval は基準間隔とレベルから自動落下間隔を計算して返します。
// レベルが1上がるごとに10%ずつ短くなり、MinFallInterval を下回りません。
func GetFallInterval(base time.Duration, level int) time.Duration {
	interval := base
	for i := 1; i < level && interval > MinFallInterval; i++ {
		interval = interval * 9 / 10
	}
	if interval < MinFallInterval {
		interval = MinFallInterval
	}
	return interval
}

// ApplyPlayerInput はプレイヤーの入力（アクション）に基づいて、
// 指定されたプレイヤーのゲーム状態を更新します。
//
// Parameters:
//   state  : 更新するプレイヤーのゲーム状態のポインタ
//   action : プレイヤーが実行したアクション（例: "move_left", "rotate"）
//   now    : 入力を処理する時刻（ドロップ時の落下タイマーのリセットに使う）
// Returns:
//   bool : ゲーム状態が実際に変更された場合はtrue
//   error: 未知のアクションの場合は ErrUnknownAction
func ApplyPlayerInput(state *PlayerGameState, action string, now time.Time) (bool, error) {
	g := state.game
	switch action {
	case ActionMoveLeft:
		return g.ProcessCommand(tetris.CommandLeft), nil
	case ActionMoveRight:
		return g.ProcessCommand(tetris.CommandRight), nil
	case ActionRotate:
		return g.ProcessCommand(tetris.CommandRotate), nil
	case ActionSoftDrop:
		if g.Phase() != tetris.PhasePlaying {
			return false, nil
		}
		handleStep(state, g.Tick(), now)
		state.lastFallTime = now // ソフトドロップしたら落下タイマーをリセット
		return true, nil
	case ActionHardDrop:
		if g.Phase() != tetris.PhasePlaying {
			return false, nil
		}
		handleStep(state, g.HardDrop(), now)
		state.lastFallTime = now // ハードドロップしたら落下タイマーをリセット
		return true, nil
	case ActionPause:
		return g.Pause(), nil
	case ActionResume:
		return resume(state, now), nil
	case ActionTogglePause:
		if g.Phase() == tetris.PhasePaused {
			return resume(state, now), nil
		}
		return g.Pause(), nil
	default:
		return false, ErrUnknownAction
	}
}

// resume は一時停止を解除します。再開直後にすぐ落下しないよう落下タイマーもリセットします。
func resume(state *PlayerGameState, now time.Time) bool {
	if !state.game.Resume() {
		return false
	}
	state.lastFallTime = now
	return true
}

// AutoFall は自動落下処理を行います。
// SessionManagerのメインループから定期的に呼び出されます。
//
// Parameters:
//   state : 更新するプレイヤーのゲーム状態のポインタ
//   now   : 現在時刻
// Returns:
//   bool: 重力による1段分の処理（落下または固定）が行われた場合はtrue
func AutoFall(state *PlayerGameState, now time.Time) bool {
	if state.game.Phase() != tetris.PhasePlaying {
		return false
	}

	// 落下間隔が経過していない場合は何もしない
	if now.Sub(state.lastFallTime) < state.FallInterval() {
		return false
	}

	handleStep(state, state.game.Tick(), now)
	state.lastFallTime = now
	return true
}

// handleStep はピースの固定後の処理を行います。
// ラインが消えていればレベルを更新し、ゲームオーバーなら終了時刻を記録します。
func handleStep(state *PlayerGameState, r tetris.StepResult, now time.Time) {
	if !r.Locked {
		return
	}
	if r.LinesCleared > 0 {
		state.Level = state.game.LinesCleared()/LevelUpLines + 1
	}
	if r.GameOver {
		state.EndedAt = now
		log.Printf("[GameLogic] Player %s Game Over! Final Score: %d, Lines Cleared: %d", state.UserID, state.game.Score(), state.game.LinesCleared())
	}
}
