package tetris

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestState(t *testing.T) *PlayerGameState {
	t.Helper()
	cfg := DefaultGameConfig()
	cfg.Seed = 12345
	state, err := NewPlayerGameState("test-user", cfg, testStart)
	require.NoError(t, err)
	return state
}

// TestApplyPlayerInput_MoveLeft はピースの左移動をテストします。
func TestApplyPlayerInput_MoveLeft(t *testing.T) {
	state := newTestState(t)
	initialX := state.Game().Figure().Pos.X

	// 左に移動するアクションを適用
	moved, err := ApplyPlayerInput(state, ActionMoveLeft, testStart)

	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, initialX-1, state.Game().Figure().Pos.X)

	// 左端まで移動すると止まる
	for {
		moved, err = ApplyPlayerInput(state, ActionMoveLeft, testStart)
		require.NoError(t, err)
		if !moved {
			break
		}
	}
	x := state.Game().Figure().Pos.X
	moved, _ = ApplyPlayerInput(state, ActionMoveLeft, testStart)
	assert.False(t, moved)
	assert.Equal(t, x, state.Game().Figure().Pos.X)
}

func TestApplyPlayerInput_MoveRight(t *testing.T) {
	state := newTestState(t)
	initialX := state.Game().Figure().Pos.X

	moved, err := ApplyPlayerInput(state, ActionMoveRight, testStart)

	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, initialX+1, state.Game().Figure().Pos.X)
}

// TestApplyPlayerInput_Rotate はピースの回転をテストします。
func TestApplyPlayerInput_Rotate(t *testing.T) {
	state := newTestState(t)
	// 出現直後は上端より上にはみ出していることがあるので、少し落としてから回転する
	for i := 0; i < 3; i++ {
		_, err := ApplyPlayerInput(state, ActionSoftDrop, testStart)
		require.NoError(t, err)
	}
	before := state.Game().Figure().Rotation

	rotated, err := ApplyPlayerInput(state, ActionRotate, testStart)

	require.NoError(t, err)
	assert.True(t, rotated)
	assert.Equal(t, before.Next(), state.Game().Figure().Rotation)
}

func TestApplyPlayerInput_UnknownAction(t *testing.T) {
	state := newTestState(t)

	changed, err := ApplyPlayerInput(state, "hold", testStart)

	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.False(t, changed)
	assert.False(t, IsValidAction("hold"))
	assert.True(t, IsValidAction(ActionTogglePause))
}

func TestApplyPlayerInput_SoftDrop(t *testing.T) {
	state := newTestState(t)
	y := state.Game().Figure().Pos.Y
	later := testStart.Add(150 * time.Millisecond)

	changed, err := ApplyPlayerInput(state, ActionSoftDrop, later)

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, y+1, state.Game().Figure().Pos.Y)
	// ソフトドロップで落下タイマーがリセットされる
	assert.Equal(t, later, state.lastFallTime)
}

func TestApplyPlayerInput_HardDrop(t *testing.T) {
	state := newTestState(t)

	changed, err := ApplyPlayerInput(state, ActionHardDrop, testStart)

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, state.Game().PiecesLocked())
	assert.Equal(t, tetris.RotationSpawn, state.Game().Figure().Rotation)
}

func TestApplyPlayerInput_PauseResume(t *testing.T) {
	state := newTestState(t)

	changed, err := ApplyPlayerInput(state, ActionPause, testStart)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, tetris.PhasePaused, state.Game().Phase())

	// 一時停止中は操作もドロップも無効
	moved, _ := ApplyPlayerInput(state, ActionMoveLeft, testStart)
	assert.False(t, moved)
	dropped, _ := ApplyPlayerInput(state, ActionHardDrop, testStart)
	assert.False(t, dropped)
	assert.False(t, AutoFall(state, testStart.Add(time.Hour)))

	resumeAt := testStart.Add(5 * time.Second)
	changed, err = ApplyPlayerInput(state, ActionTogglePause, resumeAt)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, tetris.PhasePlaying, state.Game().Phase())
	assert.Equal(t, resumeAt, state.lastFallTime)

	changed, _ = ApplyPlayerInput(state, ActionResume, resumeAt)
	assert.False(t, changed)
	changed, _ = ApplyPlayerInput(state, ActionTogglePause, resumeAt)
	assert.True(t, changed)
	assert.Equal(t, tetris.PhasePaused, state.Game().Phase())
}

func TestAutoFall_RespectsInterval(t *testing.T) {
	state := newTestState(t)
	y := state.Game().Figure().Pos.Y

	assert.False(t, AutoFall(state, testStart.Add(DefaultTickInterval-time.Millisecond)))
	assert.Equal(t, y, state.Game().Figure().Pos.Y)

	assert.True(t, AutoFall(state, testStart.Add(DefaultTickInterval)))
	assert.Equal(t, y+1, state.Game().Figure().Pos.Y)

	// タイマーがリセットされるので直後は落下しない
	assert.False(t, AutoFall(state, testStart.Add(DefaultTickInterval+time.Millisecond)))
}

func TestAutoFall_EventuallyLocks(t *testing.T) {
	state := newTestState(t)
	now := testStart
	for i := 0; i < 100 && state.Game().PiecesLocked() == 0; i++ {
		now = now.Add(DefaultTickInterval)
		require.True(t, AutoFall(state, now))
	}
	assert.Equal(t, 1, state.Game().PiecesLocked())
}

func TestGetFallInterval(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, GetFallInterval(200*time.Millisecond, 1))
	assert.Equal(t, 180*time.Millisecond, GetFallInterval(200*time.Millisecond, 2))
	assert.Equal(t, 162*time.Millisecond, GetFallInterval(200*time.Millisecond, 3))
	assert.Equal(t, MinFallInterval, GetFallInterval(200*time.Millisecond, 100))
	assert.Equal(t, MinFallInterval, GetFallInterval(10*time.Millisecond, 1))

	state := newTestState(t)
	state.Level = 3
	assert.Equal(t, 162*time.Millisecond, state.FallInterval())
}

// TestHardDrop_UntilGameOver はハードドロップを繰り返すと中央に積み上がってゲームオーバーになることを確認します。
func TestHardDrop_UntilGameOver(t *testing.T) {
	state := newTestState(t)
	end := testStart.Add(time.Minute)

	for i := 0; i < 200 && !state.IsGameOver(); i++ {
		_, err := ApplyPlayerInput(state, ActionHardDrop, end)
		require.NoError(t, err)
	}

	require.True(t, state.IsGameOver())
	assert.Equal(t, end, state.EndedAt)

	changed, err := ApplyPlayerInput(state, ActionHardDrop, end)
	assert.NoError(t, err)
	assert.False(t, changed)
	assert.False(t, AutoFall(state, end.Add(time.Hour)))
}
