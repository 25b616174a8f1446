package tetris

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
)

func TestNewPlayerGameState(t *testing.T) {
	cfg := DefaultGameConfig()
	cfg.Seed = 42

	state, err := NewPlayerGameState("test-user-1", cfg, testStart)
	require.NoError(t, err)

	// 基本的なフィールドの検証
	assert.Equal(t, "test-user-1", state.UserID)
	_, err = uuid.Parse(state.GameID)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), state.Seed)
	assert.Equal(t, 1, state.Level)
	assert.Equal(t, testStart, state.StartedAt)
	assert.True(t, state.EndedAt.IsZero())
	assert.False(t, state.IsGameOver())

	// ボードの初期化を確認
	assert.Equal(t, tetris.DefaultBoardWidth, state.Game().Width())
	assert.Equal(t, tetris.DefaultBoardHeight, state.Game().Height())
	assert.Equal(t, 0, state.Game().Score())

	// 時間関連フィールドの初期化を確認
	assert.Equal(t, testStart, state.lastFallTime)
	assert.Equal(t, DefaultTickInterval, state.FallInterval())
}

func TestNewPlayerGameState_SeedFromClock(t *testing.T) {
	cfg := DefaultGameConfig()
	cfg.TickInterval = 0

	state, err := NewPlayerGameState("u", cfg, testStart)
	require.NoError(t, err)

	assert.Equal(t, testStart.UnixNano(), state.Seed)
	assert.Equal(t, DefaultTickInterval, state.FallInterval())
}

func TestNewPlayerGameState_InvalidSize(t *testing.T) {
	cfg := DefaultGameConfig()
	cfg.Width = 2

	_, err := NewPlayerGameState("u", cfg, testStart)
	assert.ErrorIs(t, err, tetris.ErrInvalidSize)
}

// TestNewPlayerGameState_SameSeedSamePieces は同じシードなら同じ順番でピースが出ることを確認します。
func TestNewPlayerGameState_SameSeedSamePieces(t *testing.T) {
	cfg := DefaultGameConfig()
	cfg.Seed = 777

	a, err := NewPlayerGameState("a", cfg, testStart)
	require.NoError(t, err)
	b, err := NewPlayerGameState("b", cfg, testStart)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		fa, fb := a.Game().Figure(), b.Game().Figure()
		assert.Equal(t, fa.Type, fb.Type)
		assert.Equal(t, fa.Color, fb.Color)
		a.Game().HardDrop()
		b.Game().HardDrop()
	}
	assert.NotEqual(t, a.GameID, b.GameID)
}

func TestToLightweight(t *testing.T) {
	state := newTestState(t)

	lw := state.ToLightweight()

	assert.Equal(t, state.GameID, lw.GameID)
	assert.Equal(t, state.UserID, lw.UserID)
	assert.False(t, lw.Finished)
	assert.Equal(t, tetris.PhasePlaying, lw.Snapshot.Phase)
	assert.Equal(t, state.Game().Figure(), lw.Snapshot.Figure)

	data, err := json.Marshal(lw)
	require.NoError(t, err)

	var decoded LightweightPlayerState
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, lw.GameID, decoded.GameID)
	assert.Equal(t, lw.Snapshot.Cells, decoded.Snapshot.Cells)
	assert.Equal(t, tetris.PhasePlaying, decoded.Snapshot.Phase)

	summary := lw.Summary()
	assert.Equal(t, state.GameID, summary.GameID)
	assert.Equal(t, tetris.PhasePlaying, summary.Phase)
}

func TestToResult(t *testing.T) {
	state := newTestState(t)
	state.Game().HardDrop()
	state.EndedAt = testStart.Add(90 * time.Second)

	result := state.ToResult()

	assert.Equal(t, state.GameID, result.GameID)
	assert.Equal(t, "test-user", result.UserID)
	assert.Equal(t, 1, result.Pieces)
	assert.Equal(t, int64(90000), result.DurationMs)
	assert.Equal(t, time.UTC, result.CreatedAt.Location())
}
