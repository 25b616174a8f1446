package tetris

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fillRow は y 行目を x 以外すべて c で埋めます。x に -1 を渡すと行全体を埋めます。
func fillRow(b *Board, y, except int, c Color) {
	for x := 0; x < b.Width(); x++ {
		if x != except {
			b.WriteCell(x, y, c)
		}
	}
}

func TestBoard_WriteCellOutOfBounds(t *testing.T) {
	b := NewBoard(10, 20)

	b.WriteCell(-1, 0, ColorRed)
	b.WriteCell(0, -1, ColorRed)
	b.WriteCell(10, 0, ColorRed)
	b.WriteCell(0, 20, ColorRed)

	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			assert.Equal(t, ColorEmpty, b.ReadCell(x, y))
		}
	}
	assert.Equal(t, ColorEmpty, b.ReadCell(-5, -5))
}

func TestBoard_IsRowFull(t *testing.T) {
	b := NewBoard(10, 20)
	fillRow(b, 19, 3, ColorBlue)
	assert.False(t, b.IsRowFull(19))

	b.WriteCell(3, 19, ColorGreen)
	assert.True(t, b.IsRowFull(19))
	assert.False(t, b.IsRowFull(18))
	assert.False(t, b.IsRowFull(20))
}

func TestBoard_ClearRow(t *testing.T) {
	b := NewBoard(4, 5)
	b.WriteCell(0, 0, ColorRed)
	b.WriteCell(1, 1, ColorGreen)
	fillRow(b, 2, -1, ColorBlue)
	b.WriteCell(3, 3, ColorCyan)

	b.ClearRow(2)

	assert.Equal(t, 5, b.Height())
	for x := 0; x < 4; x++ {
		assert.Equal(t, ColorEmpty, b.ReadCell(x, 0), "row 0 must be empty")
	}
	assert.Equal(t, ColorRed, b.ReadCell(0, 1))
	assert.Equal(t, ColorGreen, b.ReadCell(1, 2))
	assert.Equal(t, ColorCyan, b.ReadCell(3, 3), "rows below the cleared one must not move")
}

func TestBoard_ClearRowTop(t *testing.T) {
	b := NewBoard(4, 4)
	fillRow(b, 0, -1, ColorRed)
	b.WriteCell(0, 1, ColorGreen)

	b.ClearRow(0)

	assert.False(t, b.IsRowFull(0))
	assert.Equal(t, ColorGreen, b.ReadCell(0, 1))
}

func TestBoard_ClearFullRows_Multiple(t *testing.T) {
	b := NewBoard(10, 20)
	b.WriteCell(0, 14, ColorMagenta)
	fillRow(b, 15, -1, ColorRed)
	b.WriteCell(1, 16, ColorYellow)
	fillRow(b, 17, -1, ColorRed)
	fillRow(b, 18, -1, ColorRed)
	b.WriteCell(2, 19, ColorCyan)

	cleared := b.ClearFullRows()

	assert.Equal(t, 3, cleared)
	assert.Equal(t, 20, b.Height())
	// 消えなかった行の相対的な順序が保たれている
	assert.Equal(t, ColorMagenta, b.ReadCell(0, 17))
	assert.Equal(t, ColorYellow, b.ReadCell(1, 18))
	assert.Equal(t, ColorCyan, b.ReadCell(2, 19))
	for y := 0; y < 17; y++ {
		for x := 0; x < 10; x++ {
			assert.Equal(t, ColorEmpty, b.ReadCell(x, y))
		}
	}
}

func TestBoard_ClearFullRows_None(t *testing.T) {
	b := NewBoard(10, 20)
	fillRow(b, 19, 0, ColorRed)

	assert.Equal(t, 0, b.ClearFullRows())
	assert.Equal(t, ColorRed, b.ReadCell(1, 19))
}

func TestBoard_Clone(t *testing.T) {
	b := NewBoard(4, 4)
	b.WriteCell(1, 1, ColorRed)

	c := b.Clone()
	c.WriteCell(1, 1, ColorBlue)

	assert.Equal(t, ColorRed, b.ReadCell(1, 1))
	assert.Equal(t, ColorBlue, c.ReadCell(1, 1))
}
