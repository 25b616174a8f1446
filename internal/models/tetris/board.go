package tetris

const (
	DefaultBoardWidth  = 10 // テトリスボードの幅
	DefaultBoardHeight = 20 // テトリスボードの高さ
)

// Board は固定済みのブロックを保持するゲームボードです。
// cells[y][x] でアクセスします。yは行（0が最上段）、xは列です。
type Board struct {
	width  int
	height int
	cells  [][]Color
}

// NewBoard は全マスが空の width x height のボードを返します。
func NewBoard(width, height int) *Board {
	b := &Board{width: width, height: height, cells: make([][]Color, height)}
	for y := range b.cells {
		b.cells[y] = make([]Color, width)
	}
	return b
}

// Width はボードの幅を返します。
func (b *Board) Width() int { return b.width }

// Height はボードの高さを返します。
func (b *Board) Height() int { return b.height }

// InBounds は (x, y) がボードの範囲内かどうかを返します。
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// ReadCell は (x, y) の色を返します。範囲外は空として扱います。
func (b *Board) ReadCell(x, y int) Color {
	if !b.InBounds(x, y) {
		return ColorEmpty
	}
	return b.cells[y][x]
}

// WriteCell は (x, y) に色を書き込みます。
// ボード上端より上にはみ出したピースのマスなど、範囲外への書き込みは黙って無視されます。
func (b *Board) WriteCell(x, y int, c Color) {
	if !b.InBounds(x, y) {
		return
	}
	b.cells[y][x] = c
}

// IsOccupied は (x, y) が範囲内かつ空でない場合にtrueを返します。
func (b *Board) IsOccupied(x, y int) bool {
	return !b.ReadCell(x, y).IsEmpty()
}

// IsRowFull は y 行目のすべてのマスが埋まっているかどうかを返します。
func (b *Board) IsRowFull(y int) bool {
	if y < 0 || y >= b.height {
		return false
	}
	for _, c := range b.cells[y] {
		if c.IsEmpty() {
			return false
		}
	}
	return true
}

// ClearRow は y 行目を取り除き、最上段に空の行を挿入します。
// y より上の行は1段ずつ下にずれ、行数は変わりません。
func (b *Board) ClearRow(y int) {
	if y < 0 || y >= b.height {
		return
	}
	removed := b.cells[y]
	copy(b.cells[1:y+1], b.cells[:y])
	for x := range removed {
		removed[x] = ColorEmpty
	}
	b.cells[0] = removed
}

// ClearFullRows は揃った行をすべて消去し、消去した行数を返します。
// 上から順に最初の揃った行を探して消し、行番号がずれるため再び最上段から探し直します。
func (b *Board) ClearFullRows() int {
	cleared := 0
	for {
		full := -1
		for y := 0; y < b.height; y++ {
			if b.IsRowFull(y) {
				full = y
				break
			}
		}
		if full < 0 {
			return cleared
		}
		b.ClearRow(full)
		cleared++
	}
}

// Clone はボードのディープコピーを返します。
func (b *Board) Clone() *Board {
	nb := NewBoard(b.width, b.height)
	for y := range b.cells {
		copy(nb.cells[y], b.cells[y])
	}
	return nb
}
