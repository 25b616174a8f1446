package tetris

// Figure は現在落下中のテトリミノです。
// ロックされるたびに丸ごと新しい Figure に置き換えられます。
type Figure struct {
	Type     PieceType `json:"type"`
	Color    Color     `json:"color"`
	Pos      Position  `json:"pos"`
	Rotation Rotation  `json:"rotation"`
}

// Cells は現在の回転状態・位置で占有しているボード上の絶対座標を返します。
func (f Figure) Cells() []Position {
	return cellsAt(f.Type, f.Rotation, f.Pos)
}

// cellsAt は指定した種類・回転状態・位置で占有されるマスの絶対座標を返します。
func cellsAt(t PieceType, r Rotation, pos Position) []Position {
	occ := &occupancies[t][r]
	cells := make([]Position, 0, FrameSize)
	for y := 0; y < FrameSize; y++ {
		for x := 0; x < FrameSize; x++ {
			if occ[y][x] {
				cells = append(cells, Position{X: pos.X + x, Y: pos.Y + y})
			}
		}
	}
	return cells
}

// collision は配置候補の衝突分類です。
type collision int

const (
	collisionNone           collision = iota
	collisionLeft                     // 左の壁からはみ出す
	collisionRight                    // 右の壁からはみ出す
	collisionBottomOrPieces           // 底を突き抜けるか、既存のブロックと重なる
)

// classify は候補の配置をボードに対して判定します。
// 左右の壁を先に（左→右の順で）調べ、はみ出しがなければ底と既存ブロックとの重なりを調べます。
// ボードより上 (y < 0) のマスはブロックと重なることはありません。
func classify(b *Board, t PieceType, r Rotation, pos Position) collision {
	cells := cellsAt(t, r, pos)
	for _, c := range cells {
		if c.X < 0 {
			return collisionLeft
		}
	}
	for _, c := range cells {
		if c.X >= b.width {
			return collisionRight
		}
	}
	for _, c := range cells {
		if c.Y >= b.height {
			return collisionBottomOrPieces
		}
		if b.IsOccupied(c.X, c.Y) {
			return collisionBottomOrPieces
		}
	}
	return collisionNone
}

// tryPlace は回転状態 r・位置 pos への配置を試み、壁にはみ出す場合は横方向に蹴り戻します。
// 左にはみ出せば x+1、右にはみ出せば x-1 で再試行し、底か既存ブロックに当たった時点で拒否します。
// 試行回数はボード幅で打ち切るので、どんな形でも必ず終了します。
func tryPlace(b *Board, t PieceType, r Rotation, pos Position) (Position, bool) {
	for attempt := 0; attempt <= b.width; attempt++ {
		switch classify(b, t, r, pos) {
		case collisionNone:
			return pos, true
		case collisionLeft:
			pos.X++
		case collisionRight:
			pos.X--
		case collisionBottomOrPieces:
			return Position{}, false
		}
	}
	return Position{}, false
}
