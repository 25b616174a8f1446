package tetris

// SnapshotMargin はスナップショットの左右に付ける余白の列数です。
// 4x4フレームがボード外にはみ出しても描画できる幅を確保します。
const SnapshotMargin = FrameSize

// Snapshot は描画用の読み取り専用ビューです。
// 固定済みブロックの上に落下中のピースを重ねたもので、左右に SnapshotMargin 列ずつの余白を持ちます。
// 余白のマスは常に空です。
type Snapshot struct {
	Width  int     `json:"width"`  // ボードの幅（余白を含まない）
	Height int     `json:"height"` // ボードの高さ
	Margin int     `json:"margin"` // 左右それぞれの余白の列数
	Cells  []Color `json:"cells"`  // 行優先、Height x (Width + 2*Margin)
	Figure Figure  `json:"figure"`
	Phase  Phase   `json:"phase"`
	Score  int     `json:"score"`
	Lines  int     `json:"lines"`
	Pieces int     `json:"pieces"`
}

// Stride は余白を含めた1行の列数です。
func (s Snapshot) Stride() int {
	return s.Width + 2*s.Margin
}

// At は余白を含めた座標 (col, row) の色を返します。範囲外は空です。
func (s Snapshot) At(col, row int) Color {
	stride := s.Stride()
	if col < 0 || col >= stride || row < 0 || row >= s.Height {
		return ColorEmpty
	}
	return s.Cells[row*stride+col]
}

// BoardAt はボード座標 (x, y) の色を返します。
func (s Snapshot) BoardAt(x, y int) Color {
	if x < 0 || x >= s.Width {
		return ColorEmpty
	}
	return s.At(x+s.Margin, y)
}

// Snapshot は現在の盤面と落下中のピースを合成したビューを返します。
// 返り値は Game と内部状態を共有しないので、別のゴルーチンへ渡しても安全です。
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Width:  g.board.width,
		Height: g.board.height,
		Margin: SnapshotMargin,
		Figure: g.figure,
		Phase:  g.phase,
		Score:  g.score,
		Lines:  g.linesCleared,
		Pieces: g.piecesLocked,
	}
	stride := s.Stride()
	s.Cells = make([]Color, s.Height*stride)
	for y := 0; y < s.Height; y++ {
		copy(s.Cells[y*stride+s.Margin:], g.board.cells[y])
	}
	// ゲームオーバー時のピースは出現位置で重なっているので描画しない
	if g.phase == PhaseGameOver {
		return s
	}
	for _, c := range g.figure.Cells() {
		if g.board.InBounds(c.X, c.Y) {
			s.Cells[c.Y*stride+c.X+s.Margin] = g.figure.Color
		}
	}
	return s
}
