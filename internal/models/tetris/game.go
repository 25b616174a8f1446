package tetris

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize はボードが4x4フレームより小さい場合に返されます。
	ErrInvalidSize = errors.New("tetris: board must be at least 4x4")
	// ErrNilRandom は乱数源が渡されなかった場合に返されます。
	ErrNilRandom = errors.New("tetris: random source is required")
)

// Phase はゲームの進行状態です。
type Phase int

const (
	PhasePlaying Phase = iota
	PhasePaused
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhasePlaying:
		return "playing"
	case PhasePaused:
		return "paused"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// MarshalText はJSONでフェーズ名を使うためのものです。
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText はフェーズ名から Phase を復元します。
func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{PhasePlaying, PhasePaused, PhaseGameOver} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("不明なフェーズです: %q", text)
}

// Command は落下中のピースに対する横移動・回転の操作です。
type Command int

const (
	CommandLeft Command = iota
	CommandRight
	CommandRotate
)

// StepResult は Tick / HardDrop 1回分の結果です。
type StepResult struct {
	Moved        bool `json:"moved"`         // ピースが1段以上落下した
	Rows         int  `json:"rows"`          // 落下した段数
	Locked       bool `json:"locked"`        // ピースがボードに固定された
	LinesCleared int  `json:"lines_cleared"` // 固定によって消えた行数
	GameOver     bool `json:"game_over"`     // 次のピースが出現位置に置けずゲームオーバーになった
}

// Game は1ゲーム分の状態（ボード・落下中のピース・乱数源）を持つステートマシンです。
// 並行アクセスは想定しておらず、操作は呼び出し側で直列化する必要があります。
type Game struct {
	board        *Board
	figure       Figure
	generator    *Generator
	phase        Phase
	score        int
	linesCleared int
	piecesLocked int
}

// New は空のボードで新しいゲームを作成し、最初のピースを出現させます。
//
// Parameters:
//   width, height : ボードの大きさ（どちらも FrameSize 以上）
//   rng           : ピース生成に使う乱数源
// Returns:
//   *Game: 初期化されたゲーム
//   error: 大きさが不正か乱数源がnilの場合
func New(width, height int, rng RandomSource) (*Game, error) {
	if width < FrameSize || height < FrameSize {
		return nil, ErrInvalidSize
	}
	if rng == nil {
		return nil, ErrNilRandom
	}
	g := &Game{
		board:     NewBoard(width, height),
		generator: NewGenerator(rng),
		phase:     PhasePlaying,
	}
	g.spawn()
	return g, nil
}

// Width はボードの幅を返します。
func (g *Game) Width() int { return g.board.width }

// Height はボードの高さを返します。
func (g *Game) Height() int { return g.board.height }

// Phase は現在のフェーズを返します。
func (g *Game) Phase() Phase { return g.phase }

// Score は現在のスコア（消した行1つにつき1点）を返します。
func (g *Game) Score() int { return g.score }

// LinesCleared はこれまでに消した行数を返します。
func (g *Game) LinesCleared() int { return g.linesCleared }

// PiecesLocked はこれまでに固定したピースの数を返します。
func (g *Game) PiecesLocked() int { return g.piecesLocked }

// Figure は落下中のピースのコピーを返します。
func (g *Game) Figure() Figure { return g.figure }

// Cell は固定済みブロックの (x, y) の色を返します。
func (g *Game) Cell(x, y int) Color { return g.board.ReadCell(x, y) }

// Pause はプレイ中のゲームを一時停止します。
func (g *Game) Pause() bool {
	if g.phase != PhasePlaying {
		return false
	}
	g.phase = PhasePaused
	return true
}

// Resume は一時停止中のゲームを再開します。
func (g *Game) Resume() bool {
	if g.phase != PhasePaused {
		return false
	}
	g.phase = PhasePlaying
	return true
}

// ProcessCommand は横移動または回転を試みます。
// 配置できない場合や位置・向きが変わらない場合はfalseを返します。プレイ中以外は常にfalseです。
func (g *Game) ProcessCommand(cmd Command) bool {
	if g.phase != PhasePlaying {
		return false
	}
	f := g.figure
	rot, pos := f.Rotation, f.Pos
	switch cmd {
	case CommandLeft:
		pos.X--
	case CommandRight:
		pos.X++
	case CommandRotate:
		rot = rot.Next()
	default:
		return false
	}
	placed, ok := tryPlace(g.board, f.Type, rot, pos)
	if !ok {
		return false
	}
	// 壁際での横移動は蹴り戻しで元の位置に戻るだけなので、動かなかったものとして扱う
	if placed == f.Pos && rot == f.Rotation {
		return false
	}
	g.figure.Rotation = rot
	g.figure.Pos = placed
	return true
}

// Tick は重力で1段落下させます。落下できなければピースを固定し、
// ライン消去と次のピースの出現までをまとめて行います。
func (g *Game) Tick() StepResult {
	if g.phase != PhasePlaying {
		return StepResult{}
	}
	return g.step()
}

// HardDrop はピースが固定されるまで Tick と同じ落下を繰り返します。
func (g *Game) HardDrop() StepResult {
	if g.phase != PhasePlaying {
		return StepResult{}
	}
	var total StepResult
	for {
		r := g.step()
		if r.Moved {
			total.Moved = true
			total.Rows++
			continue
		}
		r.Moved = total.Moved
		r.Rows = total.Rows
		return r
	}
}

func (g *Game) step() StepResult {
	f := g.figure
	down := f.Pos
	down.Y++
	if placed, ok := tryPlace(g.board, f.Type, f.Rotation, down); ok {
		g.figure.Pos = placed
		return StepResult{Moved: true, Rows: 1}
	}
	return g.lock()
}

// lock は落下中のピースをボードに書き込み、ライン消去後に次のピースを出現させます。
func (g *Game) lock() StepResult {
	for _, c := range g.figure.Cells() {
		g.board.WriteCell(c.X, c.Y, g.figure.Color)
	}
	g.piecesLocked++

	cleared := g.board.ClearFullRows()
	g.linesCleared += cleared
	g.score += cleared

	g.spawn()
	return StepResult{
		Locked:       true,
		LinesCleared: cleared,
		GameOver:     g.phase == PhaseGameOver,
	}
}

// spawn は次のピースを出現位置に置きます。
// 出現位置で既存のブロックと重なる場合はゲームオーバーになります。
func (g *Game) spawn() {
	t, c := g.generator.Next()
	pos := SpawnOffset(t, g.board.width)
	g.figure = Figure{Type: t, Color: c, Pos: pos, Rotation: RotationSpawn}
	placed, ok := tryPlace(g.board, t, RotationSpawn, pos)
	if !ok {
		g.phase = PhaseGameOver
		return
	}
	g.figure.Pos = placed
}
