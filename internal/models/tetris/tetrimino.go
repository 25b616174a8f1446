package tetris

import "fmt"

// FrameSize はすべてのテトリミノを全回転状態で囲める正方形フレームの一辺の長さです。
const FrameSize = 4

// PieceType はテトリミノの種類を表します。
type PieceType int

const (
	TypeI PieceType = iota // 0: I-ミノ (棒)
	TypeZ                  // 1: Z-ミノ
	TypeS                  // 2: S-ミノ
	TypeL                  // 3: L-ミノ
	TypeJ                  // 4: J-ミノ
	TypeO                  // 5: O-ミノ (正方形)
	TypeT                  // 6: T-ミノ
)

// PieceTypeCount はテトリミノの種類数です。
const PieceTypeCount = 7

// Rotation はテトリミノの回転状態を表します。
type Rotation int

const (
	RotationSpawn   Rotation = iota // 出現時の向き
	RotationLeft                    // 左向き
	RotationRight                   // 右向き
	RotationFlipped                 // 上下反転
)

// Next は1回の回転操作後の状態を返します。
// Spawn → Right → Flipped → Left → Spawn の4周期になります。
func (r Rotation) Next() Rotation {
	switch r {
	case RotationSpawn:
		return RotationRight
	case RotationRight:
		return RotationFlipped
	case RotationFlipped:
		return RotationLeft
	default:
		return RotationSpawn
	}
}

func (r Rotation) String() string {
	switch r {
	case RotationSpawn:
		return "spawn"
	case RotationLeft:
		return "left"
	case RotationRight:
		return "right"
	case RotationFlipped:
		return "flipped"
	default:
		return fmt.Sprintf("Rotation(%d)", int(r))
	}
}

// Occupancy は4x4フレーム内で占有されているマスを [y][x] で表します。
type Occupancy [FrameSize][FrameSize]bool

// Position はボード上の座標です。ピースがボード上端より上にある間は Y が負になります。
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// pieceShapes は各PieceTypeの各回転状態の形を文字列で定義します。
// 添字は [PieceType][Rotation] で、'X' が占有マスです。
var pieceShapes = [PieceTypeCount][4][FrameSize]string{
	TypeI: {
		RotationSpawn:   {".X..", ".X..", ".X..", ".X.."},
		RotationLeft:    {"....", "....", "XXXX", "...."},
		RotationRight:   {"....", "XXXX", "....", "...."},
		RotationFlipped: {"..X.", "..X.", "..X.", "..X."},
	},
	TypeZ: {
		RotationSpawn:   {"XX..", ".XX.", "....", "...."},
		RotationLeft:    {".X..", "XX..", "X...", "...."},
		RotationRight:   {"..X.", ".XX.", ".X..", "...."},
		RotationFlipped: {"....", "XX..", ".XX.", "...."},
	},
	TypeS: {
		RotationSpawn:   {".XX.", "XX..", "....", "...."},
		RotationLeft:    {"X...", "XX..", ".X..", "...."},
		RotationRight:   {".X..", ".XX.", "..X.", "...."},
		RotationFlipped: {"....", ".XX.", "XX..", "...."},
	},
	TypeL: {
		RotationSpawn:   {".X..", ".X..", ".XX.", "...."},
		RotationLeft:    {"..X.", "XXX.", "....", "...."},
		RotationRight:   {"....", "XXX.", "X...", "...."},
		RotationFlipped: {"XX..", ".X..", ".X..", "...."},
	},
	TypeJ: {
		RotationSpawn:   {".X..", ".X..", "XX..", "...."},
		RotationLeft:    {"....", "XXX.", "..X.", "...."},
		RotationRight:   {"X...", "XXX.", "....", "...."},
		RotationFlipped: {".XX.", ".X..", ".X..", "...."},
	},
	TypeO: {
		RotationSpawn:   {"XX..", "XX..", "....", "...."},
		RotationLeft:    {"XX..", "XX..", "....", "...."},
		RotationRight:   {"XX..", "XX..", "....", "...."},
		RotationFlipped: {"XX..", "XX..", "....", "...."},
	},
	TypeT: {
		RotationSpawn:   {"....", "XXX.", ".X..", "...."},
		RotationLeft:    {".X..", ".XX.", ".X..", "...."},
		RotationRight:   {".X..", "XX..", ".X..", "...."},
		RotationFlipped: {".X..", "XXX.", "....", "...."},
	},
}

// spawnRows は種類ごとの出現時のY座標です。背の高いピースはボードの上から「落ちてくる」ように負の値になります。
var spawnRows = [PieceTypeCount]int{
	TypeI: -2,
	TypeZ: 0,
	TypeS: 0,
	TypeL: -1,
	TypeJ: -1,
	TypeO: 0,
	TypeT: -1,
}

// occupancies は pieceShapes から一度だけ構築される参照テーブルです。
var occupancies = buildOccupancies()

func buildOccupancies() (table [PieceTypeCount][4]Occupancy) {
	for t := range pieceShapes {
		for r := range pieceShapes[t] {
			for y, row := range pieceShapes[t][r] {
				for x, ch := range row {
					table[t][r][y][x] = ch == 'X'
				}
			}
		}
	}
	return table
}

// OccupancyOf は指定した種類・回転状態の占有グリッドを返します。
// 戻り値は配列のコピーなので、呼び出し側が変更してもテーブルには影響しません。
func OccupancyOf(t PieceType, r Rotation) Occupancy {
	return occupancies[t][r]
}

// SpawnOffset は指定した種類のピースの出現位置を返します。
// X はボード中央の左寄り (width/2 - 1) に固定されます。
func SpawnOffset(t PieceType, boardWidth int) Position {
	return Position{X: boardWidth/2 - 1, Y: spawnRows[t]}
}

// StringToPieceType は文字列のテトリミノタイプ（"I", "O", "T"など）をPieceTypeに変換します。
func StringToPieceType(s string) (PieceType, bool) {
	switch s {
	case "I":
		return TypeI, true
	case "Z":
		return TypeZ, true
	case "S":
		return TypeS, true
	case "L":
		return TypeL, true
	case "J":
		return TypeJ, true
	case "O":
		return TypeO, true
	case "T":
		return TypeT, true
	default:
		return TypeI, false
	}
}

// PieceTypeToString はPieceTypeを文字列表現に変換します。
func PieceTypeToString(t PieceType) string {
	switch t {
	case TypeI:
		return "I"
	case TypeZ:
		return "Z"
	case TypeS:
		return "S"
	case TypeL:
		return "L"
	case TypeJ:
		return "J"
	case TypeO:
		return "O"
	case TypeT:
		return "T"
	default:
		return "?"
	}
}

func (t PieceType) String() string {
	return PieceTypeToString(t)
}

// MarshalText はJSONでピースの種類を "I" などの文字で表すためのものです。
func (t PieceType) MarshalText() ([]byte, error) {
	return []byte(PieceTypeToString(t)), nil
}

// UnmarshalText は "I" などの文字から PieceType を復元します。
func (t *PieceType) UnmarshalText(text []byte) error {
	pt, ok := StringToPieceType(string(text))
	if !ok {
		return fmt.Errorf("不明なテトリミノタイプです: %q", text)
	}
	*t = pt
	return nil
}
