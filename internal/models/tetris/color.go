package tetris

import "fmt"

// Color はボード上の1マスが持つ色を表します。
// ColorEmpty は「空きマス」を意味する番兵値で、それ以外の6色がブロックの色です。
type Color int

const (
	ColorEmpty   Color = iota // 0: 空のマス
	ColorRed                  // 1: 赤
	ColorGreen                // 2: 緑
	ColorBlue                 // 3: 青
	ColorCyan                 // 4: シアン
	ColorMagenta              // 5: マゼンタ
	ColorYellow               // 6: 黄
)

// HueCount は空以外の色の数です。
const HueCount = 6

var colorNames = [...]string{
	ColorEmpty:   "empty",
	ColorRed:     "red",
	ColorGreen:   "green",
	ColorBlue:    "blue",
	ColorCyan:    "cyan",
	ColorMagenta: "magenta",
	ColorYellow:  "yellow",
}

// IsEmpty はマスが空かどうかを返します。
func (c Color) IsEmpty() bool {
	return c == ColorEmpty
}

// IsHue は c が6色のいずれかであればtrueを返します。
func (c Color) IsHue() bool {
	return c >= ColorRed && c <= ColorYellow
}

func (c Color) String() string {
	if c < ColorEmpty || int(c) >= len(colorNames) {
		return fmt.Sprintf("Color(%d)", int(c))
	}
	return colorNames[c]
}

// MarshalText はスナップショットをJSONで送る際に色名を使うためのものです。
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText は色名から Color を復元します。
func (c *Color) UnmarshalText(text []byte) error {
	for i, name := range colorNames {
		if name == string(text) {
			*c = Color(i)
			return nil
		}
	}
	return fmt.Errorf("不明な色です: %q", text)
}

// RGBA はピクセルバッファへ描画する際の色を返します。空のマスは不透明な黒です。
func (c Color) RGBA() [4]uint8 {
	switch c {
	case ColorRed:
		return [4]uint8{0xff, 0, 0, 0xff}
	case ColorGreen:
		return [4]uint8{0, 0xff, 0, 0xff}
	case ColorBlue:
		return [4]uint8{0, 0, 0xff, 0xff}
	case ColorCyan:
		return [4]uint8{0, 0xff, 0xff, 0xff}
	case ColorMagenta:
		return [4]uint8{0xff, 0, 0xff, 0xff}
	case ColorYellow:
		return [4]uint8{0xff, 0xff, 0, 0xff}
	default:
		return [4]uint8{0, 0, 0, 0xff}
	}
}
