package tetris

// RandomSource はピース生成に使う乱数源です。*math/rand.Rand がそのまま満たします。
// テストではシード固定の *rand.Rand や、決まった値を返す実装を渡して再現性を確保します。
type RandomSource interface {
	Intn(n int) int
}

// Generator は出現させるピースの種類と色を決めます。
// 種類は7種から、色は空を除く6色からそれぞれ独立に一様な確率で選びます。
// 7-bagのような偏り防止はしないので、同じ種類が長く出ないこともあります。
type Generator struct {
	rng RandomSource
}

// NewGenerator は rng を乱数源とする Generator を返します。
func NewGenerator(rng RandomSource) *Generator {
	return &Generator{rng: rng}
}

// Next は次のピースの種類と色を返します。種類を先に、色を後に引きます。
func (g *Generator) Next() (PieceType, Color) {
	t := PieceType(g.rng.Intn(PieceTypeCount))
	c := Color(g.rng.Intn(HueCount) + 1)
	return t, c
}
