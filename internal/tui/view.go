package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
	gameservice "github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

const (
	boardXOffset = 2
	boardYOffset = 1
	cellWidth    = 2 // 1マスを端末の2列で描く
)

var (
	styleBorder = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorLightGray)
	styleBoard  = tcell.StyleDefault.Foreground(tcell.ColorDarkGray).Background(tcell.ColorBlack)
)

// View はスナップショットを端末に描画します。
type View struct {
	screen tcell.Screen
}

// NewView は screen に描画する View を作成します。
func NewView(screen tcell.Screen) *View {
	return &View{screen: screen}
}

// cellColor はボードの色を端末の色に変換します。
func cellColor(c tetris.Color) tcell.Color {
	rgba := c.RGBA()
	return tcell.NewRGBColor(int32(rgba[0]), int32(rgba[1]), int32(rgba[2]))
}

// CellOrigin は盤面の (x, y) が描かれる端末上の左端の座標を返します。
func CellOrigin(x, y int) (int, int) {
	return boardXOffset + cellWidth + x*cellWidth, boardYOffset + 1 + y
}

// Resize は端末の大きさが変わったときに画面を同期し直します。
func (view *View) Resize() {
	view.screen.Sync()
}

// Draw は状態全体を描き直して画面に反映します。
func (view *View) Draw(state *gameservice.LightweightPlayerState) {
	view.screen.Clear()
	snapshot := state.Snapshot

	view.drawBoardBorder(snapshot.Width, snapshot.Height)
	view.drawCells(snapshot)
	view.drawTexts(state)

	switch {
	case snapshot.Phase == tetris.PhaseGameOver:
		view.drawTextCenter(snapshot, snapshot.Height/2, " GAME OVER ")
		view.drawTextCenter(snapshot, snapshot.Height/2+2, " any key ")
	case snapshot.Phase == tetris.PhasePaused:
		view.drawTextCenter(snapshot, snapshot.Height/2, " Paused ")
	case state.Finished:
		view.drawTextCenter(snapshot, snapshot.Height/2, " FINISHED ")
	}

	view.screen.Show()
}

// drawBoardBorder は盤面の枠を描きます。枠は左右2列、上下1行です。
func (view *View) drawBoardBorder(width, height int) {
	xEnd := boardXOffset + width*cellWidth + 2*cellWidth
	yEnd := boardYOffset + height + 2
	for x := boardXOffset; x < xEnd; x++ {
		for y := boardYOffset; y < yEnd; y++ {
			if x < boardXOffset+cellWidth || x >= xEnd-cellWidth || y == boardYOffset || y == yEnd-1 {
				view.screen.SetContent(x, y, ' ', nil, styleBorder)
			}
		}
	}
}

// drawCells はスナップショットの各マスを描きます。
// 左右の余白列は常に空なので、盤面の範囲だけを描けば十分です。
func (view *View) drawCells(snapshot tetris.Snapshot) {
	for y := 0; y < snapshot.Height; y++ {
		for x := 0; x < snapshot.Width; x++ {
			sx, sy := CellOrigin(x, y)
			c := snapshot.BoardAt(x, y)
			if c.IsEmpty() {
				view.screen.SetContent(sx, sy, ' ', nil, styleBoard)
				view.screen.SetContent(sx+1, sy, '.', nil, styleBoard)
				continue
			}
			color := cellColor(c)
			style := tcell.StyleDefault.Foreground(color).Background(color)
			view.screen.SetContent(sx, sy, '█', nil, style)
			view.screen.SetContent(sx+1, sy, '█', nil, style)
		}
	}
}

// drawTexts はスコアなどの情報と操作説明を盤面の右側に描きます。
func (view *View) drawTexts(state *gameservice.LightweightPlayerState) {
	xOffset := boardXOffset + state.Snapshot.Width*cellWidth + 2*cellWidth + 3
	yOffset := boardYOffset

	view.drawText(xOffset, yOffset, "PLAYER:", tcell.ColorLightGray, tcell.ColorDarkBlue)
	view.drawText(xOffset+8, yOffset, state.UserID, tcell.ColorWhite, tcell.ColorBlack)
	yOffset += 2

	rows := []struct {
		label string
		value int
	}{
		{"SCORE:", state.Snapshot.Score},
		{"LINES:", state.Snapshot.Lines},
		{"LEVEL:", state.Level},
		{"PIECES:", state.Snapshot.Pieces},
	}
	for _, row := range rows {
		view.drawText(xOffset, yOffset, row.label, tcell.ColorLightGray, tcell.ColorDarkBlue)
		view.drawText(xOffset+8, yOffset, fmt.Sprintf("%7d", row.value), tcell.ColorBlack, tcell.ColorLightGray)
		yOffset += 2
	}

	for _, line := range helpLines {
		view.drawText(xOffset, yOffset, line, tcell.ColorLightGray, tcell.ColorBlack)
		yOffset++
	}
}

// drawText draws the provided text
func (view *View) drawText(x int, y int, text string, fg tcell.Color, bg tcell.Color) {
	style := tcell.StyleDefault.Foreground(fg).Background(bg)
	index := 0
	for _, char := range text {
		view.screen.SetContent(x+index, y, char, nil, style)
		index++
	}
}

// drawTextCenter draws text in the center of the board
func (view *View) drawTextCenter(snapshot tetris.Snapshot, row int, text string) {
	length := len([]rune(text))
	x := boardXOffset + cellWidth + (snapshot.Width*cellWidth-length)/2
	view.drawText(x, boardYOffset+1+row, text, tcell.ColorWhite, tcell.ColorBlack)
}
