package tui

import (
	"github.com/gdamore/tcell/v2"

	gameservice "github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

// ActionQuit は端末側でだけ扱う終了操作です。SessionManager には送りません。
const ActionQuit = "quit"

// ActionForKey はキー入力をゲームの操作名に変換します。
// 割り当てのないキーは空文字列を返します。
func ActionForKey(key tcell.Key, ch rune) string {
	switch key {
	case tcell.KeyLeft:
		return gameservice.ActionMoveLeft
	case tcell.KeyRight:
		return gameservice.ActionMoveRight
	case tcell.KeyUp:
		return gameservice.ActionRotate
	case tcell.KeyDown:
		return gameservice.ActionSoftDrop
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit
	case tcell.KeyRune:
		switch ch {
		case 'h', 'a':
			return gameservice.ActionMoveLeft
		case 'l', 'd':
			return gameservice.ActionMoveRight
		case 'x', 'k', 'w':
			return gameservice.ActionRotate
		case 'j', 's':
			return gameservice.ActionSoftDrop
		case ' ':
			return gameservice.ActionHardDrop
		case 'p':
			return gameservice.ActionTogglePause
		case 'q':
			return ActionQuit
		}
	}
	return ""
}

var helpLines = []string{
	"←/h   - left",
	"→/l   - right",
	"↑/x   - rotate",
	"↓/j   - soft drop",
	"sbar  - hard drop",
	"p     - pause",
	"q     - quit",
}
