package tui

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gdamore/tcell/v2"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models"
	gameservice "github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

// Controller は端末からゲームを操作するために必要な SessionManager の機能です。
type Controller interface {
	SubmitInput(gameID, action string) (bool, error)
	Subscribe(gameID string) (*gameservice.Subscription, error)
	Unsubscribe(sub *gameservice.Subscription)
	EndGameSession(gameID string) (*models.Result, error)
}

// Play は gameID のゲームを screen 上で遊びます。
// キー入力を Controller に送り、届いた状態を描画します。ゲームオーバー後は何かキーを押すまで最後の画面を表示します。
// 'q' で終了した場合や ctx がキャンセルされた場合はゲームを終了させます。
//
// Returns:
//   *LightweightPlayerState: 最後に描画した状態
//   error: 購読に失敗した場合
func Play(ctx context.Context, screen tcell.Screen, ctrl Controller, gameID string) (*gameservice.LightweightPlayerState, error) {
	events := make(chan tcell.Event, 16)
	stop := make(chan struct{})
	defer close(stop)
	go pollEvents(screen, events, stop)

	return play(ctx, NewView(screen), events, ctrl, gameID)
}

// pollEvents は screen のイベントを events に転送します。screen.Fini で PollEvent が nil を返すと終了します。
func pollEvents(screen tcell.Screen, events chan<- tcell.Event, stop <-chan struct{}) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-stop:
			return
		}
	}
}

func play(ctx context.Context, view *View, events <-chan tcell.Event, ctrl Controller, gameID string) (*gameservice.LightweightPlayerState, error) {
	sub, err := ctrl.Subscribe(gameID)
	if err != nil {
		return nil, fmt.Errorf("ゲームの購読に失敗しました: %w", err)
	}
	defer ctrl.Unsubscribe(sub)

	var last *gameservice.LightweightPlayerState
	updates := sub.C
	quitting := false
	finished := false

	for {
		select {
		case <-ctx.Done():
			endGame(ctrl, gameID)
			return last, nil

		case state, ok := <-updates:
			if !ok {
				// ゲームが終了して購読が閉じられた
				updates = nil
				finished = true
				if quitting || last == nil {
					return last, nil
				}
				continue
			}
			last = state
			view.Draw(state)

		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				view.Resize()
				if last != nil {
					view.Draw(last)
				}
			case *tcell.EventKey:
				if finished {
					return last, nil
				}
				action := ActionForKey(ev.Key(), ev.Rune())
				switch action {
				case "":
				case ActionQuit:
					quitting = true
					endGame(ctrl, gameID)
				default:
					if quitting {
						continue
					}
					if _, err := ctrl.SubmitInput(gameID, action); err != nil && !errors.Is(err, gameservice.ErrSessionNotFound) {
						log.Printf("[TUI] Failed to submit %s for game %s: %v", action, gameID, err)
					}
				}
			}
		}
	}
}

func endGame(ctrl Controller, gameID string) {
	_, err := ctrl.EndGameSession(gameID)
	if err != nil && !errors.Is(err, gameservice.ErrSessionNotFound) && !errors.Is(err, gameservice.ErrManagerClosed) {
		log.Printf("[TUI] Failed to end game %s: %v", gameID, err)
	}
}
