package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket" // WebSocketライブラリ

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris" // SessionManager をインポート
)

// GameHandler は進行中のゲームの一覧・状態取得・観戦用WebSocket接続を処理します。
// 観戦者はゲームを操作できません。入力はローカルの端末からのみ受け付けます。
type GameHandler struct {
	sessionManager *tetris.SessionManager // ゲームセッションの管理サービス
	upgrader       websocket.Upgrader
}

// NewGameHandler は新しい GameHandler インスタンスを作成します。
//
// Parameters:
//   sm             : セッションマネージャーへのポインタ
//   allowedOrigins : WebSocket接続を許可するOrigin（空または "*" を含む場合はすべて許可）
// Returns:
//   *GameHandler: 新しく作成された GameHandler のポインタ
func NewGameHandler(sm *tetris.SessionManager, allowedOrigins []string) *GameHandler {
	return &GameHandler{
		sessionManager: sm,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker は許可リストに基づいてクロスオリジンのWebSocket接続を判定する関数を返します。
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// ブラウザ以外のクライアント
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// WriteErrorResponse はエラーレスポンスをJSON形式で書き込みます。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// WriteJSONResponse はJSONレスポンスを書き込みます。
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[Handlers] JSONエンコードエラー: %v", err)
	}
}

// ListGames は進行中のゲームの概要一覧を返します。
// GET /api/games
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"games":   h.sessionManager.ListSessions(),
	})
}

// GetGame は特定のゲームの現在の状態を返します。
// GET /api/games/{gameID}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameID"]
	if gameID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "ゲームIDが必要です")
		return
	}

	state, err := h.sessionManager.GetSnapshot(gameID)
	if errors.Is(err, tetris.ErrSessionNotFound) {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたゲームは見つかりませんでした")
		return
	}
	if err != nil {
		log.Printf("[GameHandler] Failed to get snapshot for game %s: %v", gameID, err)
		WriteErrorResponse(w, http.StatusInternalServerError, "ゲーム状態の取得に失敗しました")
		return
	}

	WriteJSONResponse(w, http.StatusOK, state)
}

// Spectate はHTTP接続をWebSocketプロトコルにアップグレードし、
// ゲーム状態の配信をセッションマネージャーに引き渡します。
// GET /ws/games/{gameID}
func (h *GameHandler) Spectate(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameID"]
	if gameID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "WebSocket接続にはゲームIDが必要です")
		return
	}

	// アップグレード前に存在確認して、存在しなければ通常のHTTPエラーを返す
	if _, err := h.sessionManager.GetSnapshot(gameID); err != nil {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたゲームは見つかりませんでした")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[GameHandler] Failed to upgrade to websocket for game %s: %v", gameID, err)
		return // アップグレード失敗時はエラーログのみ
	}
	log.Printf("[GameHandler] WebSocket upgraded for game %s.", gameID)

	// 確認後にゲームが終了している可能性があるので、登録失敗時はコネクションを閉じる
	if err := h.sessionManager.RegisterSpectator(gameID, conn); err != nil {
		log.Printf("[GameHandler] Failed to register spectator to game %s: %v", gameID, err)
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game not found"))
		conn.Close()
		return
	}
	// readPump と writePump は RegisterSpectator 内で開始されるので、ここでは何もしない
}
