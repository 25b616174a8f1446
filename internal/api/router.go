package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/api/handlers"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

// Dependencies はルーターの構築に必要なサービスをまとめたものです。
type Dependencies struct {
	SessionManager  *tetris.SessionManager
	DatabaseService *database.DatabaseService  // nilなら結果APIは登録しない
	ResultRepo      database.ResultRepository // nilなら結果APIは登録しない
	AllowedOrigins  []string
}

// NewRouter は観戦・結果取得用のHTTPハンドラーを組み立てます。
// ゲームを操作するエンドポイントはありません。
func NewRouter(deps Dependencies) http.Handler {
	r := mux.NewRouter()

	publicHandler := handlers.NewPublicHandler(deps.DatabaseService)
	r.HandleFunc("/api/health", publicHandler.Health).Methods("GET")

	if deps.ResultRepo != nil {
		resultHandler := handlers.NewResultHandler(deps.ResultRepo)
		r.HandleFunc("/api/results", resultHandler.GetTopResults).Methods("GET")
		r.HandleFunc("/api/results/user/{userID}", resultHandler.GetUserResult).Methods("GET")
	}

	if deps.SessionManager != nil {
		gameHandler := handlers.NewGameHandler(deps.SessionManager, deps.AllowedOrigins)
		r.HandleFunc("/api/games", gameHandler.ListGames).Methods("GET")
		r.HandleFunc("/api/games/{gameID}", gameHandler.GetGame).Methods("GET")
		// ブラウザのWebSocketにはCORSが効かないので、Originの確認は Upgrader 側で行う
		r.HandleFunc("/ws/games/{gameID}", gameHandler.Spectate)
	}

	return middleware.CORSHandler(deps.AllowedOrigins)(r)
}
