package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/database"
)

const (
	defaultResultLimit = 50
	maxResultLimit     = 100
)

// ResultHandler はゲーム結果関連のハンドラーを管理する構造体です。
// 結果の登録は終了したゲームから SessionManager が行うので、ここでは読み取りのみ提供します。
type ResultHandler struct {
	resultRepo database.ResultRepository
}

// NewResultHandler は新しいResultHandlerインスタンスを作成します。
func NewResultHandler(resultRepo database.ResultRepository) *ResultHandler {
	return &ResultHandler{
		resultRepo: resultRepo,
	}
}

// GetTopResults は上位ランキングを取得するハンドラーです。
// GET /api/results?limit=50
func (h *ResultHandler) GetTopResults(w http.ResponseWriter, r *http.Request) {
	// limitパラメータを取得（デフォルト50、不正な値は無視）
	limit := defaultResultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= maxResultLimit {
			limit = parsedLimit
		}
	}

	results, err := h.resultRepo.GetTopResults(r.Context(), limit)
	if err != nil {
		log.Printf("[ResultHandler] ゲーム結果取得エラー: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "ゲーム結果取得に失敗しました")
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": results,
	})
}

// GetUserResult は指定したユーザーの最高記録と順位を取得するハンドラーです。
// GET /api/results/user/{userID}
func (h *ResultHandler) GetUserResult(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	if userID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "user_idが指定されていません")
		return
	}

	userResult, err := h.resultRepo.GetUserRanking(r.Context(), userID)
	if err != nil {
		log.Printf("[ResultHandler] ユーザー結果取得エラー: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "ユーザー結果取得に失敗しました")
		return
	}

	if userResult == nil {
		WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"result":  nil,
			"message": "ユーザーのスコアが見つかりません",
		})
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"result":  userResult,
	})
}
