package tetris

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket" // WebSocketライブラリのインポート

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models"
)

var (
	// ErrSessionNotFound は指定したゲームIDのセッションが存在しない場合に返されます。
	ErrSessionNotFound = errors.New("game session not found")
	// ErrManagerClosed は SessionManager が停止した後に操作した場合に返されます。
	ErrManagerClosed = errors.New("session manager is closed")
)

const (
	defaultTickResolution = 10 * time.Millisecond // 自動落下判定の周期
	resultSaveTimeout     = 5 * time.Second
	subscriptionBuffer    = 8
	clientSendBuffer      = 64
)

// Client は観戦用のWebSocket接続を持つ単一のクライアントを表します。
// 観戦者は状態を受け取るだけで、ゲームを操作することはできません。
type Client struct {
	ID     string          // クライアントごとに振られるID
	GameID string          // 観戦しているゲームのID
	Conn   *websocket.Conn // クライアントとの実際のWebSocketコネクション
	Send   chan []byte     // クライアントへメッセージを送信するためのバッファ付きチャネル
	closed bool            // チャネルが閉じられたかどうかのフラグ
	mu     sync.Mutex      // closedフラグ保護用
}

// SafeSend は安全にチャネルにメッセージを送信します（closedチェック付き）
func (c *Client) SafeSend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false // 既に閉じられている
	}

	select {
	case c.Send <- message:
		return true // 送信成功
	default:
		return false // チャネルがフル
	}
}

// SafeClose は安全にチャネルを閉じます
func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// Subscription はローカルの描画処理がゲーム状態の更新を受け取るための購読です。
// C には更新のたびに最新の状態が届き、ゲームが終了すると最後の状態を送ったあとで閉じられます。
// 受信が追いつかない場合は古い状態から捨てられます。
type Subscription struct {
	GameID string
	C      <-chan *LightweightPlayerState

	ch     chan *LightweightPlayerState
	closed bool
	mu     sync.Mutex
}

func newSubscription(gameID string) *Subscription {
	ch := make(chan *LightweightPlayerState, subscriptionBuffer)
	return &Subscription{GameID: gameID, C: ch, ch: ch}
}

// deliver は最新の状態を送ります。バッファが埋まっていれば最も古いものを捨てます。
func (s *Subscription) deliver(state *LightweightPlayerState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- state:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		close(s.ch)
		s.closed = true
	}
}

// PlayerInputEvent はプレイヤーの操作入力を表す構造体です。
type PlayerInputEvent struct {
	GameID string `json:"game_id"` // 操作対象のゲームID
	Action string `json:"action"`  // "move_left", "move_right", "rotate", "hard_drop" など

	reply chan inputReply
}

type inputReply struct {
	changed bool
	err     error
}

type createRequest struct {
	userID string
	config GameConfig
	reply  chan createReply
}

type createReply struct {
	state *LightweightPlayerState
	err   error
}

type registerRequest struct {
	client *Client
	reply  chan error
}

type subscribeRequest struct {
	sub   *Subscription
	reply chan error
}

type endRequest struct {
	gameID string
	reply  chan endReply
}

type endReply struct {
	result *models.Result
	err    error
}

// session はイベントループが所有する1ゲーム分の情報です。
type session struct {
	state         *PlayerGameState
	subscriptions map[*Subscription]struct{}
	clients       map[*Client]struct{}
}

// SessionManager はゲームセッションと観戦クライアントの全体を管理します。
// すべてのゲーム操作（入力と自動落下）は Run のイベントループ上で1つずつ実行されるため、
// コアのゲーム状態が同時に変更されることはありません。
// 読み取り側には、ループが変更のたびに作る変更不可の LightweightPlayerState を渡します。
type SessionManager struct {
	sessions map[string]*session // gameID -> session (イベントループ専用)

	published map[string]*LightweightPlayerState // gameID -> 最新の状態
	mu        sync.RWMutex                       // published へのアクセスを保護するためのRWMutex

	create      chan createRequest
	inputEvents chan PlayerInputEvent
	register    chan registerRequest
	unregister  chan *Client
	subscribe   chan subscribeRequest
	unsubscribe chan *Subscription
	end         chan endRequest
	quit        chan struct{}
	quitOnce    sync.Once
	done        chan struct{}

	results        database.ResultRepository // nilの場合は結果を保存しない
	now            func() time.Time
	tickResolution time.Duration
	ticks          <-chan time.Time // テスト用。nilならtickResolution周期のTickerを使う
}

// NewSessionManager は新しい SessionManager を作成します。
// イベントループは Run を呼び出すまで開始されません。
//
// Parameters:
//   results : 終了したゲームの結果を保存するリポジトリ（nilなら保存しない）
// Returns:
//   *SessionManager: 初期化されたセッションマネージャーのポインタ
func NewSessionManager(results database.ResultRepository) *SessionManager {
	return &SessionManager{
		sessions:       make(map[string]*session),
		published:      make(map[string]*LightweightPlayerState),
		create:         make(chan createRequest),
		inputEvents:    make(chan PlayerInputEvent),
		register:       make(chan registerRequest),
		unregister:     make(chan *Client, 16),
		subscribe:      make(chan subscribeRequest),
		unsubscribe:    make(chan *Subscription, 16),
		end:            make(chan endRequest),
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
		results:        results,
		now:            time.Now,
		tickResolution: defaultTickResolution,
	}
}

// Done は Run が終了すると閉じられるチャネルを返します。
func (sm *SessionManager) Done() <-chan struct{} {
	return sm.done
}

// Run は SessionManager のメインイベントループです。
// セッションの作成・終了、プレイヤー入力、自動落下、観戦者の登録/解除をすべてこのゴルーチンで処理します。
// ctx がキャンセルされるか Shutdown が呼ばれると、進行中のゲームを終了させてから戻ります。
func (sm *SessionManager) Run(ctx context.Context) error {
	defer close(sm.done)

	ticks := sm.ticks
	if ticks == nil {
		ticker := time.NewTicker(sm.tickResolution)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case req := <-sm.create:
			state, err := sm.handleCreate(req.userID, req.config)
			req.reply <- createReply{state: state, err: err}

		case event := <-sm.inputEvents:
			changed, err := sm.handleInput(event.GameID, event.Action)
			event.reply <- inputReply{changed: changed, err: err}

		case req := <-sm.register:
			req.reply <- sm.handleRegister(req.client)

		case client := <-sm.unregister:
			if sess, ok := sm.sessions[client.GameID]; ok {
				if _, ok := sess.clients[client]; ok {
					delete(sess.clients, client)
					client.SafeClose()
					log.Printf("[SessionManager] Spectator unregistered: %s (Game: %s)", client.ID, client.GameID)
				}
			}

		case req := <-sm.subscribe:
			sess, ok := sm.sessions[req.sub.GameID]
			if !ok {
				req.reply <- ErrSessionNotFound
				continue
			}
			sess.subscriptions[req.sub] = struct{}{}
			req.sub.deliver(sess.state.ToLightweight())
			req.reply <- nil

		case sub := <-sm.unsubscribe:
			if sess, ok := sm.sessions[sub.GameID]; ok {
				delete(sess.subscriptions, sub)
			}
			sub.close()

		case req := <-sm.end:
			sess, ok := sm.sessions[req.gameID]
			if !ok {
				req.reply <- endReply{err: ErrSessionNotFound}
				continue
			}
			req.reply <- endReply{result: sm.finish(sess)}

		case <-ticks:
			now := sm.now()
			for _, sess := range sm.sessions {
				if AutoFall(sess.state, now) {
					sm.afterChange(sess)
				}
			}

		case <-ctx.Done():
			sm.finishAll()
			return nil

		case <-sm.quit:
			// シャットダウンシグナルを受信したらメインループを終了
			log.Printf("[SessionManager] シャットダウンシグナルを受信、メインループを終了します")
			sm.finishAll()
			return nil
		}
	}
}

func (sm *SessionManager) handleCreate(userID string, cfg GameConfig) (*LightweightPlayerState, error) {
	state, err := NewPlayerGameState(userID, cfg, sm.now())
	if err != nil {
		return nil, err
	}
	sess := &session{
		state:         state,
		subscriptions: make(map[*Subscription]struct{}),
		clients:       make(map[*Client]struct{}),
	}
	sm.sessions[state.GameID] = sess
	log.Printf("[SessionManager] Created new game session: %s for player %s (seed=%d)", state.GameID, userID, state.Seed)
	return sm.publish(sess), nil
}

func (sm *SessionManager) handleInput(gameID, action string) (bool, error) {
	sess, ok := sm.sessions[gameID]
	if !ok {
		return false, ErrSessionNotFound
	}
	changed, err := ApplyPlayerInput(sess.state, action, sm.now())
	if err != nil || !changed {
		return false, err
	}
	sm.afterChange(sess)
	return true, nil
}

// afterChange は状態が変わったセッションを公開し、ゲームオーバーなら終了させます。
func (sm *SessionManager) afterChange(sess *session) {
	if sess.state.IsGameOver() {
		sm.finish(sess)
		return
	}
	sm.publish(sess)
}

func (sm *SessionManager) handleRegister(client *Client) error {
	sess, ok := sm.sessions[client.GameID]
	if !ok {
		return ErrSessionNotFound
	}
	sess.clients[client] = struct{}{}
	log.Printf("[SessionManager] Spectator registered: %s (Game: %s)", client.ID, client.GameID)

	// 登録直後に現在の状態を送る
	if stateJSON, err := json.Marshal(sess.state.ToLightweight()); err == nil {
		client.SafeSend(stateJSON)
	}
	return nil
}

// publish は現在の状態を読み取り用に公開し、購読者と観戦者に送信します。
func (sm *SessionManager) publish(sess *session) *LightweightPlayerState {
	lightweight := sess.state.ToLightweight()

	sm.mu.Lock()
	sm.published[lightweight.GameID] = lightweight
	sm.mu.Unlock()

	for sub := range sess.subscriptions {
		sub.deliver(lightweight)
	}

	if len(sess.clients) > 0 {
		stateJSON, err := json.Marshal(lightweight)
		if err != nil {
			log.Printf("[SessionManager] Error marshaling game state for game %s: %v", lightweight.GameID, err)
			return lightweight
		}
		for client := range sess.clients {
			if !client.SafeSend(stateJSON) {
				log.Printf("[SessionManager] Failed to send to spectator %s (channel closed or full)", client.ID)
			}
		}
	}
	return lightweight
}

// finish はゲームセッションを終了させ、結果をデータベースに記録し、セッションをクリーンアップします。
// 1つもピースを固定していないゲームは記録しません。
func (sm *SessionManager) finish(sess *session) *models.Result {
	state := sess.state
	if state.EndedAt.IsZero() {
		state.EndedAt = sm.now()
	}
	log.Printf("[SessionManager] Game session %s ended (score=%d).", state.GameID, state.game.Score())

	// 購読者と観戦者に最後の状態を送る
	sm.publish(sess)

	result := state.ToResult()
	if sm.results != nil && result.Pieces > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), resultSaveTimeout)
		if err := sm.results.CreateResult(ctx, result); err != nil {
			log.Printf("[SessionManager] Failed to save result for game %s: %v", state.GameID, err)
		}
		cancel()
	}

	for sub := range sess.subscriptions {
		sub.close()
	}
	for client := range sess.clients {
		client.SafeClose()
	}

	delete(sm.sessions, state.GameID)
	sm.mu.Lock()
	delete(sm.published, state.GameID)
	sm.mu.Unlock()
	log.Printf("[SessionManager] Removed session %s from sessions map", state.GameID)
	return result
}

func (sm *SessionManager) finishAll() {
	for _, sess := range sm.sessions {
		sm.finish(sess)
	}
}

// CreateSession は新しいゲームセッションを作成し、最初の状態を返します。
//
// Parameters:
//   userID : プレイヤーのユーザーID
//   cfg    : ゲーム設定
// Returns:
//   *LightweightPlayerState: 作成直後のゲーム状態（GameIDを含む）
//   error : 設定が不正な場合やマネージャーが停止している場合
func (sm *SessionManager) CreateSession(userID string, cfg GameConfig) (*LightweightPlayerState, error) {
	reply := make(chan createReply, 1)
	select {
	case sm.create <- createRequest{userID: userID, config: cfg, reply: reply}:
	case <-sm.done:
		return nil, ErrManagerClosed
	}
	r := <-reply
	return r.state, r.err
}

// SubmitInput はプレイヤーの操作をイベントループで適用し、状態が変わったかどうかを返します。
func (sm *SessionManager) SubmitInput(gameID, action string) (bool, error) {
	if !IsValidAction(action) {
		return false, ErrUnknownAction
	}
	reply := make(chan inputReply, 1)
	select {
	case sm.inputEvents <- PlayerInputEvent{GameID: gameID, Action: action, reply: reply}:
	case <-sm.done:
		return false, ErrManagerClosed
	}
	r := <-reply
	return r.changed, r.err
}

// Subscribe は指定したゲームの状態更新を購読します。
// 購読直後に現在の状態が1つ届きます。
func (sm *SessionManager) Subscribe(gameID string) (*Subscription, error) {
	sub := newSubscription(gameID)
	reply := make(chan error, 1)
	select {
	case sm.subscribe <- subscribeRequest{sub: sub, reply: reply}:
	case <-sm.done:
		return nil, ErrManagerClosed
	}
	if err := <-reply; err != nil {
		return nil, err
	}
	return sub, nil
}

// Unsubscribe は購読を解除し、チャネルを閉じます。
func (sm *SessionManager) Unsubscribe(sub *Subscription) {
	select {
	case sm.unsubscribe <- sub:
	case <-sm.done:
		sub.close()
	}
}

// RegisterSpectator は観戦用のWebSocketクライアントを登録し、読み書きのゴルーチンを開始します。
// 観戦者から届いたメッセージはすべて読み捨てます。
//
// Parameters:
//   gameID : 観戦するゲームのID
//   conn   : WebSocketコネクション
// Returns:
//   error: ゲームが存在しない場合は ErrSessionNotFound
func (sm *SessionManager) RegisterSpectator(gameID string, conn *websocket.Conn) error {
	client := &Client{
		ID:     uuid.New().String(),
		GameID: gameID,
		Conn:   conn,
		Send:   make(chan []byte, clientSendBuffer),
	}

	reply := make(chan error, 1)
	select {
	case sm.register <- registerRequest{client: client, reply: reply}:
	case <-sm.done:
		return ErrManagerClosed
	}
	if err := <-reply; err != nil {
		return err
	}

	// readPump と writePump を別々のゴルーチンで開始
	go sm.readPump(client)
	go client.writePump()
	return nil
}

// readPump は観戦クライアントからのメッセージを読み捨て、切断を検知したら登録解除します。
func (sm *SessionManager) readPump(client *Client) {
	defer func() {
		// クライアントの切断処理
		select {
		case sm.unregister <- client:
		case <-sm.done:
		}
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(512)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[SessionManager] WebSocket unexpected close error for spectator %s: %v", client.ID, err)
			}
			return
		}
	}
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// writePump は Client の Send チャネルからのメッセージをWebSocketコネクションに書き込みます。
// クライアントごとにこのゴルーチンが動作します。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// ゲーム終了などでチャネルが閉じられた
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game finished"))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[Client] Error writing message for spectator %s: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			// ピングメッセージを定期的に送信してコネクションの生存確認
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// EndGameSession はゲームを途中で終了させ、記録した結果を返します。
func (sm *SessionManager) EndGameSession(gameID string) (*models.Result, error) {
	reply := make(chan endReply, 1)
	select {
	case sm.end <- endRequest{gameID: gameID, reply: reply}:
	case <-sm.done:
		return nil, ErrManagerClosed
	}
	r := <-reply
	return r.result, r.err
}

// GetSnapshot は指定したゲームの最新の状態を返します。
func (sm *SessionManager) GetSnapshot(gameID string) (*LightweightPlayerState, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	state, ok := sm.published[gameID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return state, nil
}

// ListSessions は進行中のゲームの概要を開始時刻順に返します。
func (sm *SessionManager) ListSessions() []GameSummary {
	sm.mu.RLock()
	summaries := make([]GameSummary, 0, len(sm.published))
	for _, state := range sm.published {
		summaries = append(summaries, state.Summary())
	}
	sm.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].StartedAt.Equal(summaries[j].StartedAt) {
			return summaries[i].StartedAt.Before(summaries[j].StartedAt)
		}
		return summaries[i].GameID < summaries[j].GameID
	})
	return summaries
}

// Shutdown はSessionManagerを安全にシャットダウンします。
// 進行中のゲームは終了扱いになり、結果が記録されます。
func (sm *SessionManager) Shutdown() {
	sm.quitOnce.Do(func() {
		log.Printf("[SessionManager] シャットダウン開始...")
		close(sm.quit)
	})
}
