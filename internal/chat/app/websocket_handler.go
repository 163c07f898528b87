package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"storefront_support_service/internal/chat/domain"
	"storefront_support_service/internal/chat/repository"
	"storefront_support_service/pkg/logger"
	"storefront_support_service/pkg/middlewares"
	"storefront_support_service/pkg/token"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// ChatWebsocketHandler 聊天的 presentation shell：
// 依 role 決定連線掛顧客 session 還是 admin directory，
// 視窗開關對應訂閱的建立與拆除。
type ChatWebsocketHandler struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	uploader repository.AttachmentRepository
	notifier repository.ChangeNotifier

	sessionUC *ConversationSessionUseCase
	badgeUC   *UnreadBadgeUseCase
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	uploader repository.AttachmentRepository,
	notifier repository.ChangeNotifier,
) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		convRepo:  convRepo,
		msgRepo:   msgRepo,
		uploader:  uploader,
		notifier:  notifier,
		sessionUC: NewConversationSessionUseCase(convRepo, msgRepo, notifier),
		badgeUC:   NewUnreadBadgeUseCase(convRepo, notifier),
	}
}

// connState 單一連線的 UI 狀態機。
// snapshot callback 從 pub/sub goroutine 進來，read loop 從連線 goroutine 進來，
// 欄位都由 mu 保護；writeMu 讓同一條連線同時只有一個 writer
// （fasthttp websocket 不允許並發寫）。
type connState struct {
	viewer domain.Identity

	mu         sync.Mutex
	open       bool
	directory  *ConversationDirectoryUseCase
	composer   *MessageComposer
	sessionID  string // 目前掛著訊息訂閱的對話
	unsubMsgs  func()
	unsubDir   func()
	unsubBadge func()

	writeMu sync.Mutex
}

// teardownChat 拆掉視窗相關的訂閱，unsubscribe 都是 context cancel，不會阻塞
func (s *connState) teardownChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubMsgs != nil {
		s.unsubMsgs()
		s.unsubMsgs = nil
	}
	if s.unsubDir != nil {
		s.unsubDir()
		s.unsubDir = nil
	}
	s.directory = nil
	s.composer = nil
	s.sessionID = ""
	s.open = false
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	memberID, _ := conn.Locals(middlewares.TokenMemberID).(string)
	email, _ := conn.Locals(middlewares.TokenEmail).(string)
	role, _ := conn.Locals(middlewares.TokenRole).(string)

	state := &connState{
		viewer: domain.Identity{
			ID:      memberID,
			Email:   email,
			IsAdmin: role == string(token.RoleAdmin),
		},
	}
	logger.Log.Info("chat websocket connected",
		zap.String("member_id", memberID),
		zap.Bool("is_admin", state.viewer.IsAdmin),
	)

	ticker := time.NewTicker(10 * time.Minute)
	connCtx, cancel := context.WithCancel(context.Background())

	defer func() {
		ticker.Stop()
		// 連線結束拆掉所有訂閱，已送出的寫入自己跑完
		state.teardownChat()
		state.mu.Lock()
		if state.unsubBadge != nil {
			state.unsubBadge()
			state.unsubBadge = nil
		}
		state.mu.Unlock()
		logger.Log.Info("chat websocket closed", zap.String("member_id", memberID))
		conn.Close()
		cancel()
	}()

	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Infof("WebSocket closed:", conn.RemoteAddr())
		return nil
	})

	conn.SetPongHandler(func(appData string) error {
		logger.Log.Infof("Received PONG:", appData)
		return nil
	})

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	// 徽章跟整條連線同生命週期，視窗關著也要更新
	unsubBadge, err := h.badgeUC.Watch(connCtx, state.viewer, func(total int) {
		h.sendResponse(conn, state, domain.WSResponse{
			Action:  string(domain.NotifyUnread),
			Success: true,
			Payload: map[string]interface{}{"total": total},
		})
	})
	if err != nil {
		logger.Log.Errorf("badge watch failed:", err)
	} else {
		state.mu.Lock()
		state.unsubBadge = unsubBadge
		state.mu.Unlock()
	}

	// 定期發送 Ping
	go func() {
		for {
			select {
			case <-ticker.C:
				state.writeMu.Lock()
				err := conn.WriteMessage(websocket.PingMessage, []byte("ping message"))
				state.writeMu.Unlock()
				if err != nil {
					logger.Log.Errorf("Ping error:", err)
					return
				}
			case <-connCtx.Done():
				return
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Infof("Connection closed:", err)
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		h.execWebsocketAction(connCtx, conn, state, message)
	}
}

// execWebsocketAction 失敗只回錯誤 frame，不中斷訂閱也不斷線
func (h *ChatWebsocketHandler) execWebsocketAction(connCtx context.Context, conn *websocket.Conn, state *connState, message []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(message, &req); err != nil {
		h.sendError(conn, state, "", "invalid request")
		return
	}

	switch domain.Action(req.Action) {
	case domain.OpenChat:
		h.handleOpenChat(connCtx, conn, state)

	case domain.CloseChat:
		state.teardownChat()
		h.sendOK(conn, state, req.Action, nil)

	case domain.AttachImage:
		h.handleAttachImage(conn, state, req)

	case domain.ClearImage:
		state.mu.Lock()
		composer := state.composer
		state.mu.Unlock()
		if composer != nil {
			composer.ClearAttachment()
		}
		h.sendOK(conn, state, req.Action, nil)

	case domain.SendMessage:
		h.handleSendMessage(conn, state, req)

	case domain.SelectConversation:
		h.handleSelectConversation(connCtx, conn, state, req)

	case domain.DeleteConversation:
		h.handleDeleteConversation(conn, state, req)

	case domain.GetUnread:
		total, err := h.badgeUC.Total(context.Background(), state.viewer)
		if err != nil {
			h.sendError(conn, state, req.Action, err.Error())
			return
		}
		h.sendOK(conn, state, req.Action, map[string]interface{}{"total": total})

	default:
		h.sendError(conn, state, req.Action, "unknown action")
	}
}

func (h *ChatWebsocketHandler) handleOpenChat(connCtx context.Context, conn *websocket.Conn, state *connState) {
	state.mu.Lock()
	alreadyOpen := state.open
	state.mu.Unlock()
	if alreadyOpen {
		h.sendOK(conn, state, string(domain.OpenChat), nil)
		return
	}

	if state.viewer.IsAdmin {
		// admin：掛 directory 訂閱，active 改變時切換巢狀 session。
		// callback 會在 Open 當下同步跑第一次，所以 directory 先放區域變數，
		// callback 拿 snapshot 時不碰 state 欄位以外的東西。
		directory := NewConversationDirectoryUseCase(h.convRepo, h.msgRepo, h.notifier)
		unsub, err := directory.Open(connCtx, state.viewer, func(convs []domain.Conversation) {
			h.sendResponse(conn, state, domain.WSResponse{
				Action:  string(domain.NotifyDirectory),
				Success: true,
				Payload: map[string]interface{}{"conversations": convs},
			})
			state.mu.Lock()
			current := state.sessionID
			state.mu.Unlock()
			if active := directory.Active(); active != "" && active != current {
				h.switchSession(connCtx, conn, state, active)
			}
		})
		if err != nil {
			h.sendError(conn, state, string(domain.OpenChat), err.Error())
			return
		}
		state.mu.Lock()
		state.directory = directory
		state.unsubDir = unsub
		state.open = true
		state.mu.Unlock()
		h.sendOK(conn, state, string(domain.OpenChat), nil)
		return
	}

	// 顧客：resolve-or-create 自己的對話再掛訊息訂閱
	convID, err := h.sessionUC.ResolveConversation(context.Background(), state.viewer)
	if err != nil {
		h.sendError(conn, state, string(domain.OpenChat), err.Error())
		return
	}
	h.switchSession(connCtx, conn, state, convID)
	state.mu.Lock()
	state.open = true
	state.mu.Unlock()
	h.sendOK(conn, state, string(domain.OpenChat), map[string]interface{}{"conversation_id": convID})
}

// switchSession 換掛到另一個對話：舊訂閱拆掉，composer 重綁。
// 整段持鎖，read loop 跟 directory auto-select 不會交錯切換；
// session 的 snapshot callback 只寫 frame、不碰 state，持鎖期間同步跑也不會互等。
func (h *ChatWebsocketHandler) switchSession(connCtx context.Context, conn *websocket.Conn, state *connState, conversationID string) {
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.unsubMsgs != nil {
		state.unsubMsgs()
		state.unsubMsgs = nil
	}

	unsub, err := h.sessionUC.Open(connCtx, state.viewer, conversationID, func(msgs []domain.ChatMessage) {
		h.sendResponse(conn, state, domain.WSResponse{
			Action:  string(domain.NotifyMessages),
			Success: true,
			Payload: map[string]interface{}{
				"conversation_id": conversationID,
				"messages":        msgs,
			},
		})
	})
	if err != nil {
		h.sendError(conn, state, string(domain.SelectConversation), err.Error())
		return
	}
	state.unsubMsgs = unsub
	state.sessionID = conversationID
	state.composer = NewMessageComposer(state.viewer, conversationID, h.convRepo, h.msgRepo, h.uploader, h.notifier)
}

func (h *ChatWebsocketHandler) handleAttachImage(conn *websocket.Conn, state *connState, req domain.WSRequest) {
	state.mu.Lock()
	composer := state.composer
	state.mu.Unlock()
	if composer == nil {
		h.sendError(conn, state, req.Action, "no conversation open")
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		h.sendError(conn, state, req.Action, "invalid image payload")
		return
	}
	att := PendingAttachment{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Size:        int64(len(data)),
		Data:        data,
	}
	// 驗證在上傳之前，拒絕時 draft 文字和先前暫存的附件都保留
	if err := composer.Attach(att); err != nil {
		h.sendError(conn, state, req.Action, err.Error())
		return
	}
	h.sendOK(conn, state, req.Action, nil)
}

func (h *ChatWebsocketHandler) handleSendMessage(conn *websocket.Conn, state *connState, req domain.WSRequest) {
	state.mu.Lock()
	composer := state.composer
	state.mu.Unlock()
	if composer == nil {
		h.sendError(conn, state, req.Action, "no conversation open")
		return
	}
	composer.SetText(req.Text)
	// 寫入不跟著連線取消，view 先關掉寫入照樣完成
	msgID, err := composer.Send(context.Background())
	if err != nil {
		h.sendError(conn, state, req.Action, err.Error())
		return
	}
	h.sendOK(conn, state, req.Action, map[string]interface{}{"message_id": msgID})
}

func (h *ChatWebsocketHandler) handleSelectConversation(connCtx context.Context, conn *websocket.Conn, state *connState, req domain.WSRequest) {
	state.mu.Lock()
	directory := state.directory
	state.mu.Unlock()
	if directory == nil {
		h.sendError(conn, state, req.Action, "directory not open")
		return
	}
	if err := directory.Select(context.Background(), state.viewer, req.ConversationID); err != nil {
		h.sendError(conn, state, req.Action, err.Error())
		return
	}
	h.switchSession(connCtx, conn, state, req.ConversationID)
	h.sendOK(conn, state, req.Action, nil)
}

func (h *ChatWebsocketHandler) handleDeleteConversation(conn *websocket.Conn, state *connState, req domain.WSRequest) {
	state.mu.Lock()
	directory := state.directory
	state.mu.Unlock()
	if directory == nil {
		h.sendError(conn, state, req.Action, "directory not open")
		return
	}
	if err := directory.Delete(context.Background(), req.ConversationID); err != nil {
		// 部分刪除也走這裡，admin 看得到不一致狀態
		h.sendError(conn, state, req.Action, err.Error())
		return
	}
	state.mu.Lock()
	if state.sessionID == req.ConversationID && state.unsubMsgs != nil {
		state.unsubMsgs()
		state.unsubMsgs = nil
		state.sessionID = ""
		state.composer = nil
	}
	state.mu.Unlock()
	h.sendOK(conn, state, req.Action, nil)
}

func (h *ChatWebsocketHandler) sendOK(conn *websocket.Conn, state *connState, action string, payload map[string]interface{}) {
	h.sendResponse(conn, state, domain.WSResponse{
		Action:  action,
		Success: true,
		Payload: payload,
	})
}

func (h *ChatWebsocketHandler) sendError(conn *websocket.Conn, state *connState, action, errMsg string) {
	h.sendResponse(conn, state, domain.WSResponse{
		Action:  action,
		Success: false,
		Error:   errMsg,
	})
}

func (h *ChatWebsocketHandler) sendResponse(conn *websocket.Conn, state *connState, resp domain.WSResponse) {
	state.writeMu.Lock()
	defer state.writeMu.Unlock()
	if err := conn.WriteJSON(resp); err != nil {
		logger.Log.Errorf("websocket write error:", err)
	}
}
