package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"event_messaging_service/internal/messaging/domain"
	"event_messaging_service/pkg/logger"
	"event_messaging_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const pingInterval = 10 * time.Minute

// MessagingWebsocketHandler serves the live connection: thread subscriptions,
// sends, page reads and read receipts over one socket.
type MessagingWebsocketHandler struct {
	service *MessagingService
}

// NewMessagingWebsocketHandler create MessagingWebsocketHandler
func NewMessagingWebsocketHandler(service *MessagingService) *MessagingWebsocketHandler {
	return &MessagingWebsocketHandler{service: service}
}

// connState tracks one socket's live subscriptions so they are all released
// when the connection goes away.
type connState struct {
	mu           sync.Mutex
	unsubscribes map[string]func() // keyed by event id
	writeMu      sync.Mutex
}

func (s *connState) track(eventID string, unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.unsubscribes[eventID]; ok {
		prev()
	}
	s.unsubscribes[eventID] = unsubscribe
}

func (s *connState) release(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	unsubscribe, ok := s.unsubscribes[eventID]
	if !ok {
		return false
	}
	unsubscribe()
	delete(s.unsubscribes, eventID)
	return true
}

func (s *connState) releaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for eventID, unsubscribe := range s.unsubscribes {
		unsubscribe()
		delete(s.unsubscribes, eventID)
	}
}

// HandleConnection is the entry point of one websocket connection.
func (h *MessagingWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	userID, _ := conn.Locals(middlewares.TokenUserID).(string)
	role, _ := conn.Locals(middlewares.TokenRole).(string)
	logger.Log.Info("websocket connected", zap.String("userID", userID))

	state := &connState{unsubscribes: make(map[string]func())}
	ticker := time.NewTicker(pingInterval)
	ctxClose, cancel := context.WithCancel(context.Background())

	defer func() {
		ticker.Stop()
		state.releaseAll()
		cancel()
		conn.Close()
		logger.Log.Info("websocket closed", zap.String("userID", userID))
	}()

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
					logger.Log.Errorf("ping error:", err)
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Info("websocket connection closed", zap.String("userID", userID))
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			h.sendError(conn, state, "unknown message type")
			continue
		}
		h.textMessageAction(ctx, conn, state, userID, role, message)
	}
}

func (h *MessagingWebsocketHandler) textMessageAction(ctx context.Context, conn *websocket.Conn, state *connState, userID, role string, msg []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		h.sendError(conn, state, "malformed request")
		return
	}

	senderType := domain.SenderTypeUser
	if role == "vendor" {
		senderType = domain.SenderTypeVendor
	}

	resp := domain.WSResponse{Action: req.Action, Success: false, Payload: map[string]interface{}{}}
	switch req.Action {
	case string(domain.SubscribeThread):
		unsubscribe, err := h.service.SubscribeThread(ctx, userID, req.EventID, func(m domain.Message) {
			h.sendResponse(conn, state, domain.WSResponse{
				Action:  string(domain.NotifyMessage),
				Success: true,
				Payload: map[string]interface{}{"message": m},
			})
		})
		if err != nil {
			resp.Error = err.Error()
		} else {
			state.track(req.EventID, unsubscribe)
			resp.Success = true
			resp.Payload["event_id"] = req.EventID
		}

	case string(domain.UnsubscribeThread):
		// unsubscribing twice is fine, the second call is a no-op
		state.release(req.EventID)
		resp.Success = true
		resp.Payload["event_id"] = req.EventID

	case string(domain.SendMessage):
		m, err := h.service.SendMessage(ctx, userID, req.EventID, req.Content, senderType)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["message"] = m
		}

	case string(domain.GetMessages):
		opts := domain.PageOptions{Limit: req.Limit}
		if req.Before != "" {
			before, err := time.Parse(time.RFC3339, req.Before)
			if err != nil {
				resp.Error = "invalid before cursor"
				break
			}
			opts.Before = &before
		}
		page, err := h.service.GetMessages(ctx, userID, req.EventID, opts)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["messages"] = page
		}

	case string(domain.ReadThread):
		if err := h.service.MarkThreadRead(ctx, userID, req.EventID); err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
		}

	default:
		h.sendError(conn, state, "unknown action")
		return
	}

	if resp.Error != "" {
		logger.Log.Error("websocket action failed",
			zap.String("userID", userID), zap.String("action", req.Action), zap.String("err", resp.Error))
	}
	h.sendResponse(conn, state, resp)
}

func (h *MessagingWebsocketHandler) sendResponse(conn *websocket.Conn, state *connState, resp domain.WSResponse) {
	b, _ := json.Marshal(resp)
	state.writeMu.Lock()
	defer state.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		logger.Log.Errorf("write message error:", err)
	}
}

func (h *MessagingWebsocketHandler) sendError(conn *websocket.Conn, state *connState, errorMsg string) {
	h.sendResponse(conn, state, domain.WSResponse{
		Action:  "error",
		Success: false,
		Payload: map[string]interface{}{"error": errorMsg},
	})
}
