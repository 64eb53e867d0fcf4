package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"pereryv/internal/models"
	"pereryv/internal/queue"
	"pereryv/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Hub хранит подключения клиентов, сгруппированные по комнатам (дата+группа).
type Hub struct {
	// Для каждой комнаты храним множество подключений.
	clients map[string]map[*Client]bool
	// Канал для регистрации нового клиента.
	register chan *Client
	// Канал для удаления клиента.
	unregister chan *Client
	// Канал для трансляции сообщений по конкретной комнате.
	broadcast chan BroadcastMessage
	// Mutex для защиты карты клиентов.
	mu sync.RWMutex
}

// WSMessage — событие, уходящее клиенту.
type WSMessage struct {
	EventType string      `json:"event_type"`
	Data      interface{} `json:"data"`
}

// BroadcastMessage представляет сообщение для рассылки в определённую комнату.
type BroadcastMessage struct {
	Room    string
	Message []byte
}

// Создаем глобальный экземпляр хаба.
var HubInstance = NewHub()

// NewHub создает новый Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan BroadcastMessage),
	}
}

// roomKey — ключ комнаты очереди: дата смены и группа.
func roomKey(date string, groupID uint) string {
	return date + "|" + strconv.FormatUint(uint64(groupID), 10)
}

// Run запускает цикл обработки каналов хаба.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.Room] == nil {
				h.clients[client.Room] = make(map[*Client]bool)
			}
			h.clients[client.Room][client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.Room]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.clients, client.Room)
					}
				}
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.RLock()
			if clients, ok := h.clients[message.Room]; ok {
				for client := range clients {
					select {
					case client.Send <- message.Message:
					default:
						close(client.Send)
						delete(clients, client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastWSMessage рассылает событие всем клиентам комнаты.
func (h *Hub) BroadcastWSMessage(room string, msg WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Println("Ошибка сериализации WS сообщения:", err)
		return
	}
	h.broadcast <- BroadcastMessage{Room: room, Message: payload}
}

// SendToUser отправляет событие всем подключениям конкретного пользователя.
func (h *Hub) SendToUser(userID uint, msg WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Println("Ошибка сериализации WS сообщения:", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.clients {
		for client := range clients {
			if client.UserID != userID {
				continue
			}
			select {
			case client.Send <- payload:
			default:
			}
		}
	}
}

// Hub реализует контракт уведомлений движка очереди.

func (h *Hub) NotifyYourTurn(userID, entryID uint, durationMinutes, timeoutSeconds int) {
	h.SendToUser(userID, WSMessage{
		EventType: "your_turn",
		Data: map[string]interface{}{
			"entry_id":         entryID,
			"duration_minutes": durationMinutes,
			"timeout_seconds":  timeoutSeconds,
		},
	})
}

func (h *Hub) NotifyExpired(userID, entryID uint, newPosition int) {
	h.SendToUser(userID, WSMessage{
		EventType: "notification_expired",
		Data: map[string]interface{}{
			"entry_id":     entryID,
			"new_position": newPosition,
		},
	})
}

func (h *Hub) BroadcastQueueUpdated(date string, groupID uint, snapshot queue.Snapshot) {
	h.BroadcastWSMessage(roomKey(date, groupID), WSMessage{
		EventType: "queue_updated",
		Data:      snapshot,
	})
}

func (h *Hub) BroadcastBreakEnded(date string, groupID uint, userID uint, name string, round int) {
	h.BroadcastWSMessage(roomKey(date, groupID), WSMessage{
		EventType: "break_ended",
		Data: map[string]interface{}{
			"user_id": userID,
			"name":    name,
			"round":   round,
		},
	})
}

// Client представляет одно подключение через WebSocket.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	Room   string
	UserID uint
}

// readPump читает сообщения из WebSocket-соединения.
// Входящие сообщения не обрабатываются, отслеживается только разрыв соединения.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writePump отправляет сообщения клиенту из канала Send.
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Канал закрыт.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			// Отправка ping-сообщения для поддержания соединения.
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Настраиваем апгрейдер для WebSocket с разрешением всех источников.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// QueueWebSocketHandler обновляет соединение до WebSocket и подключает
// оператора к комнате его группы на сегодня.
func QueueWebSocketHandler(c *gin.Context) {
	userID := c.GetUint("userID")

	var shift models.Shift
	if err := storage.DB.
		Where("user_id = ? AND work_date = ? AND active = ?",
			userID, time.Now().Format("2006-01-02"), true).
		First(&shift).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Нет активной смены на сегодня"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		http.Error(c.Writer, "Ошибка обновления до WebSocket", http.StatusInternalServerError)
		return
	}
	client := &Client{
		Hub:    HubInstance,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Room:   roomKey(shift.WorkDate, shift.GroupID),
		UserID: userID,
	}
	HubInstance.register <- client

	go client.writePump()
	client.readPump()
}
