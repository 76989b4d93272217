package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/LENAX/flow-engine/pkg/api/dto"
	"github.com/LENAX/flow-engine/pkg/core/engine"
)

// EventsHandler 引擎事件处理器
// 提供事件日志查询与WebSocket事件流
type EventsHandler struct {
	engines  []engine.Engine
	bus      *engine.EventBus
	upgrader websocket.Upgrader
}

// NewEventsHandler 创建EventsHandler
func NewEventsHandler(bus *engine.EventBus, engines ...engine.Engine) *EventsHandler {
	return &EventsHandler{
		engines: engines,
		bus:     bus,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// List GET /api/v1/events?engine=<name>
// 返回指定引擎（缺省为全部引擎）的事件日志快照
func (e *EventsHandler) List(c *gin.Context) {
	name := c.Query("engine")
	events := make([]engine.Event, 0)
	for _, eng := range e.engines {
		if name != "" && eng.Name() != name {
			continue
		}
		events = append(events, eng.Events()...)
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(events))
}

// Stream GET /api/v1/events/stream
// 升级为WebSocket连接，实时推送事件总线上的引擎事件（JSON）
func (e *EventsHandler) Stream(c *gin.Context) {
	conn, err := e.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ WebSocket升级失败: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	messages, err := e.bus.Subscribe(ctx)
	if err != nil {
		log.Printf("⚠️ 事件总线订阅失败: %v", err)
		return
	}

	// 读协程：消费客户端消息以探测连接关闭
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg.Payload); err != nil {
				msg.Nack()
				return
			}
			msg.Ack()
		}
	}
}
