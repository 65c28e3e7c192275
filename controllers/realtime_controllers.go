package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeremiapane/restaurant-ordering/hub"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// RealtimeController attaches websocket clients to hub topics.
type RealtimeController struct {
	Hub      *hub.Hub
	upgrader websocket.Upgrader
}

func NewRealtimeController(h *hub.Hub, allowedOrigins []string) *RealtimeController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &RealtimeController{
		Hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Subscribe upgrades the connection and registers it for ?topics=a,b. With no
// topics the caller gets the defaults for their role.
func (rc *RealtimeController) Subscribe(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var topics []string
	for _, raw := range strings.Split(c.Query("topics"), ",") {
		if topic := strings.TrimSpace(raw); topic != "" {
			topics = append(topics, topic)
		}
	}
	if len(topics) == 0 {
		topics = hub.DefaultTopics(principal)
	}
	for _, topic := range topics {
		if !hub.IsKnownTopic(topic) {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown topic %q", topic))
			return
		}
		if !hub.CanSubscribe(principal, topic) {
			utils.RespondError(c, http.StatusForbidden, errors.New("not allowed to subscribe to "+topic))
			return
		}
	}

	conn, err := rc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	client := hub.NewClient(conn)
	rc.Hub.Subscribe(client, topics...)
	utils.InfoLogger.WithField("user_id", principal.ID).Infof("subscriber %s joined %v", client.ID(), topics)

	client.Run()
	rc.Hub.Unsubscribe(client)
	utils.InfoLogger.Infof("subscriber %s left", client.ID())
}
