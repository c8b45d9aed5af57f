package api

import (
	"fmt"
	"sync"

	"github.com/cadencehq/beacon/pkg/internal/models"
	"github.com/cadencehq/beacon/pkg/internal/services"
	"github.com/gofiber/contrib/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// signalGateway bridges transport topics to a client connection. Being
// connected is what makes an identity reachable: the session flips online on
// upgrade and offline when the socket drops.
func signalGateway(c *websocket.Conn) {
	user := c.Locals("user").(models.Account)

	services.Sessions.SetOnline(user.ID, true)
	defer services.Sessions.SetOnline(user.ID, false)

	var writeMu sync.Mutex
	push := func(data []byte) {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = c.WriteMessage(websocket.TextMessage, data)
	}

	// Personal topic, both sides of any direct pair, plus joined channels.
	patterns := []string{
		fmt.Sprintf("user-%d", user.ID),
		fmt.Sprintf("conv-%d-*", user.ID),
		fmt.Sprintf("conv-*-%d", user.ID),
	}
	for _, channelId := range services.Channels.JoinedChannels(user.ID) {
		patterns = append(patterns, services.ResolveTopic(channelId))
	}

	var stops []func()
	for _, pattern := range patterns {
		stop, err := services.Out.Subscribe(pattern, push)
		if err != nil {
			log.Warn().Err(err).Str("pattern", pattern).Uint("user", user.ID).
				Msg("Unable to subscribe topic for gateway client...")
			continue
		}
		stops = append(stops, stop)
	}
	defer func() {
		for _, stop := range stops {
			stop()
		}
	}()

	// Event loop
	var task models.UnifiedPush
	for {
		_, packet, err := c.ReadMessage()
		if err != nil {
			break
		}
		if err := jsoniter.Unmarshal(packet, &task); err != nil {
			push(models.UnifiedPush{
				Action:  "error",
				Message: "unable to unmarshal your command, requires json request",
			}.Marshal())
			continue
		}

		services.Sessions.Heartbeat(user.ID)
		if reply := dealGatewayCommand(task, user); reply != nil {
			push(reply.Marshal())
		}
	}
}

func dealGatewayCommand(task models.UnifiedPush, user models.Account) *models.UnifiedPush {
	switch task.Action {
	case "ping":
		return &models.UnifiedPush{Action: "pong"}
	case "status.typing":
		var req struct {
			ChannelID string `json:"channel_id"`
			IsTyping  bool   `json:"is_typing"`
		}
		models.FitStruct(task.Payload, &req)

		if err := services.Statuses.SetTypingStatus(req.ChannelID, user, req.IsTyping); err != nil {
			return lo.ToPtr(models.UnifiedPushFromError(err))
		}
		return nil
	default:
		return &models.UnifiedPush{
			Action:  "error",
			Message: "command not found",
		}
	}
}
