package api

import (
	"github.com/cadencehq/beacon/pkg/internal/http/exts"
	"github.com/cadencehq/beacon/pkg/internal/models"
	"github.com/cadencehq/beacon/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func getChannelTopic(c *fiber.Ctx) error {
	channelId := c.Params("channel")

	members := services.Channels.Members(channelId)
	if first, second, ok := services.ParseDirectChannelID(channelId); ok {
		members = []uint{first, second}
	}

	return c.JSON(fiber.Map{
		"channel_id": channelId,
		"topic":      services.ResolveTopic(channelId),
		"members":    members,
	})
}

func joinChannel(c *fiber.Ctx) error {
	user := currentUser(c)
	channelId := c.Params("channel")

	var data struct {
		Kind models.ChannelType `json:"kind"`
	}
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	services.JoinChannel(channelId, data.Kind, user)
	return c.JSON(fiber.Map{"success": true})
}

func leaveChannel(c *fiber.Ctx) error {
	user := currentUser(c)
	channelId := c.Params("channel")

	services.LeaveChannel(channelId, user)
	return c.JSON(fiber.Map{"success": true})
}
