package api

import (
	"errors"

	"github.com/cadencehq/beacon/pkg/internal/http/exts"
	"github.com/cadencehq/beacon/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func setTypingStatus(c *fiber.Ctx) error {
	user := currentUser(c)

	var data struct {
		ChannelID string `json:"channel_id" validate:"required"`
		IsTyping  *bool  `json:"is_typing" validate:"required"`
	}
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	if err := services.Statuses.SetTypingStatus(data.ChannelID, user, *data.IsTyping); err != nil {
		if errors.Is(err, services.ErrNotParticipant) {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"success": true})
}

func markRead(c *fiber.Ctx) error {
	user := currentUser(c)

	var data struct {
		ChannelID string `json:"channel_id" validate:"required"`
		MessageID uint   `json:"message_id" validate:"required"`
	}
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	if err := services.Statuses.MarkRead(data.ChannelID, user, data.MessageID); err != nil {
		if errors.Is(err, services.ErrNotParticipant) {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"success": true})
}
