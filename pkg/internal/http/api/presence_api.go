package api

import (
	"github.com/cadencehq/beacon/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func heartbeat(c *fiber.Ctx) error {
	user := currentUser(c)
	services.Sessions.Heartbeat(user.ID)
	return c.JSON(fiber.Map{"success": true})
}

func getPresence(c *fiber.Ctx) error {
	identity, err := c.ParamsInt("identity")
	if err != nil || identity <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "identity must be a positive id")
	}

	session, ok := services.Sessions.Get(uint(identity))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "identity has no session")
	}
	return c.JSON(fiber.Map{
		"session":      session,
		"is_reachable": services.Sessions.IsReachable(uint(identity)),
	})
}
