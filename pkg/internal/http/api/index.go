package api

import (
	"strings"

	"github.com/cadencehq/beacon/pkg/internal/models"
	"github.com/cadencehq/beacon/pkg/internal/services"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func MapAPIs(app *fiber.App, baseURL string) {
	api := app.Group(baseURL).Name("API").Use(authMiddleware)
	{
		calls := api.Group("/calls/:target").Name("Calls API")
		{
			calls.Get("/state", getCallState)
			calls.Post("/offer", offerCall)
			calls.Post("/answer", answerCall)
			calls.Post("/reject", rejectCall)
			calls.Post("/end", endCall)
			calls.Post("/candidate", relayCandidate)
			calls.Post("/token", exchangeCallToken)
		}

		api.Post("/typing", setTypingStatus)
		api.Post("/receipts", markRead)

		api.Post("/presence/heartbeat", heartbeat)
		api.Get("/presence/:identity", getPresence)

		channels := api.Group("/channels/:channel").Name("Channels API")
		{
			channels.Get("/topic", getChannelTopic)
			channels.Post("/members/me", joinChannel)
			channels.Delete("/members/me", leaveChannel)
		}

		api.Get("/ws", websocket.New(signalGateway))
	}
}

// authMiddleware resolves the bearer token through the single identity
// collaborator and stashes the account for handlers downstream.
func authMiddleware(c *fiber.Ctx) error {
	tk := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if len(tk) == 0 {
		tk = c.Cookies("access_token")
	}
	if len(tk) == 0 {
		return fiber.NewError(fiber.StatusUnauthorized, "missing credentials")
	}

	user, err := services.Authenticate(tk)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	c.Locals("user", user)
	return c.Next()
}

func currentUser(c *fiber.Ctx) models.Account {
	return c.Locals("user").(models.Account)
}
