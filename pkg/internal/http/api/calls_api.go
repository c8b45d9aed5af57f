package api

import (
	"errors"

	"github.com/cadencehq/beacon/pkg/internal/http/exts"
	"github.com/cadencehq/beacon/pkg/internal/models"
	"github.com/cadencehq/beacon/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
)

func targetParam(c *fiber.Ctx) (uint, error) {
	target, err := c.ParamsInt("target")
	if err != nil || target <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "target must be a positive identity id")
	}
	return uint(target), nil
}

func mapCallError(err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidTarget):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrAlreadyInCall):
		return fiber.NewError(fiber.StatusLocked, err.Error())
	case errors.Is(err, services.ErrCallNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

func getCallState(c *fiber.Ctx) error {
	user := currentUser(c)
	target, err := targetParam(c)
	if err != nil {
		return err
	}

	return c.JSON(services.Director.StateWith(user.ID, target))
}

func offerCall(c *fiber.Ctx) error {
	user := currentUser(c)
	target, err := targetParam(c)
	if err != nil {
		return err
	}

	var data struct {
		Payload map[string]any `json:"payload" validate:"required"`
	}
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	call, err := services.Director.Offer(user, target, data.Payload)
	if err != nil {
		return mapCallError(err)
	}
	return c.JSON(call)
}

func answerCall(c *fiber.Ctx) error {
	user := currentUser(c)
	if _, err := targetParam(c); err != nil {
		return err
	}

	var data struct {
		CallID  string         `json:"call_id" validate:"required"`
		Payload map[string]any `json:"payload" validate:"required"`
	}
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	call, err := services.Director.Answer(user, data.CallID, data.Payload)
	if err != nil {
		return mapCallError(err)
	}
	return c.JSON(call)
}

func rejectCall(c *fiber.Ctx) error {
	user := currentUser(c)
	if _, err := targetParam(c); err != nil {
		return err
	}

	var data struct {
		CallID string `json:"call_id" validate:"required"`
	}
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	if err := services.Director.Reject(user, data.CallID); err != nil {
		return mapCallError(err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func endCall(c *fiber.Ctx) error {
	user := currentUser(c)
	if _, err := targetParam(c); err != nil {
		return err
	}

	var data struct {
		CallID string `json:"call_id" validate:"required"`
	}
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	if err := services.Director.End(user, data.CallID); err != nil {
		return mapCallError(err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func relayCandidate(c *fiber.Ctx) error {
	user := currentUser(c)
	if _, err := targetParam(c); err != nil {
		return err
	}

	var data struct {
		CallID  string         `json:"call_id" validate:"required"`
		Payload map[string]any `json:"payload" validate:"required"`
	}
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	// Out-of-window candidates vanish silently.
	services.Director.Candidate(user, data.CallID, data.Payload)
	return c.JSON(fiber.Map{"success": true})
}

func exchangeCallToken(c *fiber.Ctx) error {
	user := currentUser(c)
	target, err := targetParam(c)
	if err != nil {
		return err
	}
	if !viper.GetBool("calling.enabled") {
		return fiber.NewError(fiber.StatusNotFound, "media rooms are not enabled")
	}

	call := services.Director.StateWith(user.ID, target)
	if call.Phase != models.CallPhaseConnected {
		return fiber.NewError(fiber.StatusNotFound, "no connected call with this target")
	}

	tk, err := services.EncodeCallToken(user, call)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"token":    tk,
		"endpoint": viper.GetString("calling.endpoint"),
	})
}
