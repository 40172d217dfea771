package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/services"
)

type PlanHandler struct {
	planService *services.PlanService
}

func NewPlanHandler(planService *services.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// CreatePlan serves POST /plan?force_new=bool. The profile email must belong
// to the authenticated caller.
func (h *PlanHandler) CreatePlan(c *fiber.Ctx) error {
	forceNew := false
	if raw := c.Query("force_new"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "force_new must be a boolean")
		}
		forceNew = v
	}

	var req dto.PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	profile, err := services.NewProfile(&req)
	if err != nil {
		return respondError(c, "plan.create", err)
	}

	if profile.Email != middleware.GetEmail(c) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "profile email does not match the authenticated user",
		})
	}

	plan, err := h.planService.GetOrCreatePlan(c.UserContext(), profile, forceNew)
	if err != nil {
		return respondError(c, "plan.create", err)
	}

	return c.JSON(plan)
}

func (h *PlanHandler) GetPlan(c *fiber.Ctx) error {
	plan, err := h.planService.GetCachedPlan(c.UserContext(), middleware.GetEmail(c))
	if err != nil {
		return respondError(c, "plan.get", err)
	}

	return c.JSON(plan)
}
