package controller

import (
	"sodalis/auth"
	"sodalis/dto"
	"sodalis/middleware"
	"sodalis/model"
	"sodalis/service"

	"github.com/gofiber/fiber/v2"
)

type GoalController struct {
	svc *service.GoalService
}

func NewGoalController(s *service.GoalService) *GoalController {
	return &GoalController{svc: s}
}

// GetGoal godoc
// @Summary      Get a goal
// @Tags         goals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Goal ID"
// @Success      200  {object}  dto.GoalResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /goals/{id} [get]
func (gc *GoalController) GetGoal(c *fiber.Ctx) error {
	goal, err := gc.svc.GetGoal(c.UserContext(), middleware.Principal(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(toGoalResponse(goal))
}

// ListGoals godoc
// @Summary      List a user's goals
// @Tags         goals
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path  string  true  "Owner user ID"
// @Success      200  {array}   dto.GoalResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /users/{userId}/goals [get]
func (gc *GoalController) ListGoals(c *fiber.Ctx) error {
	goals, err := gc.svc.ListGoals(c.UserContext(), middleware.Principal(c), c.Params("userId"))
	if err != nil {
		return err
	}

	res := make([]dto.GoalResponse, 0, len(goals))
	for i := range goals {
		res = append(res, toGoalResponse(&goals[i]))
	}
	return c.JSON(res)
}

// CreateGoal godoc
// @Summary      Create a goal
// @Description  Creates a goal for the caller. Admins may set userId to create for another user.
// @Tags         goals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload body dto.CreateGoalRequest true "Goal payload"
// @Success      201  {object}  dto.GoalResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /goals [post]
func (gc *GoalController) CreateGoal(c *fiber.Ctx) error {
	var req dto.CreateGoalRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	goal, err := gc.svc.CreateGoal(c.UserContext(), middleware.Principal(c), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toGoalResponse(goal))
}

// UpdateGoal godoc
// @Summary      Update a goal
// @Tags         goals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path  string                 true  "Goal ID"
// @Param        payload body  dto.UpdateGoalRequest  true  "Goal payload"
// @Success      200  {object}  dto.GoalResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /goals/{id} [put]
func (gc *GoalController) UpdateGoal(c *fiber.Ctx) error {
	principal := middleware.Principal(c)
	if err := gc.svc.CheckAccess(c.UserContext(), principal, c.Params("id"), auth.OpUpdate); err != nil {
		return err
	}

	var req dto.UpdateGoalRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	goal, err := gc.svc.UpdateGoal(c.UserContext(), principal, c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.JSON(toGoalResponse(goal))
}

// DeleteGoal godoc
// @Summary      Delete a goal
// @Tags         goals
// @Security     BearerAuth
// @Param        id   path  string  true  "Goal ID"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /goals/{id} [delete]
func (gc *GoalController) DeleteGoal(c *fiber.Ctx) error {
	if err := gc.svc.DeleteGoal(c.UserContext(), middleware.Principal(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func toGoalResponse(g *model.Goal) dto.GoalResponse {
	return dto.GoalResponse{
		ID:          g.ID.String(),
		UserID:      g.UserID.String(),
		Title:       g.Title,
		Description: g.Description,
		Completed:   g.Completed,
		DueDate:     g.DueDate,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}
