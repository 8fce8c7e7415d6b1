package controller

import (
	"sodalis/dto"
	"sodalis/middleware"
	"sodalis/model"
	"sodalis/service"

	"github.com/gofiber/fiber/v2"
)

type FriendController struct {
	svc *service.FriendService
}

func NewFriendController(s *service.FriendService) *FriendController {
	return &FriendController{svc: s}
}

// GetFriend godoc
// @Summary      Get a friend link
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Friend link ID"
// @Success      200  {object}  dto.FriendResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /friends/{id} [get]
func (fc *FriendController) GetFriend(c *fiber.Ctx) error {
	friend, err := fc.svc.GetFriend(c.UserContext(), middleware.Principal(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(toFriendResponse(friend))
}

// ListFriends godoc
// @Summary      List a user's friends
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path  string  true  "Owner user ID"
// @Success      200  {array}   dto.FriendResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /users/{userId}/friends [get]
func (fc *FriendController) ListFriends(c *fiber.Ctx) error {
	friends, err := fc.svc.ListFriends(c.UserContext(), middleware.Principal(c), c.Params("userId"))
	if err != nil {
		return err
	}

	res := make([]dto.FriendResponse, 0, len(friends))
	for i := range friends {
		res = append(res, toFriendResponse(&friends[i]))
	}
	return c.JSON(res)
}

// AddFriend godoc
// @Summary      Add a friend by email
// @Description  Links the caller to the registered user with that email and notifies them by mail.
// @Tags         friends
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload body dto.AddFriendRequest true "Friend payload"
// @Success      201  {object}  dto.FriendResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string "No user with that email"
// @Failure      409  {object}  map[string]string
// @Router       /friends [post]
func (fc *FriendController) AddFriend(c *fiber.Ctx) error {
	var req dto.AddFriendRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	friend, err := fc.svc.AddFriend(c.UserContext(), middleware.Principal(c), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toFriendResponse(friend))
}

// DeleteFriend godoc
// @Summary      Remove a friend link
// @Tags         friends
// @Security     BearerAuth
// @Param        id   path  string  true  "Friend link ID"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /friends/{id} [delete]
func (fc *FriendController) DeleteFriend(c *fiber.Ctx) error {
	if err := fc.svc.DeleteFriend(c.UserContext(), middleware.Principal(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func toFriendResponse(f *model.Friend) dto.FriendResponse {
	return dto.FriendResponse{
		ID:           f.ID.String(),
		UserID:       f.UserID.String(),
		FriendUserID: f.FriendUserID.String(),
		FriendName:   f.FriendUser.Name,
		Nickname:     f.Nickname,
		CreatedAt:    f.CreatedAt,
	}
}
