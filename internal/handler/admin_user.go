package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"railbook/internal/model"
	"railbook/internal/repository"
)

// AdminUserHandler lets admins suspend or reactivate accounts.
type AdminUserHandler struct {
	Users   *repository.UserRepo
	Tokens  *repository.TokenRepo
	Timeout time.Duration
}

func NewAdminUserHandler(u *repository.UserRepo, t *repository.TokenRepo, timeout time.Duration) *AdminUserHandler {
	if u == nil || t == nil {
		panic("nil repository passed to NewAdminUserHandler")
	}
	return &AdminUserHandler{Users: u, Tokens: t, Timeout: timeout}
}

type userStatusPatch struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /v1/admin/users/:id/status.  Suspension also
// revokes the user's refresh tokens so existing sessions die with their
// access tokens.
func (h *AdminUserHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req userStatusPatch
	if err := decodeStrict(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status := normUpper(req.Status)
	switch status {
	case model.UserActive, model.UserInactive, model.UserSuspended:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be ACTIVE, INACTIVE or SUSPENDED"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	if err := h.Users.SetStatus(ctx, id, status); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}
	if status != model.UserActive {
		_ = h.Tokens.RevokeAllForUser(ctx, id)
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": id, "status": status})
}
