package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"todoapp/internal/service"
)

// UserHandler bundles the caller's own account endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// ChangePasswordRequest carries the replacement password.
type ChangePasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=5,max=72"`
}

// ChangePhoneNumberRequest carries the replacement phone number.
type ChangePhoneNumberRequest struct {
	PhoneNumber int64 `json:"phone_number" validate:"required,gt=111"`
}

// Me godoc
// @Summary Get the caller's user record
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return mapError(err)
	}

	user, err := h.svc.Profile(c.Request().Context(), identity.ID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// ChangePassword godoc
// @Summary Change the caller's password
// @Tags users
// @Accept json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "New password"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/password [put]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return mapError(err)
	}

	var req ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.svc.ChangePassword(c.Request().Context(), identity.ID, req.NewPassword); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangePhoneNumber godoc
// @Summary Change the caller's phone number
// @Tags users
// @Accept json
// @Security BearerAuth
// @Param request body ChangePhoneNumberRequest true "New phone number"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/phone-number [put]
func (h *UserHandler) ChangePhoneNumber(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return mapError(err)
	}

	var req ChangePhoneNumberRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	phone := strconv.FormatInt(req.PhoneNumber, 10)
	if err := h.svc.ChangePhoneNumber(c.Request().Context(), identity.ID, phone); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
