package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"todoapp/internal/auth"
	"todoapp/internal/errors"
)

// Helper function to turn service errors into HTTP errors
func mapError(err error) *echo.HTTPError {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func invalidBody() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: "invalid request body",
		Code:  "INVALID_REQUEST",
	})
}

func validationFailed(err error) *echo.HTTPError {
	return mapError(fmt.Errorf("%w: %s", errors.ErrValidation, err.Error()))
}

// bindAndValidate binds the request into req and runs its validate tags.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(req); err != nil {
		return validationFailed(err)
	}
	return nil
}

// currentIdentity returns the identity the auth middleware resolved. Routes
// registered outside an authenticated group get ErrUnauthenticated.
func currentIdentity(c echo.Context) (auth.Identity, error) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		return auth.Identity{}, errors.ErrUnauthenticated
	}
	return identity, nil
}

// parseTaskID reads the :id path parameter, which must be a positive integer.
func parseTaskID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		return 0, errors.ErrInvalidTaskID
	}
	return uint(id), nil
}
