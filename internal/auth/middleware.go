package auth

import (
	"net/http"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "todoapp/internal/errors"
)

// identityContextKey is where the resolved Identity is stored on echo.Context.
const identityContextKey = "identity"

// CookieConfig describes the credential cookie used by page routes.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// APIMiddleware authenticates API routes from the Authorization bearer header
// only. Unauthenticated requests get a 401 JSON error.
func APIMiddleware(resolver *Resolver) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  identityContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return resolver.Resolve(auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
			httpErr := apperrors.MapErrorToHTTP(apperrors.ErrUnauthenticated)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		},
	})
}

// PageMiddleware authenticates browser routes from the credential cookie only.
// Unauthenticated requests have the stale cookie cleared and are redirected
// to loginURL.
func PageMiddleware(resolver *Resolver, cookie CookieConfig, loginURL string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  identityContextKey,
		TokenLookup: "cookie:" + cookie.Name,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return resolver.Resolve(auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			ClearTokenCookie(c, cookie)
			return c.Redirect(http.StatusFound, loginURL)
		},
	})
}

// IdentityFrom returns the identity resolved for this request.
func IdentityFrom(c echo.Context) (Identity, bool) {
	identity, ok := c.Get(identityContextKey).(Identity)
	return identity, ok
}

// SetTokenCookie stores token in the credential cookie.
func SetTokenCookie(c echo.Context, cfg CookieConfig, token string) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie expires the credential cookie.
func ClearTokenCookie(c echo.Context, cfg CookieConfig) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
