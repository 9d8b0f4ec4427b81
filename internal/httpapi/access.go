package httpapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/johnathanacortesd/LimpiarV/internal/auth"
)

const headerAccessPassword = "X-Access-Password"

// requireAccessPassword gates processing endpoints behind a shared password.
// The comparison is against a bcrypt hash so the plaintext never lives in the
// server's configuration. An empty hash disables the check.
func (s *Server) requireAccessPassword() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			hash := strings.TrimSpace(s.opts.AccessPasswordHash)
			if hash == "" {
				return next(c)
			}

			password := c.Request().Header.Get(headerAccessPassword)
			if !auth.VerifyPassword(password, hash) {
				return unauthorizedResponse(c)
			}
			return next(c)
		}
	}
}
