package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Actor identity arrives as trusted headers set by the front gateway,
// which has already authenticated the caller.
const (
	HeaderActorRole           = "X-Actor-Role"
	HeaderActorProfessionalID = "X-Actor-Professional-Id"
)

const (
	RoleAdmin        = "admin"
	RoleSecretary    = "secretary"
	RoleProfessional = "professional"
)

// RequireProfessionalScope guards routes keyed by a professional id.
// Admins and secretaries operate on any agenda; a professional is
// limited to the agenda matching their own id.
func RequireProfessionalScope() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := strings.ToLower(strings.TrimSpace(c.Request().Header.Get(HeaderActorRole)))
			switch role {
			case RoleAdmin, RoleSecretary:
				return next(c)
			case RoleProfessional:
				own := strings.TrimSpace(c.Request().Header.Get(HeaderActorProfessionalID))
				if own == "" || !strings.EqualFold(own, c.Param("id")) {
					return errorJSON(c, http.StatusForbidden, "FORBIDDEN", "professionals may only access their own agenda")
				}
				return next(c)
			case "":
				return errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "actor role header is required")
			default:
				return errorJSON(c, http.StatusForbidden, "FORBIDDEN", "unknown actor role")
			}
		}
	}
}
