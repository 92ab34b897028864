package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aiesec-vn/ogvhub/core/profile"
)

// roleMiddleware lets through profiles whose role ranks at least `minRole`.
func roleMiddleware(minRole string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := getContextProfile(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context profile")
			}
			if profile.RolePriority(p.Role) >= profile.RolePriority(minRole) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(profile.RoleAdmin)
}

// scopedLC returns the LC a request may see: the caller's own LC for non-admins,
// the requested one otherwise.
func scopedLC(ctx echo.Context, requested string) (string, error) {
	p, err := getContextProfile(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context profile")
	}
	if scope := p.Scope(); scope != "" {
		return scope, nil
	}
	return requested, nil
}
