package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aiesec-vn/ogvhub/core/profile"
)

const contextObjectKey = "object"

type profileApi struct {
	svc      *profile.Service
	validate *validator.Validate
}

func registerProfileAPI(g *echo.Group, svc *profile.Service, validate *validator.Validate) {
	api := profileApi{svc: svc, validate: validate}

	pg := g.Group("/profiles")
	pg.GET("", api.query, adminMiddleware())
	pg.POST("", api.create, adminMiddleware())
	pg.GET("/me", api.me)
	pg.GET("/roles", api.queryRoles)

	// detail endpoints
	dg := pg.Group("/:id", selfOrAdminMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
}

func (api *profileApi) query(ctx echo.Context) error {
	var filter profile.QueryFilter
	filter.Search = ctx.QueryParam("search")
	filter.Role = ctx.QueryParam("role")
	filter.LC = ctx.QueryParam("lc")
	active, err := boolPtrParam(ctx, "is_active")
	if err != nil {
		return err
	}
	filter.IsActive = active

	profiles, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying profiles")
	}
	if profiles == nil {
		profiles = []profile.Profile{}
	}
	return ctx.JSON(http.StatusOK, profiles)
}

func (api *profileApi) create(ctx echo.Context) error {
	var data profile.NewProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProfile")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating profile")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *profileApi) me(ctx echo.Context) error {
	p, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, profile.Roles)
}

func (api *profileApi) retrieve(ctx echo.Context) error {
	p, ok := ctx.Get(contextObjectKey).(profile.Profile)
	if !ok {
		return errors.Wrap(errProfileNotInContext, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) update(ctx echo.Context) error {
	orig, ok := ctx.Get(contextObjectKey).(profile.Profile)
	if !ok {
		return errors.Wrap(errProfileNotInContext, "retrieving object from context")
	}
	actor, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	var data profile.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(orig, api.validate); err != nil {
		return err
	}
	// Say No to Suicide! an admin cannot demote or deactivate themselves
	if orig.ID == actor.ID && (data.Role != orig.Role || (data.IsActive != nil && !*data.IsActive)) {
		return errHttpForbidden
	}

	p, err := api.svc.Update(ctx.Request().Context(), orig.ID, data, actor)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, p)
}

// selfOrAdminMiddleware loads the `:id` profile when it is the caller's own or the caller is an admin.
func selfOrAdminMiddleware(svc *profile.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxProfile, err := getContextProfile(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context profile")
			}

			if ctx.Param("id") == ctxProfile.ID || ctxProfile.IsAdmin() {
				if p, err := svc.Get(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set(contextObjectKey, p)
					return next(ctx)
				} else if errors.Cause(err) != profile.ErrNotFound {
					return errors.Wrap(err, "finding profile by ID")
				}
			}
			return errHttpNotFound
		}
	}
}
