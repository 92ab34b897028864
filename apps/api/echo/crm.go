package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aiesec-vn/ogvhub/core/funnel"
)

type crmApi struct {
	svc      *funnel.Service
	validate *validator.Validate
}

func registerCRMAPI(g *echo.Group, svc *funnel.Service, validate *validator.Validate) {
	api := crmApi{svc: svc, validate: validate}

	cg := g.Group("/crm")
	cg.GET("", api.board)
	cg.PATCH("/:id", api.update)
}

func (api *crmApi) board(ctx echo.Context) error {
	var filter funnel.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	lc, err := scopedLC(ctx, filter.LC)
	if err != nil {
		return err
	}
	filter.LC = lc

	rows, err := api.svc.Board(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "loading crm board")
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *crmApi) update(ctx echo.Context) error {
	var patch funnel.Patch
	if err := ctx.Bind(&patch); err != nil {
		return errors.Wrap(err, "binding to Patch")
	}
	if err := api.validate.Struct(patch); err != nil {
		return err
	}
	p, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	row, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), patch, p.Scope())
	if err != nil {
		return errors.Wrap(err, "updating crm record")
	}
	return ctx.JSON(http.StatusOK, row)
}
