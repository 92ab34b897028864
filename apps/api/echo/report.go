package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aiesec-vn/ogvhub/core/report"
)

type reportApi struct {
	svc *report.Service
}

func registerReportAPI(g *echo.Group, svc *report.Service) {
	api := reportApi{svc: svc}

	rg := g.Group("/reports")
	rg.GET("/crosstab", api.crossTab)
	rg.GET("/utm", api.utm)
	rg.GET("/goals", api.goals)
}

func bindReportFilter(ctx echo.Context) (report.Filter, error) {
	var filter report.Filter
	if err := ctx.Bind(&filter); err != nil {
		return filter, errors.Wrap(err, "binding to report Filter")
	}
	return filter, nil
}

func (api *reportApi) crossTab(ctx echo.Context) error {
	filter, err := bindReportFilter(ctx)
	if err != nil {
		return err
	}
	tab, err := api.svc.CrossTab(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "building cross tab")
	}
	return ctx.JSON(http.StatusOK, tab)
}

func (api *reportApi) utm(ctx echo.Context) error {
	filter, err := bindReportFilter(ctx)
	if err != nil {
		return err
	}
	summary, err := api.svc.UTM(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "summarizing utm")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *reportApi) goals(ctx echo.Context) error {
	filter, err := bindReportFilter(ctx)
	if err != nil {
		return err
	}
	progress, err := api.svc.Goals(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "computing goal progress")
	}
	return ctx.JSON(http.StatusOK, progress)
}
