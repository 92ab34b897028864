package echoapi

import (
	"fmt"
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aiesec-vn/ogvhub/core"
	"github.com/aiesec-vn/ogvhub/core/refdata"
)

type refDataApi struct {
	svc        *refdata.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerRefDataAPI(g *echo.Group, svc *refdata.Service, validate *validator.Validate, translator ut.Translator) {
	api := refDataApi{svc: svc, validate: validate, translator: translator}
	admin := adminMiddleware()

	g.GET("/goals", api.goals)
	g.PUT("/goals", api.upsertGoals, admin)

	g.GET("/utm-links", api.utmLinks)
	g.POST("/utm-links", api.createUTMLink, admin)
	g.DELETE("/utm-links/:id", api.deleteUTMLink, admin)

	g.GET("/phases", api.phases)
	g.PUT("/phases", api.upsertPhase, admin)

	g.GET("/university-mapping", api.mappings)
	g.PUT("/university-mapping", api.upsertMappings, admin)

	g.POST("/cache/refresh", api.refreshCache, admin)
}

// prefixFieldErrors qualifies field errors with the item index of a list payload.
func prefixFieldErrors(err error, i int) error {
	verr, ok := errors.Cause(err).(*core.ValidationError)
	if !ok {
		return err
	}
	flds := make([]core.FieldError, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		flds = append(flds, core.FieldError{Field: fmt.Sprintf("[%d].%s", i, f.Field), Error: f.Error})
	}
	return core.NewValidationError(verr.Err, flds...)
}

func (api *refDataApi) validateItem(v interface{ Validate(*validator.Validate) error }, i int) error {
	if err := v.Validate(api.validate); err != nil {
		return prefixFieldErrors(core.TranslateValidationErrors(err, api.translator), i)
	}
	return nil
}

func (api *refDataApi) goals(ctx echo.Context) error {
	c := ctx.Request().Context()
	var (
		goals []refdata.Goal
		err   error
	)
	if phase := strings.TrimSpace(ctx.QueryParam("phase")); phase != "" {
		goals, err = api.svc.PhaseGoals(c, phase)
	} else {
		goals, err = api.svc.Goals(c)
	}
	if err != nil {
		return errors.Wrap(err, "querying goals")
	}
	if goals == nil {
		goals = []refdata.Goal{}
	}
	return ctx.JSON(http.StatusOK, goals)
}

func (api *refDataApi) upsertGoals(ctx echo.Context) error {
	var data []refdata.Goal
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to []Goal")
	}
	for i := range data {
		if err := api.validateItem(&data[i], i); err != nil {
			return err
		}
	}
	if err := api.svc.UpsertGoals(ctx.Request().Context(), data...); err != nil {
		return errors.Wrap(err, "upserting goals")
	}
	return ctx.JSON(http.StatusOK, data)
}

func (api *refDataApi) utmLinks(ctx echo.Context) error {
	links, err := api.svc.UTMLinks(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying utm links")
	}
	if links == nil {
		links = []refdata.UTMLink{}
	}
	return ctx.JSON(http.StatusOK, links)
}

func (api *refDataApi) createUTMLink(ctx echo.Context) error {
	var data refdata.UTMLink
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UTMLink")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	link, err := api.svc.CreateUTMLink(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating utm link")
	}
	return ctx.JSON(http.StatusCreated, link)
}

func (api *refDataApi) deleteUTMLink(ctx echo.Context) error {
	if err := api.svc.DeleteUTMLink(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting utm link")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *refDataApi) phases(ctx echo.Context) error {
	phases, err := api.svc.Phases(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying phases")
	}
	if phases == nil {
		phases = []refdata.Phase{}
	}
	return ctx.JSON(http.StatusOK, phases)
}

func (api *refDataApi) upsertPhase(ctx echo.Context) error {
	var data refdata.Phase
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Phase")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := api.svc.UpsertPhase(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "upserting phase")
	}
	return ctx.JSON(http.StatusOK, data)
}

func (api *refDataApi) mappings(ctx echo.Context) error {
	rows, err := api.svc.Mappings(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying university mapping")
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *refDataApi) upsertMappings(ctx echo.Context) error {
	var data []refdata.UniversityMapping
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to []UniversityMapping")
	}
	for i := range data {
		if err := api.validateItem(&data[i], i); err != nil {
			return err
		}
	}
	if err := api.svc.UpsertMappings(ctx.Request().Context(), data...); err != nil {
		return errors.Wrap(err, "upserting university mapping")
	}
	return ctx.JSON(http.StatusOK, data)
}

func (api *refDataApi) refreshCache(ctx echo.Context) error {
	api.svc.Refresh(ctx.Request().Context())
	return ctx.NoContent(http.StatusNoContent)
}
