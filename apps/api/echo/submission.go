package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aiesec-vn/ogvhub/core"
	"github.com/aiesec-vn/ogvhub/core/lead"
	"github.com/aiesec-vn/ogvhub/core/refdata"
)

const (
	viewRaw     = "raw"
	viewCleaned = "cleaned"

	defaultSuggestionLimit = 3
)

type submissionApi struct {
	svc      *lead.Service
	refs     *refdata.Service
	validate *validator.Validate
}

func registerSubmissionAPI(g *echo.Group, svc *lead.Service, refs *refdata.Service, validate *validator.Validate) {
	api := submissionApi{svc: svc, refs: refs, validate: validate}

	sg := g.Group("/submissions")
	sg.GET("", api.query)
	sg.GET("/unresolved", api.unresolved, adminMiddleware())
	sg.POST("/allocate", api.bulkAllocate, adminMiddleware())
	sg.POST("/:id/allocate", api.allocate, adminMiddleware())

	ag := g.Group("/allocations", adminMiddleware())
	ag.POST("/auto", api.autoAllocate)
	ag.POST("/correct", api.correct)
}

type (
	AllocateRequest struct {
		LC string `json:"lc" validate:"required,lccode"`
	}

	BulkAllocateRequest struct {
		IDs []string `json:"ids" validate:"required,min=1,dive,required"`
		LC  string   `json:"lc" validate:"required,lccode"`
	}
)

func (r *AllocateRequest) Validate(validate *validator.Validate) error {
	r.LC = core.CleanString(r.LC)
	return validate.Struct(r)
}

func (r *BulkAllocateRequest) Validate(validate *validator.Validate) error {
	r.LC = core.CleanString(r.LC)
	return validate.Struct(r)
}

// bindFilter reads the query filter, resolving `phase` into a time window.
// An explicit from/to narrows the phase window.
func (api *submissionApi) bindFilter(ctx echo.Context) (lead.QueryFilter, error) {
	var filter lead.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return filter, errors.Wrap(err, "binding to QueryFilter")
	}
	var tr TimeRange
	if err := tr.Bind(ctx); err != nil {
		return filter, err
	}

	if filter.Phase = strings.TrimSpace(filter.Phase); filter.Phase != "" {
		phase, err := api.refs.Phase(ctx.Request().Context(), filter.Phase)
		if err != nil {
			if errors.Cause(err) == refdata.ErrNotFound {
				return filter, core.NewValidationError(err, core.FieldError{Field: "phase", Error: "unknown phase"})
			}
			return filter, errors.Wrap(err, "loading phase")
		}
		filter.From, filter.To = phase.Window()
	}
	if !tr.From.IsZero() && tr.From.After(filter.From) {
		filter.From = tr.From
	}
	if !tr.To.IsZero() && (filter.To.IsZero() || tr.To.Before(filter.To)) {
		filter.To = tr.To
	}

	lc, err := scopedLC(ctx, filter.LC)
	if err != nil {
		return filter, err
	}
	filter.LC = lc
	return filter, nil
}

func (api *submissionApi) query(ctx echo.Context) error {
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}
	c := ctx.Request().Context()

	switch ctx.QueryParam("view") {
	case viewRaw:
		raws, err := api.svc.Raw(c, filter)
		if err != nil {
			return errors.Wrap(err, "querying raw submissions")
		}
		return ctx.JSON(http.StatusOK, raws)
	case viewCleaned:
		subs, err := api.svc.Cleaned(c, filter)
		if err != nil {
			return errors.Wrap(err, "querying cleaned submissions")
		}
		return ctx.JSON(http.StatusOK, subs)
	default:
		subs, err := api.svc.List(c, filter)
		if err != nil {
			return errors.Wrap(err, "querying submissions")
		}
		return ctx.JSON(http.StatusOK, subs)
	}
}

func (api *submissionApi) unresolved(ctx echo.Context) error {
	limit, err := intParam(ctx, "limit", defaultSuggestionLimit)
	if err != nil {
		return err
	}
	labels, err := api.svc.Unresolved(ctx.Request().Context(), limit)
	if err != nil {
		return errors.Wrap(err, "listing unresolved universities")
	}
	return ctx.JSON(http.StatusOK, labels)
}

func (api *submissionApi) allocate(ctx echo.Context) error {
	var data AllocateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AllocateRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	p, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	sub, err := api.svc.ManualAllocate(ctx.Request().Context(), ctx.Param("id"), data.LC, p.Actor())
	if err != nil {
		return errors.Wrap(err, "allocating submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *submissionApi) bulkAllocate(ctx echo.Context) error {
	var data BulkAllocateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkAllocateRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	p, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	res, err := api.svc.BulkAllocate(ctx.Request().Context(), data.IDs, data.LC, p.Actor())
	if err != nil {
		return errors.Wrap(err, "bulk allocating submissions")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *submissionApi) autoAllocate(ctx echo.Context) error {
	p, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}
	res, err := api.svc.AutoAllocate(ctx.Request().Context(), p.Actor())
	if err != nil {
		return errors.Wrap(err, "auto allocating")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *submissionApi) correct(ctx echo.Context) error {
	p, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}
	res, err := api.svc.CorrectAllocations(ctx.Request().Context(), p.Actor())
	if err != nil {
		return errors.Wrap(err, "correcting allocations")
	}
	return ctx.JSON(http.StatusOK, res)
}
