package echoapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aiesec-vn/ogvhub/core"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// TimeRange is the `from` (inclusive) / `to` (exclusive) query window.
// A bare date `to` is taken as the whole day.
type TimeRange struct {
	From time.Time
	To   time.Time
}

func (tr *TimeRange) Bind(ctx echo.Context) error {
	var err error
	if tr.From, _, err = parseTimeParam(ctx, "from"); err != nil {
		return err
	}
	var dateOnly bool
	if tr.To, dateOnly, err = parseTimeParam(ctx, "to"); err != nil {
		return err
	}
	if dateOnly {
		tr.To = tr.To.AddDate(0, 0, 1)
	}
	return nil
}

func parseTimeParam(ctx echo.Context, name string) (time.Time, bool, error) {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return time.Time{}, false, nil
	}
	for i, layout := range dateLayouts {
		if t, err := time.Parse(layout, val); err == nil {
			return t.UTC(), i == len(dateLayouts)-1, nil
		}
	}
	msg := "must be an RFC3339 time or a YYYY-MM-DD date"
	return time.Time{}, false, core.NewValidationError(errors.Errorf("invalid %s", name), core.FieldError{Field: name, Error: msg})
}

func intParam(ctx echo.Context, name string, def int) (int, error) {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return def, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return 0, core.NewValidationError(errors.Errorf("invalid %s", name), core.FieldError{Field: name, Error: "must be a positive integer"})
	}
	return n, nil
}

func boolPtrParam(ctx echo.Context, name string) (*bool, error) {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, core.NewValidationError(errors.Errorf("invalid %s", name), core.FieldError{Field: name, Error: "must be a boolean"})
	}
	return &b, nil
}
