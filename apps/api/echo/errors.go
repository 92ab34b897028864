package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/aiesec-vn/ogvhub/core"
	"github.com/aiesec-vn/ogvhub/core/funnel"
	"github.com/aiesec-vn/ogvhub/core/lead"
	"github.com/aiesec-vn/ogvhub/core/profile"
	"github.com/aiesec-vn/ogvhub/core/refdata"
)

var (
	errUnauthorized        = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errInvalidAudience     = echo.NewHTTPError(http.StatusUnauthorized, "invalid token audience")
	errProfileMissing      = echo.NewHTTPError(http.StatusForbidden, "no profile for this account")
	errAccountDeactivated  = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errHttpForbidden       = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound        = echo.NewHTTPError(http.StatusNotFound, "not found")
	errProfileNotInContext = errors.New("profile not found in echo.Context")
)

// statusFor maps domain sentinels to HTTP statuses.
func statusFor(cause error) (int, bool) {
	switch cause {
	case lead.ErrNotFound, funnel.ErrNotFound, profile.ErrNotFound, refdata.ErrNotFound:
		return http.StatusNotFound, true
	case funnel.ErrOutOfScope, profile.ErrForbidden:
		return http.StatusForbidden, true
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		if status, ok := statusFor(cause); ok {
			code = status
			message = cause.Error()
		} else {
			switch origErr := cause.(type) {
			case *echo.HTTPError:
				if origErr == middleware.ErrJWTMissing {
					code = http.StatusUnauthorized
					message = origErr.Message
					break
				}
				if origErr.Internal != nil {
					if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
						origErr = herr
					}
				}
				code = origErr.Code
				message = origErr.Message
			case validator.ValidationErrors:
				fldErrs := make(map[string]string, len(origErr))
				for _, vErr := range origErr {
					fldErrs[vErr.Field()] = vErr.Translate(translator)
				}
				code = http.StatusBadRequest
				message = fldErrs
			case *core.ValidationError:
				if origErr.Fields != nil {
					fldErrs := make(map[string]string, len(origErr.Fields))
					for _, fErr := range origErr.Fields {
						fldErrs[fErr.Field] = fErr.Error
					}
					message = fldErrs
				} else {
					message = origErr.Error()
				}
				code = http.StatusBadRequest
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var actor core.Actor
				if p, pErr := getContextProfile(ctx); pErr == nil {
					actor = p.Actor()
				}
				logger.Error(msg, errors.Wrap(err, msg), actor)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
