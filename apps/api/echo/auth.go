package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/aiesec-vn/ogvhub/core"
	"github.com/aiesec-vn/ogvhub/core/profile"
)

const (
	contextTokenKey   = "userToken"
	contextProfileKey = "profile"
)

// Claims represents the authorization claims issued by the identity provider.
// The subject is the profile ID.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.Server.JWTSecret),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// NewClaims builds the claims the identity provider would issue for p. Used by tests and tooling.
func NewClaims(p profile.Profile, conf *core.Config, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   p.ID,
			Audience:  conf.Server.JWTAudience,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: p.Email,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims, conf *core.Config) (string, error) {
	jwtConf := newJWTConfig(conf)
	method := jwt.GetSigningMethod(jwtConf.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(jwtConf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextProfile(ctx echo.Context) (profile.Profile, error) {
	if p, ok := ctx.Get(contextProfileKey).(profile.Profile); ok {
		return p, nil
	}
	return profile.Profile{}, errProfileNotInContext
}

func findProfile(ctx echo.Context, svc *profile.Service, claims Claims) (profile.Profile, error) {
	c := ctx.Request().Context()
	p, err := svc.Get(c, claims.Subject)
	if errors.Cause(err) == profile.ErrNotFound && claims.Email != "" {
		p, err = svc.GetByEmail(c, claims.Email)
	}
	return p, err
}

// profileMiddleware resolves the token's subject to an active profile and stores it in the context.
func profileMiddleware(svc *profile.Service, conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if aud := conf.Server.JWTAudience; aud != "" && !claims.VerifyAudience(aud, true) {
				return errInvalidAudience
			}

			p, err := findProfile(ctx, svc, claims)
			if err != nil {
				if errors.Cause(err) == profile.ErrNotFound {
					return errProfileMissing
				}
				return errors.Wrap(err, "finding profile")
			}
			if !p.IsActive {
				return errAccountDeactivated
			}
			ctx.Set(contextProfileKey, p)
			return next(ctx)
		}
	}
}
