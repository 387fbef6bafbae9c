package http

import (
	"context"
	"net/http"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/pkg/auth"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
)

const actorKey = "actor"

// ActorResolver completes a token identity, binding drivers to their profile.
type ActorResolver interface {
	Handle(ctx context.Context, userID kernel.UUID, role kernel.Role) (kernel.Actor, error)
}

// Authenticate requires a valid bearer token and stores the resolved actor.
func Authenticate(tokens *auth.Manager, resolver ActorResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := auth.TokenFromRequest(c.Request())
			if err != nil {
				return err
			}
			identity, err := tokens.Parse(raw)
			if err != nil {
				return err
			}
			actor, err := resolver.Handle(c.Request().Context(), identity.UserID(), identity.Role())
			if err != nil {
				return err
			}
			c.Set(actorKey, actor)
			return next(c)
		}
	}
}

// RequireRoles rejects actors outside roles. Finer checks stay in the use cases.
func RequireRoles(roles ...kernel.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !actorFrom(c).Is(roles...) {
				return errs.NewForbiddenError(c.Request().Method+" "+c.Path(), "role not allowed")
			}
			return next(c)
		}
	}
}

func actorFrom(c echo.Context) kernel.Actor {
	actor, _ := c.Get(actorKey).(kernel.Actor)
	return actor
}

// ValidateRequests checks parameters and bodies against doc. Routes the
// document does not describe pass through.
func ValidateRequests(doc *openapi3.T) echo.MiddlewareFunc {
	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		MultiError:         false,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := specPath(c.Path())

			item := doc.Paths.Find(path)
			if item == nil {
				return next(c)
			}
			op := item.GetOperation(req.Method)
			if op == nil {
				return next(c)
			}

			params := make(map[string]string, len(c.ParamNames()))
			for i, name := range c.ParamNames() {
				params[name] = c.ParamValues()[i]
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    req,
				PathParams: params,
				Route: &routers.Route{
					Spec:      doc,
					Path:      path,
					PathItem:  item,
					Method:    req.Method,
					Operation: op,
				},
				Options: options,
			}
			if err := openapi3filter.ValidateRequest(req.Context(), input); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			return next(c)
		}
	}
}

// NewRelic records one web transaction per request. A nil app disables it.
func NewRelic(app *newrelic.Application) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if app == nil {
			return next
		}
		return func(c echo.Context) error {
			txn := app.StartTransaction(c.Request().Method + " " + c.Path())
			defer txn.End()

			req := c.Request()
			txn.SetWebRequestHTTP(req)
			c.Response().Writer = txn.SetWebResponse(c.Response().Writer)
			c.SetRequest(req.WithContext(newrelic.NewContext(req.Context(), txn)))

			err := next(c)
			if err != nil {
				txn.NoticeError(err)
			}
			return err
		}
	}
}
