package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spindly-dev/spindly"
	"gopkg.in/yaml.v3"
)

// evaluateRequest a single expression with optional params
type evaluateRequest struct {
	Source  string         `json:"source" yaml:"source"`
	Params  map[string]any `json:"params" yaml:"params"`
	Timeout time.Duration  `json:"timeout" yaml:"timeout"`
}

// RouteEvaluate the evaluate routes
func RouteEvaluate(e *echo.Echo, opt Options) {
	timeout := opt.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	logger := opt.Logger

	e.POST("/evaluate", func(c echo.Context) error {
		req := new(evaluateRequest)
		if strings.Contains(c.Request().Header.Get(echo.HeaderContentType), "yaml") {
			if err := yaml.NewDecoder(c.Request().Body).Decode(req); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
		} else if err := c.Bind(req); err != nil {
			return err
		}
		if req.Source == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "source is required")
		}

		t := timeout
		if req.Timeout > 0 {
			t = req.Timeout
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), t)
		defer cancel()
		if logger != nil {
			ctx = spindly.WithLogger(ctx, logger)
		}

		value, err := spindly.Run(ctx, spindly.Expr{Source: req.Source, Params: req.Params})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]any{"value": value})
	})
}
