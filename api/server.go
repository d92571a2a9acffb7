// Package api the evaluate HTTP service.
package api

import (
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/spindly-dev/spindly"
)

const (
	// DefaultTimeout the default evaluate timeout
	DefaultTimeout = time.Minute
	// DefaultAddress the api default address
	DefaultAddress = "localhost:8080"
)

// Options the api server configuration
type Options struct {
	Logger  *slog.Logger  `yaml:"-"`
	Token   string        `yaml:"token"`
	Address string        `yaml:"address"`
	Timeout time.Duration `yaml:"timeout"`
}

// Server the api service
func Server(opt Options) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = errorHandler
	e.HideBanner = true
	e.Use(loggerMiddleware(opt), authMiddleware(opt))
	e.Any("/ping", ping)
	e.Any("", ping)
	RouteEvaluate(e, opt)
	return e
}

func ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}

func errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	var (
		httpErr        *echo.HTTPError
		syntaxErr      *spindly.SyntaxError
		evalErr        *spindly.EvaluationError
		unsupportedErr *spindly.UnsupportedValueError
	)
	switch {
	case errors.As(err, &httpErr):
		code = httpErr.Code
	case errors.As(err, &syntaxErr):
		code = http.StatusBadRequest
	case errors.As(err, &evalErr), errors.As(err, &unsupportedErr):
		code = http.StatusUnprocessableEntity
	}

	if err = c.JSON(code, map[string]string{"msg": err.Error()}); err != nil {
		c.Logger().Error(err)
	}
}
