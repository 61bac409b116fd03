package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"fileshare-web/internal/config"
	"fileshare-web/internal/router"
)

// NewServer собирает echo: middleware, страницы из таблицы маршрутов,
// прокси на API и служебные эндпоинты.
func NewServer(cfg *config.Config, h *Handler, metrics http.Handler) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = h.HTTPError

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	if len(cfg.Server.AllowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.Server.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
	if cfg.Server.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	// прокси нужен, когда api.url относительный и браузер ходит в API через нас.
	if cfg.API.ProxyTarget != "" {
		target, err := url.Parse(cfg.API.ProxyTarget)
		if err != nil {
			return nil, fmt.Errorf("failed to parse proxy target: %w", err)
		}
		prefix, err := apiPrefix(cfg.API.URL)
		if err != nil {
			return nil, err
		}
		e.Group(prefix, middleware.ProxyWithConfig(middleware.ProxyConfig{
			Balancer: middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{{URL: target}}),
		}))
	}

	var sharePattern string
	for _, route := range h.router.Routes() {
		e.GET(route.Path, h.Page)
		if route.Name == router.RouteFileShare {
			sharePattern = route.Path
		}
	}
	e.POST(PathUpload, h.Upload)
	e.POST(PathDelete, h.Delete)
	if sharePattern != "" {
		e.GET(sharePattern+PathQRCode, h.QRCode)
	}
	e.GET(PathHealth, h.Health)
	if metrics != nil {
		e.GET(PathMetrics, echo.WrapHandler(metrics))
	}
	e.RouteNotFound("/*", h.NotFound)

	return e, nil
}

// apiPrefix путь API без хоста: абсолютный api.url тоже проксируется по пути.
func apiPrefix(apiURL string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse api url: %w", err)
	}
	prefix := strings.TrimRight(u.Path, "/")
	if prefix == "" {
		return "", fmt.Errorf("api url %q has no path to proxy", apiURL)
	}
	return prefix, nil
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == PathHealth || path == PathMetrics
		},
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			entry := logrus.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency,
				"request_id": v.RequestID,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn(LogRequest)
				return nil
			}
			entry.Info(LogRequest)
			return nil
		},
	})
}
