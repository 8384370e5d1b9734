package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/samcharles93/tensorbuffers/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		root        string
		rateLimit   int
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Publish container files over HTTP with byte-range support",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.StringFlag{
				Name:        "root",
				Usage:       "directory of container files to publish",
				Value:       ".",
				Destination: &root,
			},
			&cli.IntFlag{
				Name:        "rate-limit",
				Usage:       "max requests per second (0 = unlimited)",
				Destination: &rateLimit,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.IsSet("addr") && cfg.ServerAddress != "" {
				addr = cfg.ServerAddress
			}
			if !cmd.IsSet("root") && cfg.ServeRoot != "" {
				root = cfg.ServeRoot
			}
			if !cmd.IsSet("rate-limit") && cfg.RateLimit > 0 {
				rateLimit = cfg.RateLimit
			}

			var limiter *rate.Limiter
			if rateLimit > 0 {
				limiter = rate.NewLimiter(rate.Limit(rateLimit), rateLimit)
			}

			e := newFileServer(root, log, limiter)
			log.Info("serving containers", "address", addr, "root", root)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}

// newFileServer builds the echo app publishing root under /files/.
// http.ServeContent supplies Content-Length for HEAD and honours Range
// headers, which is exactly the protocol the remote source speaks.
func newFileServer(root string, log logger.Logger, limiter *rate.Limiter) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(requestLog(log))
	if limiter != nil {
		e.Use(throttle(limiter))
	}

	h := func(c *echo.Context) error {
		name := c.Param("*")
		if name == "" || strings.Contains(name, "..") {
			return echo.ErrNotFound
		}
		path := filepath.Join(root, filepath.FromSlash(name))
		f, err := os.Open(path)
		if err != nil {
			return echo.ErrNotFound
		}
		defer func() { _ = f.Close() }()
		stat, err := f.Stat()
		if err != nil || stat.IsDir() {
			return echo.ErrNotFound
		}
		http.ServeContent(c.Response(), c.Request(), stat.Name(), stat.ModTime(), f)
		return nil
	}
	e.GET("/files/*", h)
	e.HEAD("/files/*", h)
	return e
}

// requestLog tags each request with a generated id and logs its outcome.
func requestLog(log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			id := uuid.NewString()
			c.Response().Header().Set("X-Request-Id", id)
			start := time.Now()
			err := next(c)
			log.Info("request",
				"id", id,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"range", c.Request().Header.Get("Range"),
				"duration", time.Since(start))
			return err
		}
	}
}

func throttle(limiter *rate.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			if err := limiter.Wait(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
			}
			return next(c)
		}
	}
}
