package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/UserUnknownFactor/psbtool/internal/api"
	"github.com/UserUnknownFactor/psbtool/internal/logger"
	"github.com/UserUnknownFactor/psbtool/internal/webui"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		maxBody     int64
		maxStored   int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the container HTTP API",
		Flags: append(codecFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-body",
				Usage:       "largest accepted request body in bytes",
				Value:       api.DefaultMaxBodyBytes,
				Destination: &maxBody,
			},
			&cli.Int64Flag{
				Name:        "max-stored",
				Usage:       "extracted containers kept for apply",
				Value:       api.DefaultStoreCapacity,
				Destination: &maxStored,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, LoadConfig(), &addr, &maxBody)

			server := api.NewServer(api.Config{
				Options:      codecOptions(),
				MaxBodyBytes: maxBody,
				Store:        api.NewContainerStore(int(maxStored)),
				Logger:       log.With("component", "api"),
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			e.GET("/*", echo.WrapHandler(webui.Handler()))
			log.Info("starting server", "address", addr)
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
