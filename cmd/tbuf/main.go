package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tensorbuffers/internal/logger"
)

func main() {
	var logLevel string

	app := &cli.Command{
		Name:  "tbuf",
		Usage: "Inspect, build and serve TensorBuffers containers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Value:       "info",
				Destination: &logLevel,
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			log := logger.Pretty(os.Stderr, logger.ParseLevel(logLevel))
			return logger.WithContext(ctx, log), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			inspectCmd(),
			getCmd(),
			packCmd(),
			serveCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
