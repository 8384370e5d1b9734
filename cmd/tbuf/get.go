package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tensorbuffers/internal/logger"
	"github.com/samcharles93/tensorbuffers/pkg/tbf"
)

func getCmd() *cli.Command {
	var (
		url    string
		name   string
		output string
	)

	return &cli.Command{
		Name:  "get",
		Usage: "Fetch one tensor's raw bytes from a local or remote container",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "url",
				Aliases:     []string{"u"},
				Usage:       "container URL (file:// or https://)",
				Destination: &url,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "tensor",
				Aliases:     []string{"t"},
				Usage:       "tensor name",
				Destination: &name,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output path (default stdout)",
				Destination: &output,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			tb, err := tbf.Open(ctx, url)
			if err != nil {
				return err
			}
			defer func() { _ = tb.Close() }()

			meta, err := tb.TensorMetaByName(ctx, name)
			if err != nil {
				return err
			}
			raw, err := tb.ReadRaw(ctx, meta)
			if err != nil {
				return err
			}
			log.Info("fetched tensor",
				"name", meta.Name, "id", meta.ID,
				"dtype", meta.DType.String(), "bytes", len(raw))

			if output == "" {
				_, err = os.Stdout.Write(raw)
				return err
			}
			if err := os.WriteFile(output, raw, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			return nil
		},
	}
}
