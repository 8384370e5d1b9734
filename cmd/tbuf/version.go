package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tensorbuffers/internal/version"
)

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the tbuf version",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Println("tbuf", version.String())
			return nil
		},
	}
}
