package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tensorbuffers/pkg/tbf"
)

func inspectCmd() *cli.Command {
	var (
		path       string
		asJSON     bool
		showTensor bool
		showOps    bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect the contents of a .tbuf container",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to .tbuf file",
				Destination: &path,
				Required:    true,
			},
			&cli.BoolFlag{Name: "json", Usage: "emit the trailer as JSON", Destination: &asJSON},
			&cli.BoolFlag{Name: "tensors", Usage: "list the tensor table", Destination: &showTensor, Value: true},
			&cli.BoolFlag{Name: "ops", Usage: "list the operation table", Destination: &showOps},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			f, err := tbf.OpenFile(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			md := f.Metadata()
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(md)
			}

			fmt.Printf("container: %s\n", path)
			fmt.Printf("version:   %s\n", md.Version)
			fmt.Printf("tensors:   %d\n", len(md.Tensors))
			fmt.Printf("ops:       %d\n", len(md.Operations))

			if showTensor {
				fmt.Println()
				fmt.Printf("%-32s %-20s %-6s %-16s %12s %12s\n",
					"NAME", "ID", "DTYPE", "SHAPE", "OFFSET", "SIZE")
				for _, t := range md.Tensors {
					fmt.Printf("%-32s %-20d %-6s %-16v %12d %12d\n",
						t.Name, t.ID, t.DType, t.ShapeInts(), t.DataOffset, t.DataSize)
				}
			}

			if showOps && len(md.Operations) > 0 {
				fmt.Println()
				fmt.Printf("%-20s %-10s %-24s %s\n", "ID", "KIND", "INPUTS", "OUTPUT")
				for _, op := range md.Operations {
					fmt.Printf("%-20d %-10s %-24v %d\n",
						op.ID, op.Kind, op.InputOperations, op.Output)
				}
			}
			return nil
		},
	}
}
