package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tensorbuffers/internal/logger"
	"github.com/samcharles93/tensorbuffers/internal/safetensors"
	"github.com/samcharles93/tensorbuffers/pkg/tbf"
)

// safetensors dtype names that map 1:1 onto container dtypes.
var stDTypes = map[string]tbf.DType{
	"I8":  tbf.DTypeI8,
	"I16": tbf.DTypeI16,
	"I32": tbf.DTypeI32,
	"I64": tbf.DTypeI64,
	"U8":  tbf.DTypeU8,
	"U16": tbf.DTypeU16,
	"U32": tbf.DTypeU32,
	"U64": tbf.DTypeU64,
	"F32": tbf.DTypeF32,
	"F64": tbf.DTypeF64,
}

func packCmd() *cli.Command {
	var (
		input  string
		output string
	)

	return &cli.Command{
		Name:  "pack",
		Usage: "Convert a .safetensors file into a .tbuf container",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "in",
				Usage:       "input .safetensors path",
				Destination: &input,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "out",
				Usage:       "output .tbuf path",
				Destination: &output,
				Required:    true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			st, err := safetensors.Open(input)
			if err != nil {
				return fmt.Errorf("open %s: %w", input, err)
			}

			err = tbf.WriteFile(output, func(w *tbf.Writer) error {
				for _, name := range st.Names() {
					info, _ := st.Tensor(name)
					if dt, ok := stDTypes[info.DType]; ok {
						raw, _, err := st.ReadTensor(name)
						if err != nil {
							return err
						}
						if err := w.AddRaw(name, dt, info.Shape, raw); err != nil {
							return err
						}
						log.Debug("packed tensor", "name", name, "dtype", dt.String(), "bytes", len(raw))
						continue
					}
					// F16/BF16 payloads are widened to f32.
					vals, info, err := st.ReadTensorF32(name)
					if err != nil {
						return fmt.Errorf("tensor %s: %w", name, err)
					}
					if err := tbf.Add(w, tbf.NewTensor(name, vals, info.Shape)); err != nil {
						return err
					}
					log.Debug("packed tensor", "name", name, "dtype", "f32", "widened_from", info.DType)
				}
				return nil
			})
			if err != nil {
				return err
			}

			log.Info("packed container", "in", input, "out", output, "tensors", len(st.Tensors))
			return nil
		},
	}
}
