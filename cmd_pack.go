package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/b0tShaman/idxreduce/data"
	"github.com/b0tShaman/idxreduce/idx"
	"github.com/b0tShaman/idxreduce/storage"
)

func newPackCmd(a *app) *cobra.Command {
	var (
		output     string
		rows, cols int
		magic      int32
		fromCSV    bool
		labelled   bool
	)
	cmd := &cobra.Command{
		Use:   "pack <image>... --output <file>",
		Short: "Build an IDX image container from PNG, JPEG or GIF files",
		Long: `Build an IDX image container. Images are converted to gray and resized to
--rows x --cols. With --csv every argument is a pixel CSV file (optionally
compressed) holding one image per record.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := a.load()
			if err != nil {
				return err
			}
			if output == "" {
				return usageError(fmt.Errorf("pack: --output is required"))
			}
			pack := data.Pack
			if fromCSV {
				pack = func(_ context.Context, paths []string, rows, cols int, magic int32) (*idx.Container, error) {
					return packCSV(paths, rows, cols, labelled, magic)
				}
			}
			c, err := pack(cmd.Context(), args, rows, cols, magic)
			if err != nil {
				return err
			}
			if err := idx.WriteFile(output, c); err != nil {
				return err
			}
			logger.Info("packed", "path", output, "items", c.Items, "rows", c.Rows, "cols", c.Cols)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "container to write")
	cmd.Flags().IntVar(&rows, "rows", 28, "image height")
	cmd.Flags().IntVar(&cols, "cols", 28, "image width")
	cmd.Flags().Int32Var(&magic, "magic", idx.MagicImages, "header magic")
	cmd.Flags().BoolVar(&fromCSV, "csv", false, "arguments are pixel CSV files")
	cmd.Flags().BoolVar(&labelled, "labelled", true, "CSV records start with a label column")
	return cmd
}

// packCSV concatenates the images of several CSV files into one container.
func packCSV(paths []string, rows, cols int, labelled bool, magic int32) (*idx.Container, error) {
	var images [][]uint8
	for _, p := range paths {
		b, err := storage.ReadFile(p)
		if err != nil {
			return nil, err
		}
		c, err := data.ReadCSV(bytes.NewReader(b), rows, cols, labelled, magic)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		images = append(images, c.Images...)
	}
	return idx.New(magic, uint32(rows), uint32(cols), images)
}
