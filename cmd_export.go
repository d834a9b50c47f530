package main

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/b0tShaman/idxreduce/data"
	"github.com/b0tShaman/idxreduce/idx"
	"github.com/b0tShaman/idxreduce/storage"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <container> <index> <out.png>",
		Short: "Write one image of a container as a gray PNG",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := a.load()
			if err != nil {
				return err
			}
			i, err := strconv.Atoi(args[1])
			if err != nil {
				return usageError(fmt.Errorf("export: bad index %q", args[1]))
			}
			c, err := idx.ReadFile(args[0])
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := data.ExportPNG(&buf, c, i); err != nil {
				return err
			}
			if err := storage.Commit(storage.File{Path: args[2], Data: buf.Bytes()}); err != nil {
				return err
			}
			logger.Info("exported", "path", args[2], "index", i, "rows", c.Rows, "cols", c.Cols)
			return nil
		},
	}
}
