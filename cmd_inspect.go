package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/b0tShaman/idxreduce/idx"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <container>",
		Short: "Print the header and sample statistics of a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := a.load(); err != nil {
				return err
			}
			c, err := idx.ReadFile(args[0])
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "file:\t%s\n", args[0])
			fmt.Fprintf(tw, "magic:\t%d\n", c.Magic)
			fmt.Fprintf(tw, "items:\t%d\n", c.Items)
			fmt.Fprintf(tw, "rows:\t%d\n", c.Rows)
			fmt.Fprintf(tw, "cols:\t%d\n", c.Cols)
			fmt.Fprintf(tw, "payload:\t%d bytes\n", uint64(c.Items)*c.ImageSize())

			samples := c.Tensor().AsFloat64().Float64s()
			if len(samples) > 0 {
				mean, std := stat.MeanStdDev(samples, nil)
				fmt.Fprintf(tw, "min:\t%g\n", floats.Min(samples))
				fmt.Fprintf(tw, "max:\t%g\n", floats.Max(samples))
				fmt.Fprintf(tw, "mean:\t%.4f\n", mean)
				fmt.Fprintf(tw, "stddev:\t%.4f\n", std)
			}
			return tw.Flush()
		},
	}
}
