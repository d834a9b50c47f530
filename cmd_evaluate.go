package main

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/b0tShaman/idxreduce/idx"
	"github.com/b0tShaman/idxreduce/search"
	"github.com/b0tShaman/idxreduce/storage"
)

func newEvaluateCmd(a *app) *cobra.Command {
	var (
		dataset, query               string
		reducedDataset, reducedQuery string
		output, method               string
		k, workers                   int
		gnns                         = search.DefaultGNNSConfig()
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Compare nearest neighbors in the reduced space against the original space",
		Long: `For every reduced query, find its k nearest neighbors in the reduced dataset
and in the original dataset, then report their original-space distances and
the average approximation factor. Originals are truncated to the reduced
item counts. With --method gnns the reduced-space search walks a
neighbour graph instead of scanning every point.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, logger, err := a.load()
			if err != nil {
				return err
			}
			for flag, v := range map[string]string{
				"--dataset":         dataset,
				"--query":           query,
				"--reduced-dataset": reducedDataset,
				"--reduced-query":   reducedQuery,
			} {
				if v == "" {
					return usageError(fmt.Errorf("evaluate: %s is required", flag))
				}
			}

			rd, err := idx.ReadFile(reducedDataset)
			if err != nil {
				return err
			}
			rq, err := idx.ReadFile(reducedQuery)
			if err != nil {
				return err
			}
			od, err := idx.ReadFile(dataset)
			if err != nil {
				return err
			}
			oq, err := idx.ReadFile(query)
			if err != nil {
				return err
			}

			reduced := search.Vectors(rd)
			ev := &search.Evaluator{K: k, Workers: workers, Logger: logger}
			switch method {
			case "brute":
			case "gnns":
				start := time.Now()
				index, err := search.NewGNNS(cmd.Context(), reduced, gnns)
				if err != nil {
					return err
				}
				logger.Info("graph built", "items", len(reduced), "graph_nn", gnns.GraphNN, "elapsed", time.Since(start))
				ev.Index = index
			default:
				return usageError(fmt.Errorf("evaluate: unknown method %q", method))
			}
			report, err := ev.Run(cmd.Context(), search.Spaces{
				ReducedData:   reduced,
				ReducedQuery:  search.Vectors(rq),
				OriginalData:  search.Vectors(od.Head(len(rd.Images))),
				OriginalQuery: search.Vectors(oq.Head(len(rq.Images))),
			})
			if err != nil {
				return err
			}

			if output == "" {
				_, err = report.WriteTo(a.stdout)
				return err
			}
			var buf bytes.Buffer
			if _, err := report.WriteTo(&buf); err != nil {
				return err
			}
			return storage.Commit(storage.File{Path: output, Data: buf.Bytes()})
		},
	}
	f := cmd.Flags()
	f.StringVar(&dataset, "dataset", "", "original dataset container")
	f.StringVar(&query, "query", "", "original query container")
	f.StringVar(&reducedDataset, "reduced-dataset", "", "reduced dataset container")
	f.StringVar(&reducedQuery, "reduced-query", "", "reduced query container")
	f.StringVarP(&output, "output", "o", "", "report file (default stdout)")
	f.IntVarP(&k, "k", "k", 1, "neighbors per query")
	f.IntVar(&workers, "workers", 0, "parallel queries (0 = GOMAXPROCS)")
	f.StringVar(&method, "method", "brute", "reduced-space search: brute or gnns")
	f.IntVar(&gnns.GraphNN, "graph-nn", gnns.GraphNN, "gnns: neighbours per graph node")
	f.IntVar(&gnns.Expansions, "expansions", gnns.Expansions, "gnns: neighbours examined per step")
	f.IntVar(&gnns.Restarts, "restarts", gnns.Restarts, "gnns: random restarts per query")
	f.IntVar(&gnns.Steps, "steps", gnns.Steps, "gnns: greedy steps per restart")
	f.Uint64Var(&gnns.Seed, "seed", gnns.Seed, "gnns: restart seed")
	return cmd
}
