package search

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Spaces pairs the reduced and the original representation of the same
// dataset and query set. Index i denotes the same image in both spaces.
type Spaces struct {
	ReducedData   [][]float64
	ReducedQuery  [][]float64
	OriginalData  [][]float64
	OriginalQuery [][]float64
}

func (s Spaces) validate() error {
	if len(s.ReducedData) != len(s.OriginalData) {
		return fmt.Errorf("reduced dataset has %d items, original has %d", len(s.ReducedData), len(s.OriginalData))
	}
	if len(s.ReducedQuery) > len(s.OriginalQuery) {
		return fmt.Errorf("reduced query set has %d items, original has only %d", len(s.ReducedQuery), len(s.OriginalQuery))
	}
	if err := sameWidth("reduced", s.ReducedData, s.ReducedQuery); err != nil {
		return err
	}
	return sameWidth("original", s.OriginalData, s.OriginalQuery)
}

func sameWidth(space string, sets ...[][]float64) error {
	width := -1
	for _, set := range sets {
		for _, v := range set {
			if width == -1 {
				width = len(v)
			}
			if len(v) != width {
				return fmt.Errorf("%s space mixes vectors of width %d and %d", space, width, len(v))
			}
		}
	}
	return nil
}

// QueryResult compares one query's neighbours across the two spaces.
// Approximate holds the reduced-space neighbours with their distance measured
// in the original space; True holds the exact original-space neighbours.
type QueryResult struct {
	ID          int
	Approximate []Neighbor
	True        []Neighbor
	TApprox     time.Duration
	TTrue       time.Duration
}

// Report aggregates every QueryResult.
type Report struct {
	Queries      []QueryResult
	AAF          float64
	AvgApprox    time.Duration
	AvgTrue      time.Duration
	ratioSamples int
}

// Evaluator compares reduced-space neighbours with exact original-space
// neighbours. Index, when set, must be built over Spaces.ReducedData and
// replaces the exact reduced-space search.
type Evaluator struct {
	K       int
	Workers int
	Index   Searcher
	Logger  *log.Logger
}

// Run evaluates every reduced query. Queries are processed concurrently by
// up to Workers goroutines; results keep query order.
func (e *Evaluator) Run(ctx context.Context, s Spaces) (*Report, error) {
	if e.K <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", e.K)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]QueryResult, len(s.ReducedQuery))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for q := range s.ReducedQuery {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[q] = e.query(s, q)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := summarize(results)
	if e.Logger != nil {
		e.Logger.Info("evaluated", "queries", len(results), "k", e.K, "aaf", r.AAF,
			"avg_approx", r.AvgApprox, "avg_true", r.AvgTrue)
	}
	return r, nil
}

func (e *Evaluator) query(s Spaces, q int) QueryResult {
	start := time.Now()
	var index Searcher = bruteSearcher(s.ReducedData)
	if e.Index != nil {
		index = e.Index
	}
	approx := index.Search(s.ReducedQuery[q], e.K)
	tApprox := time.Since(start)

	orig := s.OriginalQuery[q]
	start = time.Now()
	exact := BruteForce(s.OriginalData, orig, e.K)
	tTrue := time.Since(start)

	projected := make([]Neighbor, len(approx))
	for i, n := range approx {
		projected[i] = Neighbor{ID: n.ID, Distance: floats.Distance(s.OriginalData[n.ID], orig, 2)}
	}
	return QueryResult{ID: q, Approximate: projected, True: exact, TApprox: tApprox, TTrue: tTrue}
}

// summarize computes the average approximation factor: the mean ratio of the
// i-th approximate neighbour's true distance to the i-th exact distance.
// A zero exact distance counts as ratio 1 if the approximate distance is also
// zero and is skipped otherwise.
func summarize(results []QueryResult) *Report {
	r := &Report{Queries: results}
	var sum float64
	var tApprox, tTrue time.Duration
	for _, q := range results {
		tApprox += q.TApprox
		tTrue += q.TTrue
		for i := range q.Approximate {
			if i >= len(q.True) {
				break
			}
			a, t := q.Approximate[i].Distance, q.True[i].Distance
			switch {
			case t > 0:
				sum += a / t
			case a == 0:
				sum++
			default:
				continue
			}
			r.ratioSamples++
		}
	}
	if r.ratioSamples > 0 {
		r.AAF = sum / float64(r.ratioSamples)
	}
	if n := len(results); n > 0 {
		r.AvgApprox = tApprox / time.Duration(n)
		r.AvgTrue = tTrue / time.Duration(n)
	}
	return r
}

// WriteTo writes the report in a line-oriented text layout.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	for _, q := range r.Queries {
		fmt.Fprintf(cw, "Query: %d\n", q.ID)
		for i, n := range q.Approximate {
			fmt.Fprintf(cw, "Nearest neighbor-%d: %d\n", i+1, n.ID)
			fmt.Fprintf(cw, "distanceApproximate: %g\n", n.Distance)
			if i < len(q.True) {
				fmt.Fprintf(cw, "distanceTrue: %g\n", q.True[i].Distance)
			}
		}
		fmt.Fprintf(cw, "tApproximate: %g\n", q.TApprox.Seconds())
		fmt.Fprintf(cw, "tTrue: %g\n\n", q.TTrue.Seconds())
	}
	fmt.Fprintf(cw, "tAverageApproximate: %g\n", r.AvgApprox.Seconds())
	fmt.Fprintf(cw, "tAverageTrue: %g\n", r.AvgTrue.Seconds())
	fmt.Fprintf(cw, "AAF: %g\n", r.AAF)
	return cw.n, cw.err
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
