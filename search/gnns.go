package search

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Searcher answers approximate k-nearest-neighbour queries over a fixed
// point set. Results are nearest first and ids index that point set.
type Searcher interface {
	Search(query []float64, k int) []Neighbor
}

// GNNSConfig parameterizes graph nearest neighbour search.
type GNNSConfig struct {
	GraphNN    int    // neighbours stored per point
	Expansions int    // neighbours examined per greedy step
	Restarts   int    // random starting points per query
	Steps      int    // greedy steps per restart
	Seed       uint64 // starting point selection
}

// DefaultGNNSConfig returns the parameters used by the evaluate command.
func DefaultGNNSConfig() GNNSConfig {
	return GNNSConfig{GraphNN: 10, Expansions: 10, Restarts: 5, Steps: 30, Seed: 1}
}

// GNNS is a k-nearest-neighbour graph searched greedily from random
// restarts. Each step moves to the closest of the current point's first
// Expansions neighbours and stops once that is no longer an improvement.
type GNNS struct {
	cfg    GNNSConfig
	points [][]float64
	graph  [][]int
}

// NewGNNS builds the neighbour graph of points with exact k-NN, running up
// to GOMAXPROCS workers.
func NewGNNS(ctx context.Context, points [][]float64, cfg GNNSConfig) (*GNNS, error) {
	if cfg.GraphNN <= 0 || cfg.Expansions <= 0 || cfg.Restarts <= 0 || cfg.Steps <= 0 {
		return nil, fmt.Errorf("gnns: invalid config %+v", cfg)
	}
	if err := sameWidth("gnns", points); err != nil {
		return nil, err
	}

	graph := make([][]int, len(points))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range points {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			nn := BruteForce(points, points[i], cfg.GraphNN+1)
			ids := make([]int, 0, cfg.GraphNN)
			for _, n := range nn {
				if n.ID != i && len(ids) < cfg.GraphNN {
					ids = append(ids, n.ID)
				}
			}
			graph[i] = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &GNNS{cfg: cfg, points: points, graph: graph}, nil
}

// Search returns up to k of the points visited while descending the graph.
// The same query always takes the same path, so Search is safe for
// concurrent use and deterministic.
func (s *GNNS) Search(query []float64, k int) []Neighbor {
	if k <= 0 || len(s.points) == 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(s.cfg.Seed, queryHash(query)))

	seen := make(map[int]float64)
	best := math.Inf(1)
	for r := 0; r < s.cfg.Restarts; r++ {
		y := rng.IntN(len(s.points))
		if _, ok := seen[y]; !ok {
			seen[y] = floats.Distance(s.points[y], query, 2)
			best = math.Min(best, seen[y])
		}
		for t := 0; t < s.cfg.Steps; t++ {
			next, nextDist := -1, math.Inf(1)
			neighbours := s.graph[y]
			if len(neighbours) > s.cfg.Expansions {
				neighbours = neighbours[:s.cfg.Expansions]
			}
			for _, id := range neighbours {
				d, ok := seen[id]
				if !ok {
					d = floats.Distance(s.points[id], query, 2)
					seen[id] = d
				}
				if d < nextDist || (d == nextDist && id < next) {
					next, nextDist = id, d
				}
			}
			if next == -1 || nextDist > best {
				break
			}
			best = nextDist
			y = next
		}
	}

	out := make([]Neighbor, 0, len(seen))
	for id, d := range seen {
		out = append(out, Neighbor{ID: id, Distance: d})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID
	})
	if k > len(out) {
		k = len(out)
	}
	return out[:k:k]
}

func queryHash(query []float64) uint64 {
	h := fnv.New64a()
	var b [8]byte
	for _, v := range query {
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		h.Write(b[:])
	}
	return h.Sum64()
}

// bruteSearcher is the exact Searcher used when no index is configured.
type bruteSearcher [][]float64

func (b bruteSearcher) Search(query []float64, k int) []Neighbor {
	return BruteForce(b, query, k)
}
