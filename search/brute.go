// Package search measures how well a reduced space preserves neighbourhoods:
// it runs exact k-nearest-neighbour queries in the reduced space and in the
// original space and compares the two.
package search

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/b0tShaman/idxreduce/idx"
)

// Neighbor is a point index and its distance to the query.
type Neighbor struct {
	ID       int
	Distance float64
}

// BruteForce returns the k points closest to query by Euclidean distance,
// nearest first. Equal distances are ordered by ID.
func BruteForce(points [][]float64, query []float64, k int) []Neighbor {
	if k <= 0 || len(points) == 0 {
		return nil
	}
	all := make([]Neighbor, len(points))
	for i, p := range points {
		all[i] = Neighbor{ID: i, Distance: floats.Distance(p, query, 2)}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Distance != all[j].Distance {
			return all[i].Distance < all[j].Distance
		}
		return all[i].ID < all[j].ID
	})
	if k > len(all) {
		k = len(all)
	}
	return all[:k:k]
}

// Vectors flattens every image of c into a float64 vector.
func Vectors(c *idx.Container) [][]float64 {
	out := make([][]float64, len(c.Images))
	for i, img := range c.Images {
		v := make([]float64, len(img))
		for j, s := range img {
			v[j] = float64(s)
		}
		out[i] = v
	}
	return out
}
