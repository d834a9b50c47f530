// Package reduce turns a dataset and a query set of gray-scale images into
// containers of latent vectors produced by an Encoder.
//
// Both sets go through the same steps: truncate to a limit, normalize to
// [0, 1], encode once as a whole batch, rescale the result over its global
// range to [0, 255], and store it with a header of rows=D, cols=1.
package reduce

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/floats"

	"github.com/b0tShaman/idxreduce/idx"
	"github.com/b0tShaman/idxreduce/storage"
	"github.com/b0tShaman/idxreduce/tensor"
)

// Limits caps how many leading images are taken from each input. Zero
// means all of them.
type Limits struct {
	Dataset int
	Query   int
}

// Paths names the inputs and outputs of a file-based run.
type Paths struct {
	Dataset       string
	Query         string
	OutputDataset string
	OutputQuery   string
}

// Result holds the two reduced containers.
type Result struct {
	Dataset *idx.Container
	Query   *idx.Container
}

type Pipeline struct {
	Encoder Encoder
	Limits  Limits
	Logger  *log.Logger
}

// Run reduces dataset and query with enc. It is shorthand for a Pipeline
// without logging.
func Run(dataset, query *idx.Container, enc Encoder, limits Limits) (*Result, error) {
	p := &Pipeline{Encoder: enc, Limits: limits}
	return p.Run(dataset, query)
}

// Run reduces both containers. The inputs are not modified.
func (p *Pipeline) Run(dataset, query *idx.Container) (*Result, error) {
	if p.Encoder == nil {
		return nil, fmt.Errorf("reduce: no encoder configured")
	}
	d, err := p.reduce("dataset", dataset, p.Limits.Dataset)
	if err != nil {
		return nil, err
	}
	q, err := p.reduce("query", query, p.Limits.Query)
	if err != nil {
		return nil, err
	}
	return &Result{Dataset: d, Query: q}, nil
}

// RunFiles loads both inputs, reduces them, and commits both outputs. Both
// outputs are encoded in memory before either file is written, and the
// write is all-or-nothing.
func (p *Pipeline) RunFiles(paths Paths) (*Result, error) {
	logger := p.logger()

	dataset, err := idx.ReadFile(paths.Dataset)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded", "path", paths.Dataset, "items", dataset.Items, "rows", dataset.Rows, "cols", dataset.Cols)

	query, err := idx.ReadFile(paths.Query)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded", "path", paths.Query, "items", query.Items, "rows", query.Rows, "cols", query.Cols)

	res, err := p.Run(dataset, query)
	if err != nil {
		return nil, err
	}

	db, err := idx.Encode(res.Dataset)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", paths.OutputDataset, err)
	}
	qb, err := idx.Encode(res.Query)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", paths.OutputQuery, err)
	}

	if err := storage.Commit(
		storage.File{Path: paths.OutputDataset, Data: db},
		storage.File{Path: paths.OutputQuery, Data: qb},
	); err != nil {
		return nil, err
	}
	logger.Info("saved", "dataset", paths.OutputDataset, "query", paths.OutputQuery)
	return res, nil
}

func (p *Pipeline) reduce(name string, in *idx.Container, limit int) (*idx.Container, error) {
	logger := p.logger().With("dataset", name)

	c := in
	if limit > 0 && limit < len(in.Images) {
		c = in.Head(limit)
	}
	n := len(c.Images)

	if n == 0 {
		dim := 0
		if ls, ok := p.Encoder.(LatentSizer); ok {
			dim = ls.LatentDim()
		}
		logger.Warn("nothing to encode", "items", 0)
		return idx.New(in.Magic, uint32(dim), 1, nil)
	}

	x, err := c.Tensor().Reshape(n, int(c.Rows), int(c.Cols), 1)
	if err != nil {
		return nil, err
	}
	x = Normalize(x)

	start := time.Now()
	z, err := encode(p.Encoder, x)
	if err != nil {
		return nil, &EncoderFailureError{Dataset: name, Err: err}
	}
	if err := p.checkLatent(z, n); err != nil {
		return nil, &EncoderFailureError{Dataset: name, Err: err}
	}
	if lo, hi, err := z.MinMax(); err == nil {
		logger.Debug("encoded", "items", n, "dim", z.Dim(1), "min", lo, "max", hi, "elapsed", time.Since(start))
	}

	q, err := Rescale(z)
	if err != nil {
		return nil, err
	}

	h := BuildHeader(c.Header, n, z.Dim(1))
	out, err := idx.FromTensor(h.Magic, q)
	if err != nil {
		return nil, err
	}
	if out.Header != h {
		return nil, fmt.Errorf("reduced header %+v, want %+v", out.Header, h)
	}
	logger.Info("reduced", "items", out.Items, "rows", out.Rows, "cols", out.Cols)
	return out, nil
}

// BuildHeader is the header of a reduced container: the input's magic
// number, items latent vectors of dim rows and a single column.
func BuildHeader(in idx.Header, items, dim int) idx.Header {
	return idx.Header{Magic: in.Magic, Items: uint32(items), Rows: uint32(dim), Cols: 1}
}

func (p *Pipeline) checkLatent(z *tensor.Tensor, n int) error {
	if z == nil {
		return fmt.Errorf("encoder returned no tensor")
	}
	if z.Rank() != 2 {
		return fmt.Errorf("encoder returned shape %v, want [%d, D]", z.Shape(), n)
	}
	if z.Dim(0) != n {
		return fmt.Errorf("encoder returned %d rows for %d images", z.Dim(0), n)
	}
	if z.Dim(1) <= 0 || uint64(z.Dim(1)) > math.MaxUint32 {
		return fmt.Errorf("encoder returned latent size %d", z.Dim(1))
	}
	if ls, ok := p.Encoder.(LatentSizer); ok && ls.LatentDim() != z.Dim(1) {
		return fmt.Errorf("encoder declared latent size %d, returned %d", ls.LatentDim(), z.Dim(1))
	}
	if z.DType() == tensor.Float64 {
		vals := z.Float64s()
		if floats.HasNaN(vals) {
			return fmt.Errorf("encoder returned NaN")
		}
		for _, v := range vals {
			if math.IsInf(v, 0) {
				return fmt.Errorf("encoder returned %v", v)
			}
		}
	}
	return nil
}

func (p *Pipeline) logger() *log.Logger {
	if p.Logger == nil {
		return log.New(io.Discard)
	}
	return p.Logger
}
