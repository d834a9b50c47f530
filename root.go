package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/b0tShaman/idxreduce/config"
	"github.com/b0tShaman/idxreduce/ml"
	"github.com/b0tShaman/idxreduce/reduce"
	"github.com/b0tShaman/idxreduce/tensor"
)

// app holds the state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	stdout  io.Writer
	stderr  io.Writer
}

// load merges defaults, config file, environment and flags.
func (a *app) load() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return nil, nil, usageError(err)
	}
	logger, err := newLogger(a.stderr, cfg.Log)
	if err != nil {
		return nil, nil, usageError(err)
	}
	return cfg, logger, nil
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: config.NewViper(), stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "idxreduce -d <dataset> -q <query> -od <output dataset> -oq <output query>",
		Short: "Reduce IDX image containers to latent vectors",
		Long: `Reduce the dataset and query IDX image containers with an encoder and write
both results as IDX containers of rows=D, cols=1. Either both outputs are
written or neither is.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runReduce,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (yaml, toml or json)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json, logfmt")
	bind(a.v, pf, map[string]string{
		"log.level":  "log-level",
		"log.format": "log-format",
	})

	f := rootCmd.Flags()
	f.String("dataset", "", "dataset container (-d)")
	f.String("query", "", "query container (-q)")
	f.String("output-dataset", "", "reduced dataset output (-od)")
	f.String("output-query", "", "reduced query output (-oq)")
	f.Int("dataset-limit", 0, "use only the first N dataset images (0 = all)")
	f.Int("query-limit", 0, "use only the first N query images (0 = all)")
	f.String("encoder", config.EncoderProjection, "encoder: network or projection")
	f.String("model", "", "network model file for the network encoder")
	f.Int("latent", 10, "latent dimension of the projection encoder")
	f.Int64("seed", 1, "projection seed")
	f.Int("batch-size", ml.DefaultBatchSize, "images per forward pass")
	bind(a.v, f, map[string]string{
		"dataset":            "dataset",
		"query":              "query",
		"output_dataset":     "output-dataset",
		"output_query":       "output-query",
		"dataset_limit":      "dataset-limit",
		"query_limit":        "query-limit",
		"encoder.kind":       "encoder",
		"encoder.model":      "model",
		"encoder.latent":     "latent",
		"encoder.seed":       "seed",
		"encoder.batch_size": "batch-size",
	})

	rootCmd.AddCommand(
		newPackCmd(a),
		newExportCmd(a),
		newInspectCmd(a),
		newEvaluateCmd(a),
		newModelCmd(a),
	)
	return rootCmd
}

// bind ties viper keys to flags so a set flag overrides file and environment.
func bind(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	for key, flag := range keys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind %s: %v", flag, err))
		}
	}
}

func (a *app) runReduce(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := a.load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return usageError(err)
	}

	enc, err := newEncoder(cfg.Encoder)
	if err != nil {
		return err
	}

	p := &reduce.Pipeline{
		Encoder: enc,
		Limits:  reduce.Limits{Dataset: cfg.DatasetLimit, Query: cfg.QueryLimit},
		Logger:  logger,
	}
	start := time.Now()
	res, err := p.RunFiles(reduce.Paths{
		Dataset:       cfg.Dataset,
		Query:         cfg.Query,
		OutputDataset: cfg.OutputDataset,
		OutputQuery:   cfg.OutputQuery,
	})
	if err != nil {
		return err
	}
	logger.Info("done", "dataset_items", res.Dataset.Items, "query_items", res.Query.Items,
		"dim", res.Dataset.Rows, "elapsed", time.Since(start))
	return nil
}

func newEncoder(cfg config.Encoder) (reduce.Encoder, error) {
	switch cfg.Kind {
	case config.EncoderNetwork:
		net, err := ml.LoadNetwork(cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
		return &ml.NetworkEncoder{Net: net, BatchSize: cfg.BatchSize}, nil
	case config.EncoderProjection:
		return &projectionEncoder{latent: cfg.Latent, seed: uint64(cfg.Seed)}, nil
	default:
		return nil, usageError(fmt.Errorf("%w: unknown encoder %q", config.ErrInvalid, cfg.Kind))
	}
}

// projectionEncoder sizes its projection from the first batch it encodes.
type projectionEncoder struct {
	latent int
	seed   uint64
	enc    *ml.ProjectionEncoder
}

func (p *projectionEncoder) LatentDim() int { return p.latent }

func (p *projectionEncoder) Encode(images *tensor.Tensor) (*tensor.Tensor, error) {
	if p.enc == nil {
		if images.Rank() < 2 || images.Dim(0) == 0 {
			return nil, fmt.Errorf("projection: cannot size from shape %v", images.Shape())
		}
		enc, err := ml.NewProjectionEncoder(images.Len()/images.Dim(0), p.latent, p.seed)
		if err != nil {
			return nil, err
		}
		p.enc = enc
	}
	return p.enc.Encode(images)
}
