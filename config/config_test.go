package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	c := DefaultConfig()
	c.Dataset = "in.idx"
	c.Query = "q.idx"
	c.OutputDataset = "out.idx"
	c.OutputQuery = "outq.idx"
	return c
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("IDXREDUCE_DATASET", "from-env.idx")
	t.Setenv("IDXREDUCE_ENCODER_LATENT", "32")

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)
	assert.Equal(t, "from-env.idx", cfg.Dataset)
	assert.Equal(t, 32, cfg.Encoder.Latent)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idxreduce.yaml")
	body := "query: q.idx\ndataset_limit: 100\nencoder:\n  kind: network\n  model: m.gob\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, "q.idx", cfg.Query)
	assert.Equal(t, 100, cfg.DatasetLimit)
	assert.Equal(t, EncoderNetwork, cfg.Encoder.Kind)
	assert.Equal(t, "m.gob", cfg.Encoder.Model)
	assert.Equal(t, 256, cfg.Encoder.BatchSize)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		flag   string
	}{
		{"dataset", func(c *Config) { c.Dataset = "" }, "-d"},
		{"query", func(c *Config) { c.Query = "" }, "-q"},
		{"output dataset", func(c *Config) { c.OutputDataset = "" }, "-od"},
		{"output query", func(c *Config) { c.OutputQuery = "" }, "-oq"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			require.ErrorIs(t, err, ErrMissingFlag)
			var mf *MissingFlagError
			require.ErrorAs(t, err, &mf)
			assert.Equal(t, tt.flag, mf.Flag)
			assert.Contains(t, err.Error(), tt.flag)
		})
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative limit", func(c *Config) { c.QueryLimit = -1 }},
		{"zero latent", func(c *Config) { c.Encoder.Latent = 0 }},
		{"unknown encoder", func(c *Config) { c.Encoder.Kind = "pca" }},
		{"negative batch", func(c *Config) { c.Encoder.BatchSize = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}

	c := validConfig()
	c.Encoder.Kind = EncoderNetwork
	assert.ErrorIs(t, c.Validate(), ErrMissingFlag)
}
