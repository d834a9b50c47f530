// Package config loads and validates the settings of a reduction run from
// flags, environment and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. IDXREDUCE_DATASET.
	EnvPrefix = "IDXREDUCE"

	EncoderNetwork    = "network"
	EncoderProjection = "projection"
)

var (
	// ErrMissingFlag is matched by every MissingFlagError.
	ErrMissingFlag = errors.New("missing required flag")
	// ErrInvalid is returned for values that are present but unusable.
	ErrInvalid = errors.New("invalid configuration")
)

// MissingFlagError names the command-line flag that was not supplied.
type MissingFlagError struct {
	Flag string
}

func (e *MissingFlagError) Error() string {
	return fmt.Sprintf("missing required flag %s", e.Flag)
}

func (e *MissingFlagError) Is(target error) bool { return target == ErrMissingFlag }

// Encoder selects and parameterizes the dimensionality reducer.
type Encoder struct {
	Kind      string `mapstructure:"kind"`
	Model     string `mapstructure:"model"`
	Latent    int    `mapstructure:"latent"`
	Seed      int64  `mapstructure:"seed"`
	BatchSize int    `mapstructure:"batch_size"`
}

// Log configures the process logger.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the full set of run settings.
type Config struct {
	Dataset       string  `mapstructure:"dataset"`
	Query         string  `mapstructure:"query"`
	OutputDataset string  `mapstructure:"output_dataset"`
	OutputQuery   string  `mapstructure:"output_query"`
	DatasetLimit  int     `mapstructure:"dataset_limit"`
	QueryLimit    int     `mapstructure:"query_limit"`
	Encoder       Encoder `mapstructure:"encoder"`
	Log           Log     `mapstructure:"log"`
}

// DefaultConfig returns the settings used when nothing overrides them.
// Limits of zero mean the whole input is used.
func DefaultConfig() *Config {
	return &Config{
		Encoder: Encoder{
			Kind:      EncoderProjection,
			Latent:    10,
			Seed:      1,
			BatchSize: 256,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// NewViper returns a viper instance holding the defaults with environment
// overrides enabled.
func NewViper() *viper.Viper {
	v := viper.New()

	d := DefaultConfig()
	v.SetDefault("dataset", d.Dataset)
	v.SetDefault("query", d.Query)
	v.SetDefault("output_dataset", d.OutputDataset)
	v.SetDefault("output_query", d.OutputQuery)
	v.SetDefault("dataset_limit", d.DatasetLimit)
	v.SetDefault("query_limit", d.QueryLimit)
	v.SetDefault("encoder.kind", d.Encoder.Kind)
	v.SetDefault("encoder.model", d.Encoder.Model)
	v.SetDefault("encoder.latent", d.Encoder.Latent)
	v.SetDefault("encoder.seed", d.Encoder.Seed)
	v.SetDefault("encoder.batch_size", d.Encoder.BatchSize)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file and decodes every setting known to v.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the four paths are present and the remaining values
// are usable. A missing path is reported by its short flag name.
func (c *Config) Validate() error {
	required := []struct {
		flag, value string
	}{
		{"-d", c.Dataset},
		{"-q", c.Query},
		{"-od", c.OutputDataset},
		{"-oq", c.OutputQuery},
	}
	for _, r := range required {
		if r.value == "" {
			return &MissingFlagError{Flag: r.flag}
		}
	}

	if c.DatasetLimit < 0 || c.QueryLimit < 0 {
		return fmt.Errorf("%w: limits must not be negative", ErrInvalid)
	}
	return c.Encoder.Validate()
}

// Validate checks the encoder selection.
func (e *Encoder) Validate() error {
	switch e.Kind {
	case EncoderNetwork:
		if e.Model == "" {
			return &MissingFlagError{Flag: "--model"}
		}
	case EncoderProjection:
		if e.Latent <= 0 {
			return fmt.Errorf("%w: latent dimension must be positive, got %d", ErrInvalid, e.Latent)
		}
	default:
		return fmt.Errorf("%w: unknown encoder %q", ErrInvalid, e.Kind)
	}
	if e.BatchSize < 0 {
		return fmt.Errorf("%w: batch size must not be negative", ErrInvalid)
	}
	return nil
}
