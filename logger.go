package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/b0tShaman/idxreduce/config"
)

func newLogger(w io.Writer, cfg config.Log) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}

	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "idxreduce",
		ReportTimestamp: true,
		Level:           level,
	})
	switch cfg.Format {
	case "", "text":
		logger.SetFormatter(log.TextFormatter)
	case "json":
		logger.SetFormatter(log.JSONFormatter)
	case "logfmt":
		logger.SetFormatter(log.LogfmtFormatter)
	default:
		return nil, fmt.Errorf("%w: unknown log format %q", config.ErrInvalid, cfg.Format)
	}
	return logger, nil
}
