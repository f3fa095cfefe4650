package vcs

import (
	"context"

	"github.com/rs/zerolog"
)

// DryRun logs versioning calls without touching a repository.
type DryRun struct {
	logger zerolog.Logger
}

// NewDryRun creates a DryRun versioner.
func NewDryRun(logger zerolog.Logger) *DryRun {
	return &DryRun{logger: logger}
}

func (d *DryRun) Stage(_ context.Context, path string) error {
	d.logger.Info().Str("path", path).Msg("would stage")
	return nil
}

func (d *DryRun) Remove(_ context.Context, path string) error {
	d.logger.Info().Str("path", path).Msg("would remove")
	return nil
}

func (d *DryRun) Commit(_ context.Context, message string) error {
	d.logger.Info().Str("message", message).Msg("would commit")
	return nil
}

func (d *DryRun) Publish(context.Context) error {
	d.logger.Info().Msg("would push")
	return nil
}
