package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Versioner records changes in a version-control system.
type Versioner interface {
	Stage(ctx context.Context, path string) error
	Remove(ctx context.Context, path string) error
	Commit(ctx context.Context, message string) error
	Publish(ctx context.Context) error
}

// Commit label prefixes.
const (
	LabelSync   = "sync"
	LabelRemove = "remove"
)

// Message returns the commit message for r, e.g. "sync(Surge): a.sgmodule".
// Records without a variant use the bare label, "sync: a.js".
func Message(r Record) string {
	label := LabelSync
	if r.Kind == Deleted {
		label = LabelRemove
	}
	if r.Variant != "" {
		label += "(" + r.Variant + ")"
	}
	return fmt.Sprintf("%s: %s", label, r.Name())
}

// PublishReport summarizes one publish pass.
type PublishReport struct {
	Committed int
	Failed    int
	Published bool
	Err       error
}

// Publish commits every record in order and, when the ledger is non-empty,
// publishes once at the end. A failing record does not stop later records or
// the final publish; all failures are joined into the report's Err.
func Publish(ctx context.Context, records []Record, v Versioner, logger zerolog.Logger) PublishReport {
	var report PublishReport
	var errs []error

	for _, r := range records {
		if err := commitRecord(ctx, r, v); err != nil {
			report.Failed++
			errs = append(errs, err)
			logger.Error().Err(err).Str("path", r.Path).Msg("commit failed")
			continue
		}
		report.Committed++
		logger.Debug().Str("path", r.Path).Str("kind", r.Kind.String()).Msg("committed")
	}

	if len(records) > 0 {
		if err := v.Publish(ctx); err != nil {
			errs = append(errs, fmt.Errorf("publishing: %w", err))
			logger.Error().Err(err).Msg("publish failed")
		} else {
			report.Published = true
			logger.Info().Int("commits", report.Committed).Msg("published")
		}
	}

	report.Err = errors.Join(errs...)
	return report
}

func commitRecord(ctx context.Context, r Record, v Versioner) error {
	var err error
	if r.Kind == Deleted {
		err = v.Remove(ctx, r.Path)
	} else {
		err = v.Stage(ctx, r.Path)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.Kind, r.Path, err)
	}
	if err := v.Commit(ctx, Message(r)); err != nil {
		return fmt.Errorf("committing %s: %w", r.Path, err)
	}
	return nil
}
