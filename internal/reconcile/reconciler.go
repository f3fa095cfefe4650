package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/scriptmirror/scriptmirror/internal/desired"
	"github.com/scriptmirror/scriptmirror/internal/fetch"
)

// Reconciler applies a desired set to an output root.
type Reconciler struct {
	root    string
	fetcher fetch.Fetcher
	clean   bool
	logger  zerolog.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClean enables deletion of files the run did not account for.
func WithClean(clean bool) Option {
	return func(r *Reconciler) {
		r.clean = clean
	}
}

// WithLogger sets the run logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = l
	}
}

// New creates a Reconciler owning the files under root.
func New(root string, f fetch.Fetcher, opts ...Option) *Reconciler {
	r := &Reconciler{
		root:    root,
		fetcher: f,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reconciles every target in set, in order, then optionally cleans up.
// Per-target failures are recorded in the result; the returned error is
// reserved for an unusable output root. The run is not interruptible: ctx
// cancellation is not propagated to fetches, which stay bounded by the
// fetcher's own timeout.
func (r *Reconciler) Run(ctx context.Context, set *desired.Set) (*Result, error) {
	if err := os.MkdirAll(r.root, 0755); err != nil {
		return nil, fmt.Errorf("creating output root %s: %w", r.root, err)
	}
	ctx = context.WithoutCancel(ctx)

	var b resultBuilder
	seen := make(map[string]bool, set.Len())

	for _, t := range set.Targets() {
		o := r.reconcileTarget(ctx, t)
		r.logOutcome(o)
		b.add(o)
		if o.Status != StatusFailed {
			seen[filepath.Clean(t.Path)] = true
		}
	}

	if r.clean {
		for _, o := range r.cleanup(seen) {
			r.logOutcome(o)
			b.add(o)
		}
	}

	res := b.freeze()
	r.logger.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("unchanged", res.Unchanged).
		Int("deleted", res.Deleted).
		Int("failed", res.Failed).
		Msg("reconcile finished")
	return res, nil
}

func (r *Reconciler) reconcileTarget(ctx context.Context, t desired.Target) Outcome {
	o := Outcome{Path: t.Path, Identity: t.Identity, Variant: t.Variant}
	fail := func(err error) Outcome {
		o.Status = StatusFailed
		o.Err = err
		return o
	}

	info, err := os.Stat(t.Path)
	switch {
	case err == nil && !info.Mode().IsRegular():
		return fail(fmt.Errorf("%s exists and is not a regular file", t.Path))
	case err == nil:
		return r.update(ctx, t, info.Mode().Perm(), o)
	case errors.Is(err, fs.ErrNotExist):
		return r.create(ctx, t, o)
	default:
		return fail(fmt.Errorf("stat %s: %w", t.Path, err))
	}
}

func (r *Reconciler) update(ctx context.Context, t desired.Target, perm os.FileMode, o Outcome) Outcome {
	old, err := Fingerprint(t.Path)
	if err != nil {
		o.Status, o.Err = StatusFailed, err
		return o
	}

	s, err := stage(ctx, r.fetcher, t.Descriptor, t.Path, perm)
	if err != nil {
		o.Status, o.Err = StatusFailed, err
		return o
	}
	if s.digest == old {
		s.discard()
		o.Status = StatusUnchanged
		return o
	}
	if err := s.promote(t.Path); err != nil {
		o.Status, o.Err = StatusFailed, err
		return o
	}
	o.Status = StatusUpdated
	return o
}

func (r *Reconciler) create(ctx context.Context, t desired.Target, o Outcome) Outcome {
	if err := os.MkdirAll(filepath.Dir(t.Path), 0755); err != nil {
		o.Status, o.Err = StatusFailed, fmt.Errorf("creating %s: %w", filepath.Dir(t.Path), err)
		return o
	}
	s, err := stage(ctx, r.fetcher, t.Descriptor, t.Path, newFilePerm)
	if err != nil {
		o.Status, o.Err = StatusFailed, err
		return o
	}
	if err := s.promote(t.Path); err != nil {
		o.Status, o.Err = StatusFailed, err
		return o
	}
	o.Status = StatusCreated
	return o
}

// cleanup deletes regular files under the root that are not in keep, in
// lexical walk order. Dot-files and dot-directories (.git, editor state) are
// never touched, except staging leftovers, which are removed silently.
func (r *Reconciler) cleanup(keep map[string]bool) []Outcome {
	var outcomes []Outcome
	walkErr := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.logger.Warn().Err(err).Str("path", path).Msg("cleanup walk error")
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path != r.root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if isStagingLeftover(name) {
			if err := os.Remove(path); err == nil {
				r.logger.Debug().Str("path", path).Msg("removed staging leftover")
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !d.Type().IsRegular() {
			return nil
		}
		if keep[filepath.Clean(path)] {
			return nil
		}

		o := Outcome{Path: path, Variant: r.variantOf(path), Identity: name}
		if err := os.Remove(path); err != nil {
			o.Status, o.Err = StatusFailed, fmt.Errorf("removing %s: %w", path, err)
		} else {
			o.Status = StatusDeleted
		}
		outcomes = append(outcomes, o)
		return nil
	})
	if walkErr != nil {
		r.logger.Warn().Err(walkErr).Msg("cleanup walk aborted")
	}
	return outcomes
}

// variantOf returns the first directory below the root, which is the
// variant tag under the output layout.
func (r *Reconciler) variantOf(path string) string {
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return ""
	}
	dir, _, found := strings.Cut(filepath.ToSlash(rel), "/")
	if !found {
		return ""
	}
	return dir
}

func (r *Reconciler) logOutcome(o Outcome) {
	ev := r.logger.Info()
	if o.Status == StatusFailed {
		ev = r.logger.Warn().Err(o.Err)
	}
	ev.Str("path", o.Path).Str("variant", o.Variant).Msg(o.Status.String())
}
