package vcs

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Git runs git commands inside a working tree.
type Git struct {
	dir         string
	remote      string
	branch      string
	authorName  string
	authorEmail string
	push        bool
	logger      zerolog.Logger
}

// Option configures a Git versioner.
type Option func(*Git)

// WithRemote sets the remote and branch used by Publish. Empty values fall
// back to git's configured upstream.
func WithRemote(remote, branch string) Option {
	return func(g *Git) {
		g.remote = remote
		g.branch = branch
	}
}

// WithAuthor overrides the commit identity.
func WithAuthor(name, email string) Option {
	return func(g *Git) {
		g.authorName = name
		g.authorEmail = email
	}
}

// WithPush toggles pushing in Publish.
func WithPush(push bool) Option {
	return func(g *Git) {
		g.push = push
	}
}

// WithLogger sets the logger for command output.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Git) {
		g.logger = l
	}
}

// NewGit creates a Git versioner for the working tree at dir. It fails if
// git is not installed.
func NewGit(dir string, opts ...Option) (*Git, error) {
	if err := ensureGit(); err != nil {
		return nil, err
	}
	g := &Git{dir: dir, push: true, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Stage adds path to the index.
func (g *Git) Stage(ctx context.Context, path string) error {
	_, err := g.run(ctx, "add", "--", g.rel(path))
	return err
}

// Remove records the deletion of path. The file is usually gone from disk
// already; untracked paths are not an error.
func (g *Git) Remove(ctx context.Context, path string) error {
	_, err := g.run(ctx, "rm", "--quiet", "--cached", "--ignore-unmatch", "--", g.rel(path))
	return err
}

// Commit commits the index with message.
func (g *Git) Commit(ctx context.Context, message string) error {
	_, err := g.run(ctx, "commit", "--quiet", "-m", message)
	return err
}

// Publish pushes to the configured remote, or does nothing when push is
// disabled.
func (g *Git) Publish(ctx context.Context) error {
	if !g.push {
		g.logger.Info().Msg("push disabled, leaving commits local")
		return nil
	}
	args := []string{"push"}
	if g.remote != "" {
		args = append(args, g.remote)
		if g.branch != "" {
			args = append(args, g.branch)
		}
	}
	_, err := g.run(ctx, args...)
	return err
}

// IsRepo reports whether dir is inside a git working tree.
func IsRepo(ctx context.Context, dir string) bool {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = dir
	out, err := cmd.Output()
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	full := g.identityArgs()
	full = append(full, args...)

	cmd := exec.CommandContext(ctx, "git", full...)
	cmd.Dir = g.dir
	output, err := cmd.CombinedOutput()
	out := strings.TrimSpace(string(output))
	g.logger.Debug().Strs("args", args).Str("output", out).Msg("git")
	if err != nil {
		return out, fmt.Errorf("git %s: %w\n%s", args[0], err, out)
	}
	return out, nil
}

func (g *Git) identityArgs() []string {
	var args []string
	if g.authorName != "" {
		args = append(args, "-c", "user.name="+g.authorName)
	}
	if g.authorEmail != "" {
		args = append(args, "-c", "user.email="+g.authorEmail)
	}
	return args
}

// rel makes path relative to the working tree when it lies inside it.
// Relative paths are taken from the process working directory, like the
// output root they come from.
func (g *Git) rel(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	dir, err := filepath.Abs(g.dir)
	if err != nil {
		return path
	}
	if r, err := filepath.Rel(dir, abs); err == nil && !strings.HasPrefix(r, "..") {
		return r
	}
	return path
}

// ensureGit checks that git is available on PATH.
func ensureGit() error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("git is required but not found in PATH")
	}
	return nil
}
