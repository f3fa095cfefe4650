package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scriptmirror/scriptmirror/internal/branding"
	"github.com/scriptmirror/scriptmirror/internal/config"
	"github.com/scriptmirror/scriptmirror/internal/desired"
	"github.com/scriptmirror/scriptmirror/internal/fetch"
	"github.com/scriptmirror/scriptmirror/internal/ledger"
	"github.com/scriptmirror/scriptmirror/internal/manifest"
	"github.com/scriptmirror/scriptmirror/internal/notify"
	"github.com/scriptmirror/scriptmirror/internal/reconcile"
	"github.com/scriptmirror/scriptmirror/internal/vcs"
)

// cycle is one sync run: build, reconcile, publish, notify.
type cycle struct {
	settings *config.Settings
	// noCommit swaps the git versioner for a dry run.
	noCommit bool

	// Overrides for tests; nil means build from settings.
	fetcher   fetch.Fetcher
	versioner ledger.Versioner
	notifiers []notify.Notifier

	logger zerolog.Logger
	out    io.Writer
}

// cycleReport is what a finished cycle hands back to the command.
type cycleReport struct {
	RunID    string
	Plan     *desired.Plan
	Result   *reconcile.Result
	Publish  *ledger.PublishReport
	Notified int
}

// run executes the cycle. Only configuration problems and an unusable
// output root are returned as errors; fetch, commit and notification
// failures are logged and reflected in the report.
func (c *cycle) run(ctx context.Context) (*cycleReport, error) {
	s := c.settings
	if err := s.Validate(buildVersion); err != nil {
		return nil, err
	}

	report := &cycleReport{RunID: uuid.NewString()}
	log := c.logger.With().Str("run", report.RunID).Logger()

	m, err := manifest.ParseFile(s.Manifest)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrConfig, err)
	}
	plan, err := desired.Build(m.Entries, s.BuildOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrConfig, err)
	}
	report.Plan = plan
	for _, skip := range plan.Skipped {
		log.Warn().Int("index", skip.Index).Str("identity", skip.Identity).
			Str("source", skip.Source).Str("reason", skip.Reason).Msg("skipped")
	}
	log.Info().Int("artifacts", len(plan.Specs)).Int("targets", plan.Set.Len()).
		Str("manifest", s.Manifest).Msg("desired set built")

	f := c.fetcher
	if f == nil {
		f = fetch.NewHTTP(fetch.WithTimeout(s.FetchTimeout), fetch.WithUserAgent(branding.UserAgent()))
	}
	rec := reconcile.New(s.OutputRoot, f,
		reconcile.WithClean(s.CleanMode),
		reconcile.WithLogger(log),
	)
	res, err := rec.Run(ctx, plan.Set)
	if err != nil {
		return nil, err
	}
	report.Result = res

	if v := c.versionerFor(ctx, log); v != nil {
		pr := ledger.Publish(ctx, res.Ledger, v, log)
		report.Publish = &pr
	}

	hook := &notify.Hook{
		Notifiers: c.notifiers,
		Force:     s.Notify.Force,
		Lang:      notify.MatchLanguage(s.Notify.Lang),
		Logger:    log,
	}
	if hook.Notifiers == nil {
		hook.Notifiers = notifiersFor(s.Notify)
	}
	report.Notified = hook.Run(ctx, notify.SummaryOf(res))

	c.printSummary(report)
	return report, nil
}

// versionerFor picks where the ledger goes. A missing git binary is a
// versioning failure: it is logged and the run carries on uncommitted.
func (c *cycle) versionerFor(ctx context.Context, log zerolog.Logger) ledger.Versioner {
	if c.versioner != nil {
		return c.versioner
	}
	if c.noCommit {
		return vcs.NewDryRun(log)
	}
	g := c.settings.Git
	if !g.Enabled {
		return nil
	}
	git, err := vcs.NewGit(g.Dir,
		vcs.WithRemote(g.Remote, g.Branch),
		vcs.WithAuthor(g.AuthorName, g.AuthorEmail),
		vcs.WithPush(g.Push),
		vcs.WithLogger(log),
	)
	if err != nil {
		log.Error().Err(err).Msg("git unavailable, changes will not be committed")
		return nil
	}
	if !vcs.IsRepo(ctx, g.Dir) {
		log.Warn().Str("dir", g.Dir).Msg("not a git work tree, changes will not be committed")
		return nil
	}
	return git
}

// notifiersFor enables every channel whose credentials are configured.
func notifiersFor(n config.NotifySettings) []notify.Notifier {
	var out []notify.Notifier
	if n.BarkURL != "" {
		out = append(out, &notify.Bark{URL: n.BarkURL})
	}
	if n.ServerChanKey != "" {
		out = append(out, &notify.ServerChan{Key: n.ServerChanKey})
	}
	if n.WeChatWebhook != "" {
		out = append(out, &notify.WeCom{Webhook: n.WeChatWebhook})
	}
	if n.TelegramToken != "" && n.TelegramChatID != "" {
		out = append(out, &notify.Telegram{Token: n.TelegramToken, ChatID: n.TelegramChatID})
	}
	return out
}

func (c *cycle) printSummary(r *cycleReport) {
	if c.out == nil {
		return
	}
	res := r.Result
	fmt.Fprintf(c.out, "created %d, updated %d, unchanged %d, deleted %d, failed %d, skipped %d\n",
		res.Created, res.Updated, res.Unchanged, res.Deleted, res.Failed, len(r.Plan.Skipped))
	if r.Publish != nil {
		fmt.Fprintf(c.out, "committed %d, commit failures %d, published %t\n",
			r.Publish.Committed, r.Publish.Failed, r.Publish.Published)
	}
}
