// Package digest posts a periodic mood summary per user to a Slack webhook.
package digest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/mindmirror/mindmirror/internal/metrics"
	"github.com/mindmirror/mindmirror/internal/services"
)

// Source yields the trend report a digest is built from.
type Source interface {
	Trends(ctx context.Context, userID string, days int) services.TrendReport
}

type Digest struct {
	src        Source
	webhookURL string
	users      []string
	days       int
	timeout    time.Duration
	log        zerolog.Logger
}

func New(src Source, webhookURL string, users []string, days int, log zerolog.Logger) *Digest {
	if days <= 0 {
		days = 7
	}
	return &Digest{
		src:        src,
		webhookURL: webhookURL,
		users:      users,
		days:       days,
		timeout:    10 * time.Second,
		log:        log.With().Str("component", "digest").Logger(),
	}
}

// Start schedules RunOnce on spec (standard five-field cron) until ctx ends.
func (d *Digest) Start(ctx context.Context, spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if err := d.RunOnce(ctx); err != nil {
			d.log.Warn().Err(err).Msg("digest run incomplete")
		}
	}); err != nil {
		return fmt.Errorf("digest schedule %q: %w", spec, err)
	}
	c.Start()
	d.log.Info().Str("spec", spec).Int("users", len(d.users)).Msg("digest scheduled")

	go func() {
		<-ctx.Done()
		stopCtx := c.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(5 * time.Second):
			d.log.Warn().Msg("digest stop timed out waiting for a running job")
		}
	}()
	return nil
}

// RunOnce posts one digest per configured user. A failure for one user does
// not stop the others.
func (d *Digest) RunOnce(ctx context.Context) error {
	var errs []error
	for _, u := range d.users {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		rep := d.src.Trends(ctx, u, d.days)
		if err := d.post(ctx, u, rep); err != nil {
			metrics.DigestsSent.WithLabelValues("failed").Inc()
			errs = append(errs, fmt.Errorf("user %s: %w", u, err))
			continue
		}
		metrics.DigestsSent.WithLabelValues("ok").Inc()
		d.log.Debug().Str("user_id", u).Int("entries", rep.Trends.TotalEntries).Msg("digest sent")
	}
	return errors.Join(errs...)
}

func (d *Digest) post(ctx context.Context, userID string, rep services.TrendReport) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	text := Render(userID, rep)
	msg := &slack.WebhookMessage{
		Text: text,
		Blocks: &slack.Blocks{BlockSet: []slack.Block{
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
		}},
	}
	return slack.PostWebhookContext(ctx, d.webhookURL, msg)
}

// Render formats a report as Slack markdown.
func Render(userID string, rep services.TrendReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*MindMirror digest for %s* (last %d days)\n", userID, rep.PeriodDays)
	if rep.Trends.TotalEntries == 0 {
		b.WriteString("No reflections recorded in this period.")
		return b.String()
	}
	fmt.Fprintf(&b, "Entries: %d, overall trend: %s\n", rep.Trends.TotalEntries, rep.Trends.OverallTrend)

	moods := make([]string, 0, len(rep.Trends.MoodDistribution))
	for m := range rep.Trends.MoodDistribution {
		moods = append(moods, m)
	}
	sort.Slice(moods, func(i, j int) bool {
		ci, cj := rep.Trends.MoodDistribution[moods[i]], rep.Trends.MoodDistribution[moods[j]]
		if ci != cj {
			return ci > cj
		}
		return moods[i] < moods[j]
	})
	parts := make([]string, 0, len(moods))
	for _, m := range moods {
		parts = append(parts, fmt.Sprintf("%s ×%d", m, rep.Trends.MoodDistribution[m]))
	}
	fmt.Fprintf(&b, "Moods: %s\n", strings.Join(parts, ", "))

	for _, in := range rep.Insights {
		fmt.Fprintf(&b, "• %s\n", in)
	}
	return strings.TrimRight(b.String(), "\n")
}
