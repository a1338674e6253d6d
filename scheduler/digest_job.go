package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sethvargo/go-retry"

	"reel-deck/feed"
	"reel-deck/notifier"
	"reel-deck/stats"
	"reel-deck/storage"
	"reel-deck/tmdb"
)

const digestPickCount = 5

// DigestJob assembles and emails the weekly watchlist digest. Each section
// degrades independently: a failed feed fetch or stats query produces an
// emptier email, not a skipped one.
type DigestJob struct {
	fetcher  *feed.Fetcher
	storage  storage.StorageInterface
	notifier *notifier.EmailNotifier
}

// NewDigestJob creates the weekly digest job
func NewDigestJob(fetcher *feed.Fetcher, store storage.StorageInterface, emailNotifier *notifier.EmailNotifier) *DigestJob {
	return &DigestJob{
		fetcher:  fetcher,
		storage:  store,
		notifier: emailNotifier,
	}
}

// Name returns the job name
func (j *DigestJob) Name() string {
	return "weekly_digest"
}

// Run gathers the week's watchlist additions and viewing stats, tops the
// digest up with a few trending titles, and emails it.
func (j *DigestJob) Run(ctx context.Context) error {
	since := time.Now().AddDate(0, 0, -7)

	additions, err := j.storage.RecentWatchlistAdditions(since)
	if err != nil {
		log.Printf("Digest: failed to load recent watchlist additions: %v", err)
		additions = nil
	}

	summary := stats.Summary{}
	events, err := j.storage.ListWatchEvents("", since)
	if err != nil {
		log.Printf("Digest: failed to load watch events: %v", err)
	} else {
		summary = stats.Aggregate(events, time.Now())
	}

	picks := j.trendingPicks(ctx)

	if len(additions) == 0 && summary.ThisWeek.Count == 0 && len(picks) == 0 {
		log.Println("Digest: nothing to report this week, skipping email")
		return nil
	}

	// SMTP is the flakiest leg of the job, so the send gets a few retries
	// with fibonacci backoff.
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(2*time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := j.notifier.SendWeeklyDigest(additions, summary, picks); err != nil {
			log.Printf("Digest: send attempt failed: %v", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to send weekly digest: %v", err)
	}

	return nil
}

// trendingPicks fetches the first page of popular films under default
// filters. Digest is best-effort, so a fetch failure just drops the section.
func (j *DigestJob) trendingPicks(ctx context.Context) []notifier.DigestPick {
	page, err := j.fetcher.FetchPage(ctx, tmdb.MediaKindFilm, 1, feed.DefaultSelection())
	if err != nil {
		log.Printf("Digest: failed to fetch trending titles: %v", err)
		return nil
	}

	picks := make([]notifier.DigestPick, 0, digestPickCount)
	for _, item := range page.Items {
		if len(picks) == digestPickCount {
			break
		}
		picks = append(picks, notifier.DigestPick{
			Title:       item.Title,
			VoteAverage: item.VoteAverage,
		})
	}
	return picks
}
