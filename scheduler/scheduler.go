// Package scheduler decides which subscriptions are due for digest delivery
// on each trigger tick and drives the build-and-send sweep.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/coreybb/dailybrief/models"
	"github.com/robfig/cron/v3"
)

// Delivery windows are hourly, matching the trigger cadence. The trigger may
// fire more than once inside a window; same-window re-sends are suppressed.
const cronSpec = "0 * * * *"

// SubscriptionLister is the scheduler's view of the user store.
type SubscriptionLister interface {
	GetActive(ctx context.Context) ([]models.Subscription, error)
	MarkDigestSent(ctx context.Context, email string, sentAt time.Time) error
}

// DigestSender builds and delivers one subscriber's digest.
type DigestSender interface {
	SendDigest(ctx context.Context, sub *models.Subscription) error
}

// Scheduler runs periodic sweeps over active subscriptions and sends the
// digests whose delivery window has arrived.
type Scheduler struct {
	repo    SubscriptionLister
	digests DigestSender
	cron    *cron.Cron
	now     func() time.Time
}

// New creates a Scheduler with all required dependencies.
func New(repo SubscriptionLister, digests DigestSender) *Scheduler {
	return &Scheduler{
		repo:    repo,
		digests: digests,
		cron:    cron.New(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the hourly sweep and begins the in-process cron. The
// HandleTick endpoint remains available for external triggers either way.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(cronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.Sweep(ctx); err != nil {
			log.Printf("ERROR (Scheduler): Sweep failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register cron sweep: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the in-process cron, waiting for a running sweep to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// HandleTick is an HTTP handler that triggers a sweep. Used by external
// cron services or manual curl requests.
func (s *Scheduler) HandleTick(w http.ResponseWriter, r *http.Request) {
	log.Println("INFO (Scheduler): Tick triggered via HTTP")

	sent, err := s.Sweep(r.Context())
	if err != nil {
		log.Printf("ERROR (Scheduler): Sweep failed: %v", err)
		http.Error(w, "scheduler sweep failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK: sent %d digests", sent)
}

// Sweep runs a single scheduler cycle: finds due subscriptions and sends
// each digest, marking the delivery window only after the mailer reports
// success. Failures leave the window unmarked so the next tick retries;
// delivery is at-least-once, never exactly-once. A crash mid-sweep leaves
// already-sent records correctly marked and the rest retried next tick.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	subs, err := s.repo.GetActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch active subscriptions: %w", err)
	}

	now := s.now()
	due := DueSubscriptions(subs, now)
	if len(due) == 0 {
		return 0, nil
	}

	sent := 0
	for i := range due {
		sub := &due[i]
		if err := s.digests.SendDigest(ctx, sub); err != nil {
			log.Printf("ERROR (Scheduler): Digest for %s failed, will retry next tick: %v", sub.Email, err)
			continue
		}
		if err := s.repo.MarkDigestSent(ctx, sub.Email, now); err != nil {
			// The digest went out; an unmarked window risks a duplicate on
			// the next tick, which the at-least-once contract permits.
			log.Printf("WARN (Scheduler): Failed to mark digest sent for %s: %v", sub.Email, err)
		}
		sent++
	}

	log.Printf("INFO (Scheduler): Sweep complete, sent %d of %d due digests", sent, len(due))
	return sent, nil
}

// DueSubscriptions filters to the records whose local delivery hour matches
// nowUTC and whose current window has not already been served. Records that
// are not fully onboarded, have no sources, or never set a delivery time are
// excluded.
func DueSubscriptions(subs []models.Subscription, nowUTC time.Time) []models.Subscription {
	var due []models.Subscription
	for i := range subs {
		if isDue(&subs[i], nowUTC) {
			due = append(due, subs[i])
		}
	}
	return due
}

func isDue(sub *models.Subscription, nowUTC time.Time) bool {
	if sub.Stage != models.StageActive || len(sub.Sources) == 0 || !sub.TimeSet {
		return false
	}

	loc, err := sub.Location()
	if err != nil {
		log.Printf("WARN (Scheduler): Invalid timezone %q for %s: %v", sub.Timezone, sub.Email, err)
		return false
	}

	if nowUTC.In(loc).Hour() != sub.DeliveryHour {
		return false
	}

	return sub.LastDigestSentAt == nil || !sameWindow(*sub.LastDigestSentAt, nowUTC)
}

// sameWindow reports whether two instants fall in the same hourly delivery
// window.
func sameWindow(a, b time.Time) bool {
	return a.UTC().Truncate(time.Hour).Equal(b.UTC().Truncate(time.Hour))
}
