package processing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/coreybb/dailybrief/classifier"
	"github.com/coreybb/dailybrief/datastore"
	"github.com/coreybb/dailybrief/intent"
	"github.com/coreybb/dailybrief/interpreter"
	"github.com/coreybb/dailybrief/models"
)

// classifierConfidenceThreshold is the floor below which an LLM guess is
// discarded in favor of an explicit "didn't understand" response.
const classifierConfidenceThreshold = 0.6

// SubscriptionStore is the user-store collaborator, keyed by email.
type SubscriptionStore interface {
	Get(ctx context.Context, email string) (*models.Subscription, error)
	Upsert(ctx context.Context, sub *models.Subscription) error
	Delete(ctx context.Context, email string) error
}

// IntentClassifier is the optional collaborator consulted when keyword
// resolution comes up empty on ambiguous phrasing.
type IntentClassifier interface {
	Classify(ctx context.Context, text string, stage models.OnboardingStage) (classifier.Guess, error)
}

// ProcessResult is the response contract between the HTTP layer and the core.
type ProcessResult struct {
	Response   string `json:"response"`
	ConfirmURL string `json:"confirm_url,omitempty"`
}

// CommandProcessor orchestrates one inbound command: load the record,
// resolve the intent, apply the state machine, persist the outcome. The
// interpreter itself stays pure; every collaborator call happens here.
type CommandProcessor struct {
	store      SubscriptionStore
	classifier IntentClassifier // may be nil
	now        func() time.Time
}

func NewCommandProcessor(store SubscriptionStore, cls IntentClassifier) *CommandProcessor {
	return &CommandProcessor{
		store:      store,
		classifier: cls,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Process is the single entry point wrapping intent resolution and the
// command interpreter for one utterance from one caller.
func (p *CommandProcessor) Process(ctx context.Context, email, utterance string) (*ProcessResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	sub, err := p.loadOrBegin(ctx, email, utterance)
	if err != nil {
		return nil, err
	}

	in := p.resolve(ctx, sub, email, utterance)

	outcome := interpreter.Apply(sub, in)

	if err := p.persist(ctx, outcome); err != nil {
		return nil, err
	}

	return &ProcessResult{
		Response:   outcome.Response,
		ConfirmURL: outcome.ConfirmURL,
	}, nil
}

// loadOrBegin fetches the caller's record, or fabricates a fresh
// AWAITING_EMAIL record so the state machine can decide whether the supplied
// address starts a subscription. When no email accompanies the request the
// utterance itself is the email candidate.
func (p *CommandProcessor) loadOrBegin(ctx context.Context, email, utterance string) (*models.Subscription, error) {
	if email != "" {
		sub, err := p.store.Get(ctx, email)
		if err == nil {
			return sub, nil
		}
		if !errors.Is(err, datastore.ErrNotFound) {
			return nil, fmt.Errorf("failed to load subscription %s: %w", email, err)
		}
	}

	return &models.Subscription{
		Email:     email,
		CreatedAt: p.now(),
		Stage:     models.StageAwaitingEmail,
	}, nil
}

// resolve turns the request into a structured intent. A caller who supplied
// an email but has no record yet is submitting that address, whatever the
// accompanying message says; everyone else goes through the stage-aware
// resolver with the classifier as a fallback.
func (p *CommandProcessor) resolve(ctx context.Context, sub *models.Subscription, email, utterance string) intent.Intent {
	if sub.Stage == models.StageAwaitingEmail && email != "" {
		if intent.ValidEmail(email) {
			return intent.Intent{Kind: intent.KindSubmitEmail, Email: email}
		}
		return intent.Intent{Kind: intent.KindInvalidEmail}
	}

	in := intent.Resolve(utterance, sub.Stage, sub.PendingURL != "")
	return p.maybeClassify(ctx, in, sub, utterance)
}

// maybeClassify runs the external classifier when the pure pass produced
// nothing usable. It only applies in the general stages and never while a
// URL confirmation is pending: the gate must not be classified around.
func (p *CommandProcessor) maybeClassify(ctx context.Context, in intent.Intent, sub *models.Subscription, utterance string) intent.Intent {
	if p.classifier == nil || in.Kind != intent.KindUnrecognized || sub.PendingURL != "" {
		return in
	}
	if sub.Stage != models.StageAwaitingSources && sub.Stage != models.StageActive {
		return in
	}

	guess, err := p.classifier.Classify(ctx, utterance, sub.Stage)
	if err != nil {
		log.Printf("WARN (CommandProcessor): Intent classification failed: %v", err)
		return in
	}
	if guess.Confidence < classifierConfidenceThreshold {
		return in
	}

	if mapped, ok := guessToIntent(guess); ok {
		return mapped
	}
	return in
}

func (p *CommandProcessor) persist(ctx context.Context, outcome interpreter.Outcome) error {
	switch {
	case outcome.Deleted:
		if err := p.store.Delete(ctx, outcome.Record.Email); err != nil {
			return fmt.Errorf("failed to delete subscription %s: %w", outcome.Record.Email, err)
		}
	case outcome.Mutated:
		if outcome.Record.Email == "" {
			// Nothing to key the record on yet; the response already asked
			// for a valid address.
			return nil
		}
		if err := p.store.Upsert(ctx, outcome.Record); err != nil {
			return fmt.Errorf("failed to persist subscription %s: %w", outcome.Record.Email, err)
		}
	}
	return nil
}

// guessToIntent maps the classifier's string taxonomy onto the resolver's
// tagged union. Unmappable or underspecified guesses report !ok.
func guessToIntent(guess classifier.Guess) (intent.Intent, bool) {
	switch guess.Intent {
	case "add_source":
		if guess.Source == "" {
			return intent.Intent{}, false
		}
		return intent.Intent{Kind: intent.KindAddSource, Source: guess.Source}, true
	case "remove_source":
		if guess.Source == "" {
			return intent.Intent{}, false
		}
		return intent.Intent{Kind: intent.KindRemoveSource, Source: guess.Source}, true
	case "change_time":
		hour, minute, tz, ok := intent.ParseTime(strings.ToLower(guess.Time))
		if !ok {
			return intent.Intent{}, false
		}
		return intent.Intent{Kind: intent.KindSetTime, Hour: hour, Minute: minute, Timezone: tz}, true
	case "set_timezone":
		if guess.Timezone == "" {
			return intent.Intent{}, false
		}
		return intent.Intent{Kind: intent.KindSetTimezone, Timezone: guess.Timezone}, true
	case "view_sources":
		return intent.Intent{Kind: intent.KindViewSources}, true
	case "unsubscribe":
		return intent.Intent{Kind: intent.KindUnsubscribe}, true
	}
	return intent.Intent{}, false
}
