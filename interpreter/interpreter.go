// Package interpreter implements the subscription command state machine.
// Apply is a pure, total function over (onboarding stage, intent): every
// recognized pair has a defined effect, and anything outside the table
// behaves like an unrecognized command. All I/O (store reads and writes,
// classification, delivery) happens in callers, never here.
package interpreter

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/coreybb/dailybrief/catalog"
	"github.com/coreybb/dailybrief/intent"
	"github.com/coreybb/dailybrief/models"
)

// Outcome is the full result of applying one intent to one record.
// ConfirmURL is set exactly when a pending URL was newly established or is
// still awaiting an answer, so the caller can present a yes/no gate.
// Deleted signals that the record should be removed from the store; Mutated
// signals that the record changed and must be persisted.
type Outcome struct {
	Record     *models.Subscription
	Response   string
	ConfirmURL string
	Deleted    bool
	Mutated    bool
}

const (
	msgInvalidEmail = "Please enter a valid email address."
	msgInvalidTime  = "Please specify a delivery time, like '8am' or '17:30'."
	msgHelp         = "I can help you: add a source, remove a source, change your delivery time, set your timezone, view your sources, or unsubscribe. What would you like to do?"
	msgUnsubscribed = "You've been unsubscribed. Sorry to see you go!"
)

// Apply computes the next subscription state for an intent. The input record
// is never mutated; the returned Outcome carries a copy with the new state.
func Apply(sub *models.Subscription, in intent.Intent) Outcome {
	next := sub.Clone()

	// The pending-confirmation gate dominates all other routing while set.
	if next.PendingURL != "" {
		return applyPending(next, in)
	}

	switch next.Stage {
	case models.StageAwaitingEmail:
		return applyAwaitingEmail(next, in)
	case models.StageAwaitingTime:
		return applyAwaitingTime(next, in)
	case models.StageAwaitingSources, models.StageActive:
		return applyGeneral(next, in)
	}

	return unrecognized(next)
}

func applyPending(next *models.Subscription, in intent.Intent) Outcome {
	switch in.Kind {
	case intent.KindConfirmPendingURL:
		committed := next.PendingURL
		next.Sources = append(next.Sources, models.SubscribedSource{
			URL:   committed,
			Label: urlLabel(committed),
		})
		next.PendingURL = ""
		next.Stage = models.StageActive
		return Outcome{
			Record:   next,
			Response: fmt.Sprintf("Added %s to your sources. Anything else?", committed),
			Mutated:  true,
		}

	case intent.KindRejectPendingURL:
		next.PendingURL = ""
		return Outcome{
			Record:   next,
			Response: "Okay, I won't add it. Anything else?",
			Mutated:  true,
		}

	default:
		// Still pending: re-ask rather than leak through to other intents.
		return Outcome{
			Record:     next,
			Response:   fmt.Sprintf("Please answer yes or no: should I add %s to your sources?", next.PendingURL),
			ConfirmURL: next.PendingURL,
		}
	}
}

func applyAwaitingEmail(next *models.Subscription, in intent.Intent) Outcome {
	switch in.Kind {
	case intent.KindSubmitEmail:
		if next.Email == "" {
			next.Email = in.Email
		}
		next.Stage = models.StageAwaitingTime
		return Outcome{
			Record:   next,
			Response: "Welcome! What time would you like your daily digest delivered? (e.g., '8am' or '5:30 pm pst')",
			Mutated:  true,
		}
	case intent.KindInvalidEmail:
		return Outcome{Record: next, Response: msgInvalidEmail}
	}
	return unrecognized(next)
}

func applyAwaitingTime(next *models.Subscription, in intent.Intent) Outcome {
	switch in.Kind {
	case intent.KindSetTime:
		setTime(next, in)
		next.Stage = models.StageAwaitingSources
		return Outcome{
			Record: next,
			Response: fmt.Sprintf(
				"Got it! Your digest will arrive at %02d:%02d. Which sources would you like? Available: %s. You can also paste any URL.",
				in.Hour, in.Minute, strings.Join(catalog.IDs(), ", ")),
			Mutated: true,
		}
	case intent.KindInvalidTime:
		return Outcome{Record: next, Response: msgInvalidTime}
	}
	return unrecognized(next)
}

func applyGeneral(next *models.Subscription, in intent.Intent) Outcome {
	switch in.Kind {
	case intent.KindAddSource:
		return applyAddSource(next, in.Source)

	case intent.KindRemoveSource:
		return applyRemoveSource(next, in.Source)

	case intent.KindSetTime:
		setTime(next, in)
		return Outcome{
			Record:   next,
			Response: fmt.Sprintf("Changed delivery time to %02d:%02d. Anything else?", in.Hour, in.Minute),
			Mutated:  true,
		}

	case intent.KindSetTimezone:
		if _, err := time.LoadLocation(in.Timezone); err != nil {
			return Outcome{
				Record:   next,
				Response: "Invalid timezone. Please use a name like 'America/New_York' or 'Europe/London'.",
			}
		}
		next.Timezone = in.Timezone
		return Outcome{
			Record:   next,
			Response: fmt.Sprintf("Set timezone to %s. Anything else?", in.Timezone),
			Mutated:  true,
		}

	case intent.KindViewSources:
		return Outcome{Record: next, Response: describeSources(next)}

	case intent.KindUnsubscribe:
		return Outcome{Record: next, Response: msgUnsubscribed, Deleted: true, Mutated: true}
	}

	return unrecognized(next)
}

func applyAddSource(next *models.Subscription, nameOrURL string) Outcome {
	m := catalog.Resolve(nameOrURL)

	switch m.Kind {
	case catalog.MatchCatalog:
		src, _ := catalog.Get(m.ID)
		if hasCatalogSource(next, m.ID) {
			// Idempotent: the list already holds exactly one entry for it.
			return Outcome{
				Record:   next,
				Response: fmt.Sprintf("You already have %s in your sources.", m.ID),
			}
		}
		next.Sources = append(next.Sources, models.SubscribedSource{
			CatalogID: m.ID,
			URL:       src.URL,
			Label:     m.ID,
		})
		next.Stage = models.StageActive
		return Outcome{
			Record:   next,
			Response: fmt.Sprintf("Added %s to your sources. Anything else?", m.ID),
			Mutated:  true,
		}

	case catalog.MatchCandidateURL:
		if hasURL(next, m.URL) {
			return Outcome{
				Record:   next,
				Response: fmt.Sprintf("You already have %s in your sources.", m.URL),
			}
		}
		// Confirmation is a strict gate: nothing is committed yet.
		next.PendingURL = m.URL
		return Outcome{
			Record:     next,
			Response:   fmt.Sprintf("I don't recognize that source. Should I add %s to your digest? (yes/no)", m.URL),
			ConfirmURL: m.URL,
			Mutated:    true,
		}
	}

	return Outcome{
		Record: next,
		Response: fmt.Sprintf("Source not recognized. Available sources: %s. You can also paste a URL.",
			strings.Join(catalog.IDs(), ", ")),
	}
}

func applyRemoveSource(next *models.Subscription, nameOrURL string) Outcome {
	idx := findSource(next, nameOrURL)
	if idx < 0 {
		return Outcome{
			Record:   next,
			Response: fmt.Sprintf("You don't have %s in your sources.", strings.TrimSpace(nameOrURL)),
		}
	}

	removed := next.Sources[idx].Label
	next.Sources = append(next.Sources[:idx], next.Sources[idx+1:]...)
	return Outcome{
		Record:   next,
		Response: fmt.Sprintf("Removed %s from your sources. Anything else?", removed),
		Mutated:  true,
	}
}

func unrecognized(next *models.Subscription) Outcome {
	return Outcome{Record: next, Response: msgHelp}
}

func setTime(next *models.Subscription, in intent.Intent) {
	next.DeliveryHour = in.Hour
	next.DeliveryMinute = in.Minute
	next.TimeSet = true
	if in.Timezone != "" {
		next.Timezone = in.Timezone
	}
}

func describeSources(sub *models.Subscription) string {
	if len(sub.Sources) == 0 {
		return fmt.Sprintf("You don't have any sources yet. Available: %s. You can also paste any URL.",
			strings.Join(catalog.IDs(), ", "))
	}

	labels := make([]string, len(sub.Sources))
	for i, s := range sub.Sources {
		labels[i] = s.Label
	}

	tz := sub.Timezone
	if tz == "" {
		tz = models.DefaultTimezone
	}
	clock := "unset"
	if sub.TimeSet {
		clock = fmt.Sprintf("%02d:%02d", sub.DeliveryHour, sub.DeliveryMinute)
	}
	return fmt.Sprintf("Your current sources: %s. Delivery time: %s %s.",
		strings.Join(labels, ", "), clock, tz)
}

func hasCatalogSource(sub *models.Subscription, id string) bool {
	for _, s := range sub.Sources {
		if s.CatalogID == id {
			return true
		}
	}
	return false
}

func hasURL(sub *models.Subscription, rawURL string) bool {
	normalized := catalog.NormalizeURL(rawURL)
	for _, s := range sub.Sources {
		if catalog.NormalizeURL(s.URL) == normalized {
			return true
		}
	}
	return false
}

// findSource matches by catalog id (via the catalog resolver so aliases
// work), then by normalized URL, then by label.
func findSource(sub *models.Subscription, nameOrURL string) int {
	m := catalog.Resolve(nameOrURL)

	for i, s := range sub.Sources {
		switch {
		case m.Kind == catalog.MatchCatalog && s.CatalogID == m.ID:
			return i
		case m.Kind == catalog.MatchCandidateURL && catalog.NormalizeURL(s.URL) == catalog.NormalizeURL(m.URL):
			return i
		case strings.EqualFold(s.Label, strings.TrimSpace(nameOrURL)):
			return i
		}
	}
	return -1
}

func urlLabel(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return strings.TrimPrefix(u.Host, "www.")
	}
	return rawURL
}
