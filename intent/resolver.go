package intent

import (
	"regexp"
	"strings"

	"github.com/coreybb/dailybrief/catalog"
	"github.com/coreybb/dailybrief/models"
)

// emailExpr accepts local-part@domain where the domain contains a dot.
var emailExpr = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s is a syntactically well-formed address.
func ValidEmail(s string) bool {
	return emailExpr.MatchString(strings.TrimSpace(s))
}

var (
	affirmatives = map[string]bool{
		"yes": true, "y": true, "yep": true, "yeah": true, "sure": true,
		"correct": true, "confirm": true, "ok": true, "okay": true,
		"yes please": true, "add it": true,
	}
	negatives = map[string]bool{
		"no": true, "n": true, "nope": true, "wrong": true, "cancel": true,
		"no thanks": true, "don't": true, "dont": true,
	}
)

// Resolve maps an utterance to a structured intent given the subscriber's
// onboarding stage. A pending URL confirmation dominates everything: while it
// is set, input resolves only to confirm, reject, or unrecognized.
func Resolve(utterance string, stage models.OnboardingStage, pendingConfirmation bool) Intent {
	text := strings.ToLower(strings.TrimSpace(utterance))

	if pendingConfirmation {
		switch {
		case affirmatives[text]:
			return Intent{Kind: KindConfirmPendingURL}
		case negatives[text]:
			return Intent{Kind: KindRejectPendingURL}
		default:
			return Intent{Kind: KindUnrecognized}
		}
	}

	switch stage {
	case models.StageAwaitingEmail:
		addr := strings.TrimSpace(utterance)
		if emailExpr.MatchString(addr) {
			return Intent{Kind: KindSubmitEmail, Email: strings.ToLower(addr)}
		}
		return Intent{Kind: KindInvalidEmail}

	case models.StageAwaitingTime:
		if hour, minute, tz, ok := ParseTime(text); ok {
			return Intent{Kind: KindSetTime, Hour: hour, Minute: minute, Timezone: tz}
		}
		return Intent{Kind: KindInvalidTime}
	}

	return resolveGeneral(text)
}

// resolveGeneral handles the AWAITING_SOURCES and ACTIVE stages. Ordering
// matters: destructive and explicit commands are checked before the
// bare-source fallback.
func resolveGeneral(text string) Intent {
	if text == "" {
		return Intent{Kind: KindUnrecognized}
	}

	if strings.Contains(text, "unsubscribe") || text == "stop" {
		return Intent{Kind: KindUnsubscribe}
	}

	if isViewRequest(text) {
		return Intent{Kind: KindViewSources}
	}

	if arg, ok := argumentAfter(text, "remove", "delete", "drop"); ok {
		return Intent{Kind: KindRemoveSource, Source: arg}
	}

	if strings.Contains(text, "timezone") || strings.Contains(text, "time zone") {
		if tz := timezoneArgument(text); tz != "" {
			return Intent{Kind: KindSetTimezone, Timezone: tz}
		}
		return Intent{Kind: KindUnrecognized}
	}

	if strings.Contains(text, "time") || strings.Contains(text, "deliver") {
		if hour, minute, tz, ok := ParseTime(text); ok {
			return Intent{Kind: KindSetTime, Hour: hour, Minute: minute, Timezone: tz}
		}
	}

	if arg, ok := argumentAfter(text, "add", "subscribe to", "subscribe", "include"); ok {
		return Intent{Kind: KindAddSource, Source: arg}
	}

	// A bare catalog name or URL reads as an add request.
	if m := catalog.Resolve(text); m.Kind != catalog.MatchUnresolved {
		return Intent{Kind: KindAddSource, Source: strings.TrimSpace(text)}
	}

	return Intent{Kind: KindUnrecognized}
}

func isViewRequest(text string) bool {
	if text == "sources" || text == "my sources" {
		return true
	}
	if !strings.Contains(text, "source") {
		return false
	}
	for _, verb := range []string{"view", "show", "list", "see", "what"} {
		if strings.Contains(text, verb) {
			return true
		}
	}
	return false
}

// argumentAfter returns the text following the first matching leading verb,
// with filler words stripped. ok is false when no verb matches or nothing
// useful follows it.
func argumentAfter(text string, verbs ...string) (string, bool) {
	for _, verb := range verbs {
		if !strings.HasPrefix(text, verb+" ") {
			continue
		}
		arg := strings.TrimSpace(strings.TrimPrefix(text, verb+" "))
		arg = stripFiller(arg)
		if arg != "" {
			return arg, true
		}
	}
	return "", false
}

var fillerWords = map[string]bool{
	"the": true, "a": true, "my": true, "source": true, "sources": true,
	"please": true, "from": true, "to": true,
}

func stripFiller(arg string) string {
	words := strings.Fields(arg)
	kept := words[:0]
	for _, w := range words {
		if !fillerWords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// timezoneArgument pulls a timezone candidate out of a "set my timezone to X"
// style utterance: an IANA-looking token (contains a slash) wins, then a
// known abbreviation.
func timezoneArgument(text string) string {
	for _, word := range strings.Fields(text) {
		word = strings.Trim(word, ".,!?")
		if strings.Contains(word, "/") {
			return canonicalIANA(word)
		}
	}
	if tz := TimezoneHint(text); tz != "" {
		return tz
	}
	return ""
}

// canonicalIANA restores tzdata capitalization lost when the utterance was
// lower-cased: "america/new_york" becomes "America/New_York".
func canonicalIANA(id string) string {
	segments := strings.Split(id, "/")
	for i, seg := range segments {
		words := strings.Split(seg, "_")
		for j, w := range words {
			if w != "" {
				words[j] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
		segments[i] = strings.Join(words, "_")
	}
	return strings.Join(segments, "/")
}
