// Package intent turns a free-text utterance plus the subscriber's onboarding
// stage into one of a closed set of structured commands. The resolver is pure
// keyword/pattern matching; ambiguous phrasing may additionally be routed
// through an external classifier by the caller, never here.
package intent

type Kind int

const (
	KindUnrecognized Kind = iota
	KindSubmitEmail
	KindInvalidEmail
	KindSetTime
	KindInvalidTime
	KindAddSource
	KindRemoveSource
	KindSetTimezone
	KindViewSources
	KindUnsubscribe
	KindConfirmPendingURL
	KindRejectPendingURL
)

func (k Kind) String() string {
	switch k {
	case KindSubmitEmail:
		return "submit_email"
	case KindInvalidEmail:
		return "invalid_email"
	case KindSetTime:
		return "set_time"
	case KindInvalidTime:
		return "invalid_time"
	case KindAddSource:
		return "add_source"
	case KindRemoveSource:
		return "remove_source"
	case KindSetTimezone:
		return "set_timezone"
	case KindViewSources:
		return "view_sources"
	case KindUnsubscribe:
		return "unsubscribe"
	case KindConfirmPendingURL:
		return "confirm_pending_url"
	case KindRejectPendingURL:
		return "reject_pending_url"
	default:
		return "unrecognized"
	}
}

// Intent is the resolved command. Only the fields relevant to Kind are set:
// Email for SubmitEmail, Hour/Minute (+ optional Timezone hint) for SetTime,
// Timezone for SetTimezone, Source for AddSource/RemoveSource.
type Intent struct {
	Kind     Kind
	Email    string
	Hour     int
	Minute   int
	Timezone string
	Source   string
}
