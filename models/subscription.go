package models

import "time"

// OnboardingStage gates which commands a subscriber may issue. Stages only
// advance forward; an explicit unsubscribe removes the record entirely.
type OnboardingStage string

const (
	StageAwaitingEmail   OnboardingStage = "awaiting_email"
	StageAwaitingTime    OnboardingStage = "awaiting_time"
	StageAwaitingSources OnboardingStage = "awaiting_sources"
	StageActive          OnboardingStage = "active"
)

// DefaultTimezone applies at scheduling time when a subscriber never set one.
const DefaultTimezone = "America/Los_Angeles"

// SubscribedSource is one entry in a subscription's source list. Catalog
// picks carry CatalogID; ad-hoc URLs the user confirmed carry only URL+Label.
type SubscribedSource struct {
	CatalogID string `json:"catalog_id,omitempty"`
	URL       string `json:"url"`
	Label     string `json:"label"`
}

// Subscription is the per-user state entity. Email is the sole identity key
// and never changes after creation.
type Subscription struct {
	Email            string             `json:"email"`
	CreatedAt        time.Time          `json:"created_at"`
	DeliveryHour     int                `json:"delivery_hour"`
	DeliveryMinute   int                `json:"delivery_minute"`
	TimeSet          bool               `json:"time_set"`
	Timezone         string             `json:"timezone,omitempty"`
	Sources          []SubscribedSource `json:"sources"`
	Stage            OnboardingStage    `json:"stage"`
	PendingURL       string             `json:"pending_url,omitempty"`
	LastDigestSentAt *time.Time         `json:"last_digest_sent_at,omitempty"`
}

// Clone returns a deep copy. The command interpreter mutates the copy so the
// caller's record stays untouched until the new state is persisted.
func (s *Subscription) Clone() *Subscription {
	dup := *s
	if s.Sources != nil {
		dup.Sources = make([]SubscribedSource, len(s.Sources))
		copy(dup.Sources, s.Sources)
	}
	if s.LastDigestSentAt != nil {
		t := *s.LastDigestSentAt
		dup.LastDigestSentAt = &t
	}
	return &dup
}

// Location resolves the subscriber's timezone, falling back to
// DefaultTimezone when none was ever provided.
func (s *Subscription) Location() (*time.Location, error) {
	tz := s.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	return time.LoadLocation(tz)
}
