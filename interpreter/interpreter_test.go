package interpreter

import (
	"strings"
	"testing"

	"github.com/coreybb/dailybrief/intent"
	"github.com/coreybb/dailybrief/models"
)

func newSub(stage models.OnboardingStage) *models.Subscription {
	return &models.Subscription{Email: "a@b.com", Stage: stage}
}

func activeWithMedium() *models.Subscription {
	return &models.Subscription{
		Email: "a@b.com",
		Stage: models.StageActive,
		Sources: []models.SubscribedSource{
			{CatalogID: "medium", URL: "https://medium.com/tag/artificial-intelligence", Label: "medium"},
		},
		TimeSet:      true,
		DeliveryHour: 8,
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	sub := newSub(models.StageAwaitingSources)
	out := Apply(sub, intent.Intent{Kind: intent.KindAddSource, Source: "medium"})

	if len(sub.Sources) != 0 {
		t.Error("input record was mutated")
	}
	if len(out.Record.Sources) != 1 {
		t.Errorf("outcome record has %d sources, want 1", len(out.Record.Sources))
	}
}

func TestApplyUnrecognizedIsNoOp(t *testing.T) {
	for _, stage := range []models.OnboardingStage{
		models.StageAwaitingEmail,
		models.StageAwaitingTime,
		models.StageAwaitingSources,
		models.StageActive,
	} {
		sub := newSub(stage)
		out := Apply(sub, intent.Intent{Kind: intent.KindUnrecognized})
		if out.Mutated || out.Deleted {
			t.Errorf("stage %s: unrecognized intent mutated state", stage)
		}
		if out.Record.Stage != stage {
			t.Errorf("stage %s: stage changed to %s", stage, out.Record.Stage)
		}
		if out.Response == "" {
			t.Errorf("stage %s: empty response", stage)
		}
	}
}

func TestApplySubmitEmail(t *testing.T) {
	sub := &models.Subscription{Stage: models.StageAwaitingEmail}
	out := Apply(sub, intent.Intent{Kind: intent.KindSubmitEmail, Email: "new@example.com"})

	if !out.Mutated {
		t.Fatal("expected mutation")
	}
	if out.Record.Email != "new@example.com" {
		t.Errorf("Email = %q", out.Record.Email)
	}
	if out.Record.Stage != models.StageAwaitingTime {
		t.Errorf("Stage = %s, want awaiting_time", out.Record.Stage)
	}
	if !strings.Contains(strings.ToLower(out.Response), "time") {
		t.Errorf("response should prompt for a time, got %q", out.Response)
	}
}

func TestApplyInvalidEmailDoesNotAdvance(t *testing.T) {
	sub := &models.Subscription{Stage: models.StageAwaitingEmail}
	out := Apply(sub, intent.Intent{Kind: intent.KindInvalidEmail})

	if out.Mutated {
		t.Error("invalid email must not mutate")
	}
	if out.Record.Stage != models.StageAwaitingEmail {
		t.Errorf("Stage = %s, want awaiting_email", out.Record.Stage)
	}
}

func TestApplySetTimeDuringOnboarding(t *testing.T) {
	sub := newSub(models.StageAwaitingTime)
	out := Apply(sub, intent.Intent{Kind: intent.KindSetTime, Hour: 17, Minute: 3, Timezone: "America/New_York"})

	rec := out.Record
	if rec.Stage != models.StageAwaitingSources {
		t.Errorf("Stage = %s, want awaiting_sources", rec.Stage)
	}
	if rec.DeliveryHour != 17 || rec.DeliveryMinute != 3 || !rec.TimeSet {
		t.Errorf("time not stored: %+v", rec)
	}
	if rec.Timezone != "America/New_York" {
		t.Errorf("Timezone = %q", rec.Timezone)
	}
}

func TestApplySetTimeIdempotent(t *testing.T) {
	sub := activeWithMedium()
	in := intent.Intent{Kind: intent.KindSetTime, Hour: 9, Minute: 30}

	first := Apply(sub, in)
	second := Apply(first.Record, in)

	a, b := first.Record, second.Record
	if a.DeliveryHour != b.DeliveryHour || a.DeliveryMinute != b.DeliveryMinute || a.Stage != b.Stage {
		t.Errorf("repeated set-time diverged: %+v vs %+v", a, b)
	}
	if b.DeliveryHour != 9 || b.DeliveryMinute != 30 {
		t.Errorf("time = %02d:%02d, want 09:30", b.DeliveryHour, b.DeliveryMinute)
	}
}

func TestApplyAddCatalogSource(t *testing.T) {
	sub := newSub(models.StageAwaitingSources)
	out := Apply(sub, intent.Intent{Kind: intent.KindAddSource, Source: "tech news"})

	rec := out.Record
	if !out.Mutated {
		t.Fatal("expected mutation")
	}
	if rec.Stage != models.StageActive {
		t.Errorf("Stage = %s, want active", rec.Stage)
	}
	if len(rec.Sources) != 1 || rec.Sources[0].CatalogID != "google_news_tech" {
		t.Errorf("Sources = %+v", rec.Sources)
	}
	if rec.Sources[0].URL == "" {
		t.Error("catalog URL not filled in")
	}
}

func TestApplyAddCatalogSourceIdempotent(t *testing.T) {
	sub := activeWithMedium()
	out := Apply(sub, intent.Intent{Kind: intent.KindAddSource, Source: "medium"})

	if out.Mutated {
		t.Error("duplicate add must not mutate")
	}
	if len(out.Record.Sources) != 1 {
		t.Errorf("Sources length = %d, want 1", len(out.Record.Sources))
	}
	if !strings.Contains(out.Response, "already") {
		t.Errorf("response = %q, want an already-subscribed notice", out.Response)
	}
}

func TestApplyAddUnknownURLRequiresConfirmation(t *testing.T) {
	sub := activeWithMedium()
	out := Apply(sub, intent.Intent{Kind: intent.KindAddSource, Source: "https://example.com/feed"})

	rec := out.Record
	if rec.PendingURL != "https://example.com/feed" {
		t.Errorf("PendingURL = %q", rec.PendingURL)
	}
	if out.ConfirmURL != "https://example.com/feed" {
		t.Errorf("ConfirmURL = %q", out.ConfirmURL)
	}
	// Nothing committed until the user answers.
	if len(rec.Sources) != 1 {
		t.Errorf("Sources length = %d, want 1", len(rec.Sources))
	}
}

func TestApplyConfirmPendingURL(t *testing.T) {
	sub := activeWithMedium()
	sub.PendingURL = "https://example.com/feed"

	out := Apply(sub, intent.Intent{Kind: intent.KindConfirmPendingURL})
	rec := out.Record

	if rec.PendingURL != "" {
		t.Errorf("PendingURL = %q, want cleared", rec.PendingURL)
	}
	if len(rec.Sources) != 2 {
		t.Fatalf("Sources length = %d, want 2", len(rec.Sources))
	}
	added := rec.Sources[1]
	if added.URL != "https://example.com/feed" || added.Label != "example.com" {
		t.Errorf("committed source = %+v", added)
	}
	if out.ConfirmURL != "" {
		t.Errorf("ConfirmURL = %q, want empty after commit", out.ConfirmURL)
	}
}

func TestApplyRejectPendingURL(t *testing.T) {
	sub := activeWithMedium()
	sub.PendingURL = "https://example.com/feed"

	out := Apply(sub, intent.Intent{Kind: intent.KindRejectPendingURL})
	rec := out.Record

	if rec.PendingURL != "" {
		t.Errorf("PendingURL = %q, want cleared", rec.PendingURL)
	}
	if len(rec.Sources) != 1 {
		t.Errorf("Sources length = %d, want 1 (nothing committed)", len(rec.Sources))
	}
}

func TestApplyPendingGateBlocksOtherIntents(t *testing.T) {
	sub := activeWithMedium()
	sub.PendingURL = "https://example.com/feed"

	out := Apply(sub, intent.Intent{Kind: intent.KindUnrecognized})
	rec := out.Record

	if out.Mutated || out.Deleted {
		t.Error("gated intent must not mutate state")
	}
	if rec.PendingURL != "https://example.com/feed" {
		t.Errorf("PendingURL = %q, want preserved", rec.PendingURL)
	}
	if out.ConfirmURL != "https://example.com/feed" {
		t.Errorf("ConfirmURL = %q, want re-asked", out.ConfirmURL)
	}
	if !strings.Contains(out.Response, "yes or no") {
		t.Errorf("response = %q, want a yes/no re-ask", out.Response)
	}
}

func TestApplyRemoveSource(t *testing.T) {
	tests := []struct {
		name  string
		arg   string
		found bool
	}{
		{"by id", "medium", true},
		{"by alias via resolver", "medium.com", true},
		{"by label case-insensitive", "MEDIUM", true},
		{"absent source", "book_summaries", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := activeWithMedium()
			out := Apply(sub, intent.Intent{Kind: intent.KindRemoveSource, Source: tt.arg})

			if tt.found {
				if !out.Mutated {
					t.Fatal("expected mutation")
				}
				if len(out.Record.Sources) != 0 {
					t.Errorf("Sources length = %d, want 0", len(out.Record.Sources))
				}
			} else {
				if out.Mutated {
					t.Error("removing an absent source must not mutate")
				}
				if !strings.Contains(out.Response, "don't have") {
					t.Errorf("response = %q", out.Response)
				}
			}
		})
	}
}

func TestApplyRemoveURLSource(t *testing.T) {
	sub := activeWithMedium()
	sub.Sources = append(sub.Sources, models.SubscribedSource{
		URL:   "https://example.com/feed",
		Label: "example.com",
	})

	out := Apply(sub, intent.Intent{Kind: intent.KindRemoveSource, Source: "https://Example.com/feed/"})
	if !out.Mutated {
		t.Fatal("expected mutation")
	}
	if len(out.Record.Sources) != 1 || out.Record.Sources[0].CatalogID != "medium" {
		t.Errorf("Sources = %+v", out.Record.Sources)
	}
}

func TestApplySetTimezone(t *testing.T) {
	sub := activeWithMedium()

	out := Apply(sub, intent.Intent{Kind: intent.KindSetTimezone, Timezone: "Europe/London"})
	if !out.Mutated || out.Record.Timezone != "Europe/London" {
		t.Errorf("Timezone = %q, Mutated = %v", out.Record.Timezone, out.Mutated)
	}

	out = Apply(sub, intent.Intent{Kind: intent.KindSetTimezone, Timezone: "Mars/Olympus_Mons"})
	if out.Mutated {
		t.Error("invalid timezone must not mutate")
	}
	if !strings.Contains(out.Response, "Invalid timezone") {
		t.Errorf("response = %q", out.Response)
	}
}

func TestApplyViewSources(t *testing.T) {
	empty := newSub(models.StageAwaitingSources)
	out := Apply(empty, intent.Intent{Kind: intent.KindViewSources})
	if out.Mutated {
		t.Error("view must not mutate")
	}
	if !strings.Contains(out.Response, "don't have any sources") {
		t.Errorf("response = %q", out.Response)
	}

	out = Apply(activeWithMedium(), intent.Intent{Kind: intent.KindViewSources})
	if !strings.Contains(out.Response, "medium") || !strings.Contains(out.Response, "08:00") {
		t.Errorf("response = %q", out.Response)
	}
}

func TestApplyUnsubscribe(t *testing.T) {
	out := Apply(activeWithMedium(), intent.Intent{Kind: intent.KindUnsubscribe})
	if !out.Deleted {
		t.Error("expected Deleted")
	}
	if !strings.Contains(out.Response, "unsubscribed") {
		t.Errorf("response = %q", out.Response)
	}
}
