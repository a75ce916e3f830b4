package processing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/coreybb/dailybrief/ingestion"
	"github.com/coreybb/dailybrief/models"
)

type fakeFetcher struct {
	articles map[string]*ingestion.Article
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*ingestion.Article, error) {
	article, ok := f.articles[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return article, nil
}

type fakeMailer struct {
	err        error
	recipients []string
	subjects   []string
	bodies     []string
}

func (f *fakeMailer) Deliver(ctx context.Context, recipient, subject, htmlBody string) error {
	if f.err != nil {
		return f.err
	}
	f.recipients = append(f.recipients, recipient)
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, htmlBody)
	return nil
}

func digestSub() *models.Subscription {
	return &models.Subscription{
		Email: "reader@example.com",
		Stage: models.StageActive,
		Sources: []models.SubscribedSource{
			{CatalogID: "medium", URL: "https://medium.com/tag/artificial-intelligence", Label: "medium"},
			{URL: "https://example.com/feed", Label: "example.com"},
		},
	}
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
}

func TestBuildDigest(t *testing.T) {
	fetcher := &fakeFetcher{articles: map[string]*ingestion.Article{
		"https://medium.com/tag/artificial-intelligence": {Title: "Model Release", Excerpt: "A new model shipped today."},
		"https://example.com/feed":                       {Excerpt: "Feed headline text."},
	}}
	dp := NewDigestProcessor(fetcher, &fakeMailer{})
	dp.now = fixedClock

	subject, body, err := dp.BuildDigest(context.Background(), digestSub())
	if err != nil {
		t.Fatalf("BuildDigest: %v", err)
	}

	if subject != "Your Daily News Digest - March 15, 2024" {
		t.Errorf("subject = %q", subject)
	}
	for _, want := range []string{
		"Friday, March 15, 2024",
		"Model Release",
		"A new model shipped today.",
		"Feed headline text.",
		"example.com",
		"Reply to this email",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestBuildDigestSkipsFailedSources(t *testing.T) {
	fetcher := &fakeFetcher{articles: map[string]*ingestion.Article{
		"https://example.com/feed": {Excerpt: "Feed headline text."},
	}}
	dp := NewDigestProcessor(fetcher, &fakeMailer{})
	dp.now = fixedClock

	_, body, err := dp.BuildDigest(context.Background(), digestSub())
	if err != nil {
		t.Fatalf("BuildDigest: %v", err)
	}
	if strings.Contains(body, "medium.com") {
		t.Error("failed source should be absent from the digest")
	}
	if !strings.Contains(body, "Feed headline text.") {
		t.Error("surviving source missing from the digest")
	}
}

func TestBuildDigestAllSourcesFailed(t *testing.T) {
	dp := NewDigestProcessor(&fakeFetcher{}, &fakeMailer{})
	dp.now = fixedClock

	if _, _, err := dp.BuildDigest(context.Background(), digestSub()); err == nil {
		t.Fatal("expected error when no section could be built")
	}
}

func TestBuildDigestNoSources(t *testing.T) {
	dp := NewDigestProcessor(&fakeFetcher{}, &fakeMailer{})

	sub := &models.Subscription{Email: "empty@example.com", Stage: models.StageActive}
	if _, _, err := dp.BuildDigest(context.Background(), sub); err == nil {
		t.Fatal("expected error for a subscription without sources")
	}
}

func TestSendDigest(t *testing.T) {
	fetcher := &fakeFetcher{articles: map[string]*ingestion.Article{
		"https://medium.com/tag/artificial-intelligence": {Excerpt: "Something happened."},
		"https://example.com/feed":                       {Excerpt: "Other news."},
	}}
	mailer := &fakeMailer{}
	dp := NewDigestProcessor(fetcher, mailer)
	dp.now = fixedClock

	if err := dp.SendDigest(context.Background(), digestSub()); err != nil {
		t.Fatalf("SendDigest: %v", err)
	}
	if len(mailer.recipients) != 1 || mailer.recipients[0] != "reader@example.com" {
		t.Errorf("recipients = %v", mailer.recipients)
	}
}

func TestSendDigestPropagatesMailerError(t *testing.T) {
	fetcher := &fakeFetcher{articles: map[string]*ingestion.Article{
		"https://medium.com/tag/artificial-intelligence": {Excerpt: "Something happened."},
		"https://example.com/feed":                       {Excerpt: "Other news."},
	}}
	mailerErr := errors.New("provider 503")
	dp := NewDigestProcessor(fetcher, &fakeMailer{err: mailerErr})
	dp.now = fixedClock

	if err := dp.SendDigest(context.Background(), digestSub()); !errors.Is(err, mailerErr) {
		t.Errorf("err = %v, want the mailer error", err)
	}
}
