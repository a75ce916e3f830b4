package processing

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"github.com/coreybb/dailybrief/catalog"
	"github.com/coreybb/dailybrief/delivery"
	"github.com/coreybb/dailybrief/ingestion"
	"github.com/coreybb/dailybrief/models"
)

// ContentFetcher is the content-fetching collaborator: given a source URL it
// returns extracted article text or fails.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (*ingestion.Article, error)
}

// Mailer delivers a built digest and records the attempt.
type Mailer interface {
	Deliver(ctx context.Context, recipient, subject, htmlBody string) error
}

// digestSection is one rendered block of the digest email.
type digestSection struct {
	Label   string
	URL     string
	Topics  string
	Title   string
	Excerpt string
}

var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Georgia, serif; max-width: 640px; margin: 0 auto; color: #222;">
  <h1 style="font-size: 22px;">Your Daily News Digest</h1>
  <p style="color: #666;">{{.Date}}</p>
  {{range .Sections}}
  <div style="margin-bottom: 28px;">
    <h2 style="font-size: 17px; margin-bottom: 4px;"><a href="{{.URL}}" style="color: #1a0dab;">{{.Label}}</a></h2>
    {{if .Topics}}<p style="font-size: 12px; color: #888; margin: 0 0 8px;">{{.Topics}}</p>{{end}}
    {{if .Title}}<p style="font-weight: bold; margin: 0 0 6px;">{{.Title}}</p>{{end}}
    <p style="line-height: 1.5; margin: 0;">{{.Excerpt}}</p>
  </div>
  {{end}}
  <hr style="border: none; border-top: 1px solid #ddd;">
  <p style="font-size: 12px; color: #888;">Reply to this email to manage your subscription: add or remove sources, change your delivery time, or unsubscribe.</p>
</body>
</html>
`))

// DigestProcessor builds a subscriber's digest from their sources and hands
// it to the mailer.
type DigestProcessor struct {
	fetcher ContentFetcher
	mailer  Mailer
	now     func() time.Time
}

func NewDigestProcessor(fetcher ContentFetcher, mailer Mailer) *DigestProcessor {
	return &DigestProcessor{
		fetcher: fetcher,
		mailer:  mailer,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// BuildDigest fetches every subscribed source and renders the digest email.
// Individual fetch failures are logged and skipped; a digest with no
// sections at all is an error so the delivery window stays unserved and the
// next trigger retries.
func (dp *DigestProcessor) BuildDigest(ctx context.Context, sub *models.Subscription) (subject, htmlBody string, err error) {
	if len(sub.Sources) == 0 {
		return "", "", fmt.Errorf("subscription %s has no sources", sub.Email)
	}

	var sections []digestSection
	for _, src := range sub.Sources {
		article, fetchErr := dp.fetcher.Fetch(ctx, src.URL)
		if fetchErr != nil {
			log.Printf("WARN (DigestProcessor): Skipping source %s for %s: %v", src.Label, sub.Email, fetchErr)
			continue
		}
		sections = append(sections, digestSection{
			Label:   src.Label,
			URL:     src.URL,
			Topics:  topicsLine(src),
			Title:   article.Title,
			Excerpt: article.Excerpt,
		})
	}

	if len(sections) == 0 {
		return "", "", fmt.Errorf("no content could be fetched for %s", sub.Email)
	}

	now := dp.now()
	var body strings.Builder
	err = digestTemplate.Execute(&body, struct {
		Date     string
		Sections []digestSection
	}{
		Date:     now.Format("Monday, January 2, 2006"),
		Sections: sections,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to render digest for %s: %w", sub.Email, err)
	}

	subject = fmt.Sprintf("Your Daily News Digest - %s", now.Format("January 2, 2006"))
	return subject, body.String(), nil
}

// SendDigest builds and delivers one digest. The mailer's error propagates
// unchanged so the scheduler can leave the delivery window unmarked.
func (dp *DigestProcessor) SendDigest(ctx context.Context, sub *models.Subscription) error {
	subject, htmlBody, err := dp.BuildDigest(ctx, sub)
	if err != nil {
		return err
	}
	return dp.mailer.Deliver(ctx, sub.Email, subject, htmlBody)
}

func topicsLine(src models.SubscribedSource) string {
	if src.CatalogID == "" {
		return ""
	}
	entry, ok := catalog.Get(src.CatalogID)
	if !ok || len(entry.Topics) == 0 {
		return ""
	}
	return strings.Join(entry.Topics, " · ")
}

// Compile-time wiring checks for the concrete collaborators.
var (
	_ ContentFetcher = (*ingestion.Fetcher)(nil)
	_ Mailer         = (*delivery.DeliveryService)(nil)
)
