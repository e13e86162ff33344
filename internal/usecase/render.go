package usecase

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"go-jobalert-scheduler/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

// smsMaxTitles caps how many titles fit into one SMS.
const smsMaxTitles = 3

const alertEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0066cc; color: white; padding: 20px; text-align: center; }
        .job { padding: 12px; background: #f9f9f9; margin-bottom: 10px; list-style: none; }
        .title { font-weight: bold; color: #0066cc; }
        .company { color: #555; }
        .footer { text-align: center; padding: 20px; color: #888; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>{{.Heading}}</h1></div>
        <ul class="jobs">
        {{range .Jobs}}
            <li class="job">
                <a class="title" href="{{.URL}}">{{.Title}}</a>
                <div class="company">{{.CompanyName}}</div>
            </li>
        {{end}}
        </ul>
        <div class="footer">
            <p class="more"><a href="{{.MoreURL}}">See all jobs</a></p>
            <p class="unsubscribe"><a href="{{.UnsubscribeURL}}">Unsubscribe from these alerts</a></p>
        </div>
    </div>
</body>
</html>`

type renderJob struct {
	Title       string
	CompanyName string
	URL         string
}

type renderData struct {
	Subject        string
	Heading        string
	Jobs           []renderJob
	MoreURL        string
	UnsubscribeURL string
}

// Renderer builds the outbound messages for a ranked job list.
type Renderer struct {
	siteURL string
	tmpl    *template.Template
	now     func() time.Time
}

func NewRenderer(siteURL string) *Renderer {
	return &Renderer{
		siteURL: strings.TrimRight(siteURL, "/"),
		tmpl:    template.Must(template.New("alert").Parse(alertEmailTemplate)),
		now:     time.Now,
	}
}

// Render produces the message for one channel.
func (r *Renderer) Render(ch domain.Channel, profile *domain.RecipientProfile, jobs []domain.JobPosting, typ domain.NotificationType) (domain.Message, error) {
	msg := domain.Message{
		ID:          uuid.NewString(),
		Channel:     ch,
		Subject:     subjectFor(typ, len(jobs)),
		Tag:         typ,
		RecipientID: profile.ID,
		CreatedAt:   r.now().UTC(),
	}

	switch ch {
	case domain.ChannelSMS:
		msg.To = []string{profile.Mobile}
		msg.TextBody = r.smsBody(jobs)
		return msg, nil
	case domain.ChannelEmail:
		msg.To = []string{profile.Email}
	default:
		return msg, fmt.Errorf("unsupported channel %q", ch)
	}

	data := renderData{
		Subject:        msg.Subject,
		Heading:        headingFor(typ),
		MoreURL:        r.siteURL + "/jobs",
		UnsubscribeURL: fmt.Sprintf("%s/alerts/unsubscribe?kind=%s&id=%s", r.siteURL, profile.Kind, profile.ID),
	}
	for _, job := range jobs {
		data.Jobs = append(data.Jobs, renderJob{
			Title:       job.Title,
			CompanyName: job.CompanyName,
			URL:         r.jobURL(job),
		})
	}

	var body bytes.Buffer
	if err := r.tmpl.Execute(&body, data); err != nil {
		return msg, fmt.Errorf("failed to execute alert template: %w", err)
	}
	msg.HTMLBody = body.String()

	text, err := plainText(msg.HTMLBody)
	if err != nil {
		return msg, err
	}
	msg.TextBody = text

	return msg, nil
}

func (r *Renderer) jobURL(job domain.JobPosting) string {
	if job.Slug != "" {
		return r.siteURL + "/jobs/" + job.Slug
	}
	return fmt.Sprintf("%s/jobs/%d", r.siteURL, job.ID)
}

func (r *Renderer) smsBody(jobs []domain.JobPosting) string {
	titles := make([]string, 0, smsMaxTitles)
	for i, job := range jobs {
		if i == smsMaxTitles {
			break
		}
		titles = append(titles, job.Title)
	}
	body := fmt.Sprintf("%d new jobs for you: %s", len(jobs), strings.Join(titles, ", "))
	if len(jobs) > smsMaxTitles {
		body += " and more"
	}
	return body + ". " + r.siteURL + "/jobs"
}

// plainText derives the text/plain alternative from the rendered HTML.
func plainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse rendered alert: %w", err)
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(doc.Find("h1").First().Text()))
	b.WriteString("\n\n")
	doc.Find("li.job").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a.title")
		href, _ := link.Attr("href")
		fmt.Fprintf(&b, "- %s (%s)\n  %s\n",
			strings.TrimSpace(link.Text()),
			strings.TrimSpace(s.Find(".company").Text()),
			href)
	})
	doc.Find(".footer a").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		fmt.Fprintf(&b, "\n%s: %s", strings.TrimSpace(s.Text()), href)
	})

	return strings.TrimSpace(b.String()), nil
}

func subjectFor(typ domain.NotificationType, n int) string {
	switch typ {
	case domain.NotificationWeeklyAlert:
		return fmt.Sprintf("Your weekly job alert: %d jobs", n)
	case domain.NotificationSubscriberDigest:
		return fmt.Sprintf("%d new jobs posted today", n)
	case domain.NotificationSavedAlertMatch:
		return fmt.Sprintf("%d jobs match your saved alert", n)
	default:
		return fmt.Sprintf("%d new jobs matching your profile", n)
	}
}

func headingFor(typ domain.NotificationType) string {
	switch typ {
	case domain.NotificationSavedAlertMatch:
		return "New matches for your saved alert"
	case domain.NotificationSubscriberDigest:
		return "Latest jobs on the board"
	default:
		return "Jobs picked for you"
	}
}
