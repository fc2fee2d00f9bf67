package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kidolearn/kidolearn-api/internal/repository"
)

// DigestService assembles the periodic screen-time summary mailed to
// each parent.
type DigestService struct {
	parentRepo  repository.ParentRepository
	childRepo   repository.ChildRepository
	sessionRepo repository.AppSessionRepository
	email       *EmailService
	appBaseURL  string
}

func NewDigestService(repos *repository.Repositories, email *EmailService, appBaseURL string) *DigestService {
	return &DigestService{
		parentRepo:  repos.Parent,
		childRepo:   repos.Child,
		sessionRepo: repos.AppSession,
		email:       email,
		appBaseURL:  appBaseURL,
	}
}

type childDigest struct {
	Name         string
	TotalSeconds int64
	SessionCount int64
}

// Run emails every parent with at least one child a usage summary for
// the trailing window. Dry-run renders and logs without sending. The
// return is the number of digests sent (or rendered in dry-run).
func (s *DigestService) Run(ctx context.Context, days int, dryRun bool) (int, error) {
	parents, err := s.parentRepo.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list parents: %w", err)
	}

	since := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -(days - 1))
	sent := 0

	for _, parent := range parents {
		if parent.Email == "" {
			continue
		}

		children, err := s.childRepo.GetByParentID(ctx, parent.ID)
		if err != nil {
			log.Error().Err(err).Str("parentId", parent.ID.String()).Msg("digest: listing children failed")
			continue
		}
		if len(children) == 0 {
			continue
		}

		digests := make([]childDigest, 0, len(children))
		for _, child := range children {
			rows, err := s.sessionRepo.UsageByChildID(ctx, child.ID, since)
			if err != nil {
				log.Error().Err(err).Str("childId", child.ID.String()).Msg("digest: usage query failed")
				continue
			}
			d := childDigest{Name: child.Name}
			for _, row := range rows {
				d.TotalSeconds += row.TotalSeconds
				d.SessionCount += row.SessionCount
			}
			digests = append(digests, d)
		}
		if len(digests) == 0 {
			continue
		}

		subject := fmt.Sprintf("Screen time summary, last %d days", days)
		htmlBody, textBody := s.render(parent.Name, days, digests)

		if dryRun {
			log.Info().Str("to", parent.Email).Str("subject", subject).Msg("digest: dry run, not sending")
			log.Debug().Str("body", textBody).Msg("digest: rendered")
			sent++
			continue
		}

		if err := s.email.Send(ctx, parent.Email, subject, htmlBody, textBody); err != nil {
			log.Error().Err(err).Str("to", parent.Email).Msg("digest: send failed")
			continue
		}
		sent++
	}

	return sent, nil
}

func (s *DigestService) render(parentName string, days int, digests []childDigest) (html, text string) {
	greeting := "Hi"
	if parentName != "" {
		greeting = "Hi " + parentName
	}

	var h, t strings.Builder

	fmt.Fprintf(&h, `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<h2 style="color: #4a90e2;">Kido Learn</h2>
<p>%s, here is how the app was used over the last %d days:</p>
<table style="width: 100%%; border-collapse: collapse;">
<tr><th align="left">Child</th><th align="right">Time</th><th align="right">Sessions</th></tr>
`, greeting, days)

	fmt.Fprintf(&t, "%s, here is how the app was used over the last %d days:\n\n", greeting, days)

	for _, d := range digests {
		fmt.Fprintf(&h, `<tr><td style="padding: 6px 0; border-top: 1px solid #eee;">%s</td><td align="right">%s</td><td align="right">%d</td></tr>
`, d.Name, formatDuration(d.TotalSeconds), d.SessionCount)
		fmt.Fprintf(&t, "  %s: %s across %d sessions\n", d.Name, formatDuration(d.TotalSeconds), d.SessionCount)
	}

	fmt.Fprintf(&h, `</table>
<p style="margin-top: 20px;"><a href="%s" style="color: #4a90e2;">Open your dashboard</a> for the full picture.</p>
</div>
</body>
</html>`, s.appBaseURL)

	fmt.Fprintf(&t, "\nOpen your dashboard for the full picture: %s\n", s.appBaseURL)

	return h.String(), t.String()
}
