package usecase

import (
	"context"
	"errors"
	"fmt"

	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/internal/matching"
	"go-jobalert-scheduler/pkg/logger"

	"github.com/go-playground/validator/v10"
)

// ProfileExtractor turns account and subscription records into matching profiles.
type ProfileExtractor struct {
	recipients domain.RecipientRepository
	validate   *validator.Validate
}

func NewProfileExtractor(recipients domain.RecipientRepository, validate *validator.Validate) *ProfileExtractor {
	if validate == nil {
		validate = validator.New()
	}
	return &ProfileExtractor{recipients: recipients, validate: validate}
}

// Extract reads the recipient and normalizes it. Missing attributes give empty
// dimensions and an unknown recipient gives an empty profile with Found=false.
// Only store failures are returned as errors.
func (e *ProfileExtractor) Extract(ctx context.Context, id string, kind domain.RecipientKind) (*domain.RecipientProfile, error) {
	profile := &domain.RecipientProfile{ID: id, Kind: kind}

	rec, err := e.recipients.GetRecipient(ctx, id, kind)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && rec == nil) {
		return profile, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load recipient %s/%s: %w", kind, id, err)
	}

	profile.Found = true
	profile.Email = rec.Email
	profile.Mobile = rec.Mobile
	profile.SMSOptIn = rec.SMSOptIn
	profile.SkillIDs = normalizeIDs(rec.SkillIDs)
	profile.LocationIDs = normalizeIDs(rec.LocationIDs)
	if rec.IndustryID != nil && *rec.IndustryID > 0 {
		profile.IndustryID = rec.IndustryID
	}
	profile.ExperienceYears = rec.ExperienceYears
	profile.Salary = e.salaryBand(rec)
	profile.Eligibility = domain.Eligibility{
		OptedIn:      rec.OptedIn,
		Bounced:      rec.IsBounce,
		Unsubscribed: rec.Unsubscribed,
	}

	return profile, nil
}

// salaryBand prefers the structured columns and falls back to the free-form text.
func (e *ProfileExtractor) salaryBand(rec *domain.RecipientRecord) *domain.SalaryBand {
	band := &domain.SalaryBand{Min: rec.SalaryMin, Max: rec.SalaryMax}
	if band.IsEmpty() {
		parsed, err := matching.ParseSalaryBand(rec.SalaryText)
		if err != nil {
			logger.Log.Warn("Ignoring unparsable salary expectation", "recipient_id", rec.ID, "kind", rec.Kind, "error", err)
			return nil
		}
		if parsed == nil {
			return nil
		}
		band = parsed
	}

	if err := e.validate.Struct(band); err != nil {
		logger.Log.Warn("Ignoring invalid salary band", "recipient_id", rec.ID, "kind", rec.Kind, "error", err)
		return nil
	}
	if band.Min != nil && band.Max != nil && *band.Min > *band.Max {
		logger.Log.Warn("Ignoring inverted salary band", "recipient_id", rec.ID, "kind", rec.Kind, "min", *band.Min, "max", *band.Max)
		return nil
	}
	return band
}

// normalizeIDs drops zero/negative ids and duplicates, keeping first-seen order.
func normalizeIDs(in []int64) []int64 {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(in))
	out := make([]int64, 0, len(in))
	for _, id := range in {
		if id <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
