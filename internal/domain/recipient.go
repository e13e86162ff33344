package domain

import (
	"context"
)

// RecipientKind identifies which account record a recipient profile was built from.
type RecipientKind string

const (
	RecipientUser       RecipientKind = "registered_user"
	RecipientSubscriber RecipientKind = "subscriber"
	RecipientAlert      RecipientKind = "alert"
)

// ParseRecipientKind validates a raw kind value.
func ParseRecipientKind(s string) (RecipientKind, error) {
	k := RecipientKind(s)
	switch k {
	case RecipientUser, RecipientSubscriber, RecipientAlert:
		return k, nil
	}
	return "", ErrInvalidKind
}

// SalaryBand is an optional expected salary range. Either bound may be absent.
type SalaryBand struct {
	Min *int64 `json:"min,omitempty" validate:"omitempty,gte=0"`
	Max *int64 `json:"max,omitempty" validate:"omitempty,gte=0"`
}

// IsEmpty reports whether neither bound is set.
func (b *SalaryBand) IsEmpty() bool {
	return b == nil || (b.Min == nil && b.Max == nil)
}

// Eligibility holds the notification flags of a recipient.
type Eligibility struct {
	OptedIn      bool `json:"opted_in"`
	Bounced      bool `json:"bounced"`
	Unsubscribed bool `json:"unsubscribed"`
}

// Eligible is true only for opted-in recipients that have neither bounced nor unsubscribed.
func (e Eligibility) Eligible() bool {
	return e.OptedIn && !e.Bounced && !e.Unsubscribed
}

// RecipientRecord is the raw account/subscription row as the account store returns it.
// Optional attributes are nil or empty when the user never filled them in.
type RecipientRecord struct {
	ID              string
	Kind            RecipientKind
	Email           string
	Mobile          string
	SMSOptIn        bool
	SkillIDs        []int64
	LocationIDs     []int64
	IndustryID      *int64
	ExperienceYears *int
	SalaryMin       *int64
	SalaryMax       *int64
	// SalaryText is the free-form expectation subscribers type on the sign-up form.
	SalaryText   string
	OptedIn      bool
	IsBounce     bool
	Unsubscribed bool
}

// RecipientProfile is the normalized interest profile used for matching.
type RecipientProfile struct {
	ID              string        `json:"id"`
	Kind            RecipientKind `json:"kind"`
	Email           string        `json:"email,omitempty"`
	Mobile          string        `json:"mobile,omitempty"`
	SMSOptIn        bool          `json:"sms_opt_in"`
	SkillIDs        []int64       `json:"skill_ids,omitempty"`
	LocationIDs     []int64       `json:"location_ids,omitempty"`
	IndustryID      *int64        `json:"industry_id,omitempty"`
	ExperienceYears *int          `json:"experience_years,omitempty"`
	Salary          *SalaryBand   `json:"salary,omitempty"`
	Eligibility     Eligibility   `json:"eligibility"`
	// Found is false when the account store had no record for the id.
	Found bool `json:"found"`
}

// IsEmpty reports whether the profile carries no matching dimension at all.
func (p *RecipientProfile) IsEmpty() bool {
	return len(p.SkillIDs) == 0 &&
		len(p.LocationIDs) == 0 &&
		p.IndustryID == nil &&
		p.ExperienceYears == nil &&
		p.Salary.IsEmpty()
}

// RecipientRef is the minimal identity a pass iterates over.
type RecipientRef struct {
	ID   string        `json:"id"`
	Kind RecipientKind `json:"kind"`
}

type RecipientRepository interface {
	// GetRecipient returns ErrNotFound when no record exists for the id.
	GetRecipient(ctx context.Context, id string, kind RecipientKind) (*RecipientRecord, error)
	// ListEligible returns ids of recipients of the given kind whose flags allow notification.
	ListEligible(ctx context.Context, kind RecipientKind) ([]RecipientRef, error)
}
