// Package matching filters and ranks job postings against a recipient profile.
// Nothing in this package performs I/O.
package matching

import (
	"go-jobalert-scheduler/internal/domain"
)

// Dimension names, also used in skip reports.
const (
	DimensionSkills     = "skills"
	DimensionLocation   = "location"
	DimensionIndustry   = "industry"
	DimensionExperience = "experience"
	DimensionSalary     = "salary"
)

// Predicate is one relevance criterion built from a non-empty profile dimension.
type Predicate struct {
	Name  string
	Match func(job domain.JobPosting) bool
}

// BuildPredicates returns one predicate per profile dimension that carries data.
// Absent dimensions contribute nothing. Dimensions whose data is malformed are
// left out as well and reported in skipped.
func BuildPredicates(p *domain.RecipientProfile) (preds []Predicate, skipped []string) {
	if p == nil {
		return nil, nil
	}

	if len(p.SkillIDs) > 0 {
		skills := idSet(p.SkillIDs)
		preds = append(preds, Predicate{
			Name:  DimensionSkills,
			Match: func(job domain.JobPosting) bool { return overlaps(skills, job.SkillIDs) },
		})
	}

	if len(p.LocationIDs) > 0 {
		locations := idSet(p.LocationIDs)
		preds = append(preds, Predicate{
			Name:  DimensionLocation,
			Match: func(job domain.JobPosting) bool { return overlaps(locations, job.LocationIDs) },
		})
	}

	if p.IndustryID != nil {
		industry := *p.IndustryID
		preds = append(preds, Predicate{
			Name: DimensionIndustry,
			Match: func(job domain.JobPosting) bool {
				for _, id := range job.IndustryIDs {
					if id == industry {
						return true
					}
				}
				return false
			},
		})
	}

	if p.ExperienceYears != nil {
		years := *p.ExperienceYears
		if years < 0 {
			skipped = append(skipped, DimensionExperience)
		} else {
			preds = append(preds, Predicate{
				Name: DimensionExperience,
				Match: func(job domain.JobPosting) bool {
					return intEquals(job.ExperienceMin, years) || intEquals(job.ExperienceMax, years)
				},
			})
		}
	}

	if !p.Salary.IsEmpty() {
		if !validBand(p.Salary) {
			skipped = append(skipped, DimensionSalary)
		} else {
			band := *p.Salary
			preds = append(preds, Predicate{
				Name: DimensionSalary,
				Match: func(job domain.JobPosting) bool {
					return (band.Min != nil && int64Equals(job.SalaryMin, *band.Min)) ||
						(band.Max != nil && int64Equals(job.SalaryMax, *band.Max))
				},
			})
		}
	}

	return preds, skipped
}

// MatchAny is the OR of all predicates. It is false for an empty list.
func MatchAny(preds []Predicate, job domain.JobPosting) bool {
	for _, pred := range preds {
		if pred.Match(job) {
			return true
		}
	}
	return false
}

func validBand(b *domain.SalaryBand) bool {
	if b.Min != nil && *b.Min < 0 {
		return false
	}
	if b.Max != nil && *b.Max < 0 {
		return false
	}
	if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
		return false
	}
	return true
}

func idSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func overlaps(set map[int64]struct{}, ids []int64) bool {
	for _, id := range ids {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

func intEquals(v *int, want int) bool {
	return v != nil && *v == want
}

func int64Equals(v *int64, want int64) bool {
	return v != nil && *v == want
}
