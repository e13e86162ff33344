package matching

import (
	"testing"

	"go-jobalert-scheduler/internal/domain"

	"github.com/stretchr/testify/assert"
)

func predicateNames(preds []Predicate) []string {
	names := make([]string, 0, len(preds))
	for _, p := range preds {
		names = append(names, p.Name)
	}
	return names
}

func TestBuildPredicates_AbsentDimensionsAreOmitted(t *testing.T) {
	preds, skipped := BuildPredicates(&domain.RecipientProfile{})
	assert.Empty(t, preds)
	assert.Empty(t, skipped)

	preds, _ = BuildPredicates(&domain.RecipientProfile{LocationIDs: []int64{cityChennai}})
	assert.Equal(t, []string{DimensionLocation}, predicateNames(preds))
}

func TestBuildPredicates_AllDimensions(t *testing.T) {
	industry := int64(4)
	years := 2
	min, max := int64(30000), int64(45000)
	profile := &domain.RecipientProfile{
		SkillIDs:        []int64{skillJava},
		LocationIDs:     []int64{cityChennai},
		IndustryID:      &industry,
		ExperienceYears: &years,
		Salary:          &domain.SalaryBand{Min: &min, Max: &max},
	}

	preds, skipped := BuildPredicates(profile)

	assert.Equal(t, []string{
		DimensionSkills, DimensionLocation, DimensionIndustry, DimensionExperience, DimensionSalary,
	}, predicateNames(preds))
	assert.Empty(t, skipped)
}

func TestPredicates_MatchSemantics(t *testing.T) {
	industry := int64(4)
	years := 2
	min, max := int64(30000), int64(45000)
	other := int64(1)

	cases := []struct {
		name    string
		profile domain.RecipientProfile
		job     domain.JobPosting
		want    bool
	}{
		{"skill overlap", domain.RecipientProfile{SkillIDs: []int64{skillJava, skillGo}}, domain.JobPosting{SkillIDs: []int64{skillGo}}, true},
		{"no skill overlap", domain.RecipientProfile{SkillIDs: []int64{skillJava}}, domain.JobPosting{SkillIDs: []int64{skillPython}}, false},
		{"location member", domain.RecipientProfile{LocationIDs: []int64{cityPune}}, domain.JobPosting{LocationIDs: []int64{cityChennai, cityPune}}, true},
		{"industry member", domain.RecipientProfile{IndustryID: &industry}, domain.JobPosting{IndustryIDs: []int64{9, 4}}, true},
		{"industry missing", domain.RecipientProfile{IndustryID: &industry}, domain.JobPosting{IndustryIDs: []int64{9}}, false},
		{"experience equals min", domain.RecipientProfile{ExperienceYears: &years}, domain.JobPosting{ExperienceMin: &years}, true},
		{"experience equals max", domain.RecipientProfile{ExperienceYears: &years}, domain.JobPosting{ExperienceMax: &years}, true},
		{"experience unset on job", domain.RecipientProfile{ExperienceYears: &years}, domain.JobPosting{}, false},
		{"salary equals min", domain.RecipientProfile{Salary: &domain.SalaryBand{Min: &min}}, domain.JobPosting{SalaryMin: &min}, true},
		{"salary equals max", domain.RecipientProfile{Salary: &domain.SalaryBand{Min: &min, Max: &max}}, domain.JobPosting{SalaryMin: &other, SalaryMax: &max}, true},
		{"salary differs", domain.RecipientProfile{Salary: &domain.SalaryBand{Min: &min}}, domain.JobPosting{SalaryMin: &other}, false},
		{"any of several", domain.RecipientProfile{SkillIDs: []int64{skillJava}, IndustryID: &industry}, domain.JobPosting{IndustryIDs: []int64{4}}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			preds, _ := BuildPredicates(&c.profile)
			assert.Equal(t, c.want, MatchAny(preds, c.job))
		})
	}
}

func TestBuildPredicates_MalformedDimensionsSkipped(t *testing.T) {
	years := -1
	neg := int64(-10)
	preds, skipped := BuildPredicates(&domain.RecipientProfile{
		SkillIDs:        []int64{skillJava},
		ExperienceYears: &years,
		Salary:          &domain.SalaryBand{Max: &neg},
	})

	assert.Equal(t, []string{DimensionSkills}, predicateNames(preds))
	assert.Equal(t, []string{DimensionExperience, DimensionSalary}, skipped)
}

func TestMatchAny_EmptyIsFalse(t *testing.T) {
	assert.False(t, MatchAny(nil, domain.JobPosting{ID: 1}))
}
