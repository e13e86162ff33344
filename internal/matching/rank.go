package matching

import (
	"go-jobalert-scheduler/internal/domain"
)

// DefaultLimit is the number of jobs a notification carries.
const DefaultLimit = 10

// Result is the ranked job list for one recipient.
type Result struct {
	Jobs []domain.JobPosting
	// PrimaryCount jobs at the head of Jobs matched at least one predicate
	// (or came from the unfiltered pool for an empty profile).
	PrimaryCount  int
	BackfillCount int
	// Skipped lists dimensions dropped because their data was malformed.
	Skipped []string
}

// Rank filters the pool by the OR of the profile's predicates, keeping pool
// order, and truncates to limit. When fewer than limit jobs match, the result
// is padded from backfill with Live jobs that share at least one skill with the
// recipient and are not already listed. A nil backfill falls back to the pool.
//
// Both pool and backfill are expected newest first.
func Rank(profile *domain.RecipientProfile, pool, backfill []domain.JobPosting, limit int) Result {
	if limit <= 0 {
		limit = DefaultLimit
	}

	preds, skipped := BuildPredicates(profile)
	res := Result{Skipped: skipped}
	seen := make(map[int64]struct{}, limit)

	for _, job := range pool {
		if len(res.Jobs) == limit {
			break
		}
		if !job.IsLive() {
			continue
		}
		if _, dup := seen[job.ID]; dup {
			continue
		}
		if len(preds) > 0 && !MatchAny(preds, job) {
			continue
		}
		seen[job.ID] = struct{}{}
		res.Jobs = append(res.Jobs, job)
	}
	res.PrimaryCount = len(res.Jobs)

	if res.PrimaryCount >= limit || profile == nil || len(profile.SkillIDs) == 0 {
		return res
	}

	if backfill == nil {
		backfill = pool
	}
	skills := idSet(profile.SkillIDs)
	for _, job := range backfill {
		if len(res.Jobs) == limit {
			break
		}
		if !job.IsLive() {
			continue
		}
		if _, dup := seen[job.ID]; dup {
			continue
		}
		if !overlaps(skills, job.SkillIDs) {
			continue
		}
		seen[job.ID] = struct{}{}
		res.Jobs = append(res.Jobs, job)
		res.BackfillCount++
	}

	return res
}
