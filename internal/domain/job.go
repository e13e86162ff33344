package domain

import (
	"context"
	"time"
)

type JobStatus string

const (
	JobDraft     JobStatus = "draft"
	JobPending   JobStatus = "pending"
	JobPublished JobStatus = "published"
	JobLive      JobStatus = "live"
	JobDisabled  JobStatus = "disabled"
	JobExpired   JobStatus = "expired"
)

type JobPosting struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	CompanyName   string    `json:"company_name"`
	Slug          string    `json:"slug"`
	Status        JobStatus `json:"status"`
	PublishedAt   time.Time `json:"published_at"`
	SkillIDs      []int64   `json:"skill_ids"`
	LocationIDs   []int64   `json:"location_ids"`
	IndustryIDs   []int64   `json:"industry_ids"`
	SalaryMin     *int64    `json:"salary_min"`
	SalaryMax     *int64    `json:"salary_max"`
	ExperienceMin *int      `json:"experience_min"`
	ExperienceMax *int      `json:"experience_max"`
	JobType       string    `json:"job_type"`
}

// IsLive reports whether the job is visible to the public and eligible for matching.
func (j JobPosting) IsLive() bool {
	return j.Status == JobLive
}

// Window is an inclusive [From, To] publish-time range.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// IsEmpty is true for a zero window or one whose bounds are inverted.
func (w Window) IsEmpty() bool {
	return w.From.IsZero() || w.To.IsZero() || w.From.After(w.To)
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// MatchCandidateSet is the per-run pool of jobs, newest first. It is never persisted.
type MatchCandidateSet struct {
	Window Window       `json:"window"`
	Jobs   []JobPosting `json:"jobs"`
}

type JobRepository interface {
	GetByID(ctx context.Context, id int64) (*JobPosting, error)
	// FetchByStatusInWindow returns jobs with the status published inside the window.
	FetchByStatusInWindow(ctx context.Context, status JobStatus, window Window) ([]JobPosting, error)
	// FetchByStatus returns up to limit jobs with the status, most recent first.
	FetchByStatus(ctx context.Context, status JobStatus, limit int) ([]JobPosting, error)
}
