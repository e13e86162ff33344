package domain

import (
	"context"
	"time"
)

// SocialPostStatus values mirror the social_post_records.status column.
//
// Per (job, platform, target) key:
//
//	(none) ──► POSTED ──► DELETED ──► POSTED ──► ...
type SocialPostStatus string

const (
	SocialPostNone    SocialPostStatus = ""
	SocialPostPosted  SocialPostStatus = "posted"
	SocialPostDeleted SocialPostStatus = "deleted"
)

var socialTransitions = map[SocialPostStatus][]SocialPostStatus{
	SocialPostNone:    {SocialPostPosted},
	SocialPostPosted:  {SocialPostDeleted},
	SocialPostDeleted: {SocialPostPosted},
}

// IsSocialTransitionAllowed reports whether a record for one key may move from → to.
func IsSocialTransitionAllowed(from, to SocialPostStatus) bool {
	for _, s := range socialTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SocialTarget is one page or group on one platform.
type SocialTarget struct {
	Platform string `json:"platform" yaml:"platform" validate:"required,social_platform"`
	TargetID string `json:"target_id" yaml:"target_id" validate:"required"`
}

type SocialPostRecord struct {
	ID        int64            `json:"id"`
	JobID     int64            `json:"job_id"`
	Platform  string           `json:"platform"`
	TargetID  string           `json:"target_id"`
	PostID    string           `json:"post_id"`
	Status    SocialPostStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	DeletedAt *time.Time       `json:"deleted_at,omitempty"`
}

// Target returns the key part of the record without the job.
func (r SocialPostRecord) Target() SocialTarget {
	return SocialTarget{Platform: r.Platform, TargetID: r.TargetID}
}

// SocialPostPayload is what gets published for a job.
type SocialPostPayload struct {
	JobID   int64  `json:"job_id"`
	Message string `json:"message"`
	Link    string `json:"link"`
}

// SocialPlatform is the remote API of one network.
type SocialPlatform interface {
	Name() string
	Post(ctx context.Context, targetID string, payload SocialPostPayload) (postID string, err error)
	Delete(ctx context.Context, targetID, postID string) error
}

type SocialPostRepository interface {
	ListByJob(ctx context.Context, jobID int64) ([]SocialPostRecord, error)
	ListPosted(ctx context.Context, jobID int64) ([]SocialPostRecord, error)
	// Create inserts a Posted record. Returns ErrDuplicate while another record
	// for the same key is still Posted.
	Create(ctx context.Context, record *SocialPostRecord) error
	// MarkDeleted moves a Posted record to Deleted. Already deleted records are left alone.
	MarkDeleted(ctx context.Context, id int64, at time.Time) error
}
