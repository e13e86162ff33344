package postgres

import (
	"context"
	"fmt"
	"time"

	"go-jobalert-scheduler/internal/domain"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

var socialPostColumns = []string{"id", "job_id", "platform", "target_id", "post_id", "status", "created_at", "deleted_at"}

type socialPostRepo struct {
	db *pgxpool.Pool
}

func NewSocialPostRepository(db *pgxpool.Pool) domain.SocialPostRepository {
	return &socialPostRepo{db: db}
}

func socialPostsQuery(jobID int64, status domain.SocialPostStatus) (string, []interface{}, error) {
	q := psql.Select(socialPostColumns...).
		From("social_post_records").
		Where(sq.Eq{"job_id": jobID})
	if status != domain.SocialPostNone {
		q = q.Where(sq.Eq{"status": string(status)})
	}
	return q.OrderBy("created_at", "id").ToSql()
}

func markDeletedQuery(id int64, at time.Time) (string, []interface{}, error) {
	return psql.Update("social_post_records").
		Set("status", string(domain.SocialPostDeleted)).
		Set("deleted_at", at.UTC()).
		Where(sq.Eq{"id": id, "status": string(domain.SocialPostPosted)}).
		ToSql()
}

func (r *socialPostRepo) ListByJob(ctx context.Context, jobID int64) ([]domain.SocialPostRecord, error) {
	return r.list(ctx, jobID, domain.SocialPostNone)
}

func (r *socialPostRepo) ListPosted(ctx context.Context, jobID int64) ([]domain.SocialPostRecord, error) {
	return r.list(ctx, jobID, domain.SocialPostPosted)
}

func (r *socialPostRepo) list(ctx context.Context, jobID int64, status domain.SocialPostStatus) ([]domain.SocialPostRecord, error) {
	query, args, err := socialPostsQuery(jobID, status)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list social posts for job %d: %w", jobID, err)
	}
	defer rows.Close()

	var records []domain.SocialPostRecord
	for rows.Next() {
		var rec domain.SocialPostRecord
		var st string
		if err := rows.Scan(&rec.ID, &rec.JobID, &rec.Platform, &rec.TargetID, &rec.PostID, &st, &rec.CreatedAt, &rec.DeletedAt); err != nil {
			return nil, err
		}
		rec.Status = domain.SocialPostStatus(st)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *socialPostRepo) Create(ctx context.Context, rec *domain.SocialPostRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.Status = domain.SocialPostPosted

	query := `INSERT INTO social_post_records (job_id, platform, target_id, post_id, status, created_at)
              VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := r.db.QueryRow(ctx, query,
		rec.JobID, rec.Platform, rec.TargetID, rec.PostID, string(rec.Status), rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("failed to create social post record: %w", err)
	}
	return nil
}

func (r *socialPostRepo) MarkDeleted(ctx context.Context, id int64, at time.Time) error {
	query, args, err := markDeletedQuery(id, at)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark social post %d deleted: %w", id, err)
	}
	return nil
}
