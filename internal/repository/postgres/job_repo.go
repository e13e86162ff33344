package postgres

import (
	"context"
	"fmt"

	"go-jobalert-scheduler/internal/domain"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

var jobColumns = []string{
	"id", "title", "COALESCE(company_name, '')", "COALESCE(slug, '')", "status", "published_at",
	"COALESCE(skill_ids, '{}')", "COALESCE(location_ids, '{}')", "COALESCE(industry_ids, '{}')",
	"salary_min", "salary_max", "min_experience", "max_experience", "COALESCE(job_type, '')",
}

type jobRepo struct {
	db *pgxpool.Pool
}

func NewJobRepository(db *pgxpool.Pool) domain.JobRepository {
	return &jobRepo{db: db}
}

func jobByIDQuery(id int64) (string, []interface{}, error) {
	return psql.Select(jobColumns...).From("jobs").Where(sq.Eq{"id": id}).ToSql()
}

func jobsInWindowQuery(status domain.JobStatus, window domain.Window) (string, []interface{}, error) {
	return psql.Select(jobColumns...).
		From("jobs").
		Where(sq.Eq{"status": string(status)}).
		Where("published_at BETWEEN ? AND ?", window.From, window.To).
		OrderBy("published_at DESC", "id DESC").
		ToSql()
}

func jobsByStatusQuery(status domain.JobStatus, limit int) (string, []interface{}, error) {
	return psql.Select(jobColumns...).
		From("jobs").
		Where(sq.Eq{"status": string(status)}).
		OrderBy("published_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
}

func scanJob(row pgx.Row) (domain.JobPosting, error) {
	var job domain.JobPosting
	var status string
	var skills, locations, industries []int64
	err := row.Scan(
		&job.ID, &job.Title, &job.CompanyName, &job.Slug, &status, &job.PublishedAt,
		pq.Array(&skills), pq.Array(&locations), pq.Array(&industries),
		&job.SalaryMin, &job.SalaryMax, &job.ExperienceMin, &job.ExperienceMax, &job.JobType,
	)
	if err != nil {
		return job, err
	}
	job.Status = domain.JobStatus(status)
	job.SkillIDs = skills
	job.LocationIDs = locations
	job.IndustryIDs = industries
	return job, nil
}

func (r *jobRepo) GetByID(ctx context.Context, id int64) (*domain.JobPosting, error) {
	query, args, err := jobByIDQuery(id)
	if err != nil {
		return nil, err
	}
	job, err := scanJob(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load job %d: %w", id, err)
	}
	return &job, nil
}

func (r *jobRepo) FetchByStatusInWindow(ctx context.Context, status domain.JobStatus, window domain.Window) ([]domain.JobPosting, error) {
	query, args, err := jobsInWindowQuery(status, window)
	if err != nil {
		return nil, err
	}
	return r.fetch(ctx, query, args)
}

func (r *jobRepo) FetchByStatus(ctx context.Context, status domain.JobStatus, limit int) ([]domain.JobPosting, error) {
	if limit <= 0 {
		return nil, nil
	}
	query, args, err := jobsByStatusQuery(status, limit)
	if err != nil {
		return nil, err
	}
	return r.fetch(ctx, query, args)
}

func (r *jobRepo) fetch(ctx context.Context, query string, args []interface{}) ([]domain.JobPosting, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.JobPosting
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
