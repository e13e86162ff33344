package postgres

import (
	"context"
	"fmt"

	"go-jobalert-scheduler/internal/domain"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// recipientSource maps one recipient kind onto the table that stores it.
// Every source selects the same column list so a single scan serves all kinds.
type recipientSource struct {
	table        string
	optIn        string
	bounced      string
	unsubscribed string
	columns      []string
}

var recipientSources = map[domain.RecipientKind]recipientSource{
	domain.RecipientUser: {
		table:        "users",
		optIn:        "job_alert_opt_in",
		bounced:      "is_bounce",
		unsubscribed: "unsubscribed",
		columns: []string{
			"id::text", "email", "COALESCE(mobile, '')", "COALESCE(sms_opt_in, false)",
			"COALESCE(skill_ids, '{}')", "COALESCE(location_ids, '{}')", "industry_id", "experience_years",
			"expected_salary_min", "expected_salary_max", "''",
			"COALESCE(job_alert_opt_in, false)", "COALESCE(is_bounce, false)", "COALESCE(unsubscribed, false)",
		},
	},
	domain.RecipientSubscriber: {
		table:        "subscribers",
		optIn:        "is_active",
		bounced:      "is_bounce",
		unsubscribed: "unsubscribed",
		columns: []string{
			"id::text", "email", "''", "false",
			"COALESCE(skill_ids, '{}')", "COALESCE(location_ids, '{}')", "industry_id", "NULL::int",
			"NULL::bigint", "NULL::bigint", "COALESCE(salary_expectation, '')",
			"COALESCE(is_active, false)", "COALESCE(is_bounce, false)", "COALESCE(unsubscribed, false)",
		},
	},
	domain.RecipientAlert: {
		table:        "job_alerts",
		optIn:        "is_active",
		bounced:      "is_bounce",
		unsubscribed: "unsubscribed",
		columns: []string{
			"id::text", "email", "COALESCE(mobile, '')", "COALESCE(sms_opt_in, false)",
			"COALESCE(skill_ids, '{}')", "COALESCE(location_ids, '{}')", "industry_id", "experience_years",
			"salary_min", "salary_max", "''",
			"COALESCE(is_active, false)", "COALESCE(is_bounce, false)", "COALESCE(unsubscribed, false)",
		},
	},
}

type recipientRepo struct {
	db *pgxpool.Pool
}

func NewRecipientRepository(db *pgxpool.Pool) domain.RecipientRepository {
	return &recipientRepo{db: db}
}

func recipientQuery(id string, kind domain.RecipientKind) (string, []interface{}, error) {
	src, ok := recipientSources[kind]
	if !ok {
		return "", nil, domain.ErrInvalidKind
	}
	return psql.Select(src.columns...).
		From(src.table).
		Where("id::text = ?", id).
		ToSql()
}

func eligibleQuery(kind domain.RecipientKind) (string, []interface{}, error) {
	src, ok := recipientSources[kind]
	if !ok {
		return "", nil, domain.ErrInvalidKind
	}
	return psql.Select("id::text").
		From(src.table).
		Where(sq.Eq{src.optIn: true}).
		Where(sq.Expr(fmt.Sprintf("COALESCE(%s, false) = false", src.bounced))).
		Where(sq.Expr(fmt.Sprintf("COALESCE(%s, false) = false", src.unsubscribed))).
		Where("email <> ''").
		OrderBy("id").
		ToSql()
}

func (r *recipientRepo) GetRecipient(ctx context.Context, id string, kind domain.RecipientKind) (*domain.RecipientRecord, error) {
	query, args, err := recipientQuery(id, kind)
	if err != nil {
		return nil, err
	}

	rec := domain.RecipientRecord{Kind: kind}
	var skills, locations []int64
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&rec.ID, &rec.Email, &rec.Mobile, &rec.SMSOptIn,
		pq.Array(&skills), pq.Array(&locations), &rec.IndustryID, &rec.ExperienceYears,
		&rec.SalaryMin, &rec.SalaryMax, &rec.SalaryText,
		&rec.OptedIn, &rec.IsBounce, &rec.Unsubscribed,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load %s %s: %w", kind, id, err)
	}
	rec.SkillIDs = skills
	rec.LocationIDs = locations
	return &rec, nil
}

func (r *recipientRepo) ListEligible(ctx context.Context, kind domain.RecipientKind) ([]domain.RecipientRef, error) {
	query, args, err := eligibleQuery(kind)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible %s recipients: %w", kind, err)
	}
	defer rows.Close()

	var refs []domain.RecipientRef
	for rows.Next() {
		ref := domain.RecipientRef{Kind: kind}
		if err := rows.Scan(&ref.ID); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
