package postgres

import (
	"context"
	"fmt"
	"time"

	"go-jobalert-scheduler/internal/domain"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type notificationRepo struct {
	db *pgxpool.Pool
}

// NewNotificationRepository returns the ledger backed by notification_records.
// The table's unique constraint on the key makes Record insert-if-absent.
func NewNotificationRepository(db *pgxpool.Pool) domain.NotificationRepository {
	return &notificationRepo{db: db}
}

func keyPredicate(key domain.NotificationKey) sq.Eq {
	return sq.Eq{
		"recipient_id":      key.RecipientID,
		"recipient_kind":    string(key.RecipientKind),
		"notification_type": string(key.Type),
		"window_start":      key.WindowStart.UTC(),
		"channel":           string(key.Channel),
	}
}

func existsQuery(key domain.NotificationKey) (string, []interface{}, error) {
	return psql.Select("1").
		Prefix("SELECT EXISTS(").
		From("notification_records").
		Where(keyPredicate(key)).
		Suffix(")").
		ToSql()
}

func recordQuery(rec domain.NotificationRecord) (string, []interface{}, error) {
	sentAt := rec.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}
	return psql.Insert("notification_records").
		Columns("recipient_id", "recipient_kind", "notification_type", "window_start", "channel", "job_ids", "sent_at").
		Values(rec.Key.RecipientID, string(rec.Key.RecipientKind), string(rec.Key.Type),
			rec.Key.WindowStart.UTC(), string(rec.Key.Channel), pq.Array(rec.JobIDs), sentAt.UTC()).
		Suffix("ON CONFLICT (recipient_id, recipient_kind, notification_type, window_start, channel) DO NOTHING").
		ToSql()
}

func listSentQuery(from, to time.Time) (string, []interface{}, error) {
	return psql.Select("recipient_id", "recipient_kind", "notification_type", "window_start", "channel", "job_ids", "sent_at").
		From("notification_records").
		Where(sq.GtOrEq{"sent_at": from.UTC()}).
		Where(sq.LtOrEq{"sent_at": to.UTC()}).
		OrderBy("sent_at", "id").
		ToSql()
}

func (r *notificationRepo) Exists(ctx context.Context, key domain.NotificationKey) (bool, error) {
	query, args, err := existsQuery(key)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check notification %s: %w", key, err)
	}
	return exists, nil
}

func (r *notificationRepo) Record(ctx context.Context, rec domain.NotificationRecord) (bool, error) {
	query, args, err := recordQuery(rec)
	if err != nil {
		return false, err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to record notification %s: %w", rec.Key, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *notificationRepo) ListSent(ctx context.Context, from, to time.Time) ([]domain.NotificationRecord, error) {
	query, args, err := listSentQuery(from, to)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var records []domain.NotificationRecord
	for rows.Next() {
		var rec domain.NotificationRecord
		var kind, typ, channel string
		var jobIDs []int64
		if err := rows.Scan(&rec.Key.RecipientID, &kind, &typ, &rec.Key.WindowStart, &channel, pq.Array(&jobIDs), &rec.SentAt); err != nil {
			return nil, err
		}
		rec.Key.RecipientKind = domain.RecipientKind(kind)
		rec.Key.Type = domain.NotificationType(typ)
		rec.Key.Channel = domain.Channel(channel)
		rec.JobIDs = jobIDs
		records = append(records, rec)
	}
	return records, rows.Err()
}
