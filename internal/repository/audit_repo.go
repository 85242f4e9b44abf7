package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"go-file-organizer/internal/model"
)

// AuditRepository stores audit entries in Postgres.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	beforeJSON, err := marshalOptional(entry.Before)
	if err != nil {
		return fmt.Errorf("marshal before data: %w", err)
	}
	afterJSON, err := marshalOptional(entry.After)
	if err != nil {
		return fmt.Errorf("marshal after data: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_entries
		 (action, occurred_at, actor_user_id, actor_username, actor_role, actor_ip,
		  status, resource, before_data, after_data, error_text)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.Action, entry.OccurredAt,
		entry.Actor.UserID, entry.Actor.Username, entry.Actor.Role, entry.Actor.IP,
		entry.Status, entry.Resource, beforeJSON, afterJSON, entry.Error)
	if err != nil {
		return fmt.Errorf("log audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	query = normalizeAuditPaging(query)
	whereClause, args := auditWhere(query)

	var total int
	countQuery := "SELECT COUNT(*) FROM audit_entries " + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count audit entries: %w", err)
	}

	next := len(args) + 1
	dataQuery := fmt.Sprintf(
		`SELECT action, occurred_at, actor_user_id, actor_username, actor_role, actor_ip,
		        status, resource, before_data, after_data, error_text
		 FROM audit_entries %s
		 ORDER BY occurred_at DESC
		 LIMIT $%d OFFSET $%d`, whereClause, next, next+1)
	args = append(args, query.Limit, (query.Page-1)*query.Limit)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		var occurredAt time.Time
		var beforeJSON, afterJSON []byte

		if err := rows.Scan(
			&e.Action, &occurredAt,
			&e.Actor.UserID, &e.Actor.Username, &e.Actor.Role, &e.Actor.IP,
			&e.Status, &e.Resource, &beforeJSON, &afterJSON, &e.Error,
		); err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan audit entry: %w", err)
		}

		e.OccurredAt = occurredAt.UTC().Format(time.RFC3339Nano)
		e.Before = unmarshalOptional(beforeJSON)
		e.After = unmarshalOptional(afterJSON)
		entries = append(entries, e)
	}

	return entries, auditMeta(query, total), rows.Err()
}

// auditWhere builds the filter clause with positional arguments.
func auditWhere(query model.AuditQuery) (string, []any) {
	where := make([]string, 0, 6)
	args := make([]any, 0, 6)

	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if action := strings.TrimSpace(query.Action); action != "" {
		add("lower(action) = lower($%d)", action)
	}
	if actorID := strings.TrimSpace(query.ActorID); actorID != "" {
		add("actor_user_id = $%d", actorID)
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		add("lower(status) = lower($%d)", status)
	}
	if path := strings.TrimSpace(query.Path); path != "" {
		add("lower(resource) LIKE lower($%d)", "%"+path+"%")
	}
	if from := strings.TrimSpace(query.From); from != "" {
		add("occurred_at >= $%d::timestamptz", from)
	}
	if to := strings.TrimSpace(query.To); to != "" {
		add("occurred_at <= $%d::timestamptz", to)
	}

	if len(where) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(where, " AND "), args
}

func marshalOptional(value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	return json.Marshal(value)
}

func unmarshalOptional(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}
	return value
}
