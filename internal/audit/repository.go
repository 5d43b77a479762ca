package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/welfaredesk/welfaredesk/internal/platform/db"
)

const table = "audit_logs"

var builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repository reads and writes audit_logs.
type Repository struct {
	db db.Querier
}

// NewRepository constructs the repository.
func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

// Insert stores one entry. A zero At means now.
func (r *Repository) Insert(ctx context.Context, e Entry) error {
	meta := e.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("audit: encode meta: %w", err)
	}
	insert := builder.Insert(table).
		Columns("actor_id", "actor_email", "module", "action", "entity", "entity_id", "meta")
	if e.At.IsZero() {
		insert = insert.Values(e.ActorID, e.ActorEmail, string(e.Module), string(e.Action), e.Entity, e.EntityID, metaJSON)
	} else {
		insert = insert.Columns("occurred_at").
			Values(e.ActorID, e.ActorEmail, string(e.Module), string(e.Action), e.Entity, e.EntityID, metaJSON, e.At)
	}
	sql, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("audit: build insert: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// Window returns at most limit rows after skipping offset, newest first.
func (r *Repository) Window(ctx context.Context, f TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	query := r.selectRows(f).Limit(uint64(limit)).Offset(uint64(offset))
	return r.query(ctx, query)
}

// All returns every matching row up to max.
func (r *Repository) All(ctx context.Context, f TimelineFilters, max int) ([]TimelineRow, error) {
	query := r.selectRows(f)
	if max > 0 {
		query = query.Limit(uint64(max))
	}
	return r.query(ctx, query)
}

func (r *Repository) selectRows(f TimelineFilters) squirrel.SelectBuilder {
	q := builder.
		Select("occurred_at", "actor_id", "actor_email", "module", "action", "entity", "entity_id").
		From(table).
		OrderBy("occurred_at DESC", "id DESC")
	if !f.From.IsZero() {
		q = q.Where(squirrel.GtOrEq{"occurred_at": f.From})
	}
	if !f.To.IsZero() {
		q = q.Where(squirrel.Lt{"occurred_at": f.To.AddDate(0, 0, 1)})
	}
	if actor := strings.TrimSpace(f.Actor); actor != "" {
		q = q.Where(squirrel.ILike{"actor_email": "%" + actor + "%"})
	}
	if module := strings.TrimSpace(f.Module); module != "" {
		q = q.Where(squirrel.Eq{"module": module})
	}
	if entity := strings.TrimSpace(f.Entity); entity != "" {
		q = q.Where(squirrel.Eq{"entity": entity})
	}
	if action := strings.TrimSpace(f.Action); action != "" {
		q = q.Where(squirrel.Eq{"action": action})
	}
	return q
}

func (r *Repository) query(ctx context.Context, q squirrel.SelectBuilder) ([]TimelineRow, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("audit: build select: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: select: %w", err)
	}
	defer rows.Close()

	var out []TimelineRow
	for rows.Next() {
		var row TimelineRow
		if err := rows.Scan(&row.At, &row.ActorID, &row.Actor, &row.Module, &row.Action, &row.Entity, &row.EntityID); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: rows: %w", err)
	}
	return out, nil
}
