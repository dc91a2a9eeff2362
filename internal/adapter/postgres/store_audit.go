package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nourx/nourx/internal/domain/audit"
	"github.com/nourx/nourx/internal/pagination"
)

const auditColumns = "id, action, actor_id, actor_role, entity_type, entity_id, message, metadata, created_at"

func scanAuditEntry(row scannable) (*audit.Entry, error) {
	var e audit.Entry
	var metadata []byte
	err := row.Scan(&e.ID, &e.Action, &e.ActorID, &e.ActorRole, &e.EntityType, &e.EntityID,
		&e.Message, &metadata, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return nil, fmt.Errorf("decode audit metadata: %w", err)
		}
	}
	return &e, nil
}

// AppendAudit records one mutation. The trail is append-only: this is the
// only statement that ever touches audit_log.
func (s queries) AppendAudit(ctx context.Context, e *audit.Entry) error {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("encode audit metadata: %w", err)
	}
	if e.Metadata == nil {
		metadata = []byte("{}")
	}
	_, err = s.q.Exec(ctx, `
		INSERT INTO audit_log (id, action, actor_id, actor_role, entity_type, entity_id, message, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.Action, e.ActorID, e.ActorRole, e.EntityType, e.EntityID, e.Message, metadata, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListAuditEntries returns a cursor page of the trail, newest first.
func (s queries) ListAuditEntries(ctx context.Context, q audit.Query) (*pagination.CursorPage[audit.Entry], error) {
	limit := pagination.ClampLimit(q.Limit)

	var conditions []string
	var args []any
	argIdx := 1
	add := func(cond string, arg any) {
		conditions = append(conditions, fmt.Sprintf(cond, argIdx))
		args = append(args, arg)
		argIdx++
	}
	if q.Action != "" {
		add("action = $%d", q.Action)
	}
	if q.ActorID != "" {
		add("actor_id = $%d", q.ActorID)
	}
	if q.EntityType != "" {
		add("entity_type = $%d", q.EntityType)
	}
	if q.EntityID != "" {
		add("entity_id = $%d", q.EntityID)
	}
	if q.Cursor != "" {
		before, err := pagination.DecodeTimeCursor(q.Cursor)
		if err != nil {
			return nil, err
		}
		add("created_at < $%d", before)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	sql := fmt.Sprintf("SELECT %s FROM audit_log%s ORDER BY created_at DESC LIMIT $%d",
		auditColumns, where, argIdx)
	args = append(args, limit+1)

	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var items []audit.Entry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	page := pagination.NewCursorPage(items, limit, q.Cursor,
		func(e audit.Entry) string { return e.CreatedAt.UTC().Format(time.RFC3339Nano) })
	return &page, nil
}
