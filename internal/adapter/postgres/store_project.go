package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nourx/nourx/internal/domain/project"
	"github.com/nourx/nourx/internal/pagination"
)

const projectColumns = "id, org_id, name, description, status, start_date, end_date, client_visible, created_at, updated_at"

var projectSorter = pagination.Sorter{
	Default: "createdAt",
	Columns: map[string]string{
		"createdAt": "created_at",
		"updatedAt": "updated_at",
		"name":      "name",
	},
}

func scanProject(row scannable) (*project.Project, error) {
	var p project.Project
	err := row.Scan(&p.ID, &p.OrgID, &p.Name, &p.Description, &p.Status,
		&p.StartDate, &p.EndDate, &p.ClientVisible, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func projectCursorValue(p project.Project, col string) string {
	switch col {
	case "name":
		return p.Name
	case "updated_at":
		return p.UpdatedAt.UTC().Format(time.RFC3339Nano)
	default:
		return p.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
}

// GetProject fetches one project.
func (s queries) GetProject(ctx context.Context, id string) (*project.Project, error) {
	row := s.q.QueryRow(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = $1", id)
	p, err := scanProject(row)
	if err != nil {
		return nil, notFoundWrap(err, "get project %s", id)
	}
	return p, nil
}

// ListProjects returns a cursor page of projects.
func (s queries) ListProjects(ctx context.Context, q project.ListQuery) (*pagination.CursorPage[project.Project], error) {
	col, err := projectSorter.Resolve(q.OrderBy)
	if err != nil {
		return nil, err
	}
	limit := pagination.ClampLimit(q.Limit)

	var conditions []string
	var args []any
	argIdx := 1

	if q.OrgID != "" {
		conditions = append(conditions, fmt.Sprintf("org_id = $%d", argIdx))
		args = append(args, q.OrgID)
		argIdx++
	}
	if q.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(q.Status))
		argIdx++
	}
	if q.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE '%%' || $%d || '%%'", argIdx))
		args = append(args, q.Search)
		argIdx++
	}

	dir, op := "ASC", ">"
	if q.OrderDesc {
		dir, op = "DESC", "<"
	}
	if q.Cursor != "" {
		v, err := cursorArg(col, q.Cursor)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, fmt.Sprintf("%s %s $%d", col, op, argIdx))
		args = append(args, v)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	sql := fmt.Sprintf("SELECT %s FROM projects%s ORDER BY %s %s LIMIT $%d",
		projectColumns, where, col, dir, argIdx)
	args = append(args, limit+1)

	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var items []project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	page := pagination.NewCursorPage(items, limit, q.Cursor,
		func(p project.Project) string { return projectCursorValue(p, col) })
	return &page, nil
}

// CreateProject inserts a new project.
func (s queries) CreateProject(ctx context.Context, p *project.Project) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO projects (id, org_id, name, description, status, start_date, end_date, client_visible, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.OrgID, p.Name, p.Description, string(p.Status),
		nullTime(p.StartDate), nullTime(p.EndDate), p.ClientVisible, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return conflictWrap(err, "projects_org_id_name_key", "create project")
	}
	return nil
}

// UpdateProject persists a modified project.
func (s queries) UpdateProject(ctx context.Context, p *project.Project) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE projects
		SET name = $2, description = $3, status = $4, start_date = $5, end_date = $6, client_visible = $7, updated_at = $8
		WHERE id = $1`,
		p.ID, p.Name, p.Description, string(p.Status),
		nullTime(p.StartDate), nullTime(p.EndDate), p.ClientVisible, p.UpdatedAt)
	if err != nil {
		return conflictWrap(err, "projects_org_id_name_key", "update project %s", p.ID)
	}
	return execExpectOne(tag, nil, "update project %s", p.ID)
}

// ProjectNameInUse checks name uniqueness within an organization.
func (s queries) ProjectNameInUse(ctx context.Context, orgID, name, excludeID string) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM projects
			WHERE org_id = $1 AND name = $2 AND ($3 = '' OR id::text <> $3)
		)`, orgID, name, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check project name: %w", err)
	}
	return exists, nil
}
