package postgres

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nourx/nourx/internal/domain/deliverable"
	"github.com/nourx/nourx/internal/pagination"
)

const deliverableColumns = "id, project_id, milestone_id, name, description, version, status, file_path, file_name, file_size, mime_type, comment, uploaded_by, created_at, updated_at"

var deliverableSorter = pagination.Sorter{
	Default: "createdAt",
	Columns: map[string]string{
		"createdAt": "created_at",
		"updatedAt": "updated_at",
		"name":      "name",
		"version":   "version",
		"status":    "status",
	},
}

func scanDeliverable(row scannable) (*deliverable.Deliverable, error) {
	var d deliverable.Deliverable
	var milestoneID *string
	err := row.Scan(&d.ID, &d.ProjectID, &milestoneID, &d.Name, &d.Description, &d.Version,
		&d.Status, &d.FilePath, &d.FileName, &d.FileSize, &d.MimeType, &d.Comment,
		&d.UploadedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if milestoneID != nil {
		d.MilestoneID = *milestoneID
	}
	return &d, nil
}

// deliverableListPlan holds the pieces of an offset list query so the
// count and data statements share the same filter.
type deliverableListPlan struct {
	where  string
	args   []any
	argIdx int
	col    string
	dir    string
	page   int
	limit  int
}

func buildDeliverableList(q deliverable.ListQuery) (*deliverableListPlan, error) {
	col, err := deliverableSorter.Resolve(q.OrderBy)
	if err != nil {
		return nil, err
	}
	plan := &deliverableListPlan{
		argIdx: 1,
		col:    col,
		dir:    "ASC",
		page:   pagination.ClampPage(q.Page),
		limit:  pagination.ClampLimit(q.Limit),
	}
	if q.OrderDesc {
		plan.dir = "DESC"
	}

	var conditions []string
	add := func(cond string, arg any) {
		conditions = append(conditions, fmt.Sprintf(cond, plan.argIdx))
		plan.args = append(plan.args, arg)
		plan.argIdx++
	}
	if q.ProjectID != "" {
		add("project_id = $%d", q.ProjectID)
	}
	if q.MilestoneID != "" {
		add("milestone_id = $%d", q.MilestoneID)
	}
	if q.Status != "" {
		add("status = $%d", string(q.Status))
	}
	if q.UploadedBy != "" {
		add("uploaded_by = $%d", q.UploadedBy)
	}
	if q.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%' OR file_name ILIKE '%%' || $%d || '%%')",
			plan.argIdx, plan.argIdx, plan.argIdx))
		plan.args = append(plan.args, q.Search)
		plan.argIdx++
	}
	if len(conditions) > 0 {
		plan.where = " WHERE " + strings.Join(conditions, " AND ")
	}
	return plan, nil
}

func (s queries) countDeliverables(ctx context.Context, plan *deliverableListPlan) (int, error) {
	var total int
	err := s.q.QueryRow(ctx, "SELECT COUNT(*) FROM deliverables"+plan.where, plan.args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count deliverables: %w", err)
	}
	return total, nil
}

func (s queries) fetchDeliverablePage(ctx context.Context, plan *deliverableListPlan) ([]deliverable.Deliverable, error) {
	sql := fmt.Sprintf("SELECT %s FROM deliverables%s ORDER BY %s %s OFFSET $%d LIMIT $%d",
		deliverableColumns, plan.where, plan.col, plan.dir, plan.argIdx, plan.argIdx+1)
	args := append(append([]any{}, plan.args...), (plan.page-1)*plan.limit, plan.limit)

	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list deliverables: %w", err)
	}
	defer rows.Close()

	var items []deliverable.Deliverable
	for rows.Next() {
		d, err := scanDeliverable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deliverable: %w", err)
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list deliverables: %w", err)
	}
	return items, nil
}

// ListDeliverables returns an offset page. Inside a transaction the count
// and data queries run sequentially on the single connection.
func (s queries) ListDeliverables(ctx context.Context, q deliverable.ListQuery) (*pagination.OffsetPage[deliverable.Deliverable], error) {
	plan, err := buildDeliverableList(q)
	if err != nil {
		return nil, err
	}
	total, err := s.countDeliverables(ctx, plan)
	if err != nil {
		return nil, err
	}
	items, err := s.fetchDeliverablePage(ctx, plan)
	if err != nil {
		return nil, err
	}
	page := pagination.NewOffsetPage(items, plan.page, plan.limit, total)
	return &page, nil
}

// ListDeliverables on the pool runs the count and data queries in
// parallel, each on its own connection.
func (s *Store) ListDeliverables(ctx context.Context, q deliverable.ListQuery) (*pagination.OffsetPage[deliverable.Deliverable], error) {
	plan, err := buildDeliverableList(q)
	if err != nil {
		return nil, err
	}

	var (
		total int
		items []deliverable.Deliverable
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.queries.countDeliverables(gctx, plan)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.queries.fetchDeliverablePage(gctx, plan)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	page := pagination.NewOffsetPage(items, plan.page, plan.limit, total)
	return &page, nil
}

// GetDeliverable fetches one deliverable.
func (s queries) GetDeliverable(ctx context.Context, id string) (*deliverable.Deliverable, error) {
	row := s.q.QueryRow(ctx, "SELECT "+deliverableColumns+" FROM deliverables WHERE id = $1", id)
	d, err := scanDeliverable(row)
	if err != nil {
		return nil, notFoundWrap(err, "get deliverable %s", id)
	}
	return d, nil
}

// ListDeliverableVersions returns every version of a named deliverable in
// a project, newest version first.
func (s queries) ListDeliverableVersions(ctx context.Context, projectID, name string) ([]deliverable.Deliverable, error) {
	rows, err := s.q.Query(ctx,
		"SELECT "+deliverableColumns+" FROM deliverables WHERE project_id = $1 AND name = $2 ORDER BY version DESC",
		projectID, name)
	if err != nil {
		return nil, fmt.Errorf("list deliverable versions: %w", err)
	}
	defer rows.Close()

	items := []deliverable.Deliverable{}
	for rows.Next() {
		d, err := scanDeliverable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deliverable: %w", err)
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list deliverable versions: %w", err)
	}
	return items, nil
}

// CreateDeliverable inserts a new deliverable version. A concurrent upload
// of the same (project, name, version) trips the unique index and surfaces
// as a conflict the service retries once.
func (s queries) CreateDeliverable(ctx context.Context, d *deliverable.Deliverable) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO deliverables (id, project_id, milestone_id, name, description, version, status, file_path, file_name, file_size, mime_type, comment, uploaded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		d.ID, d.ProjectID, nullIfEmpty(d.MilestoneID), d.Name, d.Description, d.Version,
		string(d.Status), d.FilePath, d.FileName, d.FileSize, d.MimeType, d.Comment,
		d.UploadedBy, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return conflictWrap(err, "deliverables_project_id_name_version_key", "create deliverable")
	}
	return nil
}

// UpdateDeliverable persists a modified deliverable (status, comment).
func (s queries) UpdateDeliverable(ctx context.Context, d *deliverable.Deliverable) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE deliverables
		SET status = $2, comment = $3, updated_at = $4
		WHERE id = $1`,
		d.ID, string(d.Status), d.Comment, d.UpdatedAt)
	return execExpectOne(tag, err, "update deliverable %s", d.ID)
}

// DeleteDeliverable removes a deliverable row.
func (s queries) DeleteDeliverable(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, "DELETE FROM deliverables WHERE id = $1", id)
	return execExpectOne(tag, err, "delete deliverable %s", id)
}

// NextDeliverableVersion returns max(version)+1 for the (project, name)
// pair.
func (s queries) NextDeliverableVersion(ctx context.Context, projectID, name string) (int, error) {
	var next int
	err := s.q.QueryRow(ctx,
		"SELECT COALESCE(MAX(version), 0) + 1 FROM deliverables WHERE project_id = $1 AND name = $2",
		projectID, name).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next version for %s/%s: %w", projectID, name, err)
	}
	return next, nil
}
