package postgres

import (
	"context"
	"fmt"

	"github.com/nourx/nourx/internal/domain/milestone"
)

const milestoneColumns = "id, project_id, name, description, status, order_index, due_date, created_at, updated_at"

func scanMilestone(row scannable) (*milestone.Milestone, error) {
	var m milestone.Milestone
	err := row.Scan(&m.ID, &m.ProjectID, &m.Name, &m.Description, &m.Status,
		&m.OrderIndex, &m.DueDate, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMilestone fetches one milestone.
func (s queries) GetMilestone(ctx context.Context, id string) (*milestone.Milestone, error) {
	row := s.q.QueryRow(ctx, "SELECT "+milestoneColumns+" FROM milestones WHERE id = $1", id)
	m, err := scanMilestone(row)
	if err != nil {
		return nil, notFoundWrap(err, "get milestone %s", id)
	}
	return m, nil
}

// ListMilestones returns all milestones of a project in display order.
func (s queries) ListMilestones(ctx context.Context, projectID string) ([]milestone.Milestone, error) {
	rows, err := s.q.Query(ctx,
		"SELECT "+milestoneColumns+" FROM milestones WHERE project_id = $1 ORDER BY order_index, created_at", projectID)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	defer rows.Close()

	items := []milestone.Milestone{}
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("scan milestone: %w", err)
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	return items, nil
}

// CreateMilestone inserts a new milestone.
func (s queries) CreateMilestone(ctx context.Context, m *milestone.Milestone) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO milestones (id, project_id, name, description, status, order_index, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.ProjectID, m.Name, m.Description, string(m.Status),
		m.OrderIndex, nullTime(m.DueDate), m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return conflictWrap(err, "milestones_project_id_name_key", "create milestone")
	}
	return nil
}

// UpdateMilestone persists a modified milestone.
func (s queries) UpdateMilestone(ctx context.Context, m *milestone.Milestone) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE milestones
		SET name = $2, description = $3, status = $4, order_index = $5, due_date = $6, updated_at = $7
		WHERE id = $1`,
		m.ID, m.Name, m.Description, string(m.Status), m.OrderIndex, nullTime(m.DueDate), m.UpdatedAt)
	if err != nil {
		return conflictWrap(err, "milestones_project_id_name_key", "update milestone %s", m.ID)
	}
	return execExpectOne(tag, nil, "update milestone %s", m.ID)
}

// DeleteMilestone removes a milestone. The service checks MilestoneInUse
// first; the FK constraints back that check up.
func (s queries) DeleteMilestone(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, "DELETE FROM milestones WHERE id = $1", id)
	return execExpectOne(tag, err, "delete milestone %s", id)
}

// MilestoneNameInUse checks name uniqueness within a project.
func (s queries) MilestoneNameInUse(ctx context.Context, projectID, name, excludeID string) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM milestones
			WHERE project_id = $1 AND name = $2 AND ($3 = '' OR id::text <> $3)
		)`, projectID, name, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check milestone name: %w", err)
	}
	return exists, nil
}

// MaxMilestoneOrderIndex returns the highest order index in the project,
// or 0 when the project has no milestones.
func (s queries) MaxMilestoneOrderIndex(ctx context.Context, projectID string) (float64, error) {
	var max float64
	err := s.q.QueryRow(ctx,
		"SELECT COALESCE(MAX(order_index), 0) FROM milestones WHERE project_id = $1", projectID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max order index for project %s: %w", projectID, err)
	}
	return max, nil
}

// MilestoneInUse reports whether tasks or deliverables still reference the
// milestone.
func (s queries) MilestoneInUse(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM tasks WHERE milestone_id = $1)
		    OR EXISTS (SELECT 1 FROM deliverables WHERE milestone_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check milestone references %s: %w", id, err)
	}
	return exists, nil
}
