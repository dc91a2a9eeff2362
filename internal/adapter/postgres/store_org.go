package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nourx/nourx/internal/domain/org"
	"github.com/nourx/nourx/internal/pagination"
)

const orgColumns = "id, name, tax_id, address, contact_email, contact_phone, deleted_at, created_at, updated_at"

var orgSorter = pagination.Sorter{
	Default: "createdAt",
	Columns: map[string]string{
		"createdAt": "created_at",
		"updatedAt": "updated_at",
		"name":      "name",
	},
}

func scanOrganization(row scannable) (*org.Organization, error) {
	var o org.Organization
	err := row.Scan(&o.ID, &o.Name, &o.TaxID, &o.Address, &o.ContactEmail, &o.ContactPhone,
		&o.DeletedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func orgCursorValue(o org.Organization, col string) string {
	switch col {
	case "name":
		return o.Name
	case "updated_at":
		return o.UpdatedAt.UTC().Format(time.RFC3339Nano)
	default:
		return o.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
}

// GetOrganization fetches one organization, soft-deleted rows included so
// restore and admin views can see them.
func (s queries) GetOrganization(ctx context.Context, id string) (*org.Organization, error) {
	row := s.q.QueryRow(ctx, "SELECT "+orgColumns+" FROM organizations WHERE id = $1", id)
	o, err := scanOrganization(row)
	if err != nil {
		return nil, notFoundWrap(err, "get organization %s", id)
	}
	return o, nil
}

// ListOrganizations returns a cursor page of organizations.
func (s queries) ListOrganizations(ctx context.Context, q org.ListQuery) (*pagination.CursorPage[org.Organization], error) {
	col, err := orgSorter.Resolve(q.OrderBy)
	if err != nil {
		return nil, err
	}
	limit := pagination.ClampLimit(q.Limit)

	var conditions []string
	var args []any
	argIdx := 1

	if !q.IncludeDeleted {
		conditions = append(conditions, "deleted_at IS NULL")
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
	sql := fmt.Sprintf("SELECT %s FROM organizations%s ORDER BY %s %s LIMIT $%d",
		orgColumns, where, col, dir, argIdx)
	args = append(args, limit+1)

	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var items []org.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		items = append(items, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}

	page := pagination.NewCursorPage(items, limit, q.Cursor,
		func(o org.Organization) string { return orgCursorValue(o, col) })
	return &page, nil
}

// CreateOrganization inserts a new organization.
func (s queries) CreateOrganization(ctx context.Context, o *org.Organization) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO organizations (id, name, tax_id, address, contact_email, contact_phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.Name, o.TaxID, o.Address, o.ContactEmail, o.ContactPhone, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return conflictWrap(err, "organizations_tax_id_unique", "create organization")
	}
	return nil
}

// UpdateOrganization persists a modified organization.
func (s queries) UpdateOrganization(ctx context.Context, o *org.Organization) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE organizations
		SET name = $2, tax_id = $3, address = $4, contact_email = $5, contact_phone = $6, updated_at = $7
		WHERE id = $1 AND deleted_at IS NULL`,
		o.ID, o.Name, o.TaxID, o.Address, o.ContactEmail, o.ContactPhone, o.UpdatedAt)
	if err != nil {
		return conflictWrap(err, "organizations_tax_id_unique", "update organization %s", o.ID)
	}
	return execExpectOne(tag, nil, "update organization %s", o.ID)
}

// SoftDeleteOrganization marks an organization deleted. Already-deleted
// rows read as not found.
func (s queries) SoftDeleteOrganization(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx,
		"UPDATE organizations SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL", id)
	return execExpectOne(tag, err, "delete organization %s", id)
}

// RestoreOrganization clears the soft-delete mark.
func (s queries) RestoreOrganization(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx,
		"UPDATE organizations SET deleted_at = NULL, updated_at = now() WHERE id = $1 AND deleted_at IS NOT NULL", id)
	if err != nil {
		return conflictWrap(err, "organizations_tax_id_unique", "restore organization %s", id)
	}
	return execExpectOne(tag, nil, "restore organization %s", id)
}

// TaxIDInUse checks tax identifier uniqueness among non-deleted rows.
func (s queries) TaxIDInUse(ctx context.Context, taxID, excludeID string) (bool, error) {
	if taxID == "" {
		return false, nil
	}
	var exists bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM organizations
			WHERE tax_id = $1 AND deleted_at IS NULL AND ($2 = '' OR id::text <> $2)
		)`, taxID, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check tax id: %w", err)
	}
	return exists, nil
}

// CountActiveUsers counts enabled accounts attached to the organization.
func (s queries) CountActiveUsers(ctx context.Context, orgID string) (int, error) {
	var n int
	err := s.q.QueryRow(ctx,
		"SELECT COUNT(*) FROM users WHERE org_id = $1 AND disabled_at IS NULL", orgID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users for organization %s: %w", orgID, err)
	}
	return n, nil
}
