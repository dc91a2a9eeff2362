package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nourx/nourx/internal/domain"
	"github.com/nourx/nourx/internal/domain/audit"
	"github.com/nourx/nourx/internal/domain/deliverable"
	"github.com/nourx/nourx/internal/domain/milestone"
	"github.com/nourx/nourx/internal/domain/org"
	"github.com/nourx/nourx/internal/domain/project"
	"github.com/nourx/nourx/internal/domain/user"
	"github.com/nourx/nourx/internal/pagination"
	"github.com/nourx/nourx/internal/port/database"
	"github.com/nourx/nourx/internal/port/storage"
)

// fakeState is one consistent snapshot of the database.
type fakeState struct {
	orgs         map[string]org.Organization
	projects     map[string]project.Project
	milestones   map[string]milestone.Milestone
	deliverables map[string]deliverable.Deliverable
	users        []user.User
	tasks        map[string]string // task ID -> milestone ID
	audits       []audit.Entry
}

func newFakeState() *fakeState {
	return &fakeState{
		orgs:         map[string]org.Organization{},
		projects:     map[string]project.Project{},
		milestones:   map[string]milestone.Milestone{},
		deliverables: map[string]deliverable.Deliverable{},
		tasks:        map[string]string{},
	}
}

func (s *fakeState) clone() *fakeState {
	c := newFakeState()
	for k, v := range s.orgs {
		c.orgs[k] = v
	}
	for k, v := range s.projects {
		c.projects[k] = v
	}
	for k, v := range s.milestones {
		c.milestones[k] = v
	}
	for k, v := range s.deliverables {
		c.deliverables[k] = v
	}
	for k, v := range s.tasks {
		c.tasks[k] = v
	}
	c.users = append(c.users, s.users...)
	c.audits = append(c.audits, s.audits...)
	return c
}

// fakeStore implements database.Store over in-memory maps. WithTx works on
// a clone and swaps it in on commit, so a failed transaction leaves the
// visible state untouched.
type fakeStore struct {
	state *fakeState

	auditErr        error
	conflictOnNext  bool // fail the next CreateDeliverable with ErrConflict
	conflictsServed int
}

func newFakeStore() *fakeStore { return &fakeStore{state: newFakeState()} }

var _ database.Store = (*fakeStore)(nil)

func (f *fakeStore) WithTx(_ context.Context, fn func(tx database.Tx) error) error {
	next := f.state.clone()
	if err := fn(&fakeTx{store: f, state: next}); err != nil {
		return err
	}
	f.state = next
	return nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }
func (f *fakeStore) Close()                     {}

func (f *fakeStore) reader() *fakeTx { return &fakeTx{store: f, state: f.state} }

func (f *fakeStore) GetOrganization(ctx context.Context, id string) (*org.Organization, error) {
	return f.reader().GetOrganization(ctx, id)
}

func (f *fakeStore) ListOrganizations(ctx context.Context, q org.ListQuery) (*pagination.CursorPage[org.Organization], error) {
	return f.reader().ListOrganizations(ctx, q)
}

func (f *fakeStore) GetProject(ctx context.Context, id string) (*project.Project, error) {
	return f.reader().GetProject(ctx, id)
}

func (f *fakeStore) ListProjects(ctx context.Context, q project.ListQuery) (*pagination.CursorPage[project.Project], error) {
	return f.reader().ListProjects(ctx, q)
}

func (f *fakeStore) GetMilestone(ctx context.Context, id string) (*milestone.Milestone, error) {
	return f.reader().GetMilestone(ctx, id)
}

func (f *fakeStore) ListMilestones(ctx context.Context, projectID string) ([]milestone.Milestone, error) {
	return f.reader().ListMilestones(ctx, projectID)
}

func (f *fakeStore) GetDeliverable(ctx context.Context, id string) (*deliverable.Deliverable, error) {
	return f.reader().GetDeliverable(ctx, id)
}

func (f *fakeStore) ListDeliverables(ctx context.Context, q deliverable.ListQuery) (*pagination.OffsetPage[deliverable.Deliverable], error) {
	return f.reader().ListDeliverables(ctx, q)
}

func (f *fakeStore) ListDeliverableVersions(ctx context.Context, projectID, name string) ([]deliverable.Deliverable, error) {
	return f.reader().ListDeliverableVersions(ctx, projectID, name)
}

func (f *fakeStore) ListAuditEntries(ctx context.Context, q audit.Query) (*pagination.CursorPage[audit.Entry], error) {
	return f.reader().ListAuditEntries(ctx, q)
}

// fakeTx implements database.Tx against one state snapshot.
type fakeTx struct {
	store *fakeStore
	state *fakeState
}

var _ database.Tx = (*fakeTx)(nil)

func (t *fakeTx) GetOrganization(_ context.Context, id string) (*org.Organization, error) {
	o, ok := t.state.orgs[id]
	if !ok {
		return nil, fmt.Errorf("organization %s: %w", id, domain.ErrNotFound)
	}
	return &o, nil
}

func (t *fakeTx) ListOrganizations(_ context.Context, q org.ListQuery) (*pagination.CursorPage[org.Organization], error) {
	var rows []org.Organization
	for _, o := range t.state.orgs {
		if o.Deleted() && !q.IncludeDeleted {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(o.Name), strings.ToLower(q.Search)) {
			continue
		}
		rows = append(rows, o)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	page := pagination.NewCursorPage(rows, pagination.MaxLimit, q.Cursor, func(o org.Organization) string {
		return o.CreatedAt.Format(time.RFC3339Nano)
	})
	return &page, nil
}

func (t *fakeTx) GetProject(_ context.Context, id string) (*project.Project, error) {
	p, ok := t.state.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (t *fakeTx) ListProjects(_ context.Context, q project.ListQuery) (*pagination.CursorPage[project.Project], error) {
	var rows []project.Project
	for _, p := range t.state.projects {
		if q.OrgID != "" && p.OrgID != q.OrgID {
			continue
		}
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		rows = append(rows, p)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	page := pagination.NewCursorPage(rows, pagination.MaxLimit, q.Cursor, func(p project.Project) string {
		return p.CreatedAt.Format(time.RFC3339Nano)
	})
	return &page, nil
}

func (t *fakeTx) GetMilestone(_ context.Context, id string) (*milestone.Milestone, error) {
	m, ok := t.state.milestones[id]
	if !ok {
		return nil, fmt.Errorf("milestone %s: %w", id, domain.ErrNotFound)
	}
	return &m, nil
}

func (t *fakeTx) ListMilestones(_ context.Context, projectID string) ([]milestone.Milestone, error) {
	var rows []milestone.Milestone
	for _, m := range t.state.milestones {
		if m.ProjectID == projectID {
			rows = append(rows, m)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].OrderIndex < rows[j].OrderIndex })
	return rows, nil
}

func (t *fakeTx) GetDeliverable(_ context.Context, id string) (*deliverable.Deliverable, error) {
	d, ok := t.state.deliverables[id]
	if !ok {
		return nil, fmt.Errorf("deliverable %s: %w", id, domain.ErrNotFound)
	}
	return &d, nil
}

func (t *fakeTx) ListDeliverables(_ context.Context, q deliverable.ListQuery) (*pagination.OffsetPage[deliverable.Deliverable], error) {
	var rows []deliverable.Deliverable
	for _, d := range t.state.deliverables {
		if q.ProjectID != "" && d.ProjectID != q.ProjectID {
			continue
		}
		if q.MilestoneID != "" && d.MilestoneID != q.MilestoneID {
			continue
		}
		if q.Status != "" && d.Status != q.Status {
			continue
		}
		if q.UploadedBy != "" && d.UploadedBy != q.UploadedBy {
			continue
		}
		if q.Search != "" && !deliverableMatches(d, q.Search) {
			continue
		}
		rows = append(rows, d)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	page := pagination.NewOffsetPage(rows, 1, pagination.MaxLimit, len(rows))
	return &page, nil
}

func deliverableMatches(d deliverable.Deliverable, search string) bool {
	s := strings.ToLower(search)
	return strings.Contains(strings.ToLower(d.Name), s) ||
		strings.Contains(strings.ToLower(d.Description), s) ||
		strings.Contains(strings.ToLower(d.FileName), s)
}

func (t *fakeTx) ListDeliverableVersions(_ context.Context, projectID, name string) ([]deliverable.Deliverable, error) {
	var rows []deliverable.Deliverable
	for _, d := range t.state.deliverables {
		if d.ProjectID == projectID && d.Name == name {
			rows = append(rows, d)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Version > rows[j].Version })
	return rows, nil
}

func (t *fakeTx) ListAuditEntries(_ context.Context, q audit.Query) (*pagination.CursorPage[audit.Entry], error) {
	var rows []audit.Entry
	for _, e := range t.state.audits {
		if q.Action != "" && e.Action != q.Action {
			continue
		}
		if q.EntityType != "" && e.EntityType != q.EntityType {
			continue
		}
		if q.EntityID != "" && e.EntityID != q.EntityID {
			continue
		}
		rows = append(rows, e)
	}
	page := pagination.NewCursorPage(rows, pagination.MaxLimit, q.Cursor, func(e audit.Entry) string {
		return e.CreatedAt.Format(time.RFC3339Nano)
	})
	return &page, nil
}

func (t *fakeTx) CreateOrganization(_ context.Context, o *org.Organization) error {
	t.state.orgs[o.ID] = *o
	return nil
}

func (t *fakeTx) UpdateOrganization(_ context.Context, o *org.Organization) error {
	if _, ok := t.state.orgs[o.ID]; !ok {
		return fmt.Errorf("organization %s: %w", o.ID, domain.ErrNotFound)
	}
	t.state.orgs[o.ID] = *o
	return nil
}

func (t *fakeTx) SoftDeleteOrganization(_ context.Context, id string) error {
	o, ok := t.state.orgs[id]
	if !ok {
		return fmt.Errorf("organization %s: %w", id, domain.ErrNotFound)
	}
	now := time.Now().UTC()
	o.DeletedAt = &now
	t.state.orgs[id] = o
	return nil
}

func (t *fakeTx) RestoreOrganization(_ context.Context, id string) error {
	o, ok := t.state.orgs[id]
	if !ok {
		return fmt.Errorf("organization %s: %w", id, domain.ErrNotFound)
	}
	o.DeletedAt = nil
	t.state.orgs[id] = o
	return nil
}

func (t *fakeTx) TaxIDInUse(_ context.Context, taxID, excludeID string) (bool, error) {
	if taxID == "" {
		return false, nil
	}
	for _, o := range t.state.orgs {
		if o.Deleted() || o.ID == excludeID {
			continue
		}
		if o.TaxID == taxID {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) CountActiveUsers(_ context.Context, orgID string) (int, error) {
	n := 0
	for _, u := range t.state.users {
		if u.OrgID == orgID && !u.Disabled {
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) CreateProject(_ context.Context, p *project.Project) error {
	t.state.projects[p.ID] = *p
	return nil
}

func (t *fakeTx) UpdateProject(_ context.Context, p *project.Project) error {
	if _, ok := t.state.projects[p.ID]; !ok {
		return fmt.Errorf("project %s: %w", p.ID, domain.ErrNotFound)
	}
	t.state.projects[p.ID] = *p
	return nil
}

func (t *fakeTx) ProjectNameInUse(_ context.Context, orgID, name, excludeID string) (bool, error) {
	for _, p := range t.state.projects {
		if p.OrgID == orgID && p.Name == name && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) CreateMilestone(_ context.Context, m *milestone.Milestone) error {
	t.state.milestones[m.ID] = *m
	return nil
}

func (t *fakeTx) UpdateMilestone(_ context.Context, m *milestone.Milestone) error {
	if _, ok := t.state.milestones[m.ID]; !ok {
		return fmt.Errorf("milestone %s: %w", m.ID, domain.ErrNotFound)
	}
	t.state.milestones[m.ID] = *m
	return nil
}

func (t *fakeTx) DeleteMilestone(_ context.Context, id string) error {
	if _, ok := t.state.milestones[id]; !ok {
		return fmt.Errorf("milestone %s: %w", id, domain.ErrNotFound)
	}
	delete(t.state.milestones, id)
	return nil
}

func (t *fakeTx) MilestoneNameInUse(_ context.Context, projectID, name, excludeID string) (bool, error) {
	for _, m := range t.state.milestones {
		if m.ProjectID == projectID && m.Name == name && m.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) MaxMilestoneOrderIndex(_ context.Context, projectID string) (float64, error) {
	max := 0.0
	for _, m := range t.state.milestones {
		if m.ProjectID == projectID && m.OrderIndex > max {
			max = m.OrderIndex
		}
	}
	return max, nil
}

func (t *fakeTx) MilestoneInUse(_ context.Context, id string) (bool, error) {
	for _, msID := range t.state.tasks {
		if msID == id {
			return true, nil
		}
	}
	for _, d := range t.state.deliverables {
		if d.MilestoneID == id {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) CreateDeliverable(_ context.Context, d *deliverable.Deliverable) error {
	if t.store.conflictOnNext {
		t.store.conflictOnNext = false
		t.store.conflictsServed++
		return fmt.Errorf("duplicate version: %w", domain.ErrConflict)
	}
	for _, e := range t.state.deliverables {
		if e.ProjectID == d.ProjectID && e.Name == d.Name && e.Version == d.Version {
			return fmt.Errorf("duplicate version: %w", domain.ErrConflict)
		}
	}
	t.state.deliverables[d.ID] = *d
	return nil
}

func (t *fakeTx) UpdateDeliverable(_ context.Context, d *deliverable.Deliverable) error {
	if _, ok := t.state.deliverables[d.ID]; !ok {
		return fmt.Errorf("deliverable %s: %w", d.ID, domain.ErrNotFound)
	}
	t.state.deliverables[d.ID] = *d
	return nil
}

func (t *fakeTx) DeleteDeliverable(_ context.Context, id string) error {
	if _, ok := t.state.deliverables[id]; !ok {
		return fmt.Errorf("deliverable %s: %w", id, domain.ErrNotFound)
	}
	delete(t.state.deliverables, id)
	return nil
}

func (t *fakeTx) NextDeliverableVersion(_ context.Context, projectID, name string) (int, error) {
	max := 0
	for _, d := range t.state.deliverables {
		if d.ProjectID == projectID && d.Name == name && d.Version > max {
			max = d.Version
		}
	}
	return max + 1, nil
}

func (t *fakeTx) AppendAudit(_ context.Context, e *audit.Entry) error {
	if t.store.auditErr != nil {
		return t.store.auditErr
	}
	t.state.audits = append(t.state.audits, *e)
	return nil
}

// fakeFiles implements storage.FileStore in memory.
type fakeFiles struct {
	objects map[string][]byte
	saves   int
	deletes []string
}

func newFakeFiles() *fakeFiles { return &fakeFiles{objects: map[string][]byte{}} }

var _ storage.FileStore = (*fakeFiles)(nil)

func (f *fakeFiles) Save(_ context.Context, orgID, fileName string, data []byte, _ string, version int) (*storage.StoredFile, error) {
	path := fmt.Sprintf("%s/v%d-%s", orgID, version, fileName)
	f.objects[path] = append([]byte(nil), data...)
	f.saves++
	return &storage.StoredFile{Path: path, Name: fileName, Size: int64(len(data))}, nil
}

func (f *fakeFiles) Get(_ context.Context, path string) ([]byte, error) {
	data, ok := f.objects[path]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", path, domain.ErrNotFound)
	}
	return data, nil
}

func (f *fakeFiles) Delete(_ context.Context, path string) error {
	delete(f.objects, path)
	f.deletes = append(f.deletes, path)
	return nil
}

var errAuditDown = errors.New("audit insert failed")

var (
	adminActor  = user.Actor{ID: "admin-1", Email: "admin@nourx.test", Role: user.RoleAdmin}
	clientActor = user.Actor{ID: "client-1", Email: "client@nourx.test", Role: user.RoleClient, OrgID: "org-1"}
)

// seedOrg inserts an organization directly into the fake state.
func seedOrg(f *fakeStore, id, name, taxID string) {
	now := time.Now().UTC()
	f.state.orgs[id] = org.Organization{
		ID: id, Name: name, TaxID: taxID,
		ContactEmail: "ops@" + id + ".test",
		CreatedAt:    now, UpdatedAt: now,
	}
}

func seedProject(f *fakeStore, id, orgID, name string, status project.Status) {
	now := time.Now().UTC()
	f.state.projects[id] = project.Project{
		ID: id, OrgID: orgID, Name: name, Status: status,
		ClientVisible: true, CreatedAt: now, UpdatedAt: now,
	}
}

func seedMilestone(f *fakeStore, id, projectID, name string, status milestone.Status, orderIndex float64) {
	now := time.Now().UTC()
	f.state.milestones[id] = milestone.Milestone{
		ID: id, ProjectID: projectID, Name: name, Status: status,
		OrderIndex: orderIndex, CreatedAt: now, UpdatedAt: now,
	}
}
