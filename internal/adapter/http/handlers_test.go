package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nourx/nourx/internal/domain"
	"github.com/nourx/nourx/internal/domain/audit"
	"github.com/nourx/nourx/internal/domain/deliverable"
	"github.com/nourx/nourx/internal/domain/milestone"
	"github.com/nourx/nourx/internal/domain/org"
	"github.com/nourx/nourx/internal/domain/project"
	"github.com/nourx/nourx/internal/pagination"
	"github.com/nourx/nourx/internal/port/database"
	"github.com/nourx/nourx/internal/port/storage"
	"github.com/nourx/nourx/internal/service"
)

// memStore implements database.Store and database.Tx over maps. Handler
// tests exercise status codes and envelopes, not transactional behavior,
// so WithTx simply runs against the live maps.
type memStore struct {
	orgs         map[string]org.Organization
	projects     map[string]project.Project
	milestones   map[string]milestone.Milestone
	deliverables map[string]deliverable.Deliverable
	audits       []audit.Entry
}

func newMemStore() *memStore {
	return &memStore{
		orgs:         map[string]org.Organization{},
		projects:     map[string]project.Project{},
		milestones:   map[string]milestone.Milestone{},
		deliverables: map[string]deliverable.Deliverable{},
	}
}

var (
	_ database.Store = (*memStore)(nil)
	_ database.Tx    = (*memStore)(nil)
)

func (m *memStore) WithTx(_ context.Context, fn func(tx database.Tx) error) error { return fn(m) }
func (m *memStore) Ping(context.Context) error                                    { return nil }
func (m *memStore) Close()                                                        {}

func (m *memStore) GetOrganization(_ context.Context, id string) (*org.Organization, error) {
	o, ok := m.orgs[id]
	if !ok {
		return nil, fmt.Errorf("organization %s: %w", id, domain.ErrNotFound)
	}
	return &o, nil
}

func (m *memStore) ListOrganizations(_ context.Context, q org.ListQuery) (*pagination.CursorPage[org.Organization], error) {
	var rows []org.Organization
	for _, o := range m.orgs {
		if o.Deleted() && !q.IncludeDeleted {
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

func (m *memStore) GetProject(_ context.Context, id string) (*project.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (m *memStore) ListProjects(_ context.Context, q project.ListQuery) (*pagination.CursorPage[project.Project], error) {
	var rows []project.Project
	for _, p := range m.projects {
		if q.OrgID != "" && p.OrgID != q.OrgID {
			continue
		}
		rows = append(rows, p)
	}
	page := pagination.NewCursorPage(rows, pagination.MaxLimit, q.Cursor, func(p project.Project) string {
		return p.CreatedAt.Format(time.RFC3339Nano)
	})
	return &page, nil
}

func (m *memStore) GetMilestone(_ context.Context, id string) (*milestone.Milestone, error) {
	ms, ok := m.milestones[id]
	if !ok {
		return nil, fmt.Errorf("milestone %s: %w", id, domain.ErrNotFound)
	}
	return &ms, nil
}

func (m *memStore) ListMilestones(_ context.Context, projectID string) ([]milestone.Milestone, error) {
	var rows []milestone.Milestone
	for _, ms := range m.milestones {
		if ms.ProjectID == projectID {
			rows = append(rows, ms)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].OrderIndex < rows[j].OrderIndex })
	return rows, nil
}

func (m *memStore) GetDeliverable(_ context.Context, id string) (*deliverable.Deliverable, error) {
	d, ok := m.deliverables[id]
	if !ok {
		return nil, fmt.Errorf("deliverable %s: %w", id, domain.ErrNotFound)
	}
	return &d, nil
}

func (m *memStore) ListDeliverables(_ context.Context, q deliverable.ListQuery) (*pagination.OffsetPage[deliverable.Deliverable], error) {
	var rows []deliverable.Deliverable
	for _, d := range m.deliverables {
		if q.ProjectID != "" && d.ProjectID != q.ProjectID {
			continue
		}
		if q.UploadedBy != "" && d.UploadedBy != q.UploadedBy {
			continue
		}
		if q.Search != "" &&
			!strings.Contains(strings.ToLower(d.Name), strings.ToLower(q.Search)) &&
			!strings.Contains(strings.ToLower(d.Description), strings.ToLower(q.Search)) &&
			!strings.Contains(strings.ToLower(d.FileName), strings.ToLower(q.Search)) {
			continue
		}
		rows = append(rows, d)
	}
	page := pagination.NewOffsetPage(rows, 1, pagination.MaxLimit, len(rows))
	return &page, nil
}

func (m *memStore) ListDeliverableVersions(_ context.Context, projectID, name string) ([]deliverable.Deliverable, error) {
	var rows []deliverable.Deliverable
	for _, d := range m.deliverables {
		if d.ProjectID == projectID && d.Name == name {
			rows = append(rows, d)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Version > rows[j].Version })
	return rows, nil
}

func (m *memStore) ListAuditEntries(_ context.Context, q audit.Query) (*pagination.CursorPage[audit.Entry], error) {
	page := pagination.NewCursorPage(m.audits, pagination.MaxLimit, q.Cursor, func(e audit.Entry) string {
		return e.CreatedAt.Format(time.RFC3339Nano)
	})
	return &page, nil
}

func (m *memStore) CreateOrganization(_ context.Context, o *org.Organization) error {
	m.orgs[o.ID] = *o
	return nil
}

func (m *memStore) UpdateOrganization(_ context.Context, o *org.Organization) error {
	m.orgs[o.ID] = *o
	return nil
}

func (m *memStore) SoftDeleteOrganization(_ context.Context, id string) error {
	o := m.orgs[id]
	now := time.Now().UTC()
	o.DeletedAt = &now
	m.orgs[id] = o
	return nil
}

func (m *memStore) RestoreOrganization(_ context.Context, id string) error {
	o := m.orgs[id]
	o.DeletedAt = nil
	m.orgs[id] = o
	return nil
}

func (m *memStore) TaxIDInUse(_ context.Context, taxID, excludeID string) (bool, error) {
	if taxID == "" {
		return false, nil
	}
	for _, o := range m.orgs {
		if !o.Deleted() && o.TaxID == taxID && o.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CountActiveUsers(context.Context, string) (int, error) { return 0, nil }

func (m *memStore) CreateProject(_ context.Context, p *project.Project) error {
	m.projects[p.ID] = *p
	return nil
}

func (m *memStore) UpdateProject(_ context.Context, p *project.Project) error {
	m.projects[p.ID] = *p
	return nil
}

func (m *memStore) ProjectNameInUse(_ context.Context, orgID, name, excludeID string) (bool, error) {
	for _, p := range m.projects {
		if p.OrgID == orgID && p.Name == name && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateMilestone(_ context.Context, ms *milestone.Milestone) error {
	m.milestones[ms.ID] = *ms
	return nil
}

func (m *memStore) UpdateMilestone(_ context.Context, ms *milestone.Milestone) error {
	m.milestones[ms.ID] = *ms
	return nil
}

func (m *memStore) DeleteMilestone(_ context.Context, id string) error {
	delete(m.milestones, id)
	return nil
}

func (m *memStore) MilestoneNameInUse(_ context.Context, projectID, name, excludeID string) (bool, error) {
	for _, ms := range m.milestones {
		if ms.ProjectID == projectID && ms.Name == name && ms.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) MaxMilestoneOrderIndex(_ context.Context, projectID string) (float64, error) {
	max := 0.0
	for _, ms := range m.milestones {
		if ms.ProjectID == projectID && ms.OrderIndex > max {
			max = ms.OrderIndex
		}
	}
	return max, nil
}

func (m *memStore) MilestoneInUse(_ context.Context, id string) (bool, error) {
	for _, d := range m.deliverables {
		if d.MilestoneID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateDeliverable(_ context.Context, d *deliverable.Deliverable) error {
	for _, e := range m.deliverables {
		if e.ProjectID == d.ProjectID && e.Name == d.Name && e.Version == d.Version {
			return fmt.Errorf("duplicate version: %w", domain.ErrConflict)
		}
	}
	m.deliverables[d.ID] = *d
	return nil
}

func (m *memStore) UpdateDeliverable(_ context.Context, d *deliverable.Deliverable) error {
	m.deliverables[d.ID] = *d
	return nil
}

func (m *memStore) DeleteDeliverable(_ context.Context, id string) error {
	delete(m.deliverables, id)
	return nil
}

func (m *memStore) NextDeliverableVersion(_ context.Context, projectID, name string) (int, error) {
	max := 0
	for _, d := range m.deliverables {
		if d.ProjectID == projectID && d.Name == name && d.Version > max {
			max = d.Version
		}
	}
	return max + 1, nil
}

func (m *memStore) AppendAudit(_ context.Context, e *audit.Entry) error {
	m.audits = append(m.audits, *e)
	return nil
}

type memFiles struct{ objects map[string][]byte }

func newMemFiles() *memFiles { return &memFiles{objects: map[string][]byte{}} }

func (f *memFiles) Save(_ context.Context, orgID, fileName string, data []byte, _ string, version int) (*storage.StoredFile, error) {
	path := fmt.Sprintf("%s/v%d-%s", orgID, version, fileName)
	f.objects[path] = data
	return &storage.StoredFile{Path: path, Name: fileName, Size: int64(len(data))}, nil
}

func (f *memFiles) Get(_ context.Context, path string) ([]byte, error) {
	data, ok := f.objects[path]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", path, domain.ErrNotFound)
	}
	return data, nil
}

func (f *memFiles) Delete(_ context.Context, path string) error {
	delete(f.objects, path)
	return nil
}

func newTestRouter(t *testing.T) (chi.Router, *memStore) {
	t.Helper()
	store := newMemStore()
	orgs := service.NewOrganizationService(store, nil)
	projects := service.NewProjectService(store, nil)
	milestones := service.NewMilestoneService(store, nil)
	deliverables := service.NewDeliverableService(store, newMemFiles(), nil, nil)
	audits := service.NewAuditService(store)

	h := NewHandlers(orgs, projects, milestones, deliverables, audits, store, nil)
	r := chi.NewRouter()
	MountRoutes(r, h)
	return r, store
}

func doRequest(t *testing.T, r chi.Router, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("X-Actor-Id", role+"-1")
		req.Header.Set("X-Actor-Role", role)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return env
}

func seedTestProject(store *memStore) {
	now := time.Now().UTC()
	store.orgs["org-1"] = org.Organization{ID: "org-1", Name: "Acme", CreatedAt: now, UpdatedAt: now}
	store.projects["p1"] = project.Project{
		ID: "p1", OrgID: "org-1", Name: "Relaunch", Status: project.StatusActive,
		ClientVisible: true, CreatedAt: now, UpdatedAt: now,
	}
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doRequest(t, r, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAPIRequiresActor(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doRequest(t, r, http.MethodGet, "/api/v1/organizations", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error == nil || env.Error.Code != "unauthorized" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestCreateOrganizationRBAC(t *testing.T) {
	r, _ := newTestRouter(t)
	body := org.CreateRequest{Name: "Acme", ContactEmail: "x@y.test"}

	rec := doRequest(t, r, http.MethodPost, "/api/v1/organizations", "client", body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("client create: status = %d, want 403", rec.Code)
	}

	rec = doRequest(t, r, http.MethodPost, "/api/v1/organizations", "admin", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin create: status = %d, body %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestCreateOrganizationConflict(t *testing.T) {
	r, _ := newTestRouter(t)
	body := org.CreateRequest{Name: "Acme", TaxID: "DE-1", ContactEmail: "x@y.test"}

	if rec := doRequest(t, r, http.MethodPost, "/api/v1/organizations", "admin", body); rec.Code != http.StatusCreated {
		t.Fatalf("first create: %d", rec.Code)
	}
	rec := doRequest(t, r, http.MethodPost, "/api/v1/organizations", "admin", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != "conflict" {
		t.Fatalf("envelope = %+v", rec.Body.String())
	}
}

func TestGetOrganizationNotFound(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doRequest(t, r, http.MethodGet, "/api/v1/organizations/nope", "client", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != "not_found" {
		t.Fatalf("envelope = %s", rec.Body.String())
	}
}

func TestListRejectsBadOrderDirection(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doRequest(t, r, http.MethodGet, "/api/v1/organizations?orderDirection=sideways", "client", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMilestoneStatusTransitionRejected(t *testing.T) {
	r, store := newTestRouter(t)
	seedTestProject(store)
	now := time.Now().UTC()
	store.milestones["m1"] = milestone.Milestone{
		ID: "m1", ProjectID: "p1", Name: "Design", Status: milestone.StatusPending,
		OrderIndex: 1, CreatedAt: now, UpdatedAt: now,
	}

	rec := doRequest(t, r, http.MethodPatch, "/api/v1/milestones/m1/status", "admin",
		milestone.StatusRequest{Status: milestone.StatusCompleted})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, r, http.MethodPatch, "/api/v1/milestones/m1/status", "admin",
		milestone.StatusRequest{Status: milestone.StatusInProgress})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func uploadDeliverable(t *testing.T, r chi.Router, name string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", name)
	part, err := mw.CreateFormFile("file", name+".pdf")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.7 stub")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/p1/deliverables", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Actor-Id", "admin-1")
	req.Header.Set("X-Actor-Role", "admin")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestDeliverableUploadAndReview(t *testing.T) {
	r, store := newTestRouter(t)
	seedTestProject(store)

	rec := uploadDeliverable(t, r, "Spec")
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Data deliverable.Deliverable `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Data.Version != 1 || created.Data.Status != deliverable.StatusPending {
		t.Fatalf("created = %+v", created.Data)
	}
	id := created.Data.ID

	rec = doRequest(t, r, http.MethodPost, "/api/v1/deliverables/"+id+"/deliver", "admin", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("deliver: status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Approval stays with admins even though the route is shared.
	rec = doRequest(t, r, http.MethodPost, "/api/v1/deliverables/"+id+"/approve", "client", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("client approve: status = %d, want 403", rec.Code)
	}

	rec = doRequest(t, r, http.MethodPost, "/api/v1/deliverables/"+id+"/approve", "admin",
		deliverable.ReviewRequest{Comment: "ship it"})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, r, http.MethodGet, "/api/v1/deliverables/"+id+"/download", "client", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download: status = %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "Spec.pdf") {
		t.Fatalf("Content-Disposition = %q", rec.Header().Get("Content-Disposition"))
	}
	if rec.Body.String() != "%PDF-1.7 stub" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestDeliverableVersionHistory(t *testing.T) {
	r, store := newTestRouter(t)
	seedTestProject(store)

	if rec := uploadDeliverable(t, r, "Spec"); rec.Code != http.StatusCreated {
		t.Fatalf("upload v1: %d", rec.Code)
	}
	rec := uploadDeliverable(t, r, "Spec")
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload v2: %d", rec.Code)
	}
	var created struct {
		Data deliverable.Deliverable `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Data.Version != 2 {
		t.Fatalf("Version = %d, want 2", created.Data.Version)
	}

	rec = doRequest(t, r, http.MethodGet, "/api/v1/deliverables/"+created.Data.ID+"/history", "client", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: status = %d", rec.Code)
	}
	var history struct {
		Data []deliverable.Deliverable `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(history.Data) != 2 {
		t.Fatalf("history = %+v", history.Data)
	}
}

func TestDeliverableListQueryFilters(t *testing.T) {
	r, store := newTestRouter(t)
	seedTestProject(store)
	now := time.Now().UTC()
	store.deliverables["d1"] = deliverable.Deliverable{
		ID: "d1", ProjectID: "p1", Name: "Spec", Description: "signed statement of work",
		FileName: "sow-final.pdf", Version: 1, Status: deliverable.StatusPending,
		UploadedBy: "admin-1", CreatedAt: now, UpdatedAt: now,
	}
	store.deliverables["d2"] = deliverable.Deliverable{
		ID: "d2", ProjectID: "p1", Name: "Logo", FileName: "logo.svg", Version: 1,
		Status: deliverable.StatusPending, UploadedBy: "client-1", CreatedAt: now, UpdatedAt: now,
	}

	listNames := func(query string) []string {
		t.Helper()
		rec := doRequest(t, r, http.MethodGet, "/api/v1/deliverables"+query, "admin", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("list %s: status = %d, body %s", query, rec.Code, rec.Body.String())
		}
		var resp struct {
			Data struct {
				Data []deliverable.Deliverable `json:"data"`
			} `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		names := make([]string, 0, len(resp.Data.Data))
		for _, d := range resp.Data.Data {
			names = append(names, d.Name)
		}
		return names
	}

	if got := listNames("?uploadedBy=client-1"); len(got) != 1 || got[0] != "Logo" {
		t.Fatalf("uploadedBy filter: got %v", got)
	}
	// Search covers description and file name, not only the name.
	if got := listNames("?search=statement"); len(got) != 1 || got[0] != "Spec" {
		t.Fatalf("search by description: got %v", got)
	}
	if got := listNames("?search=logo.svg"); len(got) != 1 || got[0] != "Logo" {
		t.Fatalf("search by file name: got %v", got)
	}
}

func TestAuditRouteAdminOnly(t *testing.T) {
	r, _ := newTestRouter(t)
	if rec := doRequest(t, r, http.MethodGet, "/api/v1/audit", "client", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("client: status = %d, want 403", rec.Code)
	}
	if rec := doRequest(t, r, http.MethodGet, "/api/v1/audit", "admin", nil); rec.Code != http.StatusOK {
		t.Fatalf("admin: status = %d", rec.Code)
	}
}
