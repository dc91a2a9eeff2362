package service

import (
	"context"
	"errors"
	"testing"

	"github.com/nourx/nourx/internal/domain"
	"github.com/nourx/nourx/internal/domain/audit"
	"github.com/nourx/nourx/internal/domain/org"
	"github.com/nourx/nourx/internal/domain/user"
)

func TestOrganizationCreate(t *testing.T) {
	store := newFakeStore()
	svc := NewOrganizationService(store, nil)

	o, err := svc.Create(context.Background(), adminActor, org.CreateRequest{
		Name: "Acme GmbH", TaxID: "DE-123", ContactEmail: "billing@acme.test",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.ID == "" {
		t.Fatal("expected generated ID")
	}
	if got, err := svc.Get(context.Background(), o.ID); err != nil || got.Name != "Acme GmbH" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if len(store.state.audits) != 1 || store.state.audits[0].Action != audit.ActionOrgCreated {
		t.Fatalf("expected one %s audit entry, got %+v", audit.ActionOrgCreated, store.state.audits)
	}
}

func TestOrganizationCreateTaxIDConflict(t *testing.T) {
	store := newFakeStore()
	seedOrg(store, "org-1", "Acme", "DE-123")
	svc := NewOrganizationService(store, nil)

	_, err := svc.Create(context.Background(), adminActor, org.CreateRequest{
		Name: "Other", TaxID: "DE-123", ContactEmail: "x@y.test",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestOrganizationCreateRollsBackWhenAuditFails(t *testing.T) {
	store := newFakeStore()
	store.auditErr = errAuditDown
	svc := NewOrganizationService(store, nil)

	_, err := svc.Create(context.Background(), adminActor, org.CreateRequest{
		Name: "Acme", ContactEmail: "x@y.test",
	})
	if !errors.Is(err, errAuditDown) {
		t.Fatalf("expected audit error, got %v", err)
	}
	if len(store.state.orgs) != 0 {
		t.Fatal("organization persisted despite failed audit append")
	}
}

func TestOrganizationUpdate(t *testing.T) {
	store := newFakeStore()
	seedOrg(store, "org-1", "Acme", "DE-123")
	svc := NewOrganizationService(store, nil)

	name := "Acme International"
	o, err := svc.Update(context.Background(), adminActor, "org-1", org.UpdateRequest{Name: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if o.Name != name {
		t.Fatalf("Name = %q", o.Name)
	}
	if o.TaxID != "DE-123" {
		t.Fatalf("unpatched field changed: TaxID = %q", o.TaxID)
	}
	meta := store.state.audits[0].Metadata
	if _, ok := meta["name"]; !ok {
		t.Fatalf("audit metadata missing changed field: %v", meta)
	}
	if _, ok := meta["taxId"]; ok {
		t.Fatalf("audit metadata lists unchanged field: %v", meta)
	}
}

func TestOrganizationUpdateTaxIDConflict(t *testing.T) {
	store := newFakeStore()
	seedOrg(store, "org-1", "Acme", "DE-123")
	seedOrg(store, "org-2", "Beta", "DE-456")
	svc := NewOrganizationService(store, nil)

	taken := "DE-123"
	_, err := svc.Update(context.Background(), adminActor, "org-2", org.UpdateRequest{TaxID: &taken})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Keeping your own tax ID is not a conflict.
	same := "DE-456"
	if _, err := svc.Update(context.Background(), adminActor, "org-2", org.UpdateRequest{TaxID: &same}); err != nil {
		t.Fatalf("no-op tax ID update: %v", err)
	}
}

func TestOrganizationDeleteBlockedByActiveUsers(t *testing.T) {
	store := newFakeStore()
	seedOrg(store, "org-1", "Acme", "DE-123")
	store.state.users = append(store.state.users,
		user.User{ID: "u1", OrgID: "org-1", Email: "a@acme.test", Role: user.RoleClient},
	)
	svc := NewOrganizationService(store, nil)

	err := svc.Delete(context.Background(), adminActor, "org-1")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	store.state.users[0].Disabled = true
	if err := svc.Delete(context.Background(), adminActor, "org-1"); err != nil {
		t.Fatalf("Delete after disabling users: %v", err)
	}
	o := store.state.orgs["org-1"]
	if !o.Deleted() {
		t.Fatal("expected soft delete to set DeletedAt")
	}
}

func TestOrganizationDeleteTwice(t *testing.T) {
	store := newFakeStore()
	seedOrg(store, "org-1", "Acme", "DE-123")
	svc := NewOrganizationService(store, nil)

	if err := svc.Delete(context.Background(), adminActor, "org-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(context.Background(), adminActor, "org-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestOrganizationRestore(t *testing.T) {
	store := newFakeStore()
	seedOrg(store, "org-1", "Acme", "DE-123")
	svc := NewOrganizationService(store, nil)

	if _, err := svc.Restore(context.Background(), adminActor, "org-1"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("restoring a live organization: expected ErrValidation, got %v", err)
	}

	if err := svc.Delete(context.Background(), adminActor, "org-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	o, err := svc.Restore(context.Background(), adminActor, "org-1")
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if o.Deleted() {
		t.Fatal("expected DeletedAt cleared")
	}
}

func TestOrganizationRestoreBlockedByTaxIDReuse(t *testing.T) {
	store := newFakeStore()
	seedOrg(store, "org-1", "Acme", "DE-123")
	svc := NewOrganizationService(store, nil)

	if err := svc.Delete(context.Background(), adminActor, "org-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	// A live organization has since taken the tax ID.
	seedOrg(store, "org-2", "Acme Neu", "DE-123")

	_, err := svc.Restore(context.Background(), adminActor, "org-1")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestOrganizationListExcludesDeleted(t *testing.T) {
	store := newFakeStore()
	seedOrg(store, "org-1", "Acme", "DE-1")
	seedOrg(store, "org-2", "Beta", "DE-2")
	svc := NewOrganizationService(store, nil)

	if err := svc.Delete(context.Background(), adminActor, "org-2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	page, err := svc.List(context.Background(), org.ListQuery{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].ID != "org-1" {
		t.Fatalf("expected only the live organization, got %+v", page.Data)
	}

	page, err = svc.List(context.Background(), org.ListQuery{IncludeDeleted: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Data) != 2 {
		t.Fatalf("expected both organizations, got %d", len(page.Data))
	}
}
