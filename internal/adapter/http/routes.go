package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/nourx/nourx/internal/domain/user"
	"github.com/nourx/nourx/internal/middleware"
)

// MountRoutes registers all API routes on the given chi router. Health
// probes stay outside the identity middleware; everything under /api/v1
// requires a gateway-resolved actor.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)
	r.Get("/health/ready", h.Ready)

	admin := middleware.RequireRole(user.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor)

		// Organizations
		r.Get("/organizations", h.ListOrganizations)
		r.With(admin).Post("/organizations", h.CreateOrganization)
		r.Get("/organizations/{id}", h.GetOrganization)
		r.With(admin).Patch("/organizations/{id}", h.UpdateOrganization)
		r.With(admin).Delete("/organizations/{id}", h.DeleteOrganization)
		r.With(admin).Post("/organizations/{id}/restore", h.RestoreOrganization)

		// Projects
		r.Get("/projects", h.ListProjects)
		r.With(admin).Post("/projects", h.CreateProject)
		r.Get("/projects/{id}", h.GetProject)
		r.With(admin).Patch("/projects/{id}", h.UpdateProject)
		r.With(admin).Delete("/projects/{id}", h.DeleteProject)

		// Milestones (nested create, direct access)
		r.Get("/projects/{id}/milestones", h.ListMilestones)
		r.With(admin).Post("/projects/{id}/milestones", h.CreateMilestone)
		r.Get("/milestones/{id}", h.GetMilestone)
		r.With(admin).Patch("/milestones/{id}", h.UpdateMilestone)
		r.With(admin).Patch("/milestones/{id}/status", h.SetMilestoneStatus)
		r.With(admin).Delete("/milestones/{id}", h.DeleteMilestone)

		// Deliverables (nested upload, direct access)
		r.Get("/deliverables", h.ListDeliverables)
		r.With(admin).Post("/projects/{id}/deliverables", h.CreateDeliverable)
		r.Get("/deliverables/{id}", h.GetDeliverable)
		r.Get("/deliverables/{id}/download", h.DownloadDeliverable)
		r.Get("/deliverables/{id}/history", h.DeliverableHistory)
		r.With(admin).Post("/deliverables/{id}/deliver", h.DeliverDeliverable)
		// Approve enforces the admin rule in the service so clients get a
		// clean 403 instead of a role gate; revisions are open to both roles.
		r.Post("/deliverables/{id}/approve", h.ApproveDeliverable)
		r.Post("/deliverables/{id}/request-revision", h.RequestDeliverableRevision)
		r.With(admin).Delete("/deliverables/{id}", h.DeleteDeliverable)

		// Audit trail
		r.With(admin).Get("/audit", h.ListAudit)
	})
}
