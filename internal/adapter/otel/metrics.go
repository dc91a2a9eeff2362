package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "nourx"

// Metrics holds all NOURX metric instruments.
type Metrics struct {
	OrganizationMutations metric.Int64Counter
	ProjectMutations      metric.Int64Counter
	MilestoneMutations    metric.Int64Counter
	DeliverableMutations  metric.Int64Counter
	DeliverablesApproved  metric.Int64Counter
	UploadBytes           metric.Int64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.OrganizationMutations, err = meter.Int64Counter("nourx.organizations.mutations",
		metric.WithDescription("Number of organization mutations"))
	if err != nil {
		return nil, err
	}

	m.ProjectMutations, err = meter.Int64Counter("nourx.projects.mutations",
		metric.WithDescription("Number of project mutations"))
	if err != nil {
		return nil, err
	}

	m.MilestoneMutations, err = meter.Int64Counter("nourx.milestones.mutations",
		metric.WithDescription("Number of milestone mutations"))
	if err != nil {
		return nil, err
	}

	m.DeliverableMutations, err = meter.Int64Counter("nourx.deliverables.mutations",
		metric.WithDescription("Number of deliverable mutations"))
	if err != nil {
		return nil, err
	}

	m.DeliverablesApproved, err = meter.Int64Counter("nourx.deliverables.approved",
		metric.WithDescription("Number of deliverables approved"))
	if err != nil {
		return nil, err
	}

	m.UploadBytes, err = meter.Int64Histogram("nourx.deliverables.upload_bytes",
		metric.WithDescription("Deliverable upload sizes in bytes"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
