package messagequeue

import "time"

// EntityEventPayload is the schema shared by all entity event subjects.
type EntityEventPayload struct {
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Action     string    `json:"action"`
	ActorID    string    `json:"actor_id"`
	OrgID      string    `json:"org_id,omitempty"`
	ProjectID  string    `json:"project_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
