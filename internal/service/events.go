// Package service implements business logic on top of ports.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nourx/nourx/internal/port/broadcast"
	"github.com/nourx/nourx/internal/port/messagequeue"
)

// Events fans committed mutations out to the message queue and the portal
// WebSocket hub. Both sinks are best-effort: the mutation is already
// committed, so delivery failures are logged and never surfaced.
type Events struct {
	Queue       messagequeue.Queue
	Broadcaster broadcast.Broadcaster
}

func (e *Events) emit(ctx context.Context, subject string, p messagequeue.EntityEventPayload) {
	if e == nil {
		return
	}
	p.OccurredAt = time.Now().UTC()

	if e.Queue != nil {
		data, err := json.Marshal(p)
		if err != nil {
			slog.Error("marshal entity event", "subject", subject, "error", err)
		} else if err := e.Queue.Publish(ctx, subject, data); err != nil {
			slog.Warn("publish entity event", "subject", subject, "error", err)
		}
	}

	if e.Broadcaster != nil {
		e.Broadcaster.BroadcastEvent(ctx, p.Action, p)
	}
}
