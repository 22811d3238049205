package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"farmgate/backend/internal/telemetry/domain"
)

// EventEmitter emits telemetry events. Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.Event) error
}

// Multi fans an event out to every non-nil emitter and joins their errors.
type Multi []EventEmitter

func (m Multi) Emit(ctx context.Context, event *domain.Event) error {
	var errs []error
	for _, e := range m {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewEvent returns an event of eventType stamped with a fresh id and the current time.
func NewEvent(eventType, orgID, userID string) *domain.Event {
	return &domain.Event{
		ID:        uuid.NewString(),
		OrgID:     orgID,
		UserID:    userID,
		EventType: eventType,
		Source:    domain.SourceBFF,
		CreatedAt: time.Now().UTC(),
	}
}
