package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
)

// CurrentVersion is the envelope version written by Emit when the event does
// not pin one.
const CurrentVersion = 1

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID uuid.UUID      `json:"userId"`
	Role   enums.UserRole `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
