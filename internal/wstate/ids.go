package wstate

import "github.com/google/uuid"

// All identifiers in the world-state are opaque 128-bit values.
type (
	SectorID   = uuid.UUID
	HubID      = uuid.UUID
	AppID      = uuid.UUID
	ViewportID = uuid.UUID
	SessionID  = uuid.UUID
)

// NewID mints a fresh opaque identifier.
func NewID() uuid.UUID { return uuid.New() }
