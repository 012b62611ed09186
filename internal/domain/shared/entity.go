package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is anything with an identity of its own
type Entity interface {
	GetID() uuid.UUID
}

// BaseEntity carries the identity and audit timestamps shared by billing records.
// Timestamps are UTC at microsecond precision, the resolution PostgreSQL keeps,
// so a record read back compares equal to the one written.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// Touch stamps a modification
func (e *BaseEntity) Touch() {
	e.UpdatedAt = entityNow()
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	now := entityNow()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func entityNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
