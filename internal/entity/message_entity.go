package entity

import (
	"time"

	"github.com/google/uuid"
)

// Message is append-only. Seq is the monotonically increasing position within
// its conversation; a write with a stale or duplicate Seq is rejected, never
// overwritten.
type Message struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	Role           string
	Content        string
	Seq            int
	CreatedAt      time.Time
}
