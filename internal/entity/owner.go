package entity

import "github.com/google/uuid"

// Owner identifies who a conversation belongs to: an authenticated user id
// from the bearer token, or an anonymous session key when there is none.
type Owner struct {
	UserId     *uuid.UUID
	SessionKey string
}
