// Package ident generates identifiers without any coordination between peers.
package ident

import (
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewID returns a random (version 4) uuid for a new entity.
func NewID() string {
	return uuid.NewString()
}

// NewActorID returns a hex encoded ulid suitable for use as an automerge actor id. The time prefix
// keeps actors created by the same process sortable in change history dumps.
func NewActorID() string {
	id := ulid.Make()
	return hex.EncodeToString(id[:])
}
