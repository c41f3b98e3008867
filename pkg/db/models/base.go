package models

import "github.com/google/uuid"

// ensureID assigns a fresh uuid when the caller did not supply one, so inserts
// do not depend on a database-side default.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
