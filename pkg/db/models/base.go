package models

import "github.com/google/uuid"

// ensureID assigns a fresh UUID when the caller left it empty. Postgres also
// defaults ids server side, but generating them here keeps ids available to
// the caller before commit and works on sqlite.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
