package models

import "github.com/google/uuid"

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every model, in dependency order, for sqlite auto-migration.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&Order{},
		&Review{},
		&Notification{},
	}
}
