package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// ensureID assigns a client-side UUID so inserts behave the same on
// Postgres and SQLite.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// Active scopes a query to rows visible to normal reads. Pass the table
// name (or alias) when the query joins several lifecycle-tracked tables.
func Active(table string) func(*gorm.DB) *gorm.DB {
	column := "status"
	if table != "" {
		column = table + ".status"
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" = ?", enums.LifecycleActive)
	}
}
