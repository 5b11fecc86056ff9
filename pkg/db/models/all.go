package models

// All lists every persisted model in dependency order. Used for SQLite
// bootstrapping and tests; Postgres is managed by goose migrations.
func All() []any {
	return []any{
		&User{},
		&Venue{},
		&VenueMember{},
		&VenueInvite{},
		&VenuePosition{},
		&ShiftInterval{},
		&Shift{},
		&ShiftAssignment{},
		&ShiftComment{},
		&DailyReport{},
		&DailyReportAttachment{},
		&Adjustment{},
		&AdjustmentDispute{},
		&AdjustmentDisputeComment{},
		&Permission{},
		&RolePermissionDefault{},
	}
}
