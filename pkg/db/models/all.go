package models

// All lists every persisted model. Tests use it to build sqlite schemas.
func All() []any {
	return []any{
		&User{},
		&Listing{},
		&EntitlementMapping{},
		&Order{},
		&Purchase{},
		&WishlistEntry{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
