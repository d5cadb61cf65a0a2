package model

// All returns every persisted model, parents first. Used by AutoMigrate in tests;
// production schemas come from the SQL migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Team{},
		&Membership{},
		&Invitation{},
		&Client{},
		&Supplier{},
		&Product{},
		&Order{},
		&OrderLine{},
		&Delivery{},
	}
}
