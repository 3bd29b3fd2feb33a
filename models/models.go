package models

// AllModels returns every table managed by migrations, in dependency order
func AllModels() []any {
	return []any{
		&User{},
		&Listing{},
		&TrackingLink{},
		&ClickEvent{},
		&Inquiry{},
		&Commission{},
		&SystemSetting{},
		&Notification{},
		&AuditLog{},
	}
}
