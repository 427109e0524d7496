package models

// Categories
const (
	// CategoryUnknown is assigned when neither history nor the source sheet
	// supplies a category.
	CategoryUnknown = "unknown"
)

// Account statuses
const (
	AccountStatusOpen   = "open"
	AccountStatusClosed = "closed"
)

// File permissions
const (
	PermissionFile      = 0644
	PermissionDirectory = 0750
)
