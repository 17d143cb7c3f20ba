package models

import "time"

// Notification is a message shown to an investor in the app.
type Notification struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	EventID *string `gorm:"type:varchar(64);uniqueIndex"`      // Outbox event delivered as this row.
	UserID  string  `gorm:"type:varchar(255);not null;index"` // Recipient user identity.
	Title   string  `gorm:"type:text;not null"`               // Short title.
	Message string  `gorm:"type:text;not null"`               // Body text.
	Type    string  `gorm:"type:varchar(32)"`                 // info, success, warning or error.
	Page    string  `gorm:"type:varchar(64)"`                 // App page the message links to.
	IsRead  bool    `gorm:"not null;default:false"`           // Read flag.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// NotificationOutbox stores a notification committed with a ledger change and not yet delivered.
type NotificationOutbox struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	EventID string `gorm:"type:varchar(64);not null;uniqueIndex"` // Delivery idempotency key.
	UserID  string `gorm:"type:varchar(255);not null"`            // Recipient user identity.
	Title   string `gorm:"type:text;not null"`                    // Short title.
	Message string `gorm:"type:text;not null"`                    // Body text.
	Type    string `gorm:"type:varchar(32)"`                      // Notification type.
	Page    string `gorm:"type:varchar(64)"`                      // App page.

	Attempts      int        `gorm:"not null;default:0"` // Delivery attempts so far.
	LastError     string     `gorm:"type:text"`          // Last delivery failure.
	NextAttemptAt time.Time  `gorm:"not null;index"`     // Earliest next delivery time.
	DeliveredAt   *time.Time `gorm:"index"`              // Delivery time, once delivered.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
