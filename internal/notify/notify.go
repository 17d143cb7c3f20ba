// Package notify queues investor notifications in the transactional outbox and delivers them.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/store"
	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// Notification types.
const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeError   = "error"
)

// Message is a notification addressed to one user.
type Message struct {
	UserID  string
	Title   string
	Message string
	Type    string
	Page    string
}

// Enqueue writes msg to the outbox through tx so it commits or rolls back with the ledger change.
func Enqueue(ctx context.Context, tx *store.Store, msg Message) error {
	if strings.TrimSpace(msg.UserID) == "" {
		return fmt.Errorf("notify: empty user id")
	}
	if msg.Type == "" {
		msg.Type = TypeInfo
	}
	row := &models.NotificationOutbox{
		EventID:       uuid.NewString(),
		UserID:        msg.UserID,
		Title:         msg.Title,
		Message:       msg.Message,
		Type:          msg.Type,
		Page:          msg.Page,
		NextAttemptAt: time.Now().UTC(),
	}
	if errCreate := tx.Outbox.Create(ctx, row); errCreate != nil {
		return fmt.Errorf("notify: enqueue: %w", errCreate)
	}
	return nil
}

// Sink delivers one outbox row.
type Sink interface {
	Deliver(ctx context.Context, row models.NotificationOutbox) error
}

// DBSink delivers into the in-app notifications table.
type DBSink struct {
	store *store.Store
}

// NewDBSink returns a DBSink writing through s.
func NewDBSink(s *store.Store) *DBSink {
	return &DBSink{store: s}
}

// Deliver inserts the notification row. A row already delivered for the same event is left as is.
func (d *DBSink) Deliver(ctx context.Context, row models.NotificationOutbox) error {
	eventID := row.EventID
	n := &models.Notification{
		EventID: &eventID,
		UserID:  row.UserID,
		Title:   row.Title,
		Message: row.Message,
		Type:    row.Type,
		Page:    row.Page,
	}
	errCreate := d.store.DB().WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(n).Error
	if errCreate != nil {
		return fmt.Errorf("notify: deliver %s: %w", row.EventID, errCreate)
	}
	return nil
}
