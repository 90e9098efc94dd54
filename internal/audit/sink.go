// Package audit feeds best-effort event records to storage. The sink is
// fire-and-forget: emitting never blocks and a down database never fails the
// settlement that produced the event.
package audit

import (
	"log"

	"casino/internal/models"

	"gorm.io/gorm"
)

// Event is one auditable action.
type Event struct {
	TenantID   string
	EntityType string
	EntityID   string
	Action     string
	Details    models.JSON
}

// Sink accepts events without blocking the caller.
type Sink interface {
	Emit(e Event)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// DBSink buffers events through a channel and writes them from a single
// worker goroutine. Events are dropped when the buffer is full.
type DBSink struct {
	db     *gorm.DB
	events chan Event
	done   chan struct{}
}

func NewDBSink(db *gorm.DB, buffer int) *DBSink {
	if buffer <= 0 {
		buffer = 256
	}
	s := &DBSink{
		db:     db,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *DBSink) Emit(e Event) {
	select {
	case s.events <- e:
	default:
		// Buffer full; the audit log is not a ledger of record.
	}
}

// Close stops the worker after draining buffered events.
func (s *DBSink) Close() {
	close(s.events)
	<-s.done
}

func (s *DBSink) run() {
	defer close(s.done)
	for e := range s.events {
		row := models.AuditLog{
			TenantID:   e.TenantID,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Action:     e.Action,
			Details:    e.Details,
		}
		if err := s.db.Create(&row).Error; err != nil {
			log.Printf("audit: dropping event %s/%s: %v", e.EntityType, e.Action, err)
		}
	}
}
