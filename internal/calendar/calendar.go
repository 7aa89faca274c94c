// Package calendar is the booking collaborator. The slot finder asks it
// for busy intervals; finalization writes confirmed appointments back.
package calendar

import (
	"context"
	"time"

	"receptionist-platform/internal/schedule"
)

type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

type Service interface {
	// ListBusy returns booked intervals on the calendar between from and to.
	ListBusy(ctx context.Context, calendarID string, from, to time.Time) ([]schedule.Interval, error)

	// Insert creates an event and returns its provider id.
	Insert(ctx context.Context, calendarID string, ev Event) (string, error)
}
