package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"receptionist-platform/internal/schedule"
)

// Google talks to the Google Calendar API with service-account
// credentials. Businesses share their booking calendar with the service
// account's email.
type Google struct {
	svc *gcal.Service
}

func NewGoogle(ctx context.Context, credentialsJSON []byte) (*Google, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("calendar: parse credentials: %w", err)
	}
	svc, err := gcal.NewService(ctx, option.WithTokenSource(creds.TokenSource))
	if err != nil {
		return nil, fmt.Errorf("calendar: init service: %w", err)
	}
	return &Google{svc: svc}, nil
}

func (g *Google) ListBusy(ctx context.Context, calendarID string, from, to time.Time) ([]schedule.Interval, error) {
	events, err := g.svc.Events.List(calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: list events: %w", err)
	}

	var out []schedule.Interval
	for _, ev := range events.Items {
		if ev.Start == nil || ev.End == nil {
			continue
		}
		// All-day events carry Date instead of DateTime; they don't block
		// hourly slots.
		if ev.Start.DateTime == "" || ev.End.DateTime == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, ev.End.DateTime)
		if err != nil {
			continue
		}
		out = append(out, schedule.Interval{Start: start, End: end})
	}
	return out, nil
}

func (g *Google) Insert(ctx context.Context, calendarID string, ev Event) (string, error) {
	created, err := g.svc.Events.Insert(calendarID, &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       &gcal.EventDateTime{DateTime: ev.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: ev.End.Format(time.RFC3339)},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calendar: insert event: %w", err)
	}
	return created.Id, nil
}
