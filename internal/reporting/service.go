package reporting

import (
	"context"
	"errors"
	"time"

	"receptionist-platform/internal/callstore"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
//
// IMPORTANT:
// - Methods must enforce business filtering.
// - Implementations should query the durable call and appointment records,
//   never live session state.

type Repository interface {
	ListCalls(ctx context.Context, businessID string, from, to time.Time) ([]callstore.Call, error)
	ListAppointments(ctx context.Context, businessID string, from, to time.Time) ([]callstore.Appointment, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if req.BusinessID == "" {
		return CallsSummary{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return CallsSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListCalls(ctx, req.BusinessID, req.Range.From, req.Range.To)
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{BusinessID: req.BusinessID}
	for _, c := range rows {
		out.TotalCalls++
		switch c.Status {
		case callstore.CallStatusCompleted:
			out.CompletedCalls++
		case callstore.CallStatusFailed:
			out.FailedCalls++
		case callstore.CallStatusInProgress:
			out.InProgressCalls++
		}
		if c.CustomerEmail != "" {
			out.EmailsCaptured++
		}
		if c.CustomerName != "" {
			out.NamesCaptured++
		}
	}
	return out, nil
}

func (s *Service) BookingMetrics(ctx context.Context, req BookingMetricsRequest) (BookingMetrics, error) {
	if req.BusinessID == "" {
		return BookingMetrics{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return BookingMetrics{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return BookingMetrics{}, errors.New("reporting: repository not configured")
	}

	callRows, err := s.repo.ListCalls(ctx, req.BusinessID, req.Range.From, req.Range.To)
	if err != nil {
		return BookingMetrics{}, err
	}
	appts, err := s.repo.ListAppointments(ctx, req.BusinessID, req.Range.From, req.Range.To)
	if err != nil {
		return BookingMetrics{}, err
	}

	out := BookingMetrics{BusinessID: req.BusinessID}
	for _, c := range callRows {
		if c.Status == callstore.CallStatusCompleted {
			out.CallsAnswered++
		}
	}
	out.Appointments = len(appts)

	if out.CallsAnswered > 0 {
		out.BookingRate = float64(out.Appointments) / float64(out.CallsAnswered)
	}
	return out, nil
}
