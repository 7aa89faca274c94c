package reporting

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"receptionist-platform/internal/callstore"
)

// SQLRepo reads the durable call and appointment tables.
type SQLRepo struct {
	DB *sql.DB
}

func (r SQLRepo) ListCalls(ctx context.Context, businessID string, from, to time.Time) ([]callstore.Call, error) {
	if businessID == "" {
		return nil, errors.New("business_id required")
	}

	const q = `
SELECT id, business_id, provider_call_id, caller_phone, dialed_number, status,
       COALESCE(customer_name, ''), COALESCE(customer_email, ''),
       COALESCE(business_type, ''), COALESCE(company_name, ''),
       created_at, updated_at
FROM calls
WHERE business_id = $1 AND created_at >= $2 AND created_at < $3
ORDER BY created_at ASC
`
	rows, err := r.DB.QueryContext(ctx, q, businessID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []callstore.Call
	for rows.Next() {
		var c callstore.Call
		if err := rows.Scan(
			&c.ID, &c.BusinessID, &c.ProviderCallID, &c.CallerPhone, &c.DialedNumber, &c.Status,
			&c.CustomerName, &c.CustomerEmail, &c.BusinessType, &c.CompanyName,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r SQLRepo) ListAppointments(ctx context.Context, businessID string, from, to time.Time) ([]callstore.Appointment, error) {
	if businessID == "" {
		return nil, errors.New("business_id required")
	}

	const q = `
SELECT id, business_id, call_id, starts_at, ends_at, COALESCE(label, ''), created_at
FROM appointments
WHERE business_id = $1 AND starts_at >= $2 AND starts_at < $3
ORDER BY starts_at ASC
`
	rows, err := r.DB.QueryContext(ctx, q, businessID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []callstore.Appointment
	for rows.Next() {
		var a callstore.Appointment
		if err := rows.Scan(&a.ID, &a.BusinessID, &a.CallID, &a.StartsAt, &a.EndsAt, &a.Label, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
