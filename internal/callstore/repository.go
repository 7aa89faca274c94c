package callstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"receptionist-platform/pkg/utils"
)

var ErrNotFound = errors.New("callstore: not found")

// Repo persists calls, transcripts, and appointments.
type Repo interface {
	CreateCall(ctx context.Context, c Call) (Call, error)
	UpdateCallStatus(ctx context.Context, providerCallID string, status CallStatus) error
	UpdateCallEntities(ctx context.Context, providerCallID string, name, email, businessType, companyName string) error
	AppendTranscript(ctx context.Context, providerCallID, role, content string) error
	GetCallByProviderID(ctx context.Context, providerCallID string) (Call, error)
	ListTranscript(ctx context.Context, providerCallID string) ([]TranscriptTurn, error)
	CreateAppointment(ctx context.Context, providerCallID string, a Appointment) (Appointment, error)
}

// NOTE: This repository assumes the following tables exist:
// - calls (unique on provider_call_id)
// - call_transcripts (append-only)
// - appointments

type SQLRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

func (r SQLRepo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

func (r SQLRepo) CreateCall(ctx context.Context, c Call) (Call, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = r.now()
	c.UpdatedAt = c.CreatedAt
	if c.Status == "" {
		c.Status = CallStatusInProgress
	}

	const q = `
INSERT INTO calls (id, business_id, provider_call_id, caller_phone, dialed_number, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	_, err := r.DB.ExecContext(ctx, q,
		c.ID, c.BusinessID, c.ProviderCallID, c.CallerPhone, c.DialedNumber, c.Status, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return Call{}, err
	}
	return c, nil
}

func (r SQLRepo) UpdateCallStatus(ctx context.Context, providerCallID string, status CallStatus) error {
	const q = `
UPDATE calls SET status = $1, updated_at = $2 WHERE provider_call_id = $3
`
	res, err := r.DB.ExecContext(ctx, q, status, r.now(), providerCallID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r SQLRepo) UpdateCallEntities(ctx context.Context, providerCallID string, name, email, businessType, companyName string) error {
	const q = `
UPDATE calls
SET customer_name = $1, customer_email = $2, business_type = $3, company_name = $4, updated_at = $5
WHERE provider_call_id = $6
`
	res, err := r.DB.ExecContext(ctx, q, name, email, businessType, companyName, r.now(), providerCallID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r SQLRepo) AppendTranscript(ctx context.Context, providerCallID, role, content string) error {
	const q = `
INSERT INTO call_transcripts (id, call_id, role, content, created_at)
SELECT $1, c.id, $2, $3, $4 FROM calls c WHERE c.provider_call_id = $5
`
	res, err := r.DB.ExecContext(ctx, q, uuid.NewString(), role, content, r.now(), providerCallID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r SQLRepo) GetCallByProviderID(ctx context.Context, providerCallID string) (Call, error) {
	const q = `
SELECT id, business_id, provider_call_id, caller_phone, dialed_number, status,
       COALESCE(customer_name, ''), COALESCE(customer_email, ''),
       COALESCE(business_type, ''), COALESCE(company_name, ''),
       created_at, updated_at
FROM calls
WHERE provider_call_id = $1
`
	var c Call
	if err := r.DB.QueryRowContext(ctx, q, providerCallID).Scan(
		&c.ID,
		&c.BusinessID,
		&c.ProviderCallID,
		&c.CallerPhone,
		&c.DialedNumber,
		&c.Status,
		&c.CustomerName,
		&c.CustomerEmail,
		&c.BusinessType,
		&c.CompanyName,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, ErrNotFound
		}
		return Call{}, err
	}
	return c, nil
}

func (r SQLRepo) ListTranscript(ctx context.Context, providerCallID string) ([]TranscriptTurn, error) {
	const q = `
SELECT t.id, t.call_id, t.role, t.content, t.created_at
FROM call_transcripts t
JOIN calls c ON c.id = t.call_id
WHERE c.provider_call_id = $1
ORDER BY t.created_at ASC
`
	rows, err := r.DB.QueryContext(ctx, q, providerCallID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TranscriptTurn
	for rows.Next() {
		var t TranscriptTurn
		if err := rows.Scan(&t.ID, &t.CallID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateAppointment resolves the owning call row and inserts the
// appointment in one transaction, so an appointment never references a
// call that disappeared between the lookup and the insert.
func (r SQLRepo) CreateAppointment(ctx context.Context, providerCallID string, a Appointment) (Appointment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = r.now()

	err := utils.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx *sql.Tx) error {
		const findQ = `
SELECT id, business_id FROM calls WHERE provider_call_id = $1
`
		if err := tx.QueryRowContext(ctx, findQ, providerCallID).Scan(&a.CallID, &a.BusinessID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		const insertQ = `
INSERT INTO appointments (id, business_id, call_id, starts_at, ends_at, label, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
		_, err := tx.ExecContext(ctx, insertQ,
			a.ID, a.BusinessID, a.CallID, a.StartsAt, a.EndsAt, a.Label, a.CreatedAt,
		)
		return err
	})
	if err != nil {
		return Appointment{}, err
	}
	return a, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
