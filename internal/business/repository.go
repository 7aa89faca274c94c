package business

import (
	"context"
	"database/sql"
	"errors"
)

// NOTE: This repository assumes the following tables exist:
// - businesses
// - business_phone_numbers (number -> business_id, unique on number)

type SQLRepo struct {
	DB *sql.DB
}

func (r SQLRepo) GetByPhoneNumber(ctx context.Context, number string) (Profile, error) {
	const q = `
SELECT b.id, b.name, b.agent_name, b.industry, b.owner_email,
       pn.number, b.calendar_id, b.trial_link_url, b.instructions,
       b.max_concurrent_calls, b.created_at, b.updated_at
FROM business_phone_numbers pn
JOIN businesses b ON b.id = pn.business_id
WHERE pn.number = $1
`
	var p Profile
	if err := r.DB.QueryRowContext(ctx, q, number).Scan(
		&p.ID,
		&p.Name,
		&p.AgentName,
		&p.Industry,
		&p.OwnerEmail,
		&p.PhoneNumber,
		&p.CalendarID,
		&p.TrialLinkURL,
		&p.Instructions,
		&p.MaxConcurrentCalls,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	return p, nil
}
