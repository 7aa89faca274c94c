package callstore

import "time"

// Call is the durable record of an answered call.
//
// The live conversation state lives in internal/session; this row is what
// survives after the session is finalized and removed.

type Call struct {
	ID         string `json:"id" db:"id"`
	BusinessID string `json:"business_id" db:"business_id"`

	ProviderCallID string `json:"provider_call_id" db:"provider_call_id"`

	CallerPhone  string `json:"caller_phone" db:"caller_phone"`
	DialedNumber string `json:"dialed_number" db:"dialed_number"`

	Status CallStatus `json:"status" db:"status"`

	CustomerName  string `json:"customer_name,omitempty" db:"customer_name"`
	CustomerEmail string `json:"customer_email,omitempty" db:"customer_email"`
	BusinessType  string `json:"business_type,omitempty" db:"business_type"`
	CompanyName   string `json:"company_name,omitempty" db:"company_name"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CallStatus string

const (
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
)

// TranscriptTurn is one append-only transcript row. Role is "user",
// "assistant", or "voicemail".
type TranscriptTurn struct {
	ID        string    `json:"id" db:"id"`
	CallID    string    `json:"call_id" db:"call_id"`
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Appointment is a calendar booking that originated from a call.
type Appointment struct {
	ID         string    `json:"id" db:"id"`
	BusinessID string    `json:"business_id" db:"business_id"`
	CallID     string    `json:"call_id" db:"call_id"`
	StartsAt   time.Time `json:"starts_at" db:"starts_at"`
	EndsAt     time.Time `json:"ends_at" db:"ends_at"`
	Label      string    `json:"label,omitempty" db:"label"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
