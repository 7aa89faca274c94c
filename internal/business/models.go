package business

import "time"

// Profile describes the business a dialed number belongs to. The agent's
// instructions, greeting voice, and notification targets all hang off it.
type Profile struct {
	ID           string
	Name         string
	AgentName    string
	Industry     string
	OwnerEmail   string
	PhoneNumber  string
	CalendarID   string
	TrialLinkURL string
	Instructions string

	// MaxConcurrentCalls caps simultaneous bridges for this business.
	// Zero means no cap.
	MaxConcurrentCalls int

	CreatedAt time.Time
	UpdatedAt time.Time
}
