package models

import "time"

// Communication statuses.
const (
	CommunicationStatusDraft     = "draft"
	CommunicationStatusScheduled = "scheduled"
	CommunicationStatusSending   = "sending"
	CommunicationStatusSent      = "sent"
	CommunicationStatusFailed    = "failed"
)

// AllowedCommunicationTransitions maps communication statuses to allowed next
// states. A scheduled send can be pulled back to draft before dispatch starts.
var AllowedCommunicationTransitions = map[string][]string{
	CommunicationStatusDraft:     {CommunicationStatusScheduled, CommunicationStatusSending},
	CommunicationStatusScheduled: {CommunicationStatusSending, CommunicationStatusDraft},
	CommunicationStatusSending:   {CommunicationStatusSent, CommunicationStatusFailed},
}

// CanTransitionCommunication reports whether a communication may move between
// statuses.
func CanTransitionCommunication(from, to string) bool {
	for _, next := range AllowedCommunicationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Audience types for a mass communication.
const (
	AudienceAll        = "all"
	AudienceDepartment = "department"
	AudienceRecipients = "recipients"
)

// Communication represents the communications table: a mass email to an
// audience, sent immediately or scheduled for the dispatch cron.
type Communication struct {
	ID           int        `json:"id" example:"1"`
	Subject      string     `json:"subject" example:"Planned warehouse downtime"`
	Body         string     `json:"body" example:"<p>The warehouse closes Friday.</p>"`
	AudienceType string     `json:"audience_type" example:"department"`
	Department   string     `json:"department,omitempty" example:"Civil"`
	RecipientIDs []int      `json:"recipient_ids,omitempty"`
	Status       string     `json:"status" example:"draft"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	SentCount    int        `json:"sent_count" example:"42"`
	FailedCount  int        `json:"failed_count" example:"1"`
	CreatedBy    int        `json:"created_by" example:"3"`
	CreatedAt    time.Time  `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt    time.Time  `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// IsDue reports whether a scheduled communication should be dispatched now.
func (cm *Communication) IsDue(now time.Time) bool {
	return cm.Status == CommunicationStatusScheduled &&
		cm.ScheduledAt != nil && !now.Before(*cm.ScheduledAt)
}

// CommunicationDelivery represents one row of the communication_deliveries
// table, one per recipient per dispatch.
type CommunicationDelivery struct {
	ID              int       `json:"id" example:"1"`
	CommunicationID int       `json:"communication_id" example:"1"`
	UserID          int       `json:"user_id" example:"5"`
	Email           string    `json:"email" example:"user@example.com"`
	Delivered       bool      `json:"delivered" example:"true"`
	Error           string    `json:"error,omitempty"`
	DeliveredAt     time.Time `json:"delivered_at" example:"2024-01-15T10:31:00Z"`
}
