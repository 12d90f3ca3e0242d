package domain

import "time"

// Waitlist entry lifecycle statuses.
const (
	StatusPending      = "pending"
	StatusConfirmed    = "confirmed"
	StatusUnsubscribed = "unsubscribed"
)

// ValidStatus reports whether s is one of the known entry statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusUnsubscribed:
		return true
	}
	return false
}

// WaitlistEntry is one email's signup record. Email is the DynamoDB
// partition key, so uniqueness is enforced by the table itself; EntryID
// exists for the admin surface (delete-by-id) via the entry_id GSI.
type WaitlistEntry struct {
	Email          string     `json:"email" dynamodbav:"email"`
	EntryID        string     `json:"id" dynamodbav:"entry_id"`
	IPAddress      *string    `json:"ipAddress,omitempty" dynamodbav:"ip_address"`
	UserAgent      *string    `json:"userAgent,omitempty" dynamodbav:"user_agent"`
	ReferralSource *string    `json:"referralSource,omitempty" dynamodbav:"referral_source"`
	Status         string     `json:"status" dynamodbav:"status"`
	ConfirmedAt    *time.Time `json:"confirmedAt" dynamodbav:"confirmed_at"`
	CreatedAt      time.Time  `json:"createdAt" dynamodbav:"created_at"`
}

// Active reports whether the entry still counts toward the waitlist.
func (e *WaitlistEntry) Active() bool {
	return e.Status != StatusUnsubscribed
}

type JoinRequest struct {
	Email          string  `json:"email" validate:"required"`
	ReferralSource *string `json:"referralSource"`
	IPAddress      *string `json:"-"`
	UserAgent      *string `json:"-"`
}

type UnsubscribeRequest struct {
	Email string `json:"email" validate:"required"`
}

// JoinOutcome discriminates the three join paths so the handler can pick
// the right HTTP status and message.
type JoinOutcome int

const (
	JoinCreated JoinOutcome = iota
	JoinAlreadyMember
	JoinReactivated
)

// JoinResult is what a successful join returns to the caller.
type JoinResult struct {
	Outcome   JoinOutcome `json:"-"`
	Email     string      `json:"email"`
	Position  int         `json:"position"`
	EmailSent bool        `json:"emailSent"`
}

// WaitlistStats holds the public aggregate counts.
type WaitlistStats struct {
	Total     int `json:"total"`
	Confirmed int `json:"confirmed"`
	Today     int `json:"today"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}
