package model

import "time"

// Quote statuses. Stored as an enum column on `quotes`.
const (
	QuotePending  = "pending"
	QuoteApproved = "approved"
	QuoteRejected = "rejected"
	QuoteExpired  = "expired"
)

// Quote represents a row in the `quotes` table. A quote always belongs to a
// user; admins with the "quotations" role manage its status.
//
// Fields:
//  ID            – quotes.quote_id (UUID primary key).
//  UserID        – quotes.user_id.
//  Details       – quotes.quote_details.
//  Status        – quotes.status (pending/approved/rejected/expired).
//  EstimatedCost – quotes.estimated_cost (nullable).
//  ValidUntil    – quotes.valid_until (nullable).
//  QuoteType     – quotes.quote_type (free-form category).
//  CreatedDate   – quotes.created_date.
type Quote struct {
	ID            string
	UserID        string
	Details       string
	Status        string
	EstimatedCost *float64
	ValidUntil    *time.Time
	QuoteType     string
	CreatedDate   time.Time
}
