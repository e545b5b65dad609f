package model

import "time"

// Ticket statuses and priorities. Stored as enum columns on `tickets`.
const (
	TicketOpen       = "open"
	TicketInProgress = "in-progress"
	TicketClosed     = "closed"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Ticket represents a row in the `tickets` support table.
//
// Fields:
//  ID            – tickets.ticket_id (UUID primary key).
//  UserID        – tickets.user_id (reporter).
//  AssignedAdmin – tickets.assigned_to (nullable admin id).
//  Issue         – tickets.issue.
//  Status        – tickets.ticket_status (open/in-progress/closed).
//  Priority      – tickets.priority_level (low/medium/high).
//  CreatedDate   – tickets.created_date.
//  ResolvedDate  – tickets.resolved_date (set when the ticket is closed).
type Ticket struct {
	ID            string
	UserID        string
	AssignedAdmin *string
	Issue         string
	Status        string
	Priority      string
	CreatedDate   time.Time
	ResolvedDate  *time.Time
}
