package model

import "time"

// AdminActivityLog models an entry in the `admin_activity_logs` table. Every
// state-changing admin operation appends one row.
//
// Fields:
//  ID         – admin_activity_logs.log_id.
//  AdminID    – admin_activity_logs.admin_id.
//  ActionType – admin_activity_logs.action_type (short verb, e.g. "quote.approve").
//  Details    – admin_activity_logs.action_details (free text, nullable).
//  IPAddress  – admin_activity_logs.ip_address.
//  ActionTime – admin_activity_logs.action_time.
type AdminActivityLog struct {
	ID         uint64
	AdminID    string
	ActionType string
	Details    string
	IPAddress  string
	ActionTime time.Time
}
