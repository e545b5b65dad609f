package model

import "time"

// UserVisit models an entry in the `user_visits` audit table. One row is
// written per successful user sign-in; admin sign-ins are never recorded.
//
// Fields:
//  ID         – user_visits.visit_id.
//  UserID     – user_visits.user_id (owner of the visit).
//  VisitTime  – user_visits.visit_time.
//  IPAddress  – user_visits.ip_address.
//  DeviceType – user_visits.device_type (normalized, e.g. "Android Phone").
//  UserAgent  – user_visits.user_agent (human-readable summary, not the raw header).
type UserVisit struct {
	ID         uint64
	UserID     string
	VisitTime  time.Time
	IPAddress  string
	DeviceType string
	UserAgent  string
}
