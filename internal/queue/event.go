// Package queue defines message payloads exchanged over the message broker
// and the background consumer that drains them.
package queue

// MailQueueName is the durable queue carrying outbound auth mail.
const MailQueueName = "mail.outbound"

// Mail templates understood by the delivery worker.
const (
	TemplateResetPassword = "reset-password"
	TemplateOtp           = "otp"
	TemplateQuoteStatus   = "quote-status"
)

// MailMessage is published for every piece of outbound mail. The session and
// user layers never talk to an SMTP server directly; they enqueue one of
// these and move on, so mail provider latency and outages stay off the
// request path.
type MailMessage struct {
	To       string `json:"to"`
	Template string `json:"template"`            // reset-password | otp
	Token    string `json:"token,omitempty"`     // reset-password: signed reset token
	Code     string `json:"code,omitempty"`      // otp: the numeric code
	Context  string `json:"context,omitempty"`   // otp: email-verification | account-reactivation
	QueuedAt string `json:"queued_at"`           // RFC 3339
}
