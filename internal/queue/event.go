// Package queue defines message payloads exchanged over the message
// broker and the background consumer that delivers them.
package queue

// EmailQueueName is the durable queue carrying outbound email jobs.
const EmailQueueName = "email.send"

// Email template identifiers. The mailer maps them to subjects and
// bodies; anything else is rejected by the consumer.
const (
	TemplateVerifyEmail    = "verify_email"
	TemplatePasswordUpdate = "password_update"
)

// EmailTask is published when the API needs to send a templated email.
// Sending happens out of band so an SMTP failure can never fail the
// triggering HTTP request.
type EmailTask struct {
	Template  string `json:"template"`
	Recipient string `json:"recipient"`
	Token     string `json:"token,omitempty"`
}
