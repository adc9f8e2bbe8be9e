package email

import "context"

// EmailSender sends a single transactional email. Implementations validate
// params before attempting delivery.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// SendEmailParams describes one outbound message. Tag is optional and used by
// providers for delivery analytics.
type SendEmailParams struct {
	SendTo   string `json:"send_to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
	Tag      string `json:"tag,omitempty"`
}
