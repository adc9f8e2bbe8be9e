package email

import "errors"

var (
	// ErrFailedToSendEmail wraps provider delivery failures.
	ErrFailedToSendEmail = errors.New("mailer.errors.failed_to_send_email")
	// ErrInvalidConfig reports missing or malformed delivery settings.
	ErrInvalidConfig = errors.New("mailer.errors.invalid_config")
)
