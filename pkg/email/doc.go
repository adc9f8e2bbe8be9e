// Package email sends transactional mail through a provider-agnostic
// EmailSender interface, with Postmark for production delivery and a
// file-writing DevSender for local development.
//
// Production setup goes through Config, usually populated from the
// environment:
//
//	var cfg email.Config
//	// POSTMARK_SERVER_TOKEN, POSTMARK_ACCOUNT_TOKEN,
//	// SENDER_EMAIL, SUPPORT_EMAIL
//	sender, err := email.NewPostmarkClient(cfg)
//
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "owner@printshop.example",
//	    Subject:  "Your trial ends soon",
//	    BodyHTML: body,
//	    Tag:      "trial-ending", // optional, for delivery analytics
//	})
//
// Every implementation validates params before contacting a provider, so a
// bad address fails locally with ErrInvalidParams. Delivery failures wrap
// ErrFailedToSendEmail and misconfiguration wraps ErrInvalidConfig; all
// three are comparable with errors.Is.
//
// In development, NewDevSender drops each message into a directory as an
// HTML file plus a JSON metadata sidecar instead of sending anything.
package email
