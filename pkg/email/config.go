package email

// Config holds email delivery settings. The Postmark tokens stay optional so
// development environments can run with the DevSender instead. SenderEmail and
// SupportEmail are required because they establish the sender identity and
// reply-to behavior for every outbound message.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL,required"`
}
