package email

// Config holds Postmark credentials and sender addresses.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"notifications@infernobank.example"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@infernobank.example"`
	MessageStream        string `env:"POSTMARK_MESSAGE_STREAM" envDefault:"outbound"`
	DevOutputDir         string `env:"MAIL_DEV_DIR" envDefault:"./tmp/mail"`
}
