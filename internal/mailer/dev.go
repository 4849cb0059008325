package mailer

import "github.com/felixfuego/AppPark-sub000/pkg/logger"

// Dev prints emails to the log instead of sending them.
type Dev struct{}

func (Dev) Send(toEmail, toName, subject, text string) error {
	logger.Info("DEV MAIL",
		"to", toEmail,
		"name", toName,
		"subject", subject,
		"body", text,
	)
	return nil
}

var _ Service = Dev{}
