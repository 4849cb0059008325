package mailer

type Service interface {
	Send(toEmail, toName, subject, text string) error
}
