package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (m *Mailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.Username)
	msg.SetHeader("Subject", subject)

	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	return dialer.DialAndSend(msg)
}

// CodeBody renders the plain-text verification email.
func CodeBody(code string) string {
	return fmt.Sprintf(
		"Your verification code is %s. This code will expire in 5 minutes. If you didn't request this code, please ignore this email.",
		code,
	)
}
