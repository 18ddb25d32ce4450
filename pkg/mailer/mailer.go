// Package mailer sends signup verification codes. Delivery transport is
// an external collaborator; the interface keeps it swappable.
package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog/log"
)

type Sender interface {
	SendOTP(email, name, code string) error
}

// LogSender writes the code to the log instead of sending mail.
// Development only.
type LogSender struct{}

func (LogSender) SendOTP(email, name, code string) error {
	log.Info().Str("email", email).Str("code", code).Msg("otp issued (log sender)")
	return nil
}

// SMTPSender delivers codes through a plain SMTP relay.
type SMTPSender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (s SMTPSender) SendOTP(email, name, code string) error {
	body := fmt.Sprintf(
		"To: %s\r\nSubject: Your verification code\r\n\r\nHi %s,\r\n\r\nYour verification code is %s. It expires in 5 minutes.\r\n",
		email, name, code,
	)
	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	addr := s.Host + ":" + s.Port
	if err := smtp.SendMail(addr, auth, s.From, []string{email}, []byte(body)); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}
