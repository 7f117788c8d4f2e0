package mailer

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// Mailer hands a one-time code to a delivery channel. A nil error means the
// code was accepted for delivery, not that it arrived.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

// LogMailer is the preview-mode dispatcher: it prints the code instead of
// sending mail. Used whenever SMTP credentials are not configured.
type LogMailer struct{}

func (LogMailer) SendOTP(ctx context.Context, to, code string) error {
	sep := strings.Repeat("=", 50)
	log.Println(sep)
	log.Println("EMAIL PREVIEW MODE")
	log.Printf("To: %s", to)
	log.Println("Subject: RoyaleBank - Your OTP Code")
	log.Printf("OTP Code: %s", code)
	log.Println("Configure SMTP environment variables to send real emails")
	log.Println(sep)
	return nil
}

// SMTPMailer sends the code over plain SMTP with AUTH.
type SMTPMailer struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

func (m *SMTPMailer) SendOTP(ctx context.Context, to, code string) error {
	from := m.From
	if from == "" {
		from = "noreply@royalebank.com"
	}

	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: RoyaleBank - Your OTP Code\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n"+
			"Your OTP code is: %s\r\n\r\nThis code will expire in 10 minutes.\r\n"+
			"If you didn't request this code, please ignore this email.\r\n",
		from, to, code)

	auth := smtp.PlainAuth("", m.User, m.Pass, m.Host)
	addr := m.Host + ":" + m.Port
	if err := smtp.SendMail(addr, auth, from, []string{to}, []byte(body)); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", to, err)
	}
	return nil
}
