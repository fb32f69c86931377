// Package mailer renders and sends the transactional emails of the
// service. Delivery always happens from the queue consumer, never from
// a request handler.
package mailer

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/dkravtsov/offerhub/internal/queue"
)

// Mailer sends templated emails over SMTP. With an empty host it runs
// in disabled mode: every send is logged and dropped, which keeps dev
// environments working without a mail server.
type Mailer struct {
	host     string
	port     string
	from     string
	password string
	origin   string
}

func New(host, port, from, password, origin string) *Mailer {
	return &Mailer{host: host, port: port, from: from, password: password, origin: origin}
}

// Send renders the task's template and delivers it. Unknown templates
// are an error so the consumer can reject the message.
func (m *Mailer) Send(task queue.EmailTask) error {
	subject, body, err := m.render(task)
	if err != nil {
		return err
	}
	if m.host == "" {
		log.Printf("mailer: smtp disabled, dropping %q mail to %s", task.Template, task.Recipient)
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s",
		m.from, task.Recipient, subject, body)

	auth := smtp.PlainAuth("", m.from, m.password, m.host)
	return smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{task.Recipient}, []byte(msg))
}

func (m *Mailer) render(task queue.EmailTask) (subject, body string, err error) {
	switch task.Template {
	case queue.TemplateVerifyEmail:
		return "Confirm your account", verifyEmailBody(task.Recipient, m.origin, task.Token), nil
	case queue.TemplatePasswordUpdate:
		return "Password change requested", passwordUpdateBody(task.Recipient, m.origin, task.Token), nil
	}
	return "", "", fmt.Errorf("unknown email template %q", task.Template)
}

func verifyEmailBody(email, origin, token string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"></head>
<body>
    <h1>Hello, %s</h1>
    <h2>To verify your account, follow <a href="%s/verify_user?token=%s">this link</a></h2>
</body>
</html>`, email, origin, token)
}

func passwordUpdateBody(email, origin, token string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"></head>
<body>
    <h1>Hello, %s</h1>
    <h2>To change your password, follow <a href="%s/password_refresh?token=%s">this link</a></h2>
</body>
</html>`, email, origin, token)
}
