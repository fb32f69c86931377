package mailer

import (
	"strings"
	"testing"

	"github.com/dkravtsov/offerhub/internal/queue"
)

func TestRenderTemplates(t *testing.T) {
	m := New("", "465", "noreply@example.com", "", "https://app.example.com")

	tests := []struct {
		name        string
		template    string
		wantSubject string
		wantLink    string
	}{
		{"verify", queue.TemplateVerifyEmail, "Confirm your account", "/verify_user?token=tok-1"},
		{"password update", queue.TemplatePasswordUpdate, "Password change requested", "/password_refresh?token=tok-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body, err := m.render(queue.EmailTask{
				Template:  tt.template,
				Recipient: "user@example.com",
				Token:     "tok-1",
			})
			if err != nil {
				t.Fatalf("render() error = %v", err)
			}
			if subject != tt.wantSubject {
				t.Errorf("subject = %q, want %q", subject, tt.wantSubject)
			}
			if !strings.Contains(body, "https://app.example.com"+tt.wantLink) {
				t.Errorf("body missing link %q:\n%s", tt.wantLink, body)
			}
			if !strings.Contains(body, "user@example.com") {
				t.Error("body does not address the recipient")
			}
		})
	}
}

func TestSendUnknownTemplate(t *testing.T) {
	m := New("", "465", "noreply@example.com", "", "https://app.example.com")
	if err := m.Send(queue.EmailTask{Template: "bogus", Recipient: "user@example.com"}); err == nil {
		t.Error("Send() with unknown template should fail")
	}
}

func TestSendDisabledSMTP(t *testing.T) {
	m := New("", "465", "noreply@example.com", "", "https://app.example.com")
	if err := m.Send(queue.EmailTask{Template: queue.TemplateVerifyEmail, Recipient: "user@example.com"}); err != nil {
		t.Errorf("Send() with disabled smtp error = %v, want nil", err)
	}
}
