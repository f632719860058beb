package notifx_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/notifx"
)

type captureProvider struct {
	sent []notifx.EmailMessage
	err  error
}

func (p *captureProvider) SendEmail(ctx context.Context, msg notifx.EmailMessage) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, msg)
	return nil
}

func validMessage() notifx.EmailMessage {
	return notifx.EmailMessage{
		From:    "noreply@konnected.io",
		To:      []string{"new@acme.io"},
		Subject: "You're invited to join Acme Inc",
	}
}

func TestSendEmail_RejectsEmptyRecipients(t *testing.T) {
	client, err := notifx.NewClient(&captureProvider{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	msg := validMessage()
	msg.To = nil
	if err := client.SendEmail(context.Background(), msg); err == nil {
		t.Fatal("expected error for missing recipients")
	}
}

func TestSendEmail_RejectsEmptySubject(t *testing.T) {
	client, err := notifx.NewClient(&captureProvider{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	msg := validMessage()
	msg.Subject = ""
	if err := client.SendEmail(context.Background(), msg); err == nil {
		t.Fatal("expected error for empty subject")
	}
}

func TestSendEmail_PropagatesProviderError(t *testing.T) {
	boom := errors.New("ses unavailable")
	client, err := notifx.NewClient(&captureProvider{err: boom})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := client.SendEmail(context.Background(), validMessage()); !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestSendTemplatedEmail_RendersInviteTemplate(t *testing.T) {
	provider := &captureProvider{}
	client, err := notifx.NewClient(provider)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.SendTemplatedEmail(context.Background(), notifx.TemplateInviteUser,
		notifx.InviteUserData{
			Name:      "Ada",
			OrgName:   "Acme Inc",
			InviteURL: "https://app.example.com/invitations/accept?token=abc",
		}, validMessage())
	if err != nil {
		t.Fatalf("send templated: %v", err)
	}

	if len(provider.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(provider.sent))
	}
	body := provider.sent[0].HTMLBody
	for _, want := range []string{"Acme Inc", "Hi Ada", "https://app.example.com/invitations/accept?token=abc"} {
		if !strings.Contains(body, want) {
			t.Errorf("rendered body missing %q", want)
		}
	}
}

// Template data is HTML-escaped, so a hostile organization name cannot
// inject markup into the invite email.
func TestSendTemplatedEmail_EscapesData(t *testing.T) {
	provider := &captureProvider{}
	client, err := notifx.NewClient(provider)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.SendTemplatedEmail(context.Background(), notifx.TemplateInviteUser,
		notifx.InviteUserData{OrgName: "<script>alert(1)</script>"}, validMessage())
	if err != nil {
		t.Fatalf("send templated: %v", err)
	}

	if strings.Contains(provider.sent[0].HTMLBody, "<script>") {
		t.Fatal("template data not escaped")
	}
}

func TestSendTemplatedEmail_UnknownTemplate(t *testing.T) {
	client, err := notifx.NewClient(&captureProvider{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.SendTemplatedEmail(context.Background(), "no-such-template", nil, validMessage())
	if err == nil {
		t.Fatal("expected error for unknown template")
	}
	var coded *errx.Error
	if !errx.As(err, &coded) {
		t.Fatalf("expected coded error, got %v", err)
	}
}

func TestRegisterTemplate_InvalidSyntax(t *testing.T) {
	client, err := notifx.NewClient(&captureProvider{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := client.RegisterTemplate("broken", "{{.Unclosed"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRegisterTemplate_CustomTemplate(t *testing.T) {
	provider := &captureProvider{}
	client, err := notifx.NewClient(provider)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := client.RegisterTemplate("welcome", "<p>Welcome {{.Name}}</p>"); err != nil {
		t.Fatalf("register: %v", err)
	}
	err = client.SendTemplatedEmail(context.Background(), "welcome",
		struct{ Name string }{Name: "Ada"}, validMessage())
	if err != nil {
		t.Fatalf("send templated: %v", err)
	}
	if got := provider.sent[0].HTMLBody; got != "<p>Welcome Ada</p>" {
		t.Fatalf("unexpected body %q", got)
	}
}
