package email

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is one outbound email. APIKey, From and FromName override the
// platform defaults when a workspace has its own SendGrid account.
type Message struct {
	To       string
	ToName   string
	Subject  string
	Text     string
	HTML     string
	From     string
	FromName string
	APIKey   string
}

// Service handles email sending
type Service struct {
	fromEmail   string
	fromName    string
	frontendURL string
	sendGridKey string
	useSendGrid bool
}

// NewService creates a new email service.
// Without a SendGrid key, emails are logged to the console (development mode).
func NewService(fromEmail, fromName, frontendURL, sendGridAPIKey string) *Service {
	useSendGrid := sendGridAPIKey != ""
	if useSendGrid {
		log.Printf("✅ Email service initialized with SendGrid")
	} else {
		log.Printf("⚠️  Email service in console-only mode (set SENDGRID_API_KEY for production)")
	}

	return &Service{
		fromEmail:   fromEmail,
		fromName:    fromName,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		sendGridKey: sendGridAPIKey,
		useSendGrid: useSendGrid,
	}
}

// Send delivers msg and returns the provider message id ("" in console mode)
func (s *Service) Send(ctx context.Context, msg Message) (string, error) {
	if strings.TrimSpace(msg.To) == "" {
		return "", fmt.Errorf("email recipient is empty")
	}
	if msg.From == "" {
		msg.From = s.fromEmail
	}
	if msg.FromName == "" {
		msg.FromName = s.fromName
	}
	if msg.HTML == "" {
		msg.HTML = textToHTML(msg.Text)
	}

	key := msg.APIKey
	if key == "" {
		key = s.sendGridKey
	}
	if key == "" {
		return "", s.logEmailToConsole(msg)
	}
	return s.sendViaSendGrid(ctx, key, msg)
}

// SendTeamInvite tells someone they were added to a workspace
func (s *Service) SendTeamInvite(ctx context.Context, toEmail, inviterName, companyName, role string) error {
	if companyName == "" {
		companyName = "Levrix"
	}
	acceptURL := s.frontendURL + "/login"
	subject := fmt.Sprintf("You've been invited to %s on Levrix", companyName)

	text := fmt.Sprintf(`Hi,

%s invited you to join %s on Levrix as %s.

Sign in to get started:
%s

Thanks,
The Levrix Team`, inviterName, companyName, role, acceptURL)

	_, err := s.Send(ctx, Message{To: toEmail, Subject: subject, Text: text})
	return err
}

// SendTaskReminder reminds the account owner of a follow-up that is due
func (s *Service) SendTaskReminder(ctx context.Context, toEmail, leadName, task string, due time.Time) error {
	if task == "" {
		task = "Follow-up"
	}
	subject := fmt.Sprintf("Follow-up due: %s", leadName)
	text := fmt.Sprintf(`Reminder: "%s" for %s was due %s.

Open your pipeline: %s/follow-up`, task, leadName, due.Format("Jan 2, 3:04 PM MST"), s.frontendURL)

	_, err := s.Send(ctx, Message{To: toEmail, Subject: subject, Text: text})
	return err
}

// SendWelcomeEmail greets a new account
func (s *Service) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if toName == "" {
		toName = "there"
	}
	text := fmt.Sprintf(`Hi %s,

Welcome to Levrix. Connect your channels in Settings and start working your pipeline:
%s

The Levrix Team`, toName, s.frontendURL)

	_, err := s.Send(ctx, Message{To: toEmail, ToName: toName, Subject: "Welcome to Levrix", Text: text})
	return err
}

func (s *Service) sendViaSendGrid(ctx context.Context, key string, msg Message) (string, error) {
	from := mail.NewEmail(msg.FromName, msg.From)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	client := sendgrid.NewSendClient(key)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		log.Printf("❌ SendGrid error: %v", err)
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		log.Printf("❌ SendGrid returned error status %d: %s", response.StatusCode, response.Body)
		return "", fmt.Errorf("sendgrid returned error status: %d", response.StatusCode)
	}

	var id string
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		id = ids[0]
	}
	log.Printf("✅ Email sent to %s (SendGrid status: %d)", msg.To, response.StatusCode)
	return id, nil
}

// logEmailToConsole logs email details to console (development mode)
func (s *Service) logEmailToConsole(msg Message) error {
	log.Printf("📧 [EMAIL] %s", msg.Subject)
	log.Printf("   To: %s <%s>", msg.ToName, msg.To)
	log.Printf("   From: %s <%s>", msg.FromName, msg.From)
	log.Printf("   ⚠️  Email NOT sent (development mode)")
	return nil
}

func textToHTML(text string) string {
	escaped := html.EscapeString(text)
	return "<html><body><p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p></body></html>"
}
