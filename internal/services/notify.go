package services

import (
	"fmt"
	"log"
	"mime"
	"net/smtp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"leadcapture/internal/config"
	"leadcapture/internal/domain"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// plainText strips any markup from user supplied text before it is
// embedded in an HTML mail body.
func plainText(raw string) string {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(textPolicy.Sanitize(raw))
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// singleLine folds user supplied text onto one line so it cannot start a
// new mail header or break the text layout.
func singleLine(raw string) string {
	return strings.TrimSpace(lineBreaks.Replace(raw))
}

// SendMailFunc matches net/smtp.SendMail
type SendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// NotificationService emails the sales team about accepted leads
type NotificationService struct {
	cfg      *config.EmailConfig
	to       string
	sendMail SendMailFunc
}

// NewNotificationService creates a new notification service sending to the given address
func NewNotificationService(cfg *config.EmailConfig, to string) *NotificationService {
	return &NotificationService{cfg: cfg, to: to, sendMail: smtp.SendMail}
}

// IsEnabled returns whether email delivery is enabled and has a recipient
func (s *NotificationService) IsEnabled() bool {
	return s.cfg.Enabled && s.to != ""
}

// NotifyNewLead sends the new-lead email for an accepted lead
func (s *NotificationService) NotifyNewLead(lead *domain.CRMLead) error {
	if !s.IsEnabled() {
		log.Printf("[NOTIFY] New lead %s from %s (%s), assigned to %s",
			lead.LeadID, lead.FullName(), lead.Fields.String("email"), lead.AssignedTo)
		return nil
	}

	subject := fmt.Sprintf("New lead %s from %s", lead.LeadID, singleLine(lead.FullName()))
	htmlBody, textBody := renderLeadEmail(lead)
	return s.SendHTMLEmail(s.to, subject, htmlBody, textBody)
}

// renderLeadEmail returns the HTML and plain text bodies. Only the HTML
// part carries sanitized values; the text part shows what was submitted.
func renderLeadEmail(lead *domain.CRMLead) (string, string) {
	rawName := lead.FullName()
	rawEmail := lead.Fields.String("email")
	rawPhone := lead.Fields.String("phone")
	rawCompany := lead.Fields.String("company")
	rawMessage := lead.Fields.String("message")

	name := plainText(rawName)
	email := plainText(rawEmail)
	phone := plainText(rawPhone)
	company := plainText(rawCompany)
	message := plainText(rawMessage)
	submitted := lead.CreatedAt.Format("January 2, 2006 at 3:04 PM")

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>New Lead</title>
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #334155;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #1C5D99;">New Lead %s</h2>
        <div style="background: #F8FAFC; padding: 20px; border-radius: 8px; margin: 20px 0;">
            <p><strong>Name:</strong> %s</p>
            <p><strong>Email:</strong> <a href="mailto:%s">%s</a></p>
            <p><strong>Phone:</strong> %s</p>
            <p><strong>Company:</strong> %s</p>
            <p><strong>Assigned to:</strong> %s (priority %s)</p>
            <p><strong>Submitted:</strong> %s</p>
        </div>
        <div style="background: #FFFFFF; padding: 20px; border-left: 4px solid #1C5D99; border-radius: 4px;">
            <h3 style="margin-top: 0;">Message:</h3>
            <p style="white-space: pre-wrap;">%s</p>
        </div>
    </div>
</body>
</html>`, lead.LeadID, name, email, email, phone, company, lead.AssignedTo, lead.Priority, submitted, message)

	textBody := fmt.Sprintf(`New Lead %s

Name: %s
Email: %s
Phone: %s
Company: %s
Assigned to: %s (priority %s)
Submitted: %s

Message:
%s`, lead.LeadID, singleLine(rawName), singleLine(rawEmail), singleLine(rawPhone), singleLine(rawCompany),
		lead.AssignedTo, lead.Priority, submitted, strings.TrimSpace(rawMessage))

	return htmlBody, textBody
}

// SendHTMLEmail sends an HTML email with plain text fallback
func (s *NotificationService) SendHTMLEmail(to, subject, htmlBody, textBody string) error {
	if s.cfg.SMTPHost == "" || s.cfg.Username == "" || s.cfg.Password == "" {
		return fmt.Errorf("email service not properly configured")
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)

	to = singleLine(to)
	fromEmail := singleLine(s.cfg.FromEmail)
	from := fromEmail
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", singleLine(s.cfg.FromName)), fromEmail)
	}

	boundary := "----=_LeadPart_7f3a9c"

	headers := fmt.Sprintf("From: %s\r\n", from) +
		fmt.Sprintf("To: %s\r\n", to) +
		fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", singleLine(subject))) +
		"MIME-Version: 1.0\r\n" +
		fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary) +
		"\r\n"

	message := headers +
		fmt.Sprintf("--%s\r\n", boundary) +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		textBody + "\r\n"

	if htmlBody != "" {
		message += fmt.Sprintf("--%s\r\n", boundary) +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"\r\n" +
			htmlBody + "\r\n"
	}

	message += fmt.Sprintf("--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	if err := s.sendMail(addr, auth, fromEmail, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
