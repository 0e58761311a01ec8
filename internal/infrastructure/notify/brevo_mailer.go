package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/thrylos/backend/internal/application/assignment"
	"github.com/thrylos/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

var assignmentMailTemplate = template.Must(template.New("assignment").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#ffffff;font-family:Arial,Helvetica,sans-serif;">
<table width="100%" cellpadding="0" cellspacing="0">
<tr><td align="center" style="padding:30px 10px;">
<table width="600" cellpadding="0" cellspacing="0" style="max-width:600px;width:100%;border:1px solid #d1d5db;border-radius:12px;">
<tr><td align="center" style="padding:30px 20px 10px 20px;">
<h1 style="font-size:28px;margin:0;font-weight:800;">Hello {{.ManagerName}},</h1>
</td></tr>
<tr><td align="center">
<table width="90%" cellpadding="0" cellspacing="0" style="background:#f5f5f5;border-radius:16px;padding:20px;">
<tr><td style="font-size:18px;font-weight:bold;padding:20px 20px 12px 20px;">New Client Project Assigned</td></tr>
<tr><td style="font-size:14px;color:#555;padding:10px 20px 0 20px;">Client Name</td></tr>
<tr><td style="font-size:16px;font-weight:bold;padding:2px 20px 0 20px;">{{.ClientName}}</td></tr>
<tr><td style="font-size:14px;color:#555;padding:15px 20px 0 20px;">Project Title</td></tr>
<tr><td style="font-size:16px;font-weight:bold;padding:2px 20px 0 20px;">{{.ProjectName}}</td></tr>
<tr><td style="font-size:14px;color:#555;padding:15px 20px 0 20px;">Contact Number</td></tr>
<tr><td style="font-size:16px;font-weight:bold;color:#e11d48;padding:2px 20px 20px 20px;">{{.ClientPhone}}</td></tr>
</table>
</td></tr>
<tr><td align="center" style="padding:30px 40px 30px 40px;font-size:16px;color:#444;">
Please review the project details and initiate planning, resource allocation, and execution at the earliest.
</td></tr>
</table>
</td></tr>
</table>
</body>
</html>`))

// BrevoMailer delivers assignment notifications through the Brevo
// transactional email API.
type BrevoMailer struct {
	apiKey      string
	senderName  string
	senderEmail string
	endpoint    string
	httpClient  *http.Client
	logger      *zap.Logger
}

var _ assignment.Notifier = (*BrevoMailer)(nil)

// BrevoMailerOption configures a BrevoMailer.
type BrevoMailerOption func(*BrevoMailer)

// WithEndpoint overrides the API endpoint, used by tests.
func WithEndpoint(endpoint string) BrevoMailerOption {
	return func(m *BrevoMailer) {
		m.endpoint = endpoint
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) BrevoMailerOption {
	return func(m *BrevoMailer) {
		m.httpClient = client
	}
}

func NewBrevoMailer(cfg config.MailConfig, logger *zap.Logger, opts ...BrevoMailerOption) *BrevoMailer {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	m := &BrevoMailer{
		apiKey:      cfg.APIKey,
		senderName:  cfg.SenderName,
		senderEmail: cfg.SenderEmail,
		endpoint:    brevoEndpoint,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type brevoRecipient struct {
	Email string `json:"email"`
}

type brevoSender struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type brevoPayload struct {
	Sender      brevoSender      `json:"sender"`
	To          []brevoRecipient `json:"to"`
	Subject     string           `json:"subject"`
	HTMLContent string           `json:"htmlContent"`
}

// NotifyAssignment sends the assignment email to the project manager.
func (m *BrevoMailer) NotifyAssignment(ctx context.Context, n assignment.AssignmentNotification) error {
	if n.ManagerEmail == "" || n.ProjectName == "" {
		return fmt.Errorf("manager email and project name are required")
	}

	view := n
	if view.ClientName == "" {
		view.ClientName = "N/A"
	}
	if view.ClientPhone == "" {
		view.ClientPhone = "N/A"
	}

	var body bytes.Buffer
	if err := assignmentMailTemplate.Execute(&body, view); err != nil {
		return fmt.Errorf("failed to render assignment mail: %w", err)
	}

	payload := brevoPayload{
		Sender:      brevoSender{Name: m.senderName, Email: m.senderEmail},
		To:          []brevoRecipient{{Email: n.ManagerEmail}},
		Subject:     fmt.Sprintf("New Project Assigned: %s", n.ProjectName),
		HTMLContent: body.String(),
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	req.Header.Set("api-key", m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send assignment mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mail API returned status %d: %s", resp.StatusCode, string(detail))
	}

	m.logger.Info("assignment notification sent",
		zap.String("manager_email", n.ManagerEmail),
		zap.String("project", n.ProjectName),
	)
	return nil
}

// NoopNotifier satisfies assignment.Notifier when mail delivery is disabled.
type NoopNotifier struct {
	logger *zap.Logger
}

var _ assignment.Notifier = (*NoopNotifier)(nil)

func NewNoopNotifier(logger *zap.Logger) *NoopNotifier {
	return &NoopNotifier{logger: logger}
}

func (n *NoopNotifier) NotifyAssignment(ctx context.Context, notification assignment.AssignmentNotification) error {
	n.logger.Debug("mail disabled, skipping assignment notification",
		zap.String("manager_email", notification.ManagerEmail),
	)
	return nil
}
