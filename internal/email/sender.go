// Package email sends finalized estimates to clients over SMTP.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"time"

	gomail "gopkg.in/gomail.v2"

	"github.com/fieldquote/estimate-gateway/internal/resilience"
	"github.com/fieldquote/estimate-gateway/internal/store"
)

// Sender delivers an estimate to a recipient. A non-empty pdf is
// attached to the message.
type Sender interface {
	Send(ctx context.Context, to string, est *store.Estimate, profile *store.BusinessProfile, pdf []byte) error
}

// SMTPConfig holds the mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender implements Sender over gomail.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	retry  *resilience.RetryConfig
}

// NewSMTPSender creates a sender against the configured SMTP server.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		retry: &resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: 500 * time.Millisecond,
			MaxBackoff:     5 * time.Second,
			Multiplier:     2.0,
			Jitter:         true,
		},
	}
}

var bodyTemplate = template.Must(template.New("estimate").Parse(`<html>
<body>
<p>Hi{{if .Estimate.ClientName}} {{.Estimate.ClientName}}{{end}},</p>
<p>Here is your estimate{{if .Profile}} from {{.Profile.Name}}{{end}}:</p>
<p>{{.Estimate.Description}}</p>
{{if .Estimate.Items}}<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Item</th><th>Qty</th><th>Price</th><th>Total</th></tr>
{{range .Estimate.Items}}<tr><td>{{.Name}}</td><td>{{printf "%g" .Quantity}}</td><td>${{printf "%.2f" .Price}}</td><td>${{printf "%.2f" .LineTotal}}</td></tr>
{{end}}<tr><td colspan="3"><b>Total</b></td><td><b>${{printf "%.2f" .Estimate.Total}}</b></td></tr>
</table>{{end}}
{{if .Estimate.Notes}}<p>Notes: {{.Estimate.Notes}}</p>{{end}}
{{if .Profile}}<p>{{.Profile.Name}}{{if .Profile.Phone}} &middot; {{.Profile.Phone}}{{end}}{{if .Profile.Email}} &middot; {{.Profile.Email}}{{end}}</p>{{end}}
</body>
</html>
`))

// RenderBody produces the HTML body for an estimate email.
func RenderBody(est *store.Estimate, profile *store.BusinessProfile) (string, error) {
	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, struct {
		Estimate *store.Estimate
		Profile  *store.BusinessProfile
	}{est, profile})
	if err != nil {
		return "", fmt.Errorf("rendering email body: %w", err)
	}
	return buf.String(), nil
}

// Send builds and delivers the estimate email. The ctx is checked
// before dialing; gomail does not support mid-send cancellation.
func (s *SMTPSender) Send(ctx context.Context, to string, est *store.Estimate, profile *store.BusinessProfile, pdf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := RenderBody(est, profile)
	if err != nil {
		return err
	}

	subject := "Your estimate"
	if profile != nil && profile.Name != "" {
		subject = fmt.Sprintf("Your estimate from %s", profile.Name)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if len(pdf) > 0 {
		m.Attach("estimate.pdf", gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(pdf)
			return err
		}))
	}

	err = resilience.Retry(ctx, func() error {
		return s.dialer.DialAndSend(m)
	}, s.retry, resilience.IsRetryableNetworkError)
	if err != nil {
		return fmt.Errorf("sending estimate email: %w", err)
	}
	return nil
}
