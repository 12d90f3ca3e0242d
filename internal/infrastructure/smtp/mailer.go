package smtp

import (
	"bytes"
	"crypto/tls"
	"fmt"
	htmltemplate "html/template"
	"net/smtp"
	"strings"
	texttemplate "text/template"

	"github.com/waitlist-api/internal/config"
)

// Mailer sends the waitlist's transactional emails.
type Mailer interface {
	// TestConnection dials the SMTP server and verifies it will accept our
	// credentials, without sending anything. Used at startup and by the
	// health endpoint.
	TestConnection() error
	// SendWelcome delivers the templated welcome message to a new signup.
	SendWelcome(to string) error
	// SendAdminNotification tells the configured admin address about a new
	// signup. Callers treat failure as best-effort.
	SendAdminNotification(signupEmail string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
	notifyTo string
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		notifyTo: cfg.AdminNotifyEmail,
	}
}

func (m *mailer) addr() string {
	return fmt.Sprintf("%s:%s", m.host, m.port)
}

func (m *mailer) auth() smtp.Auth {
	if m.username == "" {
		return nil
	}
	return smtp.PlainAuth("", m.username, m.password, m.host)
}

func (m *mailer) TestConnection() error {
	client, err := smtp.Dial(m.addr())
	if err != nil {
		return fmt.Errorf("dial smtp server: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return fmt.Errorf("starttls negotiation: %w", err)
		}
	}
	if auth := m.auth(); auth != nil {
		if ok, _ := client.Extension("AUTH"); !ok {
			return fmt.Errorf("smtp server does not support authentication")
		}
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	return client.Quit()
}

func (m *mailer) SendWelcome(to string) error {
	data := struct{ Email string }{Email: to}

	var textBody bytes.Buffer
	if err := welcomeText.Execute(&textBody, data); err != nil {
		return fmt.Errorf("render welcome text: %w", err)
	}
	var htmlBody bytes.Buffer
	if err := welcomeHTML.Execute(&htmlBody, data); err != nil {
		return fmt.Errorf("render welcome html: %w", err)
	}

	msg := buildAlternative(m.from, to, "You're on the waitlist!", textBody.String(), htmlBody.String())
	return smtp.SendMail(m.addr(), m.auth(), m.from, []string{to}, msg)
}

func (m *mailer) SendAdminNotification(signupEmail string) error {
	if m.notifyTo == "" {
		return nil
	}
	body := fmt.Sprintf("New waitlist signup: %s", signupEmail)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.from, m.notifyTo, "New waitlist signup", body)
	return smtp.SendMail(m.addr(), m.auth(), m.from, []string{m.notifyTo}, []byte(msg))
}

// buildAlternative assembles a multipart/alternative MIME message with
// plaintext and HTML parts.
func buildAlternative(from, to, subject, textBody, htmlBody string) []byte {
	const boundary = "waitlist-boundary-1"
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(textBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

var welcomeText = texttemplate.Must(texttemplate.New("welcome_text").Parse(`Hey there!

Thanks for joining the waitlist with {{.Email}}. You're in!

We'll email you as soon as your spot opens up. No action needed until then.

If you didn't sign up, you can safely ignore this message or unsubscribe at any time.
`))

var welcomeHTML = htmltemplate.Must(htmltemplate.New("welcome_html").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: sans-serif; color: #222; max-width: 560px; margin: 0 auto;">
    <h2>You're on the list!</h2>
    <p>Thanks for joining the waitlist with <strong>{{.Email}}</strong>.</p>
    <p>We'll email you as soon as your spot opens up. No action needed until then.</p>
    <p style="color: #888; font-size: 12px;">
      If you didn't sign up, you can safely ignore this message or unsubscribe at any time.
    </p>
  </body>
</html>
`))
