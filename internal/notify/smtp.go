package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strings"
)

// SMTPGateway delivers messages over SMTP with implicit TLS (port 465), the
// transport the association's mail provider expects.
type SMTPGateway struct {
	host     string
	addr     string
	username string
	password string
	from     string
	logger   *slog.Logger
}

// NewSMTPGateway creates a Gateway delivering through the given SMTP server.
func NewSMTPGateway(host string, port int, username, password, from string, logger *slog.Logger) *SMTPGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPGateway{
		host:     host,
		addr:     fmt.Sprintf("%s:%d", host, port),
		username: username,
		password: password,
		from:     from,
		logger:   logger.With(slog.String("component", "smtp_gateway")),
	}
}

// Ensure SMTPGateway implements the Gateway interface
var _ Gateway = (*SMTPGateway)(nil)

// Send implements Gateway.Send. The context bounds connection establishment;
// callers are expected to pass a context with a short deadline.
func (g *SMTPGateway) Send(ctx context.Context, msg Message) error {
	dialer := &net.Dialer{}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	conn, err := dialer.DialContext(ctx, "tcp", g.addr)
	if err != nil {
		return fmt.Errorf("failed to dial SMTP server: %w", err)
	}

	tlsConn := tls.Client(conn, &tls.Config{ServerName: g.host})
	client, err := smtp.NewClient(tlsConn, g.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if g.username != "" {
		auth := smtp.PlainAuth("", g.username, g.password, g.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(g.from); err != nil {
		return fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("RCPT TO rejected: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA rejected: %w", err)
	}
	if _, err := w.Write(buildMIME(g.from, msg)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message body: %w", err)
	}

	return client.Quit()
}

// buildMIME renders a multipart/alternative message with text and HTML parts.
// Subjects carry non-ASCII (Serbian/Swedish), so they are Q-encoded.
func buildMIME(from string, msg Message) []byte {
	const boundary = "eventd-alt-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.TextBody)
	b.WriteString("\r\n")

	if msg.HTMLBody != "" {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		b.WriteString(msg.HTMLBody)
		b.WriteString("\r\n")
	}

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
