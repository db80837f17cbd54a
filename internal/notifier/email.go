package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/aleister1102/unitwatch/internal/common/errorwrapper"
	"github.com/aleister1102/unitwatch/internal/config"
	"github.com/rs/zerolog"
)

// implicitTLSPort is the SMTPS port; every other port upgrades with STARTTLS.
const implicitTLSPort = 465

// smtpClient is the subset of *smtp.Client used per session.
type smtpClient interface {
	Extension(ext string) (bool, string)
	StartTLS(config *tls.Config) error
	Auth(a smtp.Auth) error
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Reset() error
	Quit() error
	Close() error
}

// smtpDialer opens an SMTP session to addr. implicitTLS wraps the connection in TLS first.
type smtpDialer func(ctx context.Context, addr, host string, implicitTLS bool) (smtpClient, error)

// EmailChannel sends one HTML message per recipient over a single SMTP session.
type EmailChannel struct {
	cfg    config.EmailConfig
	dial   smtpDialer
	now    func() time.Time
	logger zerolog.Logger
}

// NewEmailChannel creates an email channel for cfg.
func NewEmailChannel(cfg config.EmailConfig, logger zerolog.Logger) *EmailChannel {
	return &EmailChannel{
		cfg:    cfg,
		dial:   dialSMTP,
		now:    time.Now,
		logger: logger.With().Str("component", "EmailChannel").Logger(),
	}
}

// Name returns "email".
func (e *EmailChannel) Name() string {
	return "email"
}

// Enabled reports whether recipients, sender, server, port and password are set.
func (e *EmailChannel) Enabled() bool {
	return e.cfg.Enabled()
}

// Recipients returns the configured recipient list.
func (e *EmailChannel) Recipients() []string {
	return e.cfg.To
}

// Send delivers msg to every recipient. It fails unless every recipient was accepted;
// all recipients are attempted and their failures are combined.
func (e *EmailChannel) Send(ctx context.Context, msg Message) error {
	host := e.cfg.SMTPServer
	addr := net.JoinHostPort(host, strconv.Itoa(e.cfg.SMTPPort))
	implicitTLS := e.cfg.SMTPPort == implicitTLSPort

	client, err := e.dial(ctx, addr, host, implicitTLS)
	if err != nil {
		return errorwrapper.NewNetworkError(addr, "failed to connect to SMTP server", err)
	}
	defer client.Close()

	if !implicitTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return errorwrapper.NewError("SMTP server %s does not support STARTTLS", addr)
		}
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return errorwrapper.WrapError(err, "STARTTLS failed")
		}
	}

	if err := client.Auth(smtp.PlainAuth("", e.cfg.Username(), e.cfg.SMTPPassword, host)); err != nil {
		return errorwrapper.WrapError(err, "SMTP authentication failed")
	}

	html := renderEmailHTML(msg)
	var collector errorwrapper.ErrorCollector
	delivered := 0
	for _, recipient := range e.cfg.To {
		if err := ctx.Err(); err != nil {
			collector.AddWithContext(err, "recipient "+recipient)
			continue
		}
		if err := e.sendOne(client, recipient, msg.Title, html); err != nil {
			collector.AddWithContext(err, "recipient "+recipient)
			if rerr := client.Reset(); rerr != nil {
				e.logger.Debug().Err(rerr).Msg("SMTP reset failed")
			}
			continue
		}
		delivered++
	}

	if err := client.Quit(); err != nil {
		e.logger.Debug().Err(err).Msg("SMTP quit failed")
	}

	e.logger.Debug().Int("delivered", delivered).Int("recipients", len(e.cfg.To)).Msg("Email session finished")
	if collector.HasErrors() {
		return errorwrapper.WrapErrorf(collector.Error(), "email delivered to %d of %d recipients", delivered, len(e.cfg.To))
	}
	return nil
}

func (e *EmailChannel) sendOne(client smtpClient, recipient, subject, html string) error {
	if err := client.Mail(e.cfg.From); err != nil {
		return errorwrapper.WrapError(err, "MAIL FROM rejected")
	}
	if err := client.Rcpt(recipient); err != nil {
		return errorwrapper.WrapError(err, "RCPT TO rejected")
	}
	w, err := client.Data()
	if err != nil {
		return errorwrapper.WrapError(err, "DATA rejected")
	}
	raw, err := buildMIMEMessage(e.cfg.From, recipient, subject, html, e.now())
	if err != nil {
		_ = w.Close()
		return err
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return errorwrapper.WrapError(err, "failed to write message")
	}
	if err := w.Close(); err != nil {
		return errorwrapper.WrapError(err, "message not accepted")
	}
	return nil
}

// dialSMTP connects with a deadline taken from ctx.
func dialSMTP(ctx context.Context, addr, host string, implicitTLS bool) (smtpClient, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if implicitTLS {
		tlsConn := tls.Client(conn, &tls.Config{ServerName: host})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("TLS handshake: %w", err)
		}
		conn = tlsConn
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return client, nil
}
