package notifier

import (
	"bytes"
	"fmt"
	"html"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"

	"github.com/aleister1102/unitwatch/internal/common/errorwrapper"
	"github.com/google/uuid"
)

const emailTemplate = `<html>
  <head></head>
  <body>
    <div style="font-family: Arial, sans-serif; padding: 20px;">
      <h2 style="color: #2c3e50;">%s</h2>
      <div style="margin-top: 20px;">
        %s
      </div>
    </div>
  </body>
</html>
`

// renderEmailHTML wraps the body in the mail envelope. The body is already markup.
func renderEmailHTML(msg Message) string {
	body := strings.ReplaceAll(msg.Body, "<br>", "<br/>")
	return fmt.Sprintf(emailTemplate, html.EscapeString(msg.Title), body)
}

// buildMIMEMessage renders a multipart/alternative message with one HTML part.
func buildMIMEMessage(from, to, subject, htmlBody string, date time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"Date: " + date.Format(time.RFC1123Z),
		"Message-ID: <" + uuid.NewString() + "@unitwatch>",
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=" + mw.Boundary(),
	}
	var out bytes.Buffer
	out.WriteString(strings.Join(headers, "\r\n"))
	out.WriteString("\r\n\r\n")

	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/html; charset=\"utf-8\""},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to create HTML part")
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(htmlBody)); err != nil {
		return nil, errorwrapper.WrapError(err, "failed to encode HTML part")
	}
	if err := qp.Close(); err != nil {
		return nil, errorwrapper.WrapError(err, "failed to encode HTML part")
	}
	if err := mw.Close(); err != nil {
		return nil, errorwrapper.WrapError(err, "failed to finish message")
	}

	out.Write(buf.Bytes())
	return out.Bytes(), nil
}
