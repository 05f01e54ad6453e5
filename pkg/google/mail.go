package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/gcp"
)

// Attachment is an in-memory file attached to an outbound message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a plain-text email with optional attachments.
type Message struct {
	From        string
	To          []string
	ReplyTo     string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Mailer sends outbound email.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

type gmailMailer struct {
	svc    *gmail.Service
	sender string
}

// NewGmailMailer sends as the configured sender through the Gmail API. The
// credentials must be allowed to send on that mailbox's behalf.
func NewGmailMailer(ctx context.Context, google config.GoogleConfig, cloud config.GCPConfig) (Mailer, error) {
	sender := strings.TrimSpace(google.MailSender)
	if sender == "" {
		return nil, errors.New("mail sender is required")
	}
	opts := append(gcp.WorkspaceOptions(google, cloud), option.WithScopes(gmail.GmailSendScope))
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}
	return &gmailMailer{svc: svc, sender: sender}, nil
}

func (m *gmailMailer) Send(ctx context.Context, msg Message) (string, error) {
	if msg.From == "" {
		msg.From = m.sender
	}
	raw, err := BuildMIME(msg, time.Now())
	if err != nil {
		return "", err
	}
	sent, err := m.svc.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail send: %w", err)
	}
	return sent.Id, nil
}

// BuildMIME renders msg as an RFC 5322 message. Messages without
// attachments are sent as a single text part.
func BuildMIME(msg Message, now time.Time) ([]byte, error) {
	if len(msg.To) == 0 {
		return nil, errors.New("at least one recipient is required")
	}
	if strings.TrimSpace(msg.From) == "" {
		return nil, errors.New("sender is required")
	}

	var buf bytes.Buffer
	writeHeader(&buf, "From", msg.From)
	writeHeader(&buf, "To", strings.Join(msg.To, ", "))
	if msg.ReplyTo != "" {
		writeHeader(&buf, "Reply-To", msg.ReplyTo)
	}
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader(&buf, "Date", now.UTC().Format(time.RFC1123Z))
	writeHeader(&buf, "MIME-Version", "1.0")

	if len(msg.Attachments) == 0 {
		writeHeader(&buf, "Content-Type", `text/plain; charset="utf-8"`)
		writeHeader(&buf, "Content-Transfer-Encoding", "base64")
		buf.WriteString("\r\n")
		writeBase64(&buf, []byte(msg.Body))
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	writeHeader(&buf, "Content-Type", fmt.Sprintf(`multipart/mixed; boundary="%s"`, mw.Boundary()))
	buf.WriteString("\r\n")

	textPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {`text/plain; charset="utf-8"`},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, err
	}
	writeBase64(textPart, []byte(msg.Body))

	for _, att := range msg.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		filename := mime.QEncoding.Encode("utf-8", att.Filename)
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {fmt.Sprintf(`%s; name="%s"`, contentType, filename)},
			"Content-Disposition":       {fmt.Sprintf(`attachment; filename="%s"`, filename)},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, err
		}
		writeBase64(part, att.Data)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(strings.NewReplacer("\r", "", "\n", "").Replace(value))
	buf.WriteString("\r\n")
}

// writeBase64 wraps encoded output at 76 columns.
func writeBase64(w io.Writer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		_, _ = w.Write([]byte(encoded[:76] + "\r\n"))
		encoded = encoded[76:]
	}
	_, _ = w.Write([]byte(encoded + "\r\n"))
}
