package relay

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/google"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/metrics"
)

// SentMessage is returned once the operations inbox accepted the request.
const SentMessage = "Email sent successfully"

// Upload is one attached file held in memory.
type Upload struct {
	Filename string
	Data     []byte
}

// ContactRequest is a custom-project enquiry from the contact form.
type ContactRequest struct {
	Name        string
	Email       string
	Phone       string
	ProjectName string
	Description string
	Images      []Upload
	Documents   []Upload
}

// Result is the response of POST /send-email.
type Result struct {
	Message   string `json:"message"`
	MessageID string `json:"-"`
}

type ServiceParams struct {
	Mailer  google.Mailer
	Google  config.GoogleConfig
	Limits  config.RelayConfig
	Logger  *logger.Logger
	Metrics *metrics.MarketplaceMetrics
}

// Service forwards contact requests to the operations inbox.
type Service interface {
	Send(ctx context.Context, req ContactRequest) (*Result, error)
	Limits() config.RelayConfig
}

type service struct {
	mailer  google.Mailer
	inbox   string
	sender  string
	limits  config.RelayConfig
	logg    *logger.Logger
	metrics *metrics.MarketplaceMetrics
}

func NewService(params ServiceParams) (Service, error) {
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	inbox := strings.TrimSpace(params.Google.OperationsInbox)
	if inbox == "" {
		return nil, fmt.Errorf("operations inbox is required")
	}
	return &service{
		mailer:  params.Mailer,
		inbox:   inbox,
		sender:  strings.TrimSpace(params.Google.MailSender),
		limits:  params.Limits,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

func (s *service) Limits() config.RelayConfig {
	return s.limits
}

func (s *service) Send(ctx context.Context, req ContactRequest) (*Result, error) {
	req = trimRequest(req)
	if err := s.validate(req); err != nil {
		return nil, err
	}

	attachments, err := s.attachments(req)
	if err != nil {
		return nil, err
	}

	msg := google.Message{
		From:        s.sender,
		To:          []string{s.inbox},
		ReplyTo:     req.Email,
		Subject:     "New Project Request from " + req.Name,
		Body:        body(req),
		Attachments: attachments,
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"attachments": len(attachments),
		"project":     req.ProjectName,
	})
	id, err := s.mailer.Send(ctx, msg)
	if err != nil {
		s.metrics.RelayMessage(false)
		s.logg.Error(ctx, "relay send failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeRelay, err, "failed to send email")
	}
	s.metrics.RelayMessage(true)
	s.logg.Info(s.logg.WithField(ctx, "message_id", id), "contact request relayed")
	return &Result{Message: SentMessage, MessageID: id}, nil
}

func (s *service) validate(req ContactRequest) error {
	details := map[string]string{}
	for field, value := range map[string]string{
		"name":        req.Name,
		"email":       req.Email,
		"projectName": req.ProjectName,
		"description": req.Description,
	} {
		if value == "" {
			details[field] = "is required"
		}
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			details["email"] = "is not a valid address"
		}
	}
	if strings.ContainsAny(req.Name, "\r\n") {
		details["name"] = "must be a single line"
	}
	if len(req.Images) > s.limits.MaxImages {
		details["images"] = fmt.Sprintf("at most %d files", s.limits.MaxImages)
	}
	if len(req.Documents) > s.limits.MaxDocuments {
		details["documents"] = fmt.Sprintf("at most %d files", s.limits.MaxDocuments)
	}
	var total int64
	for _, u := range append(append([]Upload{}, req.Images...), req.Documents...) {
		total += int64(len(u.Data))
	}
	if total > s.limits.MaxTotalBytes {
		details["attachments"] = fmt.Sprintf("total size exceeds %d bytes", s.limits.MaxTotalBytes)
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields").WithDetails(details)
	}
	return nil
}

// attachments sniffs every upload. Files sent as images must actually be
// images; documents keep whatever type their bytes declare.
func (s *service) attachments(req ContactRequest) ([]google.Attachment, error) {
	out := make([]google.Attachment, 0, len(req.Images)+len(req.Documents))
	for _, u := range req.Images {
		mt := mimetype.Detect(u.Data)
		if !strings.HasPrefix(mt.String(), "image/") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid attachment").
				WithDetails(map[string]string{"images": u.Filename + " is not an image"})
		}
		out = append(out, attachment(u, mt))
	}
	for _, u := range req.Documents {
		out = append(out, attachment(u, mimetype.Detect(u.Data)))
	}
	return out, nil
}

func attachment(u Upload, mt *mimetype.MIME) google.Attachment {
	name := u.Filename
	if name == "" {
		name = "attachment" + mt.Extension()
	}
	return google.Attachment{
		Filename:    name,
		ContentType: mt.String(),
		Data:        u.Data,
	}
}

func body(req ContactRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Full Name: %s\n", req.Name)
	fmt.Fprintf(&b, "Email: %s\n", req.Email)
	fmt.Fprintf(&b, "Phone: %s\n", req.Phone)
	fmt.Fprintf(&b, "Project Title: %s\n", req.ProjectName)
	fmt.Fprintf(&b, "Description: %s\n", req.Description)
	return b.String()
}

func trimRequest(req ContactRequest) ContactRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.ProjectName = strings.TrimSpace(req.ProjectName)
	req.Description = strings.TrimSpace(req.Description)
	return req
}
