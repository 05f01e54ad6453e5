package relay

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
)

// Field budget for the text parts of the form.
const maxFieldBytes = 64 << 10

// ReadContactForm streams a multipart/form-data request into memory. Files
// never touch disk; the aggregate attachment size and the per-kind counts
// are enforced while reading so an oversized upload is cut off early.
func ReadContactForm(r *http.Request, limits config.RelayConfig) (ContactRequest, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return ContactRequest{}, pkgerrors.New(pkgerrors.CodeValidation, "expected multipart/form-data body")
	}
	reader, err := r.MultipartReader()
	if err != nil {
		return ContactRequest{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
	}

	var (
		req       ContactRequest
		remaining = limits.MaxTotalBytes
	)
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ContactRequest{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
		}

		name := part.FormName()
		if part.FileName() == "" {
			value, err := readLimited(part, maxFieldBytes)
			_ = part.Close()
			if err != nil {
				return ContactRequest{}, fieldTooLarge(name)
			}
			assignField(&req, name, string(value))
			continue
		}

		switch name {
		case "images":
			if len(req.Images) >= limits.MaxImages {
				_ = part.Close()
				return ContactRequest{}, tooMany("images", limits.MaxImages)
			}
		case "documents":
			if len(req.Documents) >= limits.MaxDocuments {
				_ = part.Close()
				return ContactRequest{}, tooMany("documents", limits.MaxDocuments)
			}
		default:
			_ = part.Close()
			return ContactRequest{}, pkgerrors.New(pkgerrors.CodeValidation, "unexpected file field").
				WithDetails(map[string]string{name: "is not accepted"})
		}

		data, err := readLimited(part, remaining)
		_ = part.Close()
		if err != nil {
			return ContactRequest{}, pkgerrors.New(pkgerrors.CodeValidation, "attachments too large").
				WithDetails(map[string]string{"attachments": fmt.Sprintf("total size exceeds %d bytes", limits.MaxTotalBytes)})
		}
		remaining -= int64(len(data))

		upload := Upload{Filename: filepath.Base(part.FileName()), Data: data}
		if name == "images" {
			req.Images = append(req.Images, upload)
		} else {
			req.Documents = append(req.Documents, upload)
		}
	}
	return req, nil
}

var errLimit = errors.New("part exceeds limit")

func readLimited(part *multipart.Part, limit int64) ([]byte, error) {
	if limit < 0 {
		limit = 0
	}
	data, err := io.ReadAll(io.LimitReader(part, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errLimit
	}
	return data, nil
}

func assignField(req *ContactRequest, name, value string) {
	switch name {
	case "name":
		req.Name = value
	case "email":
		req.Email = value
	case "phone":
		req.Phone = value
	case "projectName":
		req.ProjectName = value
	case "description":
		req.Description = value
	}
}

func tooMany(field string, max int) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "too many attachments").
		WithDetails(map[string]string{field: fmt.Sprintf("at most %d files", max)})
}

func fieldTooLarge(name string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "form field too large").
		WithDetails(map[string]string{name: "is too large"})
}
