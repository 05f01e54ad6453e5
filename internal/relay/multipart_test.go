package relay

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
)

type formFile struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, fields map[string]string, files []formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/send-email", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestReadContactForm(t *testing.T) {
	req := multipartRequest(t, map[string]string{
		"name":        "Ravi",
		"email":       "ravi@example.com",
		"projectName": "Tracker",
		"description": "Details",
	}, []formFile{
		{field: "images", name: "../../mock.png", data: pngBytes},
		{field: "documents", name: "brief.pdf", data: pdfBytes},
	})

	form, err := ReadContactForm(req, defaultLimits())
	require.NoError(t, err)
	require.Equal(t, "Ravi", form.Name)
	require.Equal(t, "Tracker", form.ProjectName)
	require.Len(t, form.Images, 1)
	require.Equal(t, "mock.png", form.Images[0].Filename)
	require.Equal(t, pngBytes, form.Images[0].Data)
	require.Len(t, form.Documents, 1)
}

func TestReadContactFormLimits(t *testing.T) {
	limits := config.RelayConfig{MaxImages: 1, MaxDocuments: 1, MaxTotalBytes: 100}

	cases := map[string][]formFile{
		"images": {
			{field: "images", name: "a.png", data: pngBytes[:8]},
			{field: "images", name: "b.png", data: pngBytes[:8]},
		},
		"documents": {
			{field: "documents", name: "a.txt", data: []byte("a")},
			{field: "documents", name: "b.txt", data: []byte("b")},
		},
		"attachments": {
			{field: "images", name: "a.png", data: bytes.Repeat([]byte("x"), 60)},
			{field: "documents", name: "b.pdf", data: bytes.Repeat([]byte("y"), 41)},
		},
		"avatar": {
			{field: "avatar", name: "a.png", data: pngBytes[:8]},
		},
	}
	for field, files := range cases {
		t.Run(field, func(t *testing.T) {
			_, err := ReadContactForm(multipartRequest(t, nil, files), limits)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
			details, ok := pkgerrors.As(err).Details().(map[string]string)
			require.True(t, ok)
			require.Contains(t, details, field)
		})
	}
}

func TestReadContactFormRequiresMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/send-email", bytes.NewBufferString(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	_, err := ReadContactForm(req, defaultLimits())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
