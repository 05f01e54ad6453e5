package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/gcp"
)

const (
	folderMimeType       = "application/vnd.google-apps.folder"
	googleAppsMimePrefix = "application/vnd.google-apps."
	drivePageSize        = 100
)

// ErrNoFolderID is returned when a delivery URL does not name a Drive folder.
var ErrNoFolderID = errors.New("drive url carries no folder id")

var driveIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{10,}$`)

// DriveFile is a downloadable file inside a delivery folder.
type DriveFile struct {
	ID       string
	Name     string
	MimeType string
	Size     int64
}

// DriveFolderReader lists and downloads the files a purchase delivers.
type DriveFolderReader interface {
	ListFolder(ctx context.Context, folderID string) ([]DriveFile, error)
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)
}

type driveReader struct {
	svc *drive.Service
}

// NewDriveReader opens a read-only Drive client.
func NewDriveReader(ctx context.Context, google config.GoogleConfig, cloud config.GCPConfig) (DriveFolderReader, error) {
	opts := append(gcp.WorkspaceOptions(google, cloud), option.WithScopes(drive.DriveReadonlyScope))
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &driveReader{svc: svc}, nil
}

// ListFolder returns the binary files directly inside folderID. Subfolders and
// Google-native documents are skipped since they have no downloadable body.
func (d *driveReader) ListFolder(ctx context.Context, folderID string) ([]DriveFile, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", escapeQueryValue(folderID))
	var (
		files     []DriveFile
		pageToken string
	)
	for {
		call := d.svc.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType, size)").
			PageSize(drivePageSize).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("listing drive folder %s: %w", folderID, err)
		}
		for _, f := range page.Files {
			if !Downloadable(f.MimeType) {
				continue
			}
			files = append(files, DriveFile{ID: f.Id, Name: f.Name, MimeType: f.MimeType, Size: f.Size})
		}
		if page.NextPageToken == "" {
			return files, nil
		}
		pageToken = page.NextPageToken
	}
}

func (d *driveReader) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, err := d.svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("downloading drive file %s: %w", fileID, err)
	}
	return resp.Body, nil
}

// Downloadable reports whether a Drive mime type has a binary body.
func Downloadable(mimeType string) bool {
	return mimeType != folderMimeType && !strings.HasPrefix(mimeType, googleAppsMimePrefix)
}

// FolderIDFromURL extracts the folder id from the share links admins paste
// into mappings: .../folders/<id>, ...?id=<id>, .../file/d/<id>, or a bare id.
func FolderIDFromURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrNoFolderID
	}
	if driveIDPattern.MatchString(raw) {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoFolderID, err)
	}
	if id := u.Query().Get("id"); driveIDPattern.MatchString(id) {
		return id, nil
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i < len(segments)-1; i++ {
		switch segments[i] {
		case "folders", "d":
			if driveIDPattern.MatchString(segments[i+1]) {
				return segments[i+1], nil
			}
		}
	}
	return "", ErrNoFolderID
}

func escapeQueryValue(v string) string {
	return strings.ReplaceAll(strings.ReplaceAll(v, `\`, `\\`), `'`, `\'`)
}
