package delivery

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/google"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

type purchaseReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
}

// Requester is the authenticated caller asking for a download.
type Requester struct {
	Email string
	Admin bool
}

// Bundle is a resolved download: the archive name and the files in it.
type Bundle struct {
	PurchaseID uuid.UUID
	Filename   string
	Files      []google.DriveFile
}

type ServiceParams struct {
	Purchases purchaseReader
	Drive     google.DriveFolderReader
	Logger    *logger.Logger
}

// Service packages a purchase's delivery folder as a zip archive.
type Service interface {
	Prepare(ctx context.Context, purchaseID uuid.UUID, who Requester) (*Bundle, error)
	WriteZip(ctx context.Context, bundle *Bundle, w io.Writer) error
}

type service struct {
	purchases purchaseReader
	drive     google.DriveFolderReader
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Purchases == nil {
		return nil, fmt.Errorf("purchase reader is required")
	}
	if params.Drive == nil {
		return nil, fmt.Errorf("drive reader is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{purchases: params.Purchases, drive: params.Drive, logg: params.Logger}, nil
}

// Prepare checks ownership and lists the folder. Everything that can fail
// with a clean error response happens here, before any bytes are streamed.
func (s *service) Prepare(ctx context.Context, purchaseID uuid.UUID, who Requester) (*Bundle, error) {
	purchase, err := s.purchases.Get(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if !who.Admin && !strings.EqualFold(strings.TrimSpace(who.Email), purchase.BuyerEmail) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "purchase belongs to another buyer")
	}
	folderID, err := google.FolderIDFromURL(purchase.DriveURL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "delivery url has no folder id")
	}
	files, err := s.drive.ListFolder(ctx, folderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivery folder")
	}
	return &Bundle{
		PurchaseID: purchase.ID,
		Filename:   ArchiveName(purchase.ListingTitle),
		Files:      files,
	}, nil
}

// WriteZip streams every file into w. Once this starts the response status
// is committed, so failures are returned for logging only.
func (s *service) WriteZip(ctx context.Context, bundle *Bundle, w io.Writer) error {
	if bundle == nil {
		return errors.New("bundle is required")
	}
	zw := zip.NewWriter(w)
	names := newNameSet()
	for _, f := range bundle.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.copyFile(ctx, zw, names.unique(f.Name), f); err != nil {
			_ = zw.Close()
			return fmt.Errorf("archive %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"purchase_id": bundle.PurchaseID.String(),
		"files":       len(bundle.Files),
	}), "delivery archive streamed")
	return nil
}

func (s *service) copyFile(ctx context.Context, zw *zip.Writer, name string, f google.DriveFile) error {
	body, err := s.drive.Download(ctx, f.ID)
	if err != nil {
		return err
	}
	defer body.Close()
	entry, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, body)
	return err
}

// ArchiveName turns a listing title into a safe attachment file name.
func ArchiveName(title string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(title) {
		switch {
		case r == '"' || r == '\\' || r == '/' || r < 0x20 || r == 0x7f:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" {
		name = "project"
	}
	return name + ".zip"
}

// nameSet keeps archive entry names unique; Drive allows duplicates.
type nameSet map[string]int

func newNameSet() nameSet {
	return nameSet{}
}

func (n nameSet) unique(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	count := n[name]
	n[name] = count + 1
	if count == 0 {
		return name
	}
	ext := path.Ext(name)
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), count, ext)
}
