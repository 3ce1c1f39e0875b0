// -----------------------------------------------------------------------
// Drive Uploader - Put generated PDFs in Google Drive with share links
// -----------------------------------------------------------------------

package drive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/meridianvc/signalsweep/internal/common"
	"github.com/meridianvc/signalsweep/internal/interfaces"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Uploader implements ArtifactUploader on Google Drive. PDFs land in a
// named folder (created on first use) and get an anyone-with-the-link
// reader permission so the share link works for the whole team.
type Uploader struct {
	service    *drive.Service
	folderName string
	folderID   string
	logger     arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.ArtifactUploader = (*Uploader)(nil)

// NewUploader creates a Drive uploader using the configured service account
func NewUploader(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*Uploader, error) {
	service, err := drive.NewService(ctx, option.WithCredentialsFile(cfg.Google.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	return &Uploader{
		service:    service,
		folderName: cfg.Drive.Folder,
		logger:     logger,
	}, nil
}

// UploadPDF uploads one PDF and returns its shareable web link
func (u *Uploader) UploadPDF(ctx context.Context, filename string, content []byte) (string, error) {
	folderID, err := u.ensureFolder(ctx)
	if err != nil {
		return "", err
	}

	file, err := u.service.Files.
		Create(&drive.File{
			Name:     filename,
			MimeType: "application/pdf",
			Parents:  []string{folderID},
		}).
		Media(bytes.NewReader(content)).
		Fields("id", "webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to Drive: %w", filename, err)
	}

	// Anyone with the link can read; uploads are reports meant for
	// circulation, never raw intake data
	_, err = u.service.Permissions.
		Create(file.Id, &drive.Permission{Type: "anyone", Role: "reader"}).
		Context(ctx).
		Do()
	if err != nil {
		u.logger.Warn().
			Str("filename", filename).
			Str("file_id", file.Id).
			Err(err).
			Msg("Failed to set share permission, link may not be accessible")
	}

	u.logger.Info().
		Str("filename", filename).
		Str("file_id", file.Id).
		Int("size", len(content)).
		Msg("Uploaded report PDF to Drive")

	return file.WebViewLink, nil
}

// ensureFolder finds or creates the target folder, caching its ID
func (u *Uploader) ensureFolder(ctx context.Context) (string, error) {
	if u.folderID != "" {
		return u.folderID, nil
	}

	query := fmt.Sprintf("mimeType='%s' and name='%s' and trashed=false", folderMimeType, u.folderName)
	list, err := u.service.Files.List().Q(query).Fields("files(id)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to look up Drive folder %q: %w", u.folderName, err)
	}

	if len(list.Files) > 0 {
		u.folderID = list.Files[0].Id
		return u.folderID, nil
	}

	folder, err := u.service.Files.
		Create(&drive.File{Name: u.folderName, MimeType: folderMimeType}).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to create Drive folder %q: %w", u.folderName, err)
	}

	u.logger.Info().
		Str("folder", u.folderName).
		Str("folder_id", folder.Id).
		Msg("Created Drive report folder")

	u.folderID = folder.Id
	return u.folderID, nil
}
