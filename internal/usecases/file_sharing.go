package usecases

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"fileshare-web/internal/config"
	"fileshare-web/internal/domain"
	"fileshare-web/internal/router"
)

const (
	OperationUpload = "upload"
	OperationDelete = "delete"
	LogFileUploaded = "File uploaded"
	LogFileDeleted  = "File deleted"
)

// ShareLinks строит пути по именам маршрутов.
type ShareLinks interface {
	URL(name string, params map[string]string) (string, error)
}

var _ domain.FileSharing = (*FileSharingUseCase)(nil)

type FileSharingUseCase struct {
	service      domain.FileService
	links        ShareLinks
	publicURL    string
	maxSize      int64
	forbiddenExt []string
}

func NewFileSharingUseCase(service domain.FileService, links ShareLinks, cfg *config.Config) *FileSharingUseCase {
	return &FileSharingUseCase{
		service:      service,
		links:        links,
		publicURL:    strings.TrimRight(cfg.UI.PublicURL, "/"),
		maxSize:      cfg.Upload.MaxSize,
		forbiddenExt: cfg.Upload.ForbiddenExtensions,
	}
}

func (uc *FileSharingUseCase) Files(ctx context.Context) ([]domain.FileView, error) {
	files, err := uc.service.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]domain.FileView, 0, len(files))
	for _, f := range files {
		view, viewErr := uc.toView(f)
		if viewErr != nil {
			return nil, viewErr
		}
		views = append(views, view)
	}
	return views, nil
}

func (uc *FileSharingUseCase) SharedFile(ctx context.Context, rawID string) (*domain.FileView, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	file, err := uc.service.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view, err := uc.toView(*file)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (uc *FileSharingUseCase) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	result, err := uc.service.Delete(ctx, id)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"operation": OperationDelete,
		"id":        id,
		"message":   result.Message,
	}).Info(LogFileDeleted)
	return nil
}

// Upload проверяет имя и размер до обращения к API, чтобы не гонять лишние мегабайты.
func (uc *FileSharingUseCase) Upload(ctx context.Context, filename, contentType string, size int64, file io.Reader) (*domain.FileView, error) {
	name := filepath.Base(filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("file name %q: %w", filename, domain.ErrForbiddenFile)
	}
	if uc.isForbidden(name) {
		return nil, fmt.Errorf("file %q: %w", name, domain.ErrForbiddenFile)
	}
	if size > uc.maxSize {
		return nil, fmt.Errorf("file size %d exceeds maximum %d: %w", size, uc.maxSize, domain.ErrFileTooLarge)
	}

	result, err := uc.service.Upload(ctx, name, contentType, file)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"operation": OperationUpload,
		"id":        result.File.ID,
		"filename":  name,
		"size":      size,
	}).Info(LogFileUploaded)

	view, err := uc.toView(result.File)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (uc *FileSharingUseCase) toView(f domain.FileItem) (domain.FileView, error) {
	sharePath, err := uc.links.URL(router.RouteFileShare, map[string]string{
		router.ParamFileID: strconv.Itoa(f.ID),
	})
	if err != nil {
		return domain.FileView{}, fmt.Errorf("failed to build share link for file %d: %w", f.ID, err)
	}

	return domain.FileView{
		FileItem:     f,
		Icon:         FileIcon(f.Filename),
		SizeText:     FormatFileSize(f.Size),
		UploadedText: FormatUploadedAt(f.UploadedAt),
		ShareURL:     uc.publicURL + sharePath,
		DownloadURL:  uc.service.DownloadURL(f.ID),
	}, nil
}

// isForbidden проверяет расширение без учёта регистра и имена вида ".env".
func (uc *FileSharingUseCase) isForbidden(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	lower := strings.ToLower(fileName)
	for _, forbidden := range uc.forbiddenExt {
		if ext == forbidden || strings.HasPrefix(lower, forbidden) {
			return true
		}
	}
	return false
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("file id %q: %w", raw, domain.ErrInvalidID)
	}
	return id, nil
}
