package domain

import (
	"context"
	"io"
)

// FileItem метаданные одного файла, в том виде, в каком их отдаёт API.
type FileItem struct {
	ID          int    `json:"id"`
	Filename    string `json:"filename"`
	Filepath    string `json:"filepath"`
	Size        int64  `json:"size"`
	UploadedAt  string `json:"uploaded_at"`
	ContentType string `json:"content_type,omitempty"`
}

// DeleteResult подтверждение удаления от API.
type DeleteResult struct {
	Message string `json:"message"`
}

// UploadResult ответ API на загрузку.
type UploadResult struct {
	Message string   `json:"message"`
	File    FileItem `json:"file"`
}

// FileView файл, подготовленный для отображения на странице.
type FileView struct {
	FileItem
	Icon         string
	SizeText     string
	UploadedText string
	ShareURL     string
	DownloadURL  string
}

// FileService для операций с API файлов.
type FileService interface {
	List(ctx context.Context) ([]FileItem, error)
	GetByID(ctx context.Context, id int) (*FileItem, error)
	Delete(ctx context.Context, id int) (*DeleteResult, error)
	Upload(ctx context.Context, filename, contentType string, file io.Reader) (*UploadResult, error)
	DownloadURL(id int) string
}

// FileSharing для сценариев страниц.
type FileSharing interface {
	Files(ctx context.Context) ([]FileView, error)
	SharedFile(ctx context.Context, rawID string) (*FileView, error)
	Delete(ctx context.Context, rawID string) error
	Upload(ctx context.Context, filename, contentType string, size int64, file io.Reader) (*FileView, error)
}
