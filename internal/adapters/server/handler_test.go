package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileshare-web/internal/config"
	"fileshare-web/internal/domain"
	"fileshare-web/internal/router"
)

type mockFileSharing struct {
	filesFunc      func(ctx context.Context) ([]domain.FileView, error)
	sharedFileFunc func(ctx context.Context, rawID string) (*domain.FileView, error)
	deleteFunc     func(ctx context.Context, rawID string) error
	uploadFunc     func(ctx context.Context, filename, contentType string, size int64, file io.Reader) (*domain.FileView, error)
}

func (m *mockFileSharing) Files(ctx context.Context) ([]domain.FileView, error) {
	if m.filesFunc != nil {
		return m.filesFunc(ctx)
	}
	return nil, nil
}

func (m *mockFileSharing) SharedFile(ctx context.Context, rawID string) (*domain.FileView, error) {
	if m.sharedFileFunc != nil {
		return m.sharedFileFunc(ctx, rawID)
	}
	return &domain.FileView{}, nil
}

func (m *mockFileSharing) Delete(ctx context.Context, rawID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, rawID)
	}
	return nil
}

func (m *mockFileSharing) Upload(ctx context.Context, filename, contentType string, size int64, file io.Reader) (*domain.FileView, error) {
	if m.uploadFunc != nil {
		return m.uploadFunc(ctx, filename, contentType, size, file)
	}
	return &domain.FileView{}, nil
}

var testMessages = config.Messages{
	CannotListFiles:    "Cannot list files",
	CannotLoadFile:     "Cannot load file",
	CannotDelete:       "Cannot delete",
	CannotUpload:       "Cannot upload",
	ForbiddenFile:      "Forbidden",
	FileTooLarge:       "Too large",
	InvalidID:          "Invalid id",
	NotFound:           "Not found",
	BackendUnavailable: "Backend unavailable",
	RenderError:        "Render error",
	InternalError:      "Internal error",
}

func newTestRouter(t *testing.T) *router.Router {
	t.Helper()
	r, err := router.New(router.DefaultRoutes()...)
	require.NoError(t, err)
	r.BeforeEach(router.TitleHook(config.DefaultTitlePrefix, config.DefaultPageTitle))
	return r
}

func createTestHandler(t *testing.T, uc domain.FileSharing) *Handler {
	t.Helper()
	h, err := NewHandler(
		uc,
		newTestRouter(t),
		config.UIConfig{
			TitlePrefix:  config.DefaultTitlePrefix,
			DefaultTitle: config.DefaultPageTitle,
			QRSize:       128,
		},
		1024*1024,
		testMessages,
	)
	require.NoError(t, err)
	return h
}

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func sampleView(id int, name string) domain.FileView {
	return domain.FileView{
		FileItem:     domain.FileItem{ID: id, Filename: name, Size: 1536},
		Icon:         "file-pdf",
		SizeText:     "1.5 KB",
		UploadedText: "2024-02-01 10:30",
		ShareURL:     fmt.Sprintf("http://localhost:3000/share/%d", id),
		DownloadURL:  fmt.Sprintf("/api/files/%d/download", id),
	}
}

func TestNewHandler(t *testing.T) {
	h := createTestHandler(t, &mockFileSharing{})

	assert.Equal(t, int64(1024*1024), h.maxUploadSize)
	assert.Equal(t, 128, h.qrSize)
	assert.Equal(t, testMessages, h.messages)
	assert.Equal(t, []navLink{
		{Title: "My Files", URL: "/"},
		{Title: "Upload Files", URL: "/upload"},
		{Title: "Shared Files", URL: "/shared"},
	}, h.nav)
	assert.Len(t, h.pages, len(pageNames))
}

func TestHandler_Page(t *testing.T) {
	t.Run("home lists files", func(t *testing.T) {
		uc := &mockFileSharing{
			filesFunc: func(ctx context.Context) ([]domain.FileView, error) {
				return []domain.FileView{sampleView(1, "report.pdf"), sampleView(2, "notes.txt")}, nil
			},
		}
		h := createTestHandler(t, uc)
		c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil))

		require.NoError(t, h.Page(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "<title>FileShare - My Files</title>")
		assert.Contains(t, body, "report.pdf")
		assert.Contains(t, body, "notes.txt")
		assert.Contains(t, body, `action="/files/2/delete"`)
		assert.Contains(t, body, `href="/" class="active"`)
	})

	t.Run("shared file", func(t *testing.T) {
		var gotID string
		uc := &mockFileSharing{
			sharedFileFunc: func(ctx context.Context, rawID string) (*domain.FileView, error) {
				gotID = rawID
				view := sampleView(42, "slides.pptx")
				return &view, nil
			},
		}
		h := createTestHandler(t, uc)
		c, rec := newContext(httptest.NewRequest(http.MethodGet, "/share/42", nil))

		require.NoError(t, h.Page(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "42", gotID)
		body := rec.Body.String()
		assert.Contains(t, body, "<title>FileShare - Shared File</title>")
		assert.Contains(t, body, "slides.pptx")
		assert.Contains(t, body, `src="/share/42/qr.png"`)
	})

	t.Run("upload page shows limit", func(t *testing.T) {
		h := createTestHandler(t, &mockFileSharing{})
		c, rec := newContext(httptest.NewRequest(http.MethodGet, "/upload?tab=1", nil))

		require.NoError(t, h.Page(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<title>FileShare - Upload Files</title>")
		assert.Contains(t, rec.Body.String(), "1 MB")
	})

	t.Run("unknown path", func(t *testing.T) {
		h := createTestHandler(t, &mockFileSharing{})
		c, rec := newContext(httptest.NewRequest(http.MethodGet, "/nowhere", nil))

		require.NoError(t, h.Page(c))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "<title>FileShare - File Sharing App</title>")
	})

	t.Run("referer becomes from", func(t *testing.T) {
		h := createTestHandler(t, &mockFileSharing{})
		var from *router.Match
		h.router.BeforeEach(func(_ context.Context, _, f *router.Match, _ *router.Document) {
			from = f
		})
		req := httptest.NewRequest(http.MethodGet, "/upload", nil)
		req.Header.Set(HeaderReferer, "http://localhost:3000/shared?x=1")
		c, _ := newContext(req)

		require.NoError(t, h.Page(c))

		require.NotNil(t, from)
		assert.Equal(t, router.RouteShared, from.Route.Name)
	})

	t.Run("error listing", func(t *testing.T) {
		uc := &mockFileSharing{
			filesFunc: func(ctx context.Context) ([]domain.FileView, error) {
				return nil, fmt.Errorf("list: %w: connection refused", domain.ErrRequestFailed)
			},
		}
		h := createTestHandler(t, uc)
		c, rec := newContext(httptest.NewRequest(http.MethodGet, "/shared", nil))

		require.NoError(t, h.Page(c))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "Backend unavailable")
		assert.Contains(t, rec.Body.String(), "<title>FileShare - Shared Files</title>")
	})

	t.Run("invalid id", func(t *testing.T) {
		uc := &mockFileSharing{
			sharedFileFunc: func(ctx context.Context, rawID string) (*domain.FileView, error) {
				return nil, domain.ErrInvalidID
			},
		}
		h := createTestHandler(t, uc)
		c, rec := newContext(httptest.NewRequest(http.MethodGet, "/share/abc", nil))

		require.NoError(t, h.Page(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid id")
	})

	t.Run("file missing in backend", func(t *testing.T) {
		uc := &mockFileSharing{
			sharedFileFunc: func(ctx context.Context, rawID string) (*domain.FileView, error) {
				return nil, &domain.StatusError{Operation: "get", StatusCode: http.StatusNotFound}
			},
		}
		h := createTestHandler(t, uc)
		c, rec := newContext(httptest.NewRequest(http.MethodGet, "/share/9", nil))

		require.NoError(t, h.Page(c))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_Upload(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotName, gotData string
		var gotSize int64
		uc := &mockFileSharing{
			uploadFunc: func(ctx context.Context, filename, contentType string, size int64, file io.Reader) (*domain.FileView, error) {
				gotName, gotSize = filename, size
				data, _ := io.ReadAll(file)
				gotData = string(data)
				return &domain.FileView{}, nil
			},
		}
		h := createTestHandler(t, uc)

		var buf bytes.Buffer
		writer := multipartWriter(t, &buf, "test.txt", "test content")
		req := httptest.NewRequest(http.MethodPost, PathUpload, &buf)
		req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
		c, rec := newContext(req)

		require.NoError(t, h.Upload(c))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, RedirectPath, rec.Header().Get(echo.HeaderLocation))
		assert.Equal(t, "test.txt", gotName)
		assert.Equal(t, int64(len("test content")), gotSize)
		assert.Equal(t, "test content", gotData)
	})

	t.Run("no file", func(t *testing.T) {
		h := createTestHandler(t, &mockFileSharing{})
		req := httptest.NewRequest(http.MethodPost, PathUpload, strings.NewReader("name=x"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		c, rec := newContext(req)

		require.NoError(t, h.Upload(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"forbidden extension", domain.ErrForbiddenFile, http.StatusForbidden},
		{"file too large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"backend rejected", &domain.StatusError{Operation: "upload", StatusCode: http.StatusBadRequest}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockFileSharing{
				uploadFunc: func(ctx context.Context, filename, contentType string, size int64, file io.Reader) (*domain.FileView, error) {
					return nil, tt.err
				},
			}
			h := createTestHandler(t, uc)

			var buf bytes.Buffer
			writer := multipartWriter(t, &buf, "config.env", "secret")
			req := httptest.NewRequest(http.MethodPost, PathUpload, &buf)
			req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
			c, rec := newContext(req)

			require.NoError(t, h.Upload(c))

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandler_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var deletedID string
		uc := &mockFileSharing{
			deleteFunc: func(ctx context.Context, rawID string) error {
				deletedID = rawID
				return nil
			},
		}
		h := createTestHandler(t, uc)
		c, rec := newContext(httptest.NewRequest(http.MethodPost, "/files/7/delete", nil))
		c.SetParamNames(ParamID)
		c.SetParamValues("7")

		require.NoError(t, h.Delete(c))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "7", deletedID)
	})

	t.Run("error", func(t *testing.T) {
		uc := &mockFileSharing{
			deleteFunc: func(ctx context.Context, rawID string) error {
				return errors.New("boom")
			},
		}
		h := createTestHandler(t, uc)
		c, rec := newContext(httptest.NewRequest(http.MethodPost, "/files/7/delete", nil))
		c.SetParamNames(ParamID)
		c.SetParamValues("7")

		require.NoError(t, h.Delete(c))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "Cannot delete")
	})
}

func TestHandler_QRCode(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		uc := &mockFileSharing{
			sharedFileFunc: func(ctx context.Context, rawID string) (*domain.FileView, error) {
				view := sampleView(42, "slides.pptx")
				return &view, nil
			},
		}
		h := createTestHandler(t, uc)
		c, rec := newContext(httptest.NewRequest(http.MethodGet, "/share/42/qr.png", nil))
		c.SetParamNames(router.ParamFileID)
		c.SetParamValues("42")

		require.NoError(t, h.QRCode(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.MIMEPNG, rec.Header().Get(echo.HeaderContentType))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
	})

	t.Run("not found", func(t *testing.T) {
		uc := &mockFileSharing{
			sharedFileFunc: func(ctx context.Context, rawID string) (*domain.FileView, error) {
				return nil, &domain.StatusError{Operation: "get", StatusCode: http.StatusNotFound}
			},
		}
		h := createTestHandler(t, uc)
		c, rec := newContext(httptest.NewRequest(http.MethodGet, "/share/1/qr.png", nil))
		c.SetParamNames(router.ParamFileID)
		c.SetParamValues("1")

		require.NoError(t, h.QRCode(c))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_Health(t *testing.T) {
	h := createTestHandler(t, &mockFileSharing{})
	c, rec := newContext(httptest.NewRequest(http.MethodGet, PathHealth, nil))

	require.NoError(t, h.Health(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestHandler_HTTPError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		want     int
		wantBody string
	}{
		{"body limit", echo.ErrStatusRequestEntityTooLarge, http.StatusRequestEntityTooLarge, "Too large"},
		{"route not found", echo.ErrNotFound, http.StatusNotFound, "Not found"},
		{"method not allowed", echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed)},
		{"plain error", errors.New("panic recovered"), http.StatusInternalServerError, "Internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, &mockFileSharing{})
			c, rec := newContext(httptest.NewRequest(http.MethodPost, PathUpload, nil))

			h.HTTPError(tt.err, c)

			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.Contains(t, rec.Body.String(), "<title>FileShare - File Sharing App</title>")
		})
	}

	t.Run("committed response untouched", func(t *testing.T) {
		h := createTestHandler(t, &mockFileSharing{})
		c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, c.String(http.StatusOK, "done"))

		h.HTTPError(echo.ErrNotFound, c)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "done", rec.Body.String())
	})
}

func TestHandler_getErrorType(t *testing.T) {
	h := createTestHandler(t, &mockFileSharing{})

	tests := []struct {
		name string
		err  error
		want errorType
	}{
		{"invalid id", fmt.Errorf("file id %q: %w", "x", domain.ErrInvalidID), errorTypeInvalidID},
		{"no file", domain.ErrNoFile, errorTypeBadRequest},
		{"forbidden", domain.ErrForbiddenFile, errorTypeForbidden},
		{"too large", domain.ErrFileTooLarge, errorTypeTooLarge},
		{"backend 404", &domain.StatusError{Operation: "get", StatusCode: http.StatusNotFound}, errorTypeNotFound},
		{"backend 500", &domain.StatusError{Operation: "list", StatusCode: http.StatusInternalServerError}, errorTypeBadGateway},
		{"network", domain.ErrRequestFailed, errorTypeBadGateway},
		{"decode", domain.ErrDecode, errorTypeBadGateway},
		{"unknown error", errors.New("unknown"), errorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.getErrorType(tt.err))
		})
	}
}

func TestRefererPath(t *testing.T) {
	tests := []struct {
		referer string
		want    string
	}{
		{"", ""},
		{"http://localhost:3000/share/5?a=b", "/share/5"},
		{"/upload", "/upload"},
		{"://bad", ""},
	}

	for _, tt := range tests {
		t.Run(tt.referer, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderReferer, tt.referer)
			assert.Equal(t, tt.want, refererPath(req))
		})
	}
}

func multipartWriter(t *testing.T, buf *bytes.Buffer, filename, content string) *multipart.Writer {
	writer := multipart.NewWriter(buf)

	fileWriter, err := writer.CreateFormFile(domain.FormFieldFile, filename)
	require.NoError(t, err)
	_, err = fileWriter.Write([]byte(content))
	require.NoError(t, err)

	err = writer.Close()
	require.NoError(t, err)

	return writer
}
