package fileapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"fileshare-web/internal/domain"
)

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithPublicURL база для ссылок, которые открывает браузер (обычно /api через прокси).
func WithPublicURL(publicURL string) Option {
	return func(c *Client) {
		c.publicURL = strings.TrimRight(publicURL, "/")
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

var _ domain.FileService = (*Client)(nil)

// Client обёртка над HTTP API файлов. Один вызов = один запрос, без повторов.
type Client struct {
	baseURL   string
	publicURL string
	client    *http.Client
	metrics   *Metrics
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		publicURL: strings.TrimRight(baseURL, "/"),
		client:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) List(ctx context.Context) ([]domain.FileItem, error) {
	var files []domain.FileItem
	req := request{
		operation: OperationList,
		method:    http.MethodGet,
		path:      domain.PathFiles,
		failure:   LogFetchFiles,
	}
	if err := c.do(ctx, req, &files); err != nil {
		return nil, err
	}
	if files == nil {
		files = []domain.FileItem{}
	}
	return files, nil
}

func (c *Client) GetByID(ctx context.Context, id int) (*domain.FileItem, error) {
	var file domain.FileItem
	req := request{
		operation: OperationGet,
		id:        id,
		method:    http.MethodGet,
		path:      filePath(id),
		failure:   LogFetchFile,
	}
	if err := c.do(ctx, req, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

func (c *Client) Delete(ctx context.Context, id int) (*domain.DeleteResult, error) {
	var result domain.DeleteResult
	req := request{
		operation: OperationDelete,
		id:        id,
		method:    http.MethodDelete,
		path:      filePath(id),
		failure:   LogDeleteFile,
	}
	if err := c.do(ctx, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Upload отправляет файл multipart-формой в поле "file".
// тело пишется потоком через pipe, файл целиком в память не читается.
func (c *Client) Upload(ctx context.Context, filename, contentType string, file io.Reader) (*domain.UploadResult, error) {
	if contentType == "" {
		contentType = domain.MIMEOctetStream
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeFilePart(form, filename, contentType, file))
	}()

	var result domain.UploadResult
	req := request{
		operation:   OperationUpload,
		method:      http.MethodPost,
		path:        domain.PathFiles,
		body:        pr,
		contentType: form.FormDataContentType(),
		failure:     LogUploadFile,
		filename:    filename,
	}
	if err := c.do(ctx, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DownloadURL адрес скачивания для браузера, запрос не выполняется.
func (c *Client) DownloadURL(id int) string {
	return c.publicURL + filePath(id) + domain.PathDownload
}

type request struct {
	operation   string
	id          int
	method      string
	path        string
	body        io.Reader
	contentType string
	failure     string
	filename    string
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	started := time.Now()
	outcome, err := c.roundTrip(ctx, r, out)
	c.metrics.observe(r.operation, outcome, time.Since(started))
	if err != nil {
		c.logFailure(r, err)
		return err
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, r request, out any) (string, error) {
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		if closer, ok := r.body.(io.Closer); ok {
			_ = closer.Close()
		}
		return OutcomeNetwork, fmt.Errorf("failed to create request: %w: %w", domain.ErrRequestFailed, err)
	}
	req.Header.Set(HeaderAccept, domain.MIMEJSON)
	if r.contentType != "" {
		req.Header.Set(HeaderCType, r.contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return OutcomeNetwork, fmt.Errorf("%s: %w: %w", r.operation, domain.ErrRequestFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return OutcomeHTTP, &domain.StatusError{Operation: r.operation, StatusCode: resp.StatusCode}
	}

	// пустое тело (например, 204) оставляет out нулевым.
	if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		return OutcomeDecode, fmt.Errorf("%s: %w: %w", r.operation, domain.ErrDecode, decodeErr)
	}

	return OutcomeSuccess, nil
}

func (c *Client) logFailure(r request, err error) {
	fields := logrus.Fields{
		"operation": r.operation,
		"method":    r.method,
		"path":      r.path,
	}
	if r.id != noID {
		fields["id"] = r.id
	}
	if r.filename != "" {
		fields["filename"] = r.filename
	}
	logrus.WithFields(fields).WithError(err).Error(r.failure)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(form *multipart.Writer, filename, contentType string, file io.Reader) error {
	header := make(textproto.MIMEHeader)
	header.Set(HeaderCDisp, fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		domain.FormFieldFile, quoteEscaper.Replace(filename)))
	header.Set(HeaderCType, contentType)

	part, err := form.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create form part: %w", err)
	}
	if _, copyErr := io.Copy(part, file); copyErr != nil {
		return fmt.Errorf("failed to copy file to form: %w", copyErr)
	}
	return form.Close()
}

func filePath(id int) string {
	return domain.PathFiles + "/" + strconv.Itoa(id)
}
