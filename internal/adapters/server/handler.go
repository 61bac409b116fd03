package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"

	"fileshare-web/internal/config"
	"fileshare-web/internal/domain"
	"fileshare-web/internal/router"
	"fileshare-web/internal/usecases"
)

type Handler struct {
	uc            domain.FileSharing
	router        *router.Router
	pages         pages
	nav           []navLink
	titlePrefix   string
	defaultTitle  string
	qrSize        int
	maxUploadSize int64
	messages      config.Messages
}

func NewHandler(
	uc domain.FileSharing,
	r *router.Router,
	ui config.UIConfig,
	maxUploadSize int64,
	messages config.Messages,
) (*Handler, error) {
	loaded, err := loadPages()
	if err != nil {
		return nil, err
	}

	// в меню попадают только маршруты без параметров.
	var nav []navLink
	for _, route := range r.Routes() {
		link, linkErr := r.URL(route.Name, nil)
		if linkErr != nil {
			continue
		}
		nav = append(nav, navLink{Title: route.Meta.Title, URL: link})
	}

	return &Handler{
		uc:            uc,
		router:        r,
		pages:         loaded,
		nav:           nav,
		titlePrefix:   ui.TitlePrefix,
		defaultTitle:  ui.DefaultTitle,
		qrSize:        ui.QRSize,
		maxUploadSize: maxUploadSize,
		messages:      messages,
	}, nil
}

// Page рисует страницу из таблицы маршрутов. Заголовок выставляют хуки роутера.
func (h *Handler) Page(c echo.Context) error {
	req := c.Request()
	doc := &router.Document{}

	match, err := h.router.Navigate(req.Context(), req.URL.EscapedPath(), refererPath(req), doc)
	if err != nil {
		if errors.Is(err, router.ErrNoMatch) {
			return h.NotFound(c)
		}
		return h.handleError(c, err, h.messages.InternalError, h.fallbackTitle())
	}

	data := pageData{
		Title: doc.Title,
		View:  string(match.Route.View),
		Nav:   h.navFor(match.Path),
	}

	switch match.Route.View {
	case router.ViewHome, router.ViewShared:
		files, listErr := h.uc.Files(req.Context())
		if listErr != nil {
			return h.handleError(c, listErr, h.messages.CannotListFiles, doc.Title)
		}
		data.Files = files
	case router.ViewFileShare:
		file, fileErr := h.uc.SharedFile(req.Context(), match.Props[router.ParamFileID])
		if fileErr != nil {
			return h.handleError(c, fileErr, h.messages.CannotLoadFile, doc.Title)
		}
		data.File = file
		data.QRCodeURL = match.Path + PathQRCode
	case router.ViewUpload:
		data.MaxSize = usecases.FormatFileSize(h.maxUploadSize)
	}

	return h.render(c, http.StatusOK, data.View, data)
}

func (h *Handler) NotFound(c echo.Context) error {
	return h.render(c, http.StatusNotFound, templateNotFound, pageData{
		Title:   h.fallbackTitle(),
		View:    templateNotFound,
		Nav:     h.navFor(""),
		Message: h.messages.NotFound,
	})
}

func (h *Handler) Upload(c echo.Context) error {
	req := c.Request()

	header, err := c.FormFile(domain.FormFieldFile)
	if err != nil {
		if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
			err = fmt.Errorf("%w: %w", domain.ErrFileTooLarge, err)
		} else {
			err = fmt.Errorf("failed to get form file: %w: %w", domain.ErrNoFile, err)
		}
		return h.handleError(c, err, h.messages.CannotUpload, h.fallbackTitle())
	}
	if req.MultipartForm != nil {
		defer func() {
			_ = req.MultipartForm.RemoveAll()
		}()
	}

	file, err := header.Open()
	if err != nil {
		return h.handleError(c, fmt.Errorf("failed to open form file: %w", err), h.messages.CannotUpload, h.fallbackTitle())
	}
	defer file.Close()

	contentType := header.Header.Get(echo.HeaderContentType)
	if _, uploadErr := h.uc.Upload(req.Context(), header.Filename, contentType, header.Size, file); uploadErr != nil {
		return h.handleError(c, uploadErr, h.messages.CannotUpload, h.fallbackTitle())
	}

	return c.Redirect(http.StatusFound, RedirectPath)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.uc.Delete(c.Request().Context(), c.Param(ParamID)); err != nil {
		return h.handleError(c, err, h.messages.CannotDelete, h.fallbackTitle())
	}
	return c.Redirect(http.StatusFound, RedirectPath)
}

// QRCode отдаёт PNG с абсолютной ссылкой на страницу файла.
func (h *Handler) QRCode(c echo.Context) error {
	file, err := h.uc.SharedFile(c.Request().Context(), c.Param(router.ParamFileID))
	if err != nil {
		return h.handleError(c, err, h.messages.CannotLoadFile, h.fallbackTitle())
	}

	png, err := qrcode.Encode(file.ShareURL, qrcode.Medium, h.qrSize)
	if err != nil {
		return h.handleError(c, fmt.Errorf("failed to encode qr code: %w", err), h.messages.InternalError, h.fallbackTitle())
	}

	return c.Blob(http.StatusOK, domain.MIMEPNG, png)
}

// HTTPError обработчик ошибок echo: лимит тела, 404, 405 и паники тоже получают страницу.
func (h *Handler) HTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		_ = h.handleError(c, err, h.messages.InternalError, h.fallbackTitle())
		return
	}

	switch httpErr.Code {
	case http.StatusRequestEntityTooLarge:
		_ = h.handleError(c, fmt.Errorf("%w: %w", domain.ErrFileTooLarge, err), h.messages.CannotUpload, h.fallbackTitle())
	case http.StatusNotFound:
		_ = h.NotFound(c)
	default:
		logrus.WithField("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Errorf("HTTP %d Error: %v", httpErr.Code, err)
		_ = h.errorPage(c, httpErr.Code, http.StatusText(httpErr.Code), h.fallbackTitle())
	}
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": StatusHealthy})
}

type errorType int

const (
	errorTypeBadRequest errorType = iota
	errorTypeInvalidID
	errorTypeForbidden
	errorTypeTooLarge
	errorTypeNotFound
	errorTypeBadGateway
	errorTypeInternal
)

// getErrorType сопоставляет доменные ошибки с HTTP-кодами статуса.
// порядок важен: 404 от API тоже StatusError.
func (h *Handler) getErrorType(err error) errorType {
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		return errorTypeInvalidID
	case errors.Is(err, domain.ErrNoFile):
		return errorTypeBadRequest
	case errors.Is(err, domain.ErrForbiddenFile):
		return errorTypeForbidden
	case errors.Is(err, domain.ErrFileTooLarge):
		return errorTypeTooLarge
	case errors.Is(err, domain.ErrFileNotFound):
		return errorTypeNotFound
	case errors.Is(err, domain.ErrRequestFailed) || errors.Is(err, domain.ErrUnexpectedStatus) || errors.Is(err, domain.ErrDecode):
		return errorTypeBadGateway
	default:
		return errorTypeInternal
	}
}

func (h *Handler) handleError(c echo.Context, err error, message, title string) error {
	var httpStatus int
	var clientMessage string

	switch h.getErrorType(err) {
	case errorTypeBadRequest:
		httpStatus = http.StatusBadRequest
		clientMessage = message
	case errorTypeInvalidID:
		httpStatus = http.StatusBadRequest
		clientMessage = h.messages.InvalidID
	case errorTypeForbidden:
		httpStatus = http.StatusForbidden
		clientMessage = h.messages.ForbiddenFile
	case errorTypeTooLarge:
		httpStatus = http.StatusRequestEntityTooLarge
		clientMessage = h.messages.FileTooLarge
	case errorTypeNotFound:
		httpStatus = http.StatusNotFound
		clientMessage = h.messages.NotFound
	case errorTypeBadGateway:
		httpStatus = http.StatusBadGateway
		clientMessage = h.messages.BackendUnavailable
	case errorTypeInternal:
		httpStatus = http.StatusInternalServerError
		clientMessage = message
	}

	logrus.WithField("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Errorf("HTTP %d Error: %s. Details: %+v", httpStatus, clientMessage, err)

	return h.errorPage(c, httpStatus, clientMessage, title)
}

func (h *Handler) errorPage(c echo.Context, status int, message, title string) error {
	return h.render(c, status, templateError, pageData{
		Title:   title,
		View:    templateError,
		Nav:     h.navFor(""),
		Message: message,
	})
}

// render собирает страницу в буфер, чтобы ошибка шаблона не оставила полуответ.
func (h *Handler) render(c echo.Context, status int, name string, data pageData) error {
	var buf bytes.Buffer
	if err := h.pages.render(&buf, name, data); err != nil {
		logrus.Infoln(err)
		return c.String(http.StatusInternalServerError, h.messages.RenderError)
	}
	return c.HTMLBlob(status, buf.Bytes())
}

func (h *Handler) navFor(path string) []navLink {
	nav := make([]navLink, len(h.nav))
	for i, link := range h.nav {
		link.Active = link.URL == path
		nav[i] = link
	}
	return nav
}

func (h *Handler) fallbackTitle() string {
	return router.Title(h.titlePrefix, h.defaultTitle, nil)
}

// refererPath предыдущая страница для хуков навигации, без хоста и query.
func refererPath(r *http.Request) string {
	referer := r.Header.Get(HeaderReferer)
	if referer == "" {
		return ""
	}
	u, err := url.Parse(referer)
	if err != nil {
		return ""
	}
	return u.EscapedPath()
}
