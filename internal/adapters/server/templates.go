package server

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"fileshare-web/internal/domain"
	"fileshare-web/internal/router"
)

//go:embed templates/*.html
var templateFS embed.FS

// каждая страница получает свою копию layout, блок "content" у всех общий.
var pageNames = []string{
	string(router.ViewHome),
	string(router.ViewUpload),
	string(router.ViewShared),
	string(router.ViewFileShare),
	templateNotFound,
	templateError,
}

type navLink struct {
	Title  string
	URL    string
	Active bool
}

type pageData struct {
	Title     string
	View      string
	Nav       []navLink
	Files     []domain.FileView
	File      *domain.FileView
	QRCodeURL string
	MaxSize   string
	Message   string
}

type pages map[string]*template.Template

func loadPages() (pages, error) {
	layout, err := template.New(templateLayout).ParseFS(templateFS, templateLayoutFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	out := make(pages, len(pageNames))
	for _, name := range pageNames {
		clone, cloneErr := layout.Clone()
		if cloneErr != nil {
			return nil, fmt.Errorf("failed to clone layout for %s: %w", name, cloneErr)
		}
		page, parseErr := clone.ParseFS(templateFS, fmt.Sprintf(templatePageTemplate, name))
		if parseErr != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", name, parseErr)
		}
		out[name] = page
	}
	return out, nil
}

func (p pages) render(w io.Writer, name string, data pageData) error {
	tmpl, ok := p[name]
	if !ok {
		return fmt.Errorf("page %q is not defined", name)
	}
	return tmpl.ExecuteTemplate(w, templateLayout, data)
}
