// Package router сопоставляет пути страниц с view и запускает хуки навигации.
//
// Router собирается один раз при старте из статической таблицы и дальше
// безопасен для конкурентного использования. Состояние навигации живёт в
// Document, который передаёт вызывающий, так что один Router обслуживает все запросы.
// Сопоставление путей и сборку ссылок делает роутер echo.
package router

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
)

const (
	pathSeparator = "/"
	paramPrefix   = ":"
	querySymbols  = "?#"
	ctxKeyRoute   = "router.route"
)

// Match результат сопоставления пути с таблицей.
type Match struct {
	Route  Route
	Path   string
	Params map[string]string
	// Props совпадает с Params, если у маршрута выставлен Props, иначе пустой.
	Props map[string]string
}

// Document состояние страницы, в которое пишут хуки.
type Document struct {
	Title string
}

// Hook вызывается до завершения навигации. from равен nil на первой странице визита.
// Отменить или перенаправить навигацию хук не может.
type Hook func(ctx context.Context, to, from *Match, doc *Document)

// Router таблица маршрутов поверх роутера echo плюс хуки beforeEach.
type Router struct {
	echo   *echo.Echo
	routes []Route
	// params имена параметров маршрута в порядке пути, для Reverse.
	params map[string][]string

	mu    sync.RWMutex
	hooks []Hook
}

// New проверяет и регистрирует таблицу. Имена и шаблоны маршрутов уникальны.
func New(routes ...Route) (*Router, error) {
	r := &Router{
		echo:   echo.New(),
		routes: make([]Route, 0, len(routes)),
		params: make(map[string][]string, len(routes)),
	}

	patterns := make(map[string]string, len(routes))
	for _, route := range routes {
		names, key, err := compile(route.Path)
		if err != nil {
			return nil, err
		}
		if _, exists := r.params[route.Name]; exists {
			return nil, fmt.Errorf("route name %q: %w", route.Name, ErrDuplicateRoute)
		}
		if other, exists := patterns[key]; exists {
			return nil, fmt.Errorf("route %q shadows %q: %w", route.Name, other, ErrDuplicateRoute)
		}
		patterns[key] = route.Name

		// обработчик только помечает контекст найденным маршрутом.
		matched := route
		r.echo.GET(route.Path, func(c echo.Context) error {
			c.Set(ctxKeyRoute, matched)
			return nil
		}).Name = route.Name

		r.params[route.Name] = names
		r.routes = append(r.routes, route)
	}

	return r, nil
}

// Routes таблица в порядке регистрации.
func (r *Router) Routes() []Route {
	out := make([]Route, len(r.routes))
	copy(out, r.routes)
	return out
}

// BeforeEach регистрирует хук. Хуки выполняются в порядке регистрации.
func (r *Router) BeforeEach(hook Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
}

// Resolve находит единственный маршрут для пути. Query и завершающий слэш игнорируются.
func (r *Router) Resolve(path string) (*Match, error) {
	clean := cleanPath(path)

	c := r.echo.NewContext(nil, nil)
	r.echo.Router().Find(http.MethodGet, clean, c)
	if err := c.Handler()(c); err != nil {
		return nil, fmt.Errorf("%q: %w", clean, ErrNoMatch)
	}
	route, ok := c.Get(ctxKeyRoute).(Route)
	if !ok {
		return nil, fmt.Errorf("%q: %w", clean, ErrNoMatch)
	}

	params := map[string]string{}
	values := c.ParamValues()
	for i, name := range c.ParamNames() {
		value, err := url.PathUnescape(values[i])
		if err != nil || value == "" {
			return nil, fmt.Errorf("%q: %w", clean, ErrNoMatch)
		}
		params[name] = value
	}

	m := &Match{
		Route:  route,
		Path:   clean,
		Params: params,
		Props:  map[string]string{},
	}
	if route.Props {
		m.Props = params
	}
	return m, nil
}

// Navigate разрешает to, прогоняет хуки над doc и возвращает совпадение.
// Неразрешимый from считается nil. Если у to нет маршрута, хуки не запускаются.
func (r *Router) Navigate(ctx context.Context, to, from string, doc *Document) (*Match, error) {
	target, err := r.Resolve(to)
	if err != nil {
		return nil, err
	}

	var previous *Match
	if from != "" {
		previous, _ = r.Resolve(from)
	}

	r.mu.RLock()
	hooks := make([]Hook, len(r.hooks))
	copy(hooks, r.hooks)
	r.mu.RUnlock()

	for _, hook := range hooks {
		hook(ctx, target, previous, doc)
	}

	return target, nil
}

// URL путь именованного маршрута, значения параметров экранируются.
func (r *Router) URL(name string, params map[string]string) (string, error) {
	names, ok := r.params[name]
	if !ok {
		return "", fmt.Errorf("%q: %w", name, ErrUnknownRoute)
	}

	values := make([]any, 0, len(names))
	for _, param := range names {
		value, exists := params[param]
		if !exists || value == "" {
			return "", fmt.Errorf("route %q needs %q: %w", name, param, ErrMissingParam)
		}
		values = append(values, url.PathEscape(value))
	}
	return r.echo.Reverse(name, values...), nil
}

// Title заголовок страницы: prefix плюс title маршрута, или fallback, если m nil или без title.
func Title(prefix, fallback string, m *Match) string {
	if m == nil || m.Route.Meta.Title == "" {
		return prefix + fallback
	}
	return prefix + m.Route.Meta.Title
}

// TitleHook выставляет заголовок документа на каждой навигации.
func TitleHook(prefix, fallback string) Hook {
	return func(_ context.Context, to, _ *Match, doc *Document) {
		doc.Title = Title(prefix, fallback, to)
	}
}

// compile проверяет шаблон и возвращает имена параметров и ключ для поиска затенения.
func compile(pattern string) ([]string, string, error) {
	if !strings.HasPrefix(pattern, pathSeparator) {
		return nil, "", fmt.Errorf("%q must start with %q: %w", pattern, pathSeparator, ErrInvalidPattern)
	}

	parts := splitPath(pattern)
	names := make([]string, 0, len(parts))
	keyParts := make([]string, 0, len(parts))
	seen := map[string]bool{}
	for _, part := range parts {
		if part == "" {
			return nil, "", fmt.Errorf("%q has an empty segment: %w", pattern, ErrInvalidPattern)
		}
		if !strings.HasPrefix(part, paramPrefix) {
			keyParts = append(keyParts, part)
			continue
		}
		name := strings.TrimPrefix(part, paramPrefix)
		if name == "" || seen[name] {
			return nil, "", fmt.Errorf("%q has a bad parameter %q: %w", pattern, part, ErrInvalidPattern)
		}
		seen[name] = true
		names = append(names, name)
		keyParts = append(keyParts, paramPrefix)
	}
	return names, pathSeparator + strings.Join(keyParts, pathSeparator), nil
}

func cleanPath(path string) string {
	if idx := strings.IndexAny(path, querySymbols); idx >= 0 {
		path = path[:idx]
	}
	if !strings.HasPrefix(path, pathSeparator) {
		path = pathSeparator + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, pathSeparator)
		if path == "" {
			path = pathSeparator
		}
	}
	return path
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, pathSeparator)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, pathSeparator)
}
